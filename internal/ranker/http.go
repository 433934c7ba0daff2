package ranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// httpClient is the shared transport for OpenAI-compatible embedding and
// TEI-style rerank servers.
type httpClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

func newHTTPClient(baseURL, apiKey, model string) httpClient {
	return httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		backoff: Backoff,
	}
}

// post sends body as JSON and returns the response body, retrying
// transient failures up to MaxRetries times.
func (c *httpClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt - 1)
			slog.Warn("ranker: retrying model request",
				"url", url,
				"attempt", attempt,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		respBody, err := c.postOnce(ctx, url, data)
		if err == nil {
			return respBody, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *httpClient) postOnce(ctx context.Context, url string, data []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}
	return respBody, nil
}

// HTTPEncoder calls an OpenAI-compatible /v1/embeddings endpoint.
type HTTPEncoder struct {
	c httpClient
}

func NewHTTPEncoder(baseURL, apiKey, model string) *HTTPEncoder {
	return &HTTPEncoder{c: newHTTPClient(baseURL, apiKey, model)}
}

func (e *HTTPEncoder) Name() string { return "http:" + e.c.model }

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (e *HTTPEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	respBody, err := e.c.post(ctx, "/v1/embeddings", embeddingRequest{Model: e.c.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}

	var resp embeddingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	// Results may arrive out of order.
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(out) {
			out[d.Index] = d.Embedding
		}
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("embeddings: missing vector for input %d", i)
		}
	}
	return out, nil
}

// HTTPCrossEncoder calls a TEI-style /rerank endpoint.
type HTTPCrossEncoder struct {
	c httpClient
}

func NewHTTPCrossEncoder(baseURL, apiKey, model string) *HTTPCrossEncoder {
	return &HTTPCrossEncoder{c: newHTTPClient(baseURL, apiKey, model)}
}

func (c *HTTPCrossEncoder) Name() string { return "http:" + c.c.model }

type rerankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Texts     []string `json:"texts"`
	RawScores bool     `json:"raw_scores"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (c *HTTPCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return []float64{}, nil
	}
	respBody, err := c.c.post(ctx, "/rerank", rerankRequest{
		Model:     c.c.model,
		Query:     query,
		Texts:     passages,
		RawScores: true,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}

	var results []rerankResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	out := make([]float64, len(passages))
	seen := make([]bool, len(passages))
	for _, r := range results {
		if r.Index >= 0 && r.Index < len(out) {
			out[r.Index] = r.Score
			seen[r.Index] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("rerank: missing score for passage %d", i)
		}
	}
	return out, nil
}
