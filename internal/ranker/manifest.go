package ranker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is the model descriptor expected in a model directory.
const ManifestFile = "models.json"

// ModelSpec describes one model backend.
type ModelSpec struct {
	Backend string `json:"backend"` // "static" or "http"
	Path    string `json:"path,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
}

// Manifest is the decoded models.json.
type Manifest struct {
	Embedding    ModelSpec `json:"embedding"`
	CrossEncoder ModelSpec `json:"cross_encoder"`
}

// Load reads dir/models.json and builds both models. Any missing or
// unusable artifact yields an error wrapping ErrUnavailable.
func Load(dir string, opts Options) (*Ranker, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: model dir: %v", ErrUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrUnavailable, dir)
	}

	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, ManifestFile, err)
	}

	// Both static models usually share one vectors file.
	loaded := make(map[string]*WordVectors)
	wordVectors := func(ms ModelSpec) (*WordVectors, error) {
		if ms.Path == "" {
			return nil, fmt.Errorf("%w: static backend needs a path", ErrUnavailable)
		}
		p := ms.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if wv, ok := loaded[p]; ok {
			return wv, nil
		}
		wv, err := LoadWordVectors(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		loaded[p] = wv
		return wv, nil
	}

	var enc Encoder
	switch m.Embedding.Backend {
	case "static":
		wv, err := wordVectors(m.Embedding)
		if err != nil {
			return nil, err
		}
		enc = NewStaticEncoder(wv, "static:"+filepath.Base(m.Embedding.Path))
	case "http":
		if m.Embedding.BaseURL == "" {
			return nil, fmt.Errorf("%w: http embedding backend needs base_url", ErrUnavailable)
		}
		enc = NewHTTPEncoder(m.Embedding.BaseURL, m.Embedding.APIKey, m.Embedding.Model)
	default:
		return nil, fmt.Errorf("%w: unknown embedding backend %q", ErrUnavailable, m.Embedding.Backend)
	}

	var ce CrossEncoder
	switch m.CrossEncoder.Backend {
	case "static":
		wv, err := wordVectors(m.CrossEncoder)
		if err != nil {
			return nil, err
		}
		ce = NewStaticCrossEncoder(wv, "static-maxsim:"+filepath.Base(m.CrossEncoder.Path))
	case "http":
		if m.CrossEncoder.BaseURL == "" {
			return nil, fmt.Errorf("%w: http cross_encoder backend needs base_url", ErrUnavailable)
		}
		ce = NewHTTPCrossEncoder(m.CrossEncoder.BaseURL, m.CrossEncoder.APIKey, m.CrossEncoder.Model)
	default:
		return nil, fmt.Errorf("%w: unknown cross_encoder backend %q", ErrUnavailable, m.CrossEncoder.Backend)
	}

	return New(enc, ce, opts), nil
}
