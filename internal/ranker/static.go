package ranker

import (
	"bufio"
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// WordVectors is a word-embedding table loaded from a text file with one
// "word f1 f2 ... fd" entry per line. Vectors are unit-normalised on load.
type WordVectors struct {
	dim   int
	words map[string][]float32
}

// LoadWordVectors reads a word-vector text file. An optional word2vec
// "count dim" header line is skipped.
func LoadWordVectors(path string) (*WordVectors, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wv := &WordVectors{words: make(map[string][]float32)}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				continue
			}
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: no vector components", path, lineNo)
		}
		vec := make([]float32, len(fields)-1)
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
			}
			vec[i] = float32(v)
		}
		if wv.dim == 0 {
			wv.dim = len(vec)
		} else if len(vec) != wv.dim {
			return nil, fmt.Errorf("%s:%d: dimension %d, expected %d", path, lineNo, len(vec), wv.dim)
		}
		normalize(vec)
		wv.words[strings.ToLower(fields[0])] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(wv.words) == 0 {
		return nil, fmt.Errorf("%s: no word vectors", path)
	}
	return wv, nil
}

// Dim returns the vector dimension.
func (wv *WordVectors) Dim() int { return wv.dim }

// Len returns the vocabulary size.
func (wv *WordVectors) Len() int { return len(wv.words) }

// Vector returns the vector for a token. Unknown tokens get a deterministic
// pseudo-random unit vector seeded from the token, so identical unknown
// words still match each other.
func (wv *WordVectors) Vector(token string) []float32 {
	if v, ok := wv.words[token]; ok {
		return v
	}
	h := fnv.New64a()
	h.Write([]byte(token))
	rng := rand.New(rand.NewPCG(h.Sum64(), 0x9e3779b97f4a7c15))
	v := make([]float32, wv.dim)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	normalize(v)
	return v
}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "its": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "this": true, "to": true, "was": true, "with": true,
	"task": true,
}

// Tokenize lower-cases text and splits it into letter/digit runs, dropping
// stopwords.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// StaticEncoder embeds text as the normalised mean of its word vectors.
type StaticEncoder struct {
	vecs *WordVectors
	name string
}

func NewStaticEncoder(vecs *WordVectors, name string) *StaticEncoder {
	return &StaticEncoder{vecs: vecs, name: name}
}

func (e *StaticEncoder) Name() string { return e.name }

func (e *StaticEncoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *StaticEncoder) embed(text string) []float32 {
	v := make([]float32, e.vecs.dim)
	for _, tok := range Tokenize(text) {
		for i, x := range e.vecs.Vector(tok) {
			v[i] += x
		}
	}
	normalize(v)
	return v
}

// StaticCrossEncoder scores a (query, passage) pair jointly: for each query
// token it takes the best cosine match among the passage tokens, averages
// those, and adds a bonus for exact token overlap.
type StaticCrossEncoder struct {
	vecs *WordVectors
	name string
}

func NewStaticCrossEncoder(vecs *WordVectors, name string) *StaticCrossEncoder {
	return &StaticCrossEncoder{vecs: vecs, name: name}
}

func (c *StaticCrossEncoder) Name() string { return c.name }

func (c *StaticCrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	qTokens := unique(Tokenize(query))
	out := make([]float64, len(passages))
	for i, p := range passages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = c.pairScore(qTokens, unique(Tokenize(p)))
	}
	return out, nil
}

// pairScore maps MaxSim in [-1,1] and overlap in [0,1] to a logit-like scale.
func (c *StaticCrossEncoder) pairScore(q, p []string) float64 {
	if len(q) == 0 || len(p) == 0 {
		return -10
	}
	pVecs := make([][]float32, len(p))
	pSet := make(map[string]bool, len(p))
	for i, tok := range p {
		pVecs[i] = c.vecs.Vector(tok)
		pSet[tok] = true
	}

	var simSum float64
	overlap := 0
	for _, tok := range q {
		qv := c.vecs.Vector(tok)
		best := -1.0
		for _, pv := range pVecs {
			if s := dot(qv, pv); s > best {
				best = s
			}
		}
		simSum += best
		if pSet[tok] {
			overlap++
		}
	}
	maxSim := simSum / float64(len(q))
	return 8*maxSim + 2*float64(overlap)/float64(len(q)) - 4
}

func unique(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= inv
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Cosine returns the cosine similarity of a and b, or 0 if either is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var ab, aa, bb float64
	for i := range a {
		ab += float64(a[i]) * float64(b[i])
		aa += float64(a[i]) * float64(a[i])
		bb += float64(b[i]) * float64(b[i])
	}
	if aa == 0 || bb == 0 {
		return 0
	}
	return ab / (math.Sqrt(aa) * math.Sqrt(bb))
}
