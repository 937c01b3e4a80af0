// Package vocabulary holds the canonical skill vocabulary and its embeddings.
package vocabulary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
)

// Embedder turns texts into embedding vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Vocabulary is an immutable list of skills with unit-length embeddings.
type Vocabulary struct {
	model   string
	names   []string
	vectors [][]float32
	index   map[string]int
}

func newVocabulary(model string, names []string, vectors [][]float32) *Vocabulary {
	v := &Vocabulary{
		model:   model,
		names:   names,
		vectors: vectors,
		index:   make(map[string]int, len(names)),
	}
	for i, name := range names {
		v.index[name] = i
	}
	return v
}

func (v *Vocabulary) Len() int { return len(v.names) }

func (v *Vocabulary) Model() string { return v.model }

// Digest identifies the embedding model and the exact skill list.
func (v *Vocabulary) Digest() string {
	h := sha256.New()
	h.Write([]byte(v.model))
	for _, name := range v.names {
		h.Write([]byte{0})
		h.Write([]byte(name))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Name returns the i-th skill.
func (v *Vocabulary) Name(i int) string { return v.names[i] }

// VectorAt returns the i-th skill embedding. Callers must not modify it.
func (v *Vocabulary) VectorAt(i int) []float32 { return v.vectors[i] }

// Vector looks a skill embedding up by name.
func (v *Vocabulary) Vector(name string) ([]float32, bool) {
	i, ok := v.index[name]
	if !ok {
		return nil, false
	}
	return v.vectors[i], true
}

// Normalize scales vec to unit length in place. Zero vectors are left as is.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, x := range vec {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return vec
	}
	norm := math.Sqrt(sum)
	for i, x := range vec {
		vec[i] = float32(float64(x) / norm)
	}
	return vec
}

// Dot is the cosine similarity of two unit vectors.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
