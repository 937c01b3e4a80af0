package semantic

import (
	"context"
	"hash/fnv"

	"github.com/spigell/resume-matcher/internal/textnorm"
	"github.com/spigell/resume-matcher/internal/vocabulary"
)

const defaultHashingDims = 512

// HashingEmbedder is an offline embedder built from hashed character
// trigrams and whole tokens. It captures spelling overlap only, not meaning.
type HashingEmbedder struct {
	dims int
}

func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = defaultHashingDims
	}
	return &HashingEmbedder{dims: dims}
}

func (h *HashingEmbedder) Model() string { return "hashing-trigram" }

func (h *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h *HashingEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.dims)
	for _, tok := range textnorm.Tokens(textnorm.Normalize(text)) {
		vec[h.bucket("w:"+tok)] += 2

		padded := "^" + tok + "$"
		for i := 0; i+3 <= len(padded); i++ {
			vec[h.bucket(padded[i:i+3])]++
		}
	}
	return vocabulary.Normalize(vec)
}

func (h *HashingEmbedder) bucket(feature string) int {
	hash := fnv.New32a()
	hash.Write([]byte(feature))
	return int(hash.Sum32() % uint32(h.dims))
}
