// Package embeddings provides the text embedders used for similarity
// search: a deterministic hash-based fallback and an Ollama-backed
// remote embedder.
package embeddings

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HashDimension is the vector length of the hash embedder.
const HashDimension = 128

// HashEmbedder produces a word-hash histogram: each lowercased token is
// hashed into one of HashDimension buckets and the result is
// L2-normalized. It is a cheap bag-of-words fingerprint, not a learned
// embedding, but it is fully deterministic and needs no external
// service. Cosine similarity over these vectors approximates token
// overlap.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a hash embedder with the default dimension.
func NewHashEmbedder() *HashEmbedder {
	return &HashEmbedder{dim: HashDimension}
}

// Embed never fails; the context is accepted for interface symmetry.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	for _, word := range tokenizeLower(text) {
		vec[hashWord(word)%uint32(e.dim)]++
	}
	normalize(vec)
	return vec, nil
}

func hashWord(word string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(word))
	return h.Sum32()
}

func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}

func tokenizeLower(text string) []string {
	var words []string
	var current []byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c >= 'A' && c <= 'Z':
			current = append(current, c+('a'-'A'))
		case (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9'):
			current = append(current, c)
		default:
			if len(current) > 0 {
				words = append(words, string(current))
				current = nil
			}
		}
	}
	if len(current) > 0 {
		words = append(words, string(current))
	}
	return words
}

// Cosine returns the cosine similarity of two vectors, 0 when lengths
// differ or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
