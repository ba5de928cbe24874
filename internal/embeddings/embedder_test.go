package embeddings

import (
	"context"
	"math"
	"testing"
)

func TestHashEmbedderIsDeterministic(t *testing.T) {
	e := NewHashEmbedder()

	first, err := e.Embed(context.Background(), "Streetlight broken near Chakrata Road")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	second, err := e.Embed(context.Background(), "Streetlight broken near Chakrata Road")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(first) != HashDimension {
		t.Fatalf("Expected dimension %d, got %d", HashDimension, len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Vectors differ at index %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestHashEmbedderNormalizes(t *testing.T) {
	e := NewHashEmbedder()

	vec, err := e.Embed(context.Background(), "pothole on the road")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1.0) > 1e-5 {
		t.Errorf("Expected unit norm, got %v", norm)
	}
}

func TestHashEmbedderCaseInsensitive(t *testing.T) {
	e := NewHashEmbedder()

	lower, _ := e.Embed(context.Background(), "garbage overflow")
	upper, _ := e.Embed(context.Background(), "GARBAGE Overflow")

	if Cosine(lower, upper) < 0.999 {
		t.Errorf("Expected case-insensitive embeddings, cosine = %v", Cosine(lower, upper))
	}
}

func TestHashEmbedderEmptyText(t *testing.T) {
	e := NewHashEmbedder()

	vec, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("Expected zero vector for empty text, index %d = %v", i, v)
		}
	}
}

func TestCosine(t *testing.T) {
	e := NewHashEmbedder()

	a, _ := e.Embed(context.Background(), "pothole road pothole")
	b, _ := e.Embed(context.Background(), "pothole road")

	if got := Cosine(a, a); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("Cosine(a, a) = %v, want 1", got)
	}
	if got := Cosine(a, b); got < 0.9 {
		t.Errorf("Expected high similarity for overlapping texts, got %v", got)
	}
	if got := Cosine(a, make([]float32, len(a))); got != 0 {
		t.Errorf("Cosine with zero vector = %v, want 0", got)
	}
	if got := Cosine(a, []float32{1, 2}); got != 0 {
		t.Errorf("Cosine with mismatched lengths = %v, want 0", got)
	}
}
