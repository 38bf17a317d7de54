package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// fakeEmbedder maps texts onto a tiny keyword-presence vector so cosine
// similarity is deterministic in tests.
type fakeEmbedder struct {
	keywords []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, len(f.keywords))
		lower := strings.ToLower(text)
		for j, kw := range f.keywords {
			if strings.Contains(lower, kw) {
				v[j] = 1
			}
		}
		out[i] = v
	}
	return out, nil
}

func newTestDenseStore(t *testing.T) *DenseStore {
	t.Helper()
	emb := &fakeEmbedder{keywords: []string{"cat", "dog", "market", "weather"}}
	s, err := OpenDense(filepath.Join(t.TempDir(), "dense.db"), emb, nil)
	if err != nil {
		t.Fatalf("open dense store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDense_EmptyCorpus(t *testing.T) {
	s := newTestDenseStore(t)

	results, err := s.SimilaritySearch(context.Background(), "cat", 4)
	if err != nil {
		t.Fatalf("search on empty corpus: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestDense_LengthMismatch(t *testing.T) {
	s := newTestDenseStore(t)

	_, err := s.AddTexts(context.Background(), []string{"a", "b"}, []map[string]any{{"k": "v"}})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestDense_SearchRanksByCosine(t *testing.T) {
	s := newTestDenseStore(t)
	ctx := context.Background()

	_, err := s.AddTexts(ctx, []string{
		"the cat slept all day",
		"the market opened lower",
		"cat and dog play together",
	}, nil)
	if err != nil {
		t.Fatalf("add texts: %v", err)
	}

	results, err := s.SimilaritySearch(ctx, "a sleepy cat", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if !strings.Contains(results[0].Text, "cat slept") {
		t.Errorf("expected the pure cat document first, got %q", results[0].Text)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not sorted by descending score: %v", results)
	}
}

func TestDense_DeleteRemovesDocument(t *testing.T) {
	s := newTestDenseStore(t)
	ctx := context.Background()

	ids, err := s.AddTexts(ctx, []string{"dog walking tips", "market analysis"}, nil)
	if err != nil {
		t.Fatalf("add texts: %v", err)
	}

	if err := s.Delete(ctx, []string{ids[0], "never-existed"}); err != nil {
		t.Fatalf("delete: %v", err)
	}

	results, err := s.SimilaritySearch(ctx, "dog", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if r.ID == ids[0] {
			t.Errorf("deleted document still returned: %+v", r)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	if got := cosineSimilarity(a, a); got < 0.999 {
		t.Errorf("identical vectors should score ~1, got %f", got)
	}
	if got := cosineSimilarity(a, []float32{0, 1, 0}); got != 0 {
		t.Errorf("orthogonal vectors should score 0, got %f", got)
	}
	if got := cosineSimilarity(a, []float32{0, 0}); got != 0 {
		t.Errorf("mismatched lengths should score 0, got %f", got)
	}
}
