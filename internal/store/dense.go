package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var denseBucket = []byte("documents")

// Embedder turns texts into vectors. The OpenAI-backed implementation lives
// in internal/embed; tests inject a deterministic one.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// denseDocument is the bbolt row format for the dense store.
type denseDocument struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata"`
	Embedding []float32      `json:"embedding"`
}

// DenseStore is the embedding-based retrieval backend. Documents and their
// embeddings are persisted in bbolt; search is cosine similarity against
// the in-memory corpus. Scores are cosine similarities, not BM25 scores.
type DenseStore struct {
	db       *bbolt.DB
	embedder Embedder
	log      *slog.Logger

	mu   sync.RWMutex
	docs []denseDocument
}

// OpenDense opens (creating if needed) the bbolt file at path and loads the
// existing corpus.
func OpenDense(path string, embedder Embedder, log *slog.Logger) (*DenseStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(denseBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	s := &DenseStore{db: db, embedder: embedder, log: log}
	if err := s.reload(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// reload reads the whole bucket back into memory. Bucket iteration is
// key-ordered, which is stable across reloads.
func (s *DenseStore) reload() error {
	var docs []denseDocument
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(denseBucket).ForEach(func(_, v []byte) error {
			var doc denseDocument
			if err := json.Unmarshal(v, &doc); err != nil {
				return err
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()

	if s.log != nil {
		s.log.Debug("dense corpus reloaded", "documents", len(docs))
	}
	return nil
}

// AddTexts embeds and persists each text with a fresh UUID. The batch is
// written in a single bbolt transaction.
func (s *DenseStore) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any) ([]string, error) {
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, ErrLengthMismatch
	}
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed texts: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	ids := make([]string, 0, len(texts))
	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(denseBucket)
		for i, text := range texts {
			metadata := map[string]any{}
			if metadatas != nil && metadatas[i] != nil {
				metadata = metadatas[i]
			}
			doc := denseDocument{
				ID:        uuid.NewString(),
				Text:      text,
				Metadata:  metadata,
				Embedding: embeddings[i],
			}
			data, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(doc.ID), data); err != nil {
				return err
			}
			ids = append(ids, doc.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store documents: %w", err)
	}

	if err := s.reload(); err != nil {
		return nil, err
	}
	return ids, nil
}

// SimilaritySearch embeds the query and returns the top k documents by
// cosine similarity.
func (s *DenseStore) SimilaritySearch(ctx context.Context, query string, k int) ([]Result, error) {
	if k < 0 {
		return nil, ErrNegativeK
	}

	s.mu.RLock()
	docs := s.docs
	s.mu.RUnlock()

	if len(docs) == 0 || k == 0 {
		return nil, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vectors))
	}
	queryVec := vectors[0]

	scores := make([]float64, len(docs))
	for i, doc := range docs {
		scores[i] = cosineSimilarity(queryVec, doc.Embedding)
	}

	order := make([]int, len(docs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	if k < len(order) {
		order = order[:k]
	}

	results := make([]Result, 0, len(order))
	for _, i := range order {
		results = append(results, Result{
			ID:       docs[i].ID,
			Text:     docs[i].Text,
			Metadata: docs[i].Metadata,
			Score:    scores[i],
		})
	}
	return results, nil
}

// Delete removes the given IDs. bbolt treats missing keys as a no-op.
func (s *DenseStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(denseBucket)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	return s.reload()
}

func (s *DenseStore) Close() error {
	return s.db.Close()
}

// cosineSimilarity returns a value in [-1, 1]; 1 means identical direction.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
