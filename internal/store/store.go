// Package store provides the vector store abstraction used by the retrieval
// pipeline, plus its two backends: a lexical BM25 index persisted in SQLite
// and a dense-embedding index persisted in bbolt.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Reality-Web-Services/rag-sqlite/internal/config"
	"github.com/Reality-Web-Services/rag-sqlite/internal/embed"
)

var (
	// ErrLengthMismatch is returned when metadatas is non-nil and does not
	// match texts in length. This is a caller error, never retried.
	ErrLengthMismatch = errors.New("texts and metadatas must have the same length")

	// ErrNegativeK is returned for a negative result count.
	ErrNegativeK = errors.New("k must be non-negative")
)

// Result is a single similarity-search hit.
//
// Score semantics depend on the backend: the SQLite store returns raw BM25
// scores (unbounded, non-negative), the dense store returns cosine
// similarity. The two scales are not comparable.
type Result struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// VectorStore is the contract every retrieval backend satisfies. The
// orchestrator depends only on this interface.
type VectorStore interface {
	// AddTexts indexes the given texts and returns their newly assigned IDs.
	// metadatas may be nil; otherwise it must match texts in length.
	AddTexts(ctx context.Context, texts []string, metadatas []map[string]any) ([]string, error)

	// SimilaritySearch returns up to k results ranked by descending score.
	// An empty corpus yields an empty result, not an error.
	SimilaritySearch(ctx context.Context, query string, k int) ([]Result, error)

	// Delete removes documents by ID. Unknown IDs are silently ignored.
	Delete(ctx context.Context, ids []string) error

	Close() error
}

// Open builds the vector store selected by VECTOR_STORE_TYPE.
func Open(cfg config.Config, log *slog.Logger) (VectorStore, error) {
	switch cfg.StoreType {
	case "sqlite":
		return OpenSQLite(cfg.DBPath, log)
	case "dense":
		embedder := embed.NewOpenAI(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		return OpenDense(cfg.DensePath, embedder, log)
	default:
		return nil, fmt.Errorf("unknown store type: %q", cfg.StoreType)
	}
}
