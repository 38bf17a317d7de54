package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id       TEXT PRIMARY KEY,
	text     TEXT,
	metadata TEXT,
	tokens   TEXT
)`

// document is one indexed text unit. Immutable once created; deletion
// removes it wholesale. Tokens are persisted so index rebuilds never
// re-tokenize.
type document struct {
	ID       string
	Text     string
	Metadata map[string]any
	Tokens   []string
}

// SQLiteStore is the lexical retrieval backend: documents persisted in a
// SQLite table, ranked with BM25. Every mutation reloads the full corpus
// from the database and rebuilds the ranking structure, so the queryable
// index is always derived from durable storage.
//
// Searches are safe to run concurrently with each other. Concurrent
// mutators must be serialized by the caller; the internal lock only
// guarantees that a search observes a fully built index.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger

	mu    sync.RWMutex
	docs  []document
	index *bm25Index
}

// OpenSQLite opens (creating if needed) the database at path and loads the
// existing corpus.
func OpenSQLite(path string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.reload(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// reload reads every row back from SQLite and rebuilds the BM25 index.
// Row order follows rowid, so corpus order is insertion order.
func (s *SQLiteStore) reload(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, metadata, tokens FROM documents ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	var docs []document
	var tokenized [][]string
	for rows.Next() {
		var doc document
		var metaJSON, tokensJSON string
		if err := rows.Scan(&doc.ID, &doc.Text, &metaJSON, &tokensJSON); err != nil {
			return fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &doc.Metadata); err != nil {
			return fmt.Errorf("decode metadata for %s: %w", doc.ID, err)
		}
		if err := json.Unmarshal([]byte(tokensJSON), &doc.Tokens); err != nil {
			return fmt.Errorf("decode tokens for %s: %w", doc.ID, err)
		}
		docs = append(docs, doc)
		tokenized = append(tokenized, doc.Tokens)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	s.mu.Lock()
	s.docs = docs
	s.index = newBM25(tokenized)
	s.mu.Unlock()

	if s.log != nil {
		s.log.Debug("index rebuilt", "documents", len(docs))
	}
	return nil
}

// AddTexts tokenizes and persists each text with a fresh UUID, then rebuilds
// the index. The batch is written in one transaction: either every text is
// indexed or none are.
func (s *SQLiteStore) AddTexts(ctx context.Context, texts []string, metadatas []map[string]any) ([]string, error) {
	if metadatas != nil && len(metadatas) != len(texts) {
		return nil, ErrLengthMismatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]string, 0, len(texts))
	for i, text := range texts {
		metadata := map[string]any{}
		if metadatas != nil && metadatas[i] != nil {
			metadata = metadatas[i]
		}
		metaJSON, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		tokensJSON, err := json.Marshal(tokenize(text))
		if err != nil {
			return nil, fmt.Errorf("encode tokens: %w", err)
		}

		id := uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, text, metadata, tokens) VALUES (?, ?, ?, ?)`,
			id, text, string(metaJSON), string(tokensJSON),
		); err != nil {
			return nil, fmt.Errorf("insert document: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit documents: %w", err)
	}

	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// SimilaritySearch ranks the corpus against the query with BM25 and returns
// the top k documents by descending score. Ties keep corpus order.
func (s *SQLiteStore) SimilaritySearch(ctx context.Context, query string, k int) ([]Result, error) {
	if k < 0 {
		return nil, ErrNegativeK
	}

	s.mu.RLock()
	docs, index := s.docs, s.index
	s.mu.RUnlock()

	if index == nil || k == 0 {
		return nil, nil
	}

	scores := index.scores(tokenize(query))

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

// Delete removes the given IDs and rebuilds the index. IDs that are not
// present are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id IN (`+placeholders+`)`, args...,
	); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	return s.reload(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
