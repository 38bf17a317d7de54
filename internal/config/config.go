package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port string

	// Vector store selection: "sqlite" (lexical BM25) or "dense" (embeddings).
	StoreType string

	// Lexical store (SQLite).
	DBPath string

	// Dense store (bbolt + OpenAI embeddings).
	DensePath      string
	OpenAIAPIKey   string
	EmbeddingModel string

	// Answer generation
	AnthropicAPIKey string
	AnthropicModel  string

	// Auth for the HTTP API
	RAGAPIKey string

	// Query defaults
	TopK int

	// Upload limits
	MaxUploadBytes int64

	// API-call log directory. Empty disables logging.
	APILogDir string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		StoreType: envOr("VECTOR_STORE_TYPE", "sqlite"),
		DBPath:    envOr("SQLITE_DB_PATH", "vectors.db"),

		DensePath:      envOr("DENSE_DB_PATH", "dense.db"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		EmbeddingModel: envOr("EMBEDDING_MODEL", "text-embedding-3-small"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),

		RAGAPIKey: os.Getenv("RAG_API_KEY"),

		TopK: envInt("TOP_K", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		APILogDir: envOr("API_LOG_DIR", "logs"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.StoreType {
	case "sqlite":
	case "dense":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the dense store")
		}
	default:
		return fmt.Errorf("unknown VECTOR_STORE_TYPE: %q", c.StoreType)
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
