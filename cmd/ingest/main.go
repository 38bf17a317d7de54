// Command ingest adds PDF documents to the configured vector store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/Reality-Web-Services/rag-sqlite/internal/answer"
	"github.com/Reality-Web-Services/rag-sqlite/internal/config"
	"github.com/Reality-Web-Services/rag-sqlite/internal/pdf"
	"github.com/Reality-Web-Services/rag-sqlite/internal/rag"
	"github.com/Reality-Web-Services/rag-sqlite/internal/store"
)

func main() {
	title := flag.String("title", "", "document title metadata")
	author := flag.String("author", "", "document author metadata")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: ingest [-title T] [-author A] file.pdf [file2.pdf ...]")
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Load .env if present (for API keys).
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	vs, err := store.Open(cfg, log)
	if err != nil {
		log.Error("failed to open vector store", "store", cfg.StoreType, "error", err)
		os.Exit(1)
	}
	defer vs.Close()

	claude := answer.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	defer claude.Close()
	extractor := pdf.NewExtractor(cfg.PDFFallbackPdftotext, log)
	processor := rag.NewProcessor(vs, extractor, claude, nil, cfg.StoreType, log)

	metadata := map[string]any{}
	if *title != "" {
		metadata["title"] = *title
	}
	if *author != "" {
		metadata["author"] = *author
	}

	ctx := context.Background()
	for _, path := range paths {
		ids, err := processor.AddDocument(ctx, path, metadata)
		if err != nil {
			log.Error("ingest failed", "path", path, "error", err)
			os.Exit(1)
		}
		fmt.Printf("Added %s with %d sections\n", path, len(ids))
	}
}
