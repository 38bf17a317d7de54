// Command query runs the interactive question-answering session.
package main

import (
	"flag"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Reality-Web-Services/rag-sqlite/internal/answer"
	"github.com/Reality-Web-Services/rag-sqlite/internal/config"
	"github.com/Reality-Web-Services/rag-sqlite/internal/pdf"
	"github.com/Reality-Web-Services/rag-sqlite/internal/rag"
	"github.com/Reality-Web-Services/rag-sqlite/internal/store"
	"github.com/Reality-Web-Services/rag-sqlite/internal/tui"
)

func main() {
	topK := flag.Int("k", 0, "number of sections to retrieve (default from config)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Load .env if present (for API keys).
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *topK <= 0 {
		*topK = cfg.TopK
	}

	vs, err := store.Open(cfg, log)
	if err != nil {
		log.Error("failed to open vector store", "store", cfg.StoreType, "error", err)
		os.Exit(1)
	}
	defer vs.Close()

	callLog, err := answer.NewCallLog(cfg.APILogDir, cfg.StoreType)
	if err != nil {
		log.Error("failed to create api call log", "error", err)
		os.Exit(1)
	}

	claude := answer.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	defer claude.Close()
	extractor := pdf.NewExtractor(cfg.PDFFallbackPdftotext, log)
	processor := rag.NewProcessor(vs, extractor, claude, callLog, cfg.StoreType, log)

	m := tui.New(processor, *topK)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Error("tui error", "error", err)
		os.Exit(1)
	}
}
