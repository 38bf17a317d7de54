package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Reality-Web-Services/rag-sqlite/internal/answer"
	"github.com/Reality-Web-Services/rag-sqlite/internal/api"
	"github.com/Reality-Web-Services/rag-sqlite/internal/config"
	"github.com/Reality-Web-Services/rag-sqlite/internal/pdf"
	"github.com/Reality-Web-Services/rag-sqlite/internal/rag"
	"github.com/Reality-Web-Services/rag-sqlite/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

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

	callLog, err := answer.NewCallLog(cfg.APILogDir, cfg.StoreType)
	if err != nil {
		log.Error("failed to create api call log", "error", err)
		os.Exit(1)
	}

	claude := answer.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	extractor := pdf.NewExtractor(cfg.PDFFallbackPdftotext, log)
	processor := rag.NewProcessor(vs, extractor, claude, callLog, cfg.StoreType, log)

	srv := api.NewServer(processor, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
	}()

	log.Info("starting rag server", "port", cfg.Port, "store", cfg.StoreType)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
