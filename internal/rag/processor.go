// Package rag stitches extraction, splitting, indexing and answer
// generation into the ingestion and query pipelines.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Reality-Web-Services/rag-sqlite/internal/answer"
	"github.com/Reality-Web-Services/rag-sqlite/internal/pdf"
	"github.com/Reality-Web-Services/rag-sqlite/internal/splitter"
	"github.com/Reality-Web-Services/rag-sqlite/internal/store"
)

// ErrUnsupportedFile is returned when a non-PDF path is submitted for
// ingestion.
var ErrUnsupportedFile = errors.New("only PDF files are supported")

// NoAnswerMessage is returned when retrieval finds nothing relevant; no
// answer-generation call is made in that case.
const NoAnswerMessage = "I couldn't find any relevant information to answer your question."

// PageSource supplies per-page text for a document. Extraction failures
// surface as an empty mapping, not an error.
type PageSource interface {
	Extract(path string) map[int]string
}

// Generator produces an answer from retrieved context and a question.
type Generator interface {
	Generate(ctx context.Context, contextText, question string) (string, error)
}

// QueryResult is the answer plus the ranked sources it was built from.
type QueryResult struct {
	Answer  string         `json:"answer"`
	Sources []store.Result `json:"sources"`
}

// Processor is the retrieval orchestrator: it owns ingestion (extract,
// split, index) and querying (search, answer).
type Processor struct {
	store     store.VectorStore
	pages     PageSource
	generator Generator
	callLog   *answer.CallLog
	storeName string
	log       *slog.Logger
}

func NewProcessor(st store.VectorStore, pages PageSource, gen Generator, callLog *answer.CallLog, storeName string, log *slog.Logger) *Processor {
	return &Processor{
		store:     st,
		pages:     pages,
		generator: gen,
		callLog:   callLog,
		storeName: storeName,
		log:       log,
	}
}

// AddDocument extracts and splits the PDF at path, merges section metadata
// into the caller's metadata, and indexes one document per section. Section
// fields (file_path, header, start_page) win on key collisions. Returns the
// IDs assigned to the stored sections.
func (p *Processor) AddDocument(ctx context.Context, path string, metadata map[string]any) ([]string, error) {
	if !pdf.IsPDF(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}

	pages := p.pages.Extract(path)
	sections := splitter.Split(pages)
	if len(sections) == 0 {
		p.log.Warn("document produced no sections", "path", path)
		return nil, nil
	}

	texts := make([]string, 0, len(sections))
	metadatas := make([]map[string]any, 0, len(sections))
	for _, section := range sections {
		merged := make(map[string]any, len(metadata)+3)
		for k, v := range metadata {
			merged[k] = v
		}
		merged["file_path"] = path
		merged["header"] = section.Header
		merged["start_page"] = section.StartPage

		texts = append(texts, section.Content)
		metadatas = append(metadatas, merged)
	}

	ids, err := p.store.AddTexts(ctx, texts, metadatas)
	if err != nil {
		return nil, fmt.Errorf("index sections: %w", err)
	}
	p.log.Info("document added", "path", path, "sections", len(ids))
	return ids, nil
}

// Query retrieves the top k sections for the question and asks the answer
// service to respond from them. With no hits it returns NoAnswerMessage and
// makes no upstream call. Upstream failures propagate to the caller.
func (p *Processor) Query(ctx context.Context, question string, k int) (*QueryResult, error) {
	results, err := p.store.SimilaritySearch(ctx, question, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	if len(results) == 0 {
		return &QueryResult{Answer: NoAnswerMessage, Sources: []store.Result{}}, nil
	}

	contextText := buildContext(results)
	answerText, err := p.generator.Generate(ctx, contextText, question)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	if err := p.callLog.Record(answer.CallRecord{
		Store:    p.storeName,
		Question: question,
		Prompt:   answer.BuildPrompt(contextText, question),
		Answer:   answerText,
	}); err != nil {
		p.log.Warn("failed to record api call", "error", err)
	}

	return &QueryResult{Answer: answerText, Sources: results}, nil
}

// Delete removes indexed sections by ID.
func (p *Processor) Delete(ctx context.Context, ids []string) error {
	return p.store.Delete(ctx, ids)
}

// buildContext concatenates each hit under a header line, in ranked order.
func buildContext(results []store.Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		header := "Section"
		if h, ok := r.Metadata["header"].(string); ok && h != "" {
			header = h
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s", header, r.Text))
	}
	return strings.Join(parts, "\n\n")
}
