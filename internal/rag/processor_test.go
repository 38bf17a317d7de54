package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Reality-Web-Services/rag-sqlite/internal/store"
)

type fakePages struct {
	pages map[int]string
}

func (f *fakePages) Extract(string) map[int]string { return f.pages }

type fakeStore struct {
	texts     []string
	metadatas []map[string]any
	results   []store.Result
	searchErr error
	deleted   []string
}

func (f *fakeStore) AddTexts(_ context.Context, texts []string, metadatas []map[string]any) ([]string, error) {
	f.texts = texts
	f.metadatas = metadatas
	ids := make([]string, len(texts))
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	return ids, nil
}

func (f *fakeStore) SimilaritySearch(context.Context, string, int) ([]store.Result, error) {
	return f.results, f.searchErr
}

func (f *fakeStore) Delete(_ context.Context, ids []string) error {
	f.deleted = ids
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeGenerator struct {
	answer      string
	err         error
	gotContext  string
	gotQuestion string
	calls       int
}

func (f *fakeGenerator) Generate(_ context.Context, contextText, question string) (string, error) {
	f.calls++
	f.gotContext = contextText
	f.gotQuestion = question
	return f.answer, f.err
}

func newTestProcessor(st store.VectorStore, pages PageSource, gen Generator) *Processor {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProcessor(st, pages, gen, nil, "sqlite", log)
}

func TestAddDocument_RejectsNonPDF(t *testing.T) {
	p := newTestProcessor(&fakeStore{}, &fakePages{}, &fakeGenerator{})

	_, err := p.AddDocument(context.Background(), "notes.txt", nil)
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Fatalf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestAddDocument_MergesSectionMetadata(t *testing.T) {
	st := &fakeStore{}
	pages := &fakePages{pages: map[int]string{
		0: "Chapter 2: Results\nthe findings were conclusive",
	}}
	p := newTestProcessor(st, pages, &fakeGenerator{})

	ids, err := p.AddDocument(context.Background(), "paper.pdf", map[string]any{"title": "T", "header": "caller-value"})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 id, got %d", len(ids))
	}
	if len(st.metadatas) != 1 {
		t.Fatalf("expected 1 metadata, got %d", len(st.metadatas))
	}

	meta := st.metadatas[0]
	if meta["title"] != "T" {
		t.Errorf("caller metadata lost: %v", meta)
	}
	if meta["header"] != "Chapter 2: Results" {
		t.Errorf("section header should override caller value, got %v", meta["header"])
	}
	if meta["file_path"] != "paper.pdf" {
		t.Errorf("expected file_path paper.pdf, got %v", meta["file_path"])
	}
	if meta["start_page"] != 0 {
		t.Errorf("expected start_page 0, got %v", meta["start_page"])
	}
}

func TestAddDocument_EmptyExtractionYieldsNoSections(t *testing.T) {
	st := &fakeStore{}
	p := newTestProcessor(st, &fakePages{pages: map[int]string{}}, &fakeGenerator{})

	ids, err := p.AddDocument(context.Background(), "broken.pdf", nil)
	if err != nil {
		t.Fatalf("empty extraction should not error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no ids, got %v", ids)
	}
	if st.texts != nil {
		t.Errorf("store should not be called with zero sections")
	}
}

func TestQuery_NoResultsSkipsGenerator(t *testing.T) {
	gen := &fakeGenerator{answer: "should not be used"}
	p := newTestProcessor(&fakeStore{}, &fakePages{}, gen)

	res, err := p.Query(context.Background(), "anything?", 4)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Answer != NoAnswerMessage {
		t.Errorf("expected no-answer message, got %q", res.Answer)
	}
	if len(res.Sources) != 0 {
		t.Errorf("expected no sources, got %v", res.Sources)
	}
	if gen.calls != 0 {
		t.Errorf("generator should not be called with no results, got %d calls", gen.calls)
	}
}

func TestQuery_BuildsContextAndReturnsSources(t *testing.T) {
	hits := []store.Result{
		{ID: "1", Text: "value functions estimate returns", Metadata: map[string]any{"header": "Chapter 3: Value Functions"}, Score: 4.2},
		{ID: "2", Text: "policies map states to actions", Metadata: map[string]any{}, Score: 1.1},
	}
	gen := &fakeGenerator{answer: "the answer"}
	p := newTestProcessor(&fakeStore{results: hits}, &fakePages{}, gen)

	res, err := p.Query(context.Background(), "what is a value function?", 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Answer != "the answer" {
		t.Errorf("expected generator answer, got %q", res.Answer)
	}
	if len(res.Sources) != 2 || res.Sources[0].ID != "1" || res.Sources[1].ID != "2" {
		t.Errorf("sources should pass through unchanged: %+v", res.Sources)
	}

	if !strings.Contains(gen.gotContext, "[Chapter 3: Value Functions]\nvalue functions estimate returns") {
		t.Errorf("context missing headed excerpt:\n%s", gen.gotContext)
	}
	if !strings.Contains(gen.gotContext, "[Section]\npolicies map states to actions") {
		t.Errorf("context should fall back to the Section header:\n%s", gen.gotContext)
	}
	if gen.gotQuestion != "what is a value function?" {
		t.Errorf("question not forwarded: %q", gen.gotQuestion)
	}
}

func TestQuery_GeneratorErrorPropagates(t *testing.T) {
	hits := []store.Result{{ID: "1", Text: "text", Metadata: map[string]any{}, Score: 1}}
	gen := &fakeGenerator{err: errors.New("upstream down")}
	p := newTestProcessor(&fakeStore{results: hits}, &fakePages{}, gen)

	_, err := p.Query(context.Background(), "q", 1)
	if err == nil || !strings.Contains(err.Error(), "upstream down") {
		t.Fatalf("expected upstream error to propagate, got %v", err)
	}
}

func TestDelete_DelegatesToStore(t *testing.T) {
	st := &fakeStore{}
	p := newTestProcessor(st, &fakePages{}, &fakeGenerator{})

	if err := p.Delete(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(st.deleted) != 2 {
		t.Errorf("expected delete to reach the store, got %v", st.deleted)
	}
}
