// Package pdf extracts per-page text from PDF files.
package pdf

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Extractor pulls text out of PDF files page by page. It tries the Go
// library first, then falls back to pdftotext if available.
type Extractor struct {
	FallbackPdftotext bool
	Log               *slog.Logger
}

func NewExtractor(fallback bool, log *slog.Logger) *Extractor {
	return &Extractor{FallbackPdftotext: fallback, Log: log}
}

// Extract returns a mapping of zero-based page number to extracted text.
// Pages with no extractable text are absent from the result. Extraction
// failures are logged and yield an empty mapping rather than an error, so
// a broken PDF degrades to an empty document downstream.
func (e *Extractor) Extract(path string) map[int]string {
	pages, err := extractPages(path)
	if err != nil && e.FallbackPdftotext {
		pages, err = extractPdftotext(path)
	}
	if err != nil {
		if e.Log != nil {
			e.Log.Error("pdf extraction failed", "path", path, "error", err)
		}
		return map[int]string{}
	}
	return pages
}

func extractPages(path string) (map[int]string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := make(map[int]string)
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

func extractPdftotext(path string) (map[int]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := make(map[int]string)
	for i, page := range strings.Split(string(out), "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		pages[i] = page
	}
	return pages, nil
}

// IsPDF reports whether the filename has a .pdf extension.
func IsPDF(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}
