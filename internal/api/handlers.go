package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Reality-Web-Services/rag-sqlite/internal/pdf"
	"github.com/Reality-Web-Services/rag-sqlite/internal/rag"
)

func (s *Server) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !pdf.IsPDF(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	metadata := map[string]any{}
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			jsonError(w, "invalid metadata json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if title := r.FormValue("title"); title != "" {
		metadata["title"] = title
	}
	if author := r.FormValue("author"); author != "" {
		metadata["author"] = author
	}

	// The PDF reader wants a seekable file, so spool the upload to disk.
	tmp, err := os.CreateTemp("", "rag-upload-*.pdf")
	if err != nil {
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, io.LimitReader(file, s.cfg.MaxUploadBytes+1)); err != nil {
		tmp.Close()
		jsonError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	tmp.Close()

	if info, err := os.Stat(tmpPath); err == nil && info.Size() > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	// Record the original filename, not the temp path.
	metadata["file_name"] = filename

	ids, err := s.rag.AddDocument(r.Context(), tmpPath, metadata)
	if err != nil {
		if errors.Is(err, rag.ErrUnsupportedFile) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("add document failed", "file", filename, "error", err)
		jsonError(w, "failed to index document", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"file":     filename,
		"sections": len(ids),
		"ids":      ids,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
		K        int    `json:"k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		jsonError(w, "question is required", http.StatusBadRequest)
		return
	}
	if req.K < 0 {
		jsonError(w, "k must be non-negative", http.StatusBadRequest)
		return
	}
	if req.K == 0 {
		req.K = s.cfg.TopK
	}

	result, err := s.rag.Query(r.Context(), req.Question, req.K)
	if err != nil {
		s.log.Error("query failed", "error", err)
		jsonError(w, "error processing query", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.rag.Delete(r.Context(), req.IDs); err != nil {
		s.log.Error("delete failed", "error", err)
		jsonError(w, "failed to delete documents", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
