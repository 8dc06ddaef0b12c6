package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/internal/services/llm"
)

// ScrapeRequest is the POST /api/scrape body.
type ScrapeRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// Validate validates the request using go-playground/validator.
func (req *ScrapeRequest) Validate() error {
	return validator.New().Struct(req)
}

// SummarizeRequest is the POST /api/notes/summarize body. Model is optional;
// empty selects the configured default provider.
type SummarizeRequest struct {
	URL   string `json:"url" validate:"required,url"`
	Model string `json:"model"`
}

// Validate validates the request using go-playground/validator.
func (req *SummarizeRequest) Validate() error {
	return validator.New().Struct(req)
}

// NoteHandler handles scrape, lookup, export and summarize requests.
type NoteHandler struct {
	noteService    interfaces.NoteService
	summaryService interfaces.SummaryService
	logger         arbor.ILogger
}

// NewNoteHandler creates a new NoteHandler. summaryService may be nil; the
// summarize endpoint then reports summarization as unconfigured.
func NewNoteHandler(noteService interfaces.NoteService, summaryService interfaces.SummaryService, logger arbor.ILogger) *NoteHandler {
	return &NoteHandler{
		noteService:    noteService,
		summaryService: summaryService,
		logger:         logger,
	}
}

// ScrapeHandler handles POST /api/scrape with optional ?force=true
func (h *NoteHandler) ScrapeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "url is required and must be a valid URL")
		return
	}

	force := r.URL.Query().Get("force") == "true"

	result, err := h.noteService.Scrape(r.Context(), req.URL, force)
	if err != nil {
		h.logger.Warn().Err(err).Str("url", req.URL).Msg("Scrape failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "success",
		"data":     result.Summary,
		"cached":   result.Cached,
		"strategy": result.Strategy,
	})
}

// GetNoteHandler handles GET /api/notes/{id}
func (h *NoteHandler) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := noteIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Note ID is required")
		return
	}

	note, err := h.noteService.GetCached(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoteNotFound) {
			WriteError(w, http.StatusNotFound, "Note not found")
			return
		}
		h.logger.Error().Err(err).Str("note_id", id).Msg("Note lookup failed")
		WriteError(w, http.StatusInternalServerError, "Failed to load note")
		return
	}

	WriteData(w, note)
}

// ExportNoteHandler handles GET /api/notes/{id}/export?format=markdown|pdf
func (h *NoteHandler) ExportNoteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := noteIDFromPath(r.URL.Path)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Note ID is required")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}

	note, err := h.noteService.GetCached(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNoteNotFound) {
			WriteError(w, http.StatusNotFound, "Note not found")
			return
		}
		h.logger.Error().Err(err).Str("note_id", id).Msg("Note lookup failed")
		WriteError(w, http.StatusInternalServerError, "Failed to load note")
		return
	}

	switch format {
	case "markdown":
		markdown := h.noteService.ExportMarkdown(&note.Summary)
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(markdown))
	case "pdf":
		data, err := h.noteService.ExportPDF(&note.Summary)
		if err != nil {
			h.logger.Error().Err(err).Str("note_id", id).Msg("PDF export failed")
			WriteError(w, http.StatusInternalServerError, "PDF rendering failed")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".pdf"))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	default:
		WriteError(w, http.StatusBadRequest, "Unsupported export format: "+format)
	}
}

// SummarizeHandler handles POST /api/notes/summarize
func (h *NoteHandler) SummarizeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, "url is required and must be a valid URL")
		return
	}

	if h.summaryService == nil || !h.summaryService.Enabled() {
		WriteError(w, http.StatusBadRequest, "Summarization is not configured, set an LLM API key")
		return
	}

	result, err := h.noteService.Scrape(r.Context(), req.URL, false)
	if err != nil {
		h.logger.Warn().Err(err).Str("url", req.URL).Msg("Scrape failed during summarize")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.summaryService.Summarize(r.Context(), result.Summary, req.Model)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("url", req.URL).Msg("Summarization failed")
		WriteError(w, http.StatusInternalServerError, "Summarization failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"summary": summary,
		"cached":  result.Cached,
	})
}

// noteIDFromPath extracts the {id} segment from /api/notes/{id} and
// /api/notes/{id}/export paths.
func noteIDFromPath(path string) string {
	rest := strings.TrimPrefix(path, "/api/notes/")
	if idx := strings.Index(rest, "/"); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}
