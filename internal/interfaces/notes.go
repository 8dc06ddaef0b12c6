package interfaces

import (
	"context"

	"github.com/ternarybob/rednote/pkg/models"
)

// ScrapeResult is a scrape outcome plus cache provenance.
type ScrapeResult struct {
	Summary  *models.NoteSummary
	Strategy string
	Cached   bool
}

// NoteService orchestrates scraping and exposes cached results and exports.
type NoteService interface {
	// Scrape fetches and decodes one note. force bypasses the cache.
	Scrape(ctx context.Context, url string, force bool) (*ScrapeResult, error)

	// GetCached returns a previously scraped note by ID.
	GetCached(ctx context.Context, id string) (*models.CachedNote, error)

	// ExportMarkdown renders a note summary as a markdown document.
	ExportMarkdown(summary *models.NoteSummary) string

	// ExportPDF renders a note summary as a PDF document.
	ExportPDF(summary *models.NoteSummary) ([]byte, error)
}

// SummaryService produces short LLM-written digests of scraped notes.
type SummaryService interface {
	// Summarize returns a digest of the note. model may carry a provider
	// prefix ("claude/...", "gemini/..."); empty uses the configured default.
	Summarize(ctx context.Context, summary *models.NoteSummary, model string) (string, error)

	// Enabled reports whether any provider is configured with an API key.
	Enabled() bool
}

// PDFService converts markdown documents to PDF bytes.
type PDFService interface {
	ConvertMarkdownToPDF(markdown, title string) ([]byte, error)
}
