package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/pkg/models"
)

// formatScrapeResult formats a scrape outcome as markdown
func formatScrapeResult(result *interfaces.ScrapeResult, body string) string {
	var sb strings.Builder

	source := "live"
	if result.Cached {
		source = "cache"
	}
	sb.WriteString(fmt.Sprintf("**Strategy:** %s (%s)\n\n", result.Strategy, source))
	sb.WriteString(body)

	return sb.String()
}

// formatCachedNote formats a cached note with its provenance as markdown
func formatCachedNote(note *models.CachedNote, body string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("**ID:** %s\n", note.ID))
	sb.WriteString(fmt.Sprintf("**Strategy:** %s\n", note.Strategy))
	sb.WriteString(fmt.Sprintf("**Fetched:** %s\n\n", note.FetchedAt.Format(time.RFC3339)))
	sb.WriteString(body)

	return sb.String()
}

// formatLoginStatus reports credential state as markdown. Cookie names only,
// values never leave the store.
func formatLoginStatus(cookies models.CookieSet, filePath string, threshold int) string {
	var sb strings.Builder

	sb.WriteString("## Login Status\n\n")
	sb.WriteString(fmt.Sprintf("**Cookies:** %d (logged-in threshold %d)\n", len(cookies), threshold))

	switch {
	case len(cookies) >= threshold:
		sb.WriteString("**State:** credentials look logged in\n")
	case len(cookies) > 0:
		sb.WriteString("**State:** credentials present but below the logged-in threshold\n")
	default:
		sb.WriteString("**State:** no credentials configured\n")
	}

	if filePath != "" {
		sb.WriteString(fmt.Sprintf("**File:** %s\n", filePath))
	}

	if len(cookies) > 0 {
		names := cookies.Names()
		if len(names) > 10 {
			names = names[:10]
		}
		sb.WriteString(fmt.Sprintf("**Names:** %s\n", strings.Join(names, ", ")))
	}

	return sb.String()
}
