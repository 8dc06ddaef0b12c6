package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
)

// handleScrapeNote implements the scrape_note tool
func handleScrapeNote(noteService interfaces.NoteService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse url parameter (required)
		url, err := request.RequireString("url")
		if err != nil || url == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: url parameter is required"),
				},
			}, nil
		}

		force := request.GetBool("force", false)

		// Execute scrape
		result, err := noteService.Scrape(ctx, url, force)
		if err != nil {
			logger.Error().Err(err).Str("url", url).Msg("Scrape failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Scrape error: %v", err)),
				},
			}, nil
		}

		// Format result as markdown
		markdown := formatScrapeResult(result, noteService.ExportMarkdown(result.Summary))
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleGetCachedNote implements the get_cached_note tool
func handleGetCachedNote(noteService interfaces.NoteService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse note_id parameter (required)
		noteID, err := request.RequireString("note_id")
		if err != nil || noteID == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: note_id parameter is required"),
				},
			}, nil
		}

		// Retrieve note
		note, err := noteService.GetCached(ctx, noteID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNoteNotFound) {
				return &mcp.CallToolResult{
					Content: []mcp.Content{
						mcp.NewTextContent(fmt.Sprintf("Note not found: %s", noteID)),
					},
				}, nil
			}
			logger.Error().Err(err).Str("note_id", noteID).Msg("GetCached failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Lookup error: %v", err)),
				},
			}, nil
		}

		// Format as markdown
		markdown := formatCachedNote(note, noteService.ExportMarkdown(&note.Summary))
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleLoginStatus implements the login_status tool
func handleLoginStatus(cookieStore interfaces.CookieStore, config *common.Config, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		cookieSet, err := cookieStore.Load()
		if err != nil {
			logger.Error().Err(err).Msg("Cookie load failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Cookie load error: %v", err)),
				},
			}, nil
		}

		markdown := formatLoginStatus(cookieSet, cookieStore.FilePath(), config.Login.CookieThreshold)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}
