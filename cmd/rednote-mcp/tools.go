package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createScrapeNoteTool returns the scrape_note tool definition
func createScrapeNoteTool() mcp.Tool {
	return mcp.NewTool("scrape_note",
		mcp.WithDescription("Scrape a RedNote (xiaohongshu.com) note page and return its structured content as markdown"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Note URL (https://www.xiaohongshu.com/explore/{id} or /discovery/item/{id})"),
		),
		mcp.WithBoolean("force",
			mcp.Description("Bypass the cache and fetch the live page (default: false)"),
		),
	)
}

// createGetCachedNoteTool returns the get_cached_note tool definition
func createGetCachedNoteTool() mcp.Tool {
	return mcp.NewTool("get_cached_note",
		mcp.WithDescription("Retrieve a previously scraped note from the cache by its note ID"),
		mcp.WithString("note_id",
			mcp.Required(),
			mcp.Description("Note ID (the trailing path segment of the note URL)"),
		),
	)
}

// createLoginStatusTool returns the login_status tool definition
func createLoginStatusTool() mcp.Tool {
	return mcp.NewTool("login_status",
		mcp.WithDescription("Report saved RedNote credentials: cookie count, persistence file, and whether they clear the logged-in threshold"),
	)
}
