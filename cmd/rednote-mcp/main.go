package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/services/browser"
	"github.com/ternarybob/rednote/internal/services/cookies"
	"github.com/ternarybob/rednote/internal/services/extractor"
	"github.com/ternarybob/rednote/internal/services/notes"
	badgerstorage "github.com/ternarybob/rednote/internal/storage/badger"
)

func main() {
	// Load configuration
	configPath := os.Getenv("REDNOTE_CONFIG")
	if configPath == "" {
		// Fall back to built-in defaults when no config file is present
		if _, err := os.Stat("rednote.toml"); err == nil {
			configPath = "rednote.toml"
		}
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	// Initialize storage
	storageManager, err := badgerstorage.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	// Initialize the scrape pipeline. Event publishing and PDF export are
	// not needed over stdio, so the note service runs without them.
	browserSvc := browser.NewService(config, logger)
	extractorSvc := extractor.NewService(config, logger)
	cookieSvc := cookies.NewService(config, logger)
	noteService := notes.NewService(config, browserSvc, extractorSvc, cookieSvc, storageManager, nil, nil, logger)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"rednote",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register note tools
	mcpServer.AddTool(createScrapeNoteTool(), handleScrapeNote(noteService, logger))
	mcpServer.AddTool(createGetCachedNoteTool(), handleGetCachedNote(noteService, logger))
	mcpServer.AddTool(createLoginStatusTool(), handleLoginStatus(cookieSvc, config, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
