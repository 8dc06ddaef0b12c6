package handlers

import (
	"context"
	"strings"
	"sync"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/levels"
	"github.com/ternarybob/arbor/models"

	"github.com/ternarybob/rednote/internal/common"
)

// WebSocketWriter consumes log batches from arbor's channel and broadcasts
// them to connected WebSocket clients. Register its channel on the logger
// with SetChannel.
type WebSocketWriter struct {
	handler         *WebSocketHandler
	channel         chan []models.LogEvent
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	minLevel        arbor.LogLevel
	excludePatterns []string
}

// NewWebSocketWriter creates a log stream bridge for the given handler
func NewWebSocketWriter(handler *WebSocketHandler, wsConfig *common.WebSocketConfig) *WebSocketWriter {
	minLevel := arbor.InfoLevel
	var excludePatterns []string

	if wsConfig != nil {
		minLevel = parseStreamLevel(wsConfig.MinLevel)
		excludePatterns = wsConfig.ExcludePatterns
	}
	if len(excludePatterns) == 0 {
		// Keep connection chatter and request logging out of the stream,
		// otherwise every broadcast feeds the next one
		excludePatterns = []string{
			"WebSocket client connected",
			"WebSocket client disconnected",
			"HTTP request",
			"HTTP response",
			"Publishing event",
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketWriter{
		handler:         handler,
		channel:         make(chan []models.LogEvent, 10),
		ctx:             ctx,
		cancel:          cancel,
		minLevel:        minLevel,
		excludePatterns: excludePatterns,
	}
}

// parseStreamLevel converts string log level to arbor.LogLevel
func parseStreamLevel(levelStr string) arbor.LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return arbor.DebugLevel
	case "info":
		return arbor.InfoLevel
	case "warn", "warning":
		return arbor.WarnLevel
	case "error":
		return arbor.ErrorLevel
	default:
		return arbor.InfoLevel
	}
}

// GetChannel returns the channel for arbor to send log batches to
func (w *WebSocketWriter) GetChannel() chan []models.LogEvent {
	return w.channel
}

// Start launches the consumer goroutine
func (w *WebSocketWriter) Start() error {
	w.wg.Add(1)
	go w.consume()
	return nil
}

// Stop shuts down the consumer and waits for it to drain
func (w *WebSocketWriter) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return nil
}

func (w *WebSocketWriter) consume() {
	defer w.wg.Done()

	for {
		select {
		case batch, ok := <-w.channel:
			if !ok {
				return
			}

			for _, event := range batch {
				if !w.shouldBroadcast(event) {
					continue
				}

				w.handler.BroadcastLog(LogEntry{
					Timestamp: event.Timestamp.Format("15:04:05"),
					Level:     strings.ToLower(event.Level.String()),
					Message:   event.Message,
				})
			}

		case <-w.ctx.Done():
			return
		}
	}
}

// shouldBroadcast filters by level threshold and message exclude patterns
func (w *WebSocketWriter) shouldBroadcast(event models.LogEvent) bool {
	if !w.meetsStreamLevel(event.Level) {
		return false
	}
	for _, pattern := range w.excludePatterns {
		if strings.Contains(event.Message, pattern) {
			return false
		}
	}
	return true
}

// meetsStreamLevel checks a writer-level log level against the stream
// threshold. Arbor events carry phuslu levels, so the comparison happens
// in arbor's level space.
func (w *WebSocketWriter) meetsStreamLevel(level log.Level) bool {
	return levels.FromLogLevel(level) >= w.minLevel
}
