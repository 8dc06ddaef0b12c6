package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// statusBroadcastInterval paces the periodic status push to clients.
const statusBroadcastInterval = 5 * time.Second

// WSMessage is the envelope for every message on the stream.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LogEntry is one service log line shaped for the stream.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// StatusUpdate is the service snapshot sent on connect and on the periodic
// broadcast.
type StatusUpdate struct {
	Service          string `json:"service"`
	Status           string `json:"status"`
	CachedNotes      int    `json:"cachedNotes"`
	LoginActive      bool   `json:"loginActive"`
	ServerInstanceID string `json:"serverInstanceId"` // Unique ID per server startup - clients clear state on change
}

// ScrapeUpdate mirrors scrape lifecycle events.
type ScrapeUpdate struct {
	URL       string    `json:"url"`
	NoteID    string    `json:"note_id,omitempty"`
	Strategy  string    `json:"strategy,omitempty"`
	Title     string    `json:"title,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SchedulerJobUpdate mirrors maintenance job completions.
type SchedulerJobUpdate struct {
	Job        string    `json:"job"`
	Status     string    `json:"status"`
	DurationMS int       `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// WebSocketHandler fans service events and logs out to connected clients.
type WebSocketHandler struct {
	logger           arbor.ILogger
	clients          map[*websocket.Conn]bool
	clientMutex      map[*websocket.Conn]*sync.Mutex
	mu               sync.RWMutex
	eventService     interfaces.EventService
	storage          interfaces.StorageManager
	login            interfaces.LoginService
	statusThrottler  *rate.Limiter // Rate limiter for login_status events
	serverInstanceID string        // Unique ID generated on startup - clients use to detect server restart
}

// NewWebSocketHandler creates a WebSocket handler and subscribes it to
// service events. eventService, storage and login may be nil; the stream
// then carries whatever remains.
func NewWebSocketHandler(eventService interfaces.EventService, storage interfaces.StorageManager, loginService interfaces.LoginService, logger arbor.ILogger, config *common.WebSocketConfig) *WebSocketHandler {
	h := &WebSocketHandler{
		logger:           logger,
		clients:          make(map[*websocket.Conn]bool),
		clientMutex:      make(map[*websocket.Conn]*sync.Mutex),
		eventService:     eventService,
		storage:          storage,
		login:            loginService,
		serverInstanceID: uuid.New().String(),
	}

	logger.Info().Str("server_instance_id", h.serverInstanceID).Msg("WebSocket handler initialized with server instance ID")

	// Login polling publishes a status event every iteration; throttle so
	// clients see state changes, not the poll cadence
	if config != nil && config.StatusThrottle != "" {
		if duration, err := time.ParseDuration(config.StatusThrottle); err == nil {
			h.statusThrottler = rate.NewLimiter(rate.Every(duration), 1)
			logger.Debug().
				Str("interval", config.StatusThrottle).
				Msg("Throttler initialized for login_status events")
		} else {
			logger.Warn().
				Err(err).
				Str("interval", config.StatusThrottle).
				Msg("Failed to parse status throttle interval - throttling disabled")
		}
	}

	if eventService != nil {
		h.subscribeEvents()
	}

	return h
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.clientMutex[conn] = &sync.Mutex{}
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Int("clients", clientCount).Msg("WebSocket client connected")

	h.sendStatus(conn)

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		delete(h.clientMutex, conn)
		clientCount := len(h.clients)
		h.mu.Unlock()

		conn.Close()
		h.logger.Info().Int("clients", clientCount).Msg("WebSocket client disconnected")
	}()

	// Keep-alive read loop; clients never send payloads we act on
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("WebSocket connection closed unexpectedly")
			}
			break
		}
	}
}

// sendStatus sends the current service snapshot to a single client.
func (h *WebSocketHandler) sendStatus(conn *websocket.Conn) {
	data, err := json.Marshal(WSMessage{Type: "status", Payload: h.buildStatus()})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal status message")
		return
	}

	h.mu.RLock()
	mutex, ok := h.clientMutex[conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	mutex.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	mutex.Unlock()

	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to send status to client")
	}
}

// buildStatus assembles the service snapshot for status messages.
func (h *WebSocketHandler) buildStatus() StatusUpdate {
	status := StatusUpdate{
		Service:          "rednote",
		Status:           "running",
		ServerInstanceID: h.serverInstanceID,
	}

	if h.storage != nil {
		if count, err := h.storage.NoteStorage().Count(context.Background()); err == nil {
			status.CachedNotes = count
		}
	}
	if h.login != nil {
		_, status.LoginActive = h.login.ActiveSince()
	}

	return status
}

// BroadcastStatus sends the current service snapshot to all clients.
func (h *WebSocketHandler) BroadcastStatus() {
	h.broadcast(WSMessage{Type: "status", Payload: h.buildStatus()})
}

// StartStatusBroadcaster pushes status snapshots on a fixed interval while
// clients are connected.
func (h *WebSocketHandler) StartStatusBroadcaster() {
	go func() {
		ticker := time.NewTicker(statusBroadcastInterval)
		defer ticker.Stop()

		for range ticker.C {
			h.mu.RLock()
			hasClients := len(h.clients) > 0
			h.mu.RUnlock()

			if hasClients {
				h.BroadcastStatus()
			}
		}
	}()
}

// BroadcastLog sends a log entry to all clients.
func (h *WebSocketHandler) BroadcastLog(entry LogEntry) {
	h.broadcast(WSMessage{Type: "log", Payload: entry})
}

// SendLog broadcasts a single log line. Levels are normalized to lower case
// for the stream.
func (h *WebSocketHandler) SendLog(level, message string) {
	h.BroadcastLog(LogEntry{
		Timestamp: time.Now().Format("15:04:05"),
		Level:     strings.ToLower(level),
		Message:   message,
	})
}

// broadcast marshals a message once and writes it to every client under the
// per-connection write mutex.
func (h *WebSocketHandler) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Str("message_type", msg.Type).Msg("Failed to marshal WebSocket message")
		return
	}

	h.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(h.clients))
	mutexes := make([]*sync.Mutex, 0, len(h.clients))
	for conn := range h.clients {
		clients = append(clients, conn)
		mutexes = append(mutexes, h.clientMutex[conn])
	}
	h.mu.RUnlock()

	for i, conn := range clients {
		mutex := mutexes[i]
		mutex.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mutex.Unlock()

		if err != nil {
			h.logger.Warn().Err(err).Str("message_type", msg.Type).Msg("Failed to send message to client")
		}
	}
}

// subscribeEvents registers the event bridge for login, scrape and
// scheduler events.
func (h *WebSocketHandler) subscribeEvents() {
	h.eventService.Subscribe(interfaces.EventLoginStatus, h.handleLoginStatus)
	h.eventService.Subscribe(interfaces.EventScrapeStarted, h.handleScrapeStarted)
	h.eventService.Subscribe(interfaces.EventScrapeCompleted, h.handleScrapeCompleted)
	h.eventService.Subscribe(interfaces.EventSchedulerJob, h.handleSchedulerJob)

	h.logger.Info().Msg("WebSocket handler subscribed to service events")
}

// handleLoginStatus forwards login status snapshots, throttled so the poll
// cadence does not flood clients.
func (h *WebSocketHandler) handleLoginStatus(ctx context.Context, event interfaces.Event) error {
	if h.statusThrottler != nil && !h.statusThrottler.Allow() {
		return nil
	}

	h.broadcast(WSMessage{Type: "login_status", Payload: event.Payload})
	return nil
}

func (h *WebSocketHandler) handleScrapeStarted(ctx context.Context, event interfaces.Event) error {
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		h.logger.Warn().Msg("Invalid scrape started event payload type")
		return nil
	}

	update := ScrapeUpdate{
		URL:       getString(payload, "url"),
		Timestamp: time.Now(),
	}

	h.broadcast(WSMessage{Type: "scrape_started", Payload: update})
	return nil
}

func (h *WebSocketHandler) handleScrapeCompleted(ctx context.Context, event interfaces.Event) error {
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		h.logger.Warn().Msg("Invalid scrape completed event payload type")
		return nil
	}

	update := ScrapeUpdate{
		URL:       getString(payload, "url"),
		NoteID:    getString(payload, "note_id"),
		Strategy:  getString(payload, "strategy"),
		Title:     getString(payload, "title"),
		Timestamp: time.Now(),
	}

	h.broadcast(WSMessage{Type: "scrape_completed", Payload: update})
	return nil
}

func (h *WebSocketHandler) handleSchedulerJob(ctx context.Context, event interfaces.Event) error {
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		h.logger.Warn().Msg("Invalid scheduler job event payload type")
		return nil
	}

	update := SchedulerJobUpdate{
		Job:        getString(payload, "job"),
		Status:     getString(payload, "status"),
		DurationMS: getInt(payload, "duration_ms"),
		Error:      getString(payload, "error"),
		Timestamp:  time.Now(),
	}

	h.broadcast(WSMessage{Type: "scheduler_job", Payload: update})
	return nil
}

// getString extracts a string value from an event payload.
func getString(payload map[string]interface{}, key string) string {
	if val, ok := payload[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// getInt extracts an integer value from an event payload, tolerating the
// numeric types JSON round-trips produce.
func getInt(payload map[string]interface{}, key string) int {
	if val, ok := payload[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
