package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/common"
	"github.com/ternarybob/rednote/internal/interfaces"
)

// StatusHandler handles service info and health requests.
type StatusHandler struct {
	storage   interfaces.StorageManager
	login     interfaces.LoginService
	scheduler interfaces.SchedulerService
	startTime time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler. scheduler may be nil when
// the maintenance scheduler is disabled.
func NewStatusHandler(storage interfaces.StorageManager, login interfaces.LoginService, scheduler interfaces.SchedulerService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		storage:   storage,
		login:     login,
		scheduler: scheduler,
		startTime: time.Now(),
		logger:    logger,
	}
}

// IndexHandler handles GET / with service identification
func (h *StatusHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFoundHandler(w, r)
		return
	}
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"service":    "rednote",
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
		"status":     "running",
	})
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	cachedNotes := 0
	if count, err := h.storage.NoteStorage().Count(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Note count failed during status check")
	} else {
		cachedNotes = count
	}

	loginActive := false
	if h.login != nil {
		_, loginActive = h.login.ActiveSince()
	}

	schedulerRunning := h.scheduler != nil && h.scheduler.IsRunning()

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"service":           "rednote",
		"status":            "healthy",
		"version":           common.GetVersion(),
		"uptime":            time.Since(h.startTime).Round(time.Second).String(),
		"cached_notes":      cachedNotes,
		"login_active":      loginActive,
		"scheduler_running": schedulerRunning,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *StatusHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"status":  "error",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
