package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/rednote/internal/interfaces"
	"github.com/ternarybob/rednote/internal/services/login"
)

const (
	// defaultWaitTimeout applies when /api/login/wait has no timeout parameter.
	defaultWaitTimeout = 120 * time.Second

	// maxWaitTimeout caps a single poll request. The QR code expires well
	// before this, and the server write timeout must outlast it.
	maxWaitTimeout = 3 * time.Minute
)

// LoginHandler handles the QR login session endpoints.
type LoginHandler struct {
	loginService interfaces.LoginService
	logger       arbor.ILogger
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(loginService interfaces.LoginService, logger arbor.ILogger) *LoginHandler {
	return &LoginHandler{
		loginService: loginService,
		logger:       logger,
	}
}

// QRImageHandler handles GET /api/login/qr?url=...
// The response body is the login page screenshot, not JSON.
func (h *LoginHandler) QRImageHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	url := r.URL.Query().Get("url")

	shot, err := h.loginService.Open(r.Context(), url)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Login session open failed")
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", shot.MediaType)
	w.WriteHeader(http.StatusOK)
	w.Write(shot.Data)
}

// WaitHandler handles GET /api/login/wait?timeout=120 with timeout in seconds
func (h *LoginHandler) WaitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	timeout := defaultWaitTimeout
	if raw := r.URL.Query().Get("timeout"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "timeout must be a number of seconds")
			return
		}
		timeout = time.Duration(seconds) * time.Second
	}
	if timeout > maxWaitTimeout {
		timeout = maxWaitTimeout
	}

	status, err := h.loginService.Poll(r.Context(), timeout)
	if err != nil {
		if errors.Is(err, login.ErrNoLoginSession) {
			WriteError(w, http.StatusBadRequest, "No active login session, request /api/login/qr first")
			return
		}
		h.logger.Error().Err(err).Msg("Login poll failed")
		WriteError(w, http.StatusInternalServerError, "Login poll failed")
		return
	}

	WriteJSON(w, http.StatusOK, status)
}

// CloseHandler handles POST /api/login/close
func (h *LoginHandler) CloseHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if err := h.loginService.Close(); err != nil {
		h.logger.Error().Err(err).Msg("Login session close failed")
		WriteError(w, http.StatusInternalServerError, "Failed to close login session")
		return
	}

	WriteSuccess(w, "Login session closed")
}
