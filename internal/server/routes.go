// -----------------------------------------------------------------------
// Last Modified: Thursday, 16th July 2026 8:40:12 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Service info (exact "/" only, everything else under it is a 404)
	mux.HandleFunc("/", s.app.StatusHandler.IndexHandler)
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Notes
	// The exact summarize pattern wins over the /api/notes/ prefix
	mux.HandleFunc("/api/scrape", s.app.NoteHandler.ScrapeHandler)
	mux.HandleFunc("/api/notes/summarize", s.app.NoteHandler.SummarizeHandler)
	mux.HandleFunc("/api/notes/", s.handleNoteRoutes) // GET /{id} and /{id}/export

	// API routes - Login
	mux.HandleFunc("/api/login/qr", s.app.LoginHandler.QRImageHandler)
	mux.HandleFunc("/api/login/wait", s.app.LoginHandler.WaitHandler)
	mux.HandleFunc("/api/login/close", s.app.LoginHandler.CloseHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.StatusHandler.NotFoundHandler)

	return mux
}

// handleNoteRoutes routes /api/notes/{id} requests
func (s *Server) handleNoteRoutes(w http.ResponseWriter, r *http.Request) {
	// GET /api/notes/{id}/export
	if RouteByPathSuffix(w, r, "/api/notes/", []PathSuffixRouter{
		{Suffix: "/export", Handler: s.app.NoteHandler.ExportNoteHandler},
	}) {
		return
	}

	// GET /api/notes/{id}
	s.app.NoteHandler.GetNoteHandler(w, r)
}
