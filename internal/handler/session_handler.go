package handler

import (
	"net/http"

	"annotator-readmill/internal/domain"
	"annotator-readmill/internal/service"
)

// SessionController is the session side of the sync service.
type SessionController interface {
	domain.SessionIntents
	Session() service.Session
}

// SessionHandler exposes connect and disconnect to the viewer.
type SessionHandler struct {
	session SessionController
	logger  domain.Logger
}

func NewSessionHandler(session SessionController, logger domain.Logger) *SessionHandler {
	return &SessionHandler{session: session, logger: logger}
}

// Connect handles POST /session/connect. With ?wait=true the response is
// delayed until the user completed the authorization popup.
func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	pending := h.session.Connect()

	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusAccepted, h.session.Session())
		return
	}

	if _, err := pending.Wait(r.Context()); err != nil {
		h.logger.Warn("Connect failed", "error", err)
		writeError(w, statusFor(err), "Failed to connect to Readmill")
		return
	}
	writeJSON(w, http.StatusOK, h.session.Session())
}

// Disconnect handles DELETE /session
func (h *SessionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.session.Disconnect()
	w.WriteHeader(http.StatusNoContent)
}

// GetSession handles GET /session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Session())
}
