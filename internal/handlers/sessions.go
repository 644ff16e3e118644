package handlers

import (
	"net/http"
)

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	Date  string `json:"date"`
	Title string `json:"title"`
}

// ListSessions returns all sessions, most recent first.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.Sessions.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, sessions)
}

// CreateSession creates a new session, carrying the latest rosters forward.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	id, err := h.Sessions.Create(r.Context(), req.Date, req.Title)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, map[string]string{"id": id})
}

// DeleteSession removes a session.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := stringParam(r, "sessionID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Sessions.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}

// OpenSession makes a session the active one.
func (h *Handlers) OpenSession(w http.ResponseWriter, r *http.Request) {
	id, err := stringParam(r, "sessionID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Sessions.Open(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Session opened")
}

// CloseSession returns to the session list, stopping any countdown.
func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.CloseActive(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Session closed")
}

// SessionReport renders the printable end-of-session report.
func (h *Handlers) SessionReport(w http.ResponseWriter, r *http.Request) {
	id, err := stringParam(r, "sessionID")
	if err != nil {
		h.respondError(w, err)
		return
	}

	report, err := h.Reports.Build(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Reports.RenderHTML(w, report); err != nil {
		h.Log.Error("Report render error", "session", id, "error", err)
	}
}

// SessionDisplayQR returns a QR code PNG linking to the display view.
func (h *Handlers) SessionDisplayQR(w http.ResponseWriter, r *http.Request) {
	id, err := stringParam(r, "sessionID")
	if err != nil {
		h.respondError(w, err)
		return
	}

	png, err := h.Sessions.DisplayQR(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
