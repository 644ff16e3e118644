package handlers

import (
	"net/http"
)

// DisplaySnapshot returns the full display model for a session.
func (h *Handlers) DisplaySnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := stringParam(r, "sessionID")
	if err != nil {
		h.respondError(w, err)
		return
	}

	snap, err := h.Display.Snapshot(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, snap)
}
