package handlers

import (
	"net/http"

	"github.com/mhollis/quizdeck/internal/services"
)

// NameRequest carries a single name field (teams, members, categories).
type NameRequest struct {
	Name string `json:"name"`
}

// EnabledRequest carries a category's auto-rotation flag.
type EnabledRequest struct {
	Enabled bool `json:"enabled"`
}

// RespondRequest is the body of POST /api/play/respond.
type RespondRequest struct {
	RefNumber string `json:"refNumber"`
	Text      string `json:"text"`
}

// PlayState returns the control snapshot for the active session.
func (h *Handlers) PlayState(w http.ResponseWriter, r *http.Request) {
	h.respondState(w, r)
}

// respondState writes the fresh control snapshot. Mutations respond with it
// so silent no-ops still hand the caller the authoritative state.
func (h *Handlers) respondState(w http.ResponseWriter, r *http.Request) {
	state, err := h.Play.State(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, state)
}

// UpdateSettings applies a partial settings update to the active session.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var upd services.SettingsUpdate
	if err := decodeJSON(r, &upd); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.UpdateSettings(r.Context(), upd); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// TogglePause pauses or resumes the countdown.
func (h *Handlers) TogglePause(w http.ResponseWriter, r *http.Request) {
	if err := h.Play.TogglePause(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// SubmitResponse records the current member's answer and advances the turn.
func (h *Handlers) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.SubmitResponse(r.Context(), req.RefNumber, req.Text); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// SkipTurn advances the turn without a response or point.
func (h *Handlers) SkipTurn(w http.ResponseWriter, r *http.Request) {
	if err := h.Play.Skip(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// StopChallenge awards +5, retires the category, and rotates on.
func (h *Handlers) StopChallenge(w http.ResponseWriter, r *http.Request) {
	if err := h.Play.StopChallenge(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// ClearResponses wipes the active session's response log.
func (h *Handlers) ClearResponses(w http.ResponseWriter, r *http.Request) {
	if err := h.Play.ClearResponses(r.Context()); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// ==================== Teams & members ====================

// AddTeam adds a team to the active session.
func (h *Handlers) AddTeam(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.AddTeam(r.Context(), req.Name); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// RenameTeam changes a team's name.
func (h *Handlers) RenameTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := stringParam(r, "teamID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req NameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.RenameTeam(r.Context(), teamID, req.Name); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// DeleteTeam removes a team from the active session.
func (h *Handlers) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID, err := stringParam(r, "teamID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.DeleteTeam(r.Context(), teamID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// AddMember adds a member to a team.
func (h *Handlers) AddMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := stringParam(r, "teamID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req NameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.AddMember(r.Context(), teamID, req.Name); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// RemoveMember deletes a member from a team.
func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	teamID, err := stringParam(r, "teamID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	memberID, err := stringParam(r, "memberID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.RemoveMember(r.Context(), teamID, memberID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// ==================== Categories ====================

// AddCategory adds an enabled category.
func (h *Handlers) AddCategory(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.AddCategory(r.Context(), req.Name); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// RemoveCategory deletes a category.
func (h *Handlers) RemoveCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := stringParam(r, "categoryID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.RemoveCategory(r.Context(), categoryID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// SetCategoryEnabled toggles a category's auto-rotation flag.
func (h *Handlers) SetCategoryEnabled(w http.ResponseWriter, r *http.Request) {
	categoryID, err := stringParam(r, "categoryID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	var req EnabledRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.SetCategoryEnabled(r.Context(), categoryID, req.Enabled); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}

// StartCategory activates a category and starts a fresh countdown.
func (h *Handlers) StartCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := stringParam(r, "categoryID")
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Play.StartCategory(r.Context(), categoryID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondState(w, r)
}
