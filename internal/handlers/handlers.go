package handlers

import (
	"io/fs"
	"net/http"

	"github.com/mhollis/quizdeck/internal/logger"
	"github.com/mhollis/quizdeck/internal/services"
	"github.com/mhollis/quizdeck/internal/websocket"
)

// Handlers holds references to all services needed by HTTP handlers.
type Handlers struct {
	Log      logger.Logger
	Sessions *services.SessionService
	Play     *services.PlayService
	Display  *services.DisplayService
	Reports  *services.ReportService
	Hub      *websocket.Hub

	pages fs.FS
}

// New creates a new Handlers instance.
func New(
	log logger.Logger,
	sessions *services.SessionService,
	play *services.PlayService,
	display *services.DisplayService,
	reports *services.ReportService,
	hub *websocket.Hub,
	pages fs.FS,
) *Handlers {
	return &Handlers{
		Log:      log,
		Sessions: sessions,
		Play:     play,
		Display:  display,
		Reports:  reports,
		Hub:      hub,
		pages:    pages,
	}
}

// ControlPage serves the operator view.
func (h *Handlers) ControlPage(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, "control.html")
}

// DisplayPage serves the read-only projector view.
func (h *Handlers) DisplayPage(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, "display.html")
}

func (h *Handlers) servePage(w http.ResponseWriter, r *http.Request, name string) {
	data, err := fs.ReadFile(h.pages, name)
	if err != nil {
		h.Log.Error("Page not found", "page", name, "error", err)
		http.Error(w, "page not found", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}
