package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Router builds the chi router with all routes and middleware.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(30 * time.Second))

	// Pages.
	r.Get("/", h.ControlPage)
	r.Get("/display", h.DisplayPage)
	r.Get("/ws", h.Hub.ServeWs)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.CreateSession)
			r.Post("/close", h.CloseSession)
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Delete("/", h.DeleteSession)
				r.Post("/open", h.OpenSession)
				r.Get("/report", h.SessionReport)
				r.Get("/display-qr", h.SessionDisplayQR)
			})
		})

		r.Get("/display/{sessionID}", h.DisplaySnapshot)

		r.Route("/play", func(r chi.Router) {
			r.Get("/", h.PlayState)
			r.Put("/settings", h.UpdateSettings)
			r.Post("/pause", h.TogglePause)

			r.Post("/respond", h.SubmitResponse)
			r.Post("/skip", h.SkipTurn)
			r.Post("/challenge", h.StopChallenge)
			r.Delete("/responses", h.ClearResponses)

			r.Route("/teams", func(r chi.Router) {
				r.Post("/", h.AddTeam)
				r.Put("/{teamID}", h.RenameTeam)
				r.Delete("/{teamID}", h.DeleteTeam)
				r.Post("/{teamID}/members", h.AddMember)
				r.Delete("/{teamID}/members/{memberID}", h.RemoveMember)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", h.AddCategory)
				r.Delete("/{categoryID}", h.RemoveCategory)
				r.Put("/{categoryID}/enabled", h.SetCategoryEnabled)
				r.Post("/{categoryID}/start", h.StartCategory)
			})
		})
	})

	return r
}

// conditionalLogger applies request logging only when enabled at runtime.
func (h *Handlers) conditionalLogger(next http.Handler) http.Handler {
	logHandler := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log.HTTPLoggingEnabled() {
			logHandler.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
