package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/watchparty/server/internal/metrics"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(c.authMw)

			r.Route("/party", func(r chi.Router) {
				r.Post("/", c.createParty)
				r.Route("/{party-id}", func(r chi.Router) {
					r.Get("/", c.getParty)
					r.Post("/join", c.joinParty)
					r.Post("/leave", c.leaveParty)
					r.Post("/heartbeat", c.heartbeat)
					r.Post("/invite", c.inviteParticipants)
					r.Post("/end", c.endParty)
					r.Post("/playback", c.pushState)
					r.Get("/playback", c.getPlayerState)
					r.Post("/chat", c.postMessage)
					r.Get("/chat", c.chatHistory)
					r.Get("/ws", c.subscribeParty)
				})
			})
		})
	})

	return r
}
