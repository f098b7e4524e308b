package server

import (
	"net/http"

	"lol-autopilot/internal/middleware"
	"lol-autopilot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// NewRouter mounts the REST routes and the connect service on one handler.
func NewRouter(ctrl Controller, logger zerolog.Logger) http.Handler {
	h := handlers{ctrl: ctrl}
	r := chi.NewRouter()
	r.Use(middleware.RequestID(logger))

	r.Get("/healthz", healthz)
	r.Post("/start", h.start)

	r.Route("/status", func(r chi.Router) {
		r.Get("/", h.status)
		r.Get("/gamestate", h.field(func(s service.Status) any { return s.Phase.Display() }))
		r.Get("/role", h.field(func(s service.Status) any { return s.Role.Display() }))
		r.Get("/champ", h.field(func(s service.Status) any { return s.Pick }))
		r.Get("/ban", h.field(func(s service.Status) any { return s.Ban }))
		r.Get("/runespreference", h.field(func(s service.Status) any { return s.AutoLoadout }))
	})

	r.Route("/data", func(r chi.Router) {
		r.Post("/pick", h.setChampion(func(req *http.Request, champ string) (service.SetResult, error) {
			return ctrl.SetPick(req.Context(), champ)
		}))
		r.Post("/ban", h.setChampion(func(req *http.Request, champ string) (service.SetResult, error) {
			return ctrl.SetBan(req.Context(), champ)
		}))
		r.Post("/runespreference", h.setLoadoutPreference)
		r.Post("/loadout", h.sendLoadout)
	})

	r.Get("/history", h.history)

	for path, handler := range NewControlServer(ctrl, logger).Handlers() {
		r.Handle(path, handler)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
