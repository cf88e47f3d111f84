package service

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tmi-chatter/twitch"
)

type phaser interface {
	Phase() twitch.Phase
}

// NewRouter отдаёт /healthz с фазой сессии и /metrics из gatherer.
// /healthz отвечает 503, пока сессия не аутентифицирована.
func NewRouter(session phaser, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		phase := session.Phase()
		status := http.StatusOK
		if phase != twitch.PhaseAuthenticated {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"phase": phase.String()})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
