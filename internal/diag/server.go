// Package diag serves the gateway's diagnostics HTTP surface: a liveness
// probe, Prometheus metrics, and a window into recent events, using the
// gorilla/mux + gorilla/handlers combination the example pack's aggregator
// service uses for its own HTTP surface.
package diag

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/ema-gateway/internal/eventlog"
)

// Server hosts /healthz, /varz, and /events.
type Server struct {
	addr   string
	http   *http.Server
	events *eventlog.Log
	role   func() string
}

// New builds the router and wraps it in gorilla/handlers.LoggingHandler,
// matching the pack's aggregator main.go wiring.
func New(addr string, reg *prometheus.Registry, events *eventlog.Log, role func() string) *Server {
	r := mux.NewRouter()
	s := &Server{addr: addr, events: events, role: role}

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/varz", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)

	logged := handlers.LoggingHandler(os.Stdout, r)
	s.http = &http.Server{Addr: addr, Handler: logged}
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	role := "unknown"
	if s.role != nil {
		role = s.role()
	}
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"role":   role,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.events.Recent(100))
}

// ListenAndServe blocks serving HTTP until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.http.Shutdown(shutdownCtx)
	}()

	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
