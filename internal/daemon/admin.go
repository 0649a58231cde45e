package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/docpress/docpress/internal/metrics"
)

// statusResponse is the admin /status payload.
type statusResponse struct {
	Uptime  string      `json:"uptime"`
	Busy    bool        `json:"busy"`
	Active  []*BuildJob `json:"active"`
	History []*BuildJob `json:"history"`
}

// AdminServer exposes health, status, and metrics on the admin port.
type AdminServer struct {
	queue     *BuildQueue
	registry  *prom.Registry
	startedAt time.Time
}

// NewAdminServer creates the admin endpoint.
func NewAdminServer(queue *BuildQueue, registry *prom.Registry) *AdminServer {
	return &AdminServer{queue: queue, registry: registry, startedAt: time.Now()}
}

// Handler returns the HTTP handler for the admin listener.
func (s *AdminServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	return mux
}

func (s *AdminServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *AdminServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, statusResponse{
		Uptime:  time.Since(s.startedAt).Round(time.Second).String(),
		Busy:    s.queue.Busy(),
		Active:  s.queue.Active(),
		History: s.queue.History(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
