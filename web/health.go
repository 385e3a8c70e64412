package web

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"optioneer/engine"
)

// StatusSource is the slice of the engine the health endpoint reads.
type StatusSource interface {
	Status() engine.Status
}

// StorePinger checks snapshot-store connectivity.
type StorePinger interface {
	Ping() error
}

// Server exposes the liveness surface. It reports process-alive and
// store health; it is not part of the decision core.
type Server struct {
	engine StatusSource
	store  StorePinger
	log    *zap.Logger
}

func NewServer(e StatusSource, st StorePinger, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{engine: e, store: st, log: log}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return mux
}

type healthResponse struct {
	Status string        `json:"status"`
	Store  string        `json:"store"`
	Engine engine.Status `json:"engine"`
	Time   time.Time     `json:"time"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Store:  "ok",
		Engine: s.engine.Status(),
		Time:   time.Now().UTC(),
	}

	code := http.StatusOK
	if err := s.store.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Store = err.Error()
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("health response write failed", zap.Error(err))
	}
}
