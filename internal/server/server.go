// Package server exposes a Simulation over HTTP so an external renderer can
// drive ticks and pull geometry.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/san-kum/swaysim/internal/dynamo"
	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/sim"
)

const maxBody = 1 << 16

type Options struct {
	Rate           float64 // requests per second per client
	Burst          int
	DriftThreshold float64
	Logger         *log.Logger
}

// Server serializes every access to the simulation behind one mutex, so
// configuration changes never interleave with a tick.
type Server struct {
	mu        sync.Mutex
	sim       *sim.Simulation
	history   *sim.History
	threshold float64

	router *mux.Router
	logger *log.Logger
}

// New wires s and a History observer into a router. s must already be
// configured.
func New(s *sim.Simulation, history *sim.History, opts Options) *Server {
	if history == nil {
		history = sim.NewHistory(sim.DefaultHistoryCapacity, sim.DefaultSampleInterval)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.DriftThreshold <= 0 {
		opts.DriftThreshold = metrics.DefaultDriftThreshold
	}
	s.AddObserver(history)

	srv := &Server{
		sim:       s,
		history:   history,
		threshold: opts.DriftThreshold,
		router:    mux.NewRouter(),
		logger:    opts.Logger,
	}

	api := srv.router.PathPrefix("/api").Subrouter()
	if opts.Rate > 0 {
		limiter := NewIPRateLimiter(rate.Limit(opts.Rate), max(opts.Burst, 1))
		api.Use(limiter.LimitMiddleware)
	}
	api.Use(srv.logMiddleware)

	api.HandleFunc("/outputs", srv.getOutputs).Methods("GET")
	api.HandleFunc("/geometry/{building}", srv.getGeometry).Methods("GET")
	api.HandleFunc("/params", srv.getParams).Methods("GET")
	api.HandleFunc("/history", srv.getHistory).Methods("GET")
	api.HandleFunc("/configure", srv.configure).Methods("POST")
	api.HandleFunc("/tick", srv.tick).Methods("POST")
	api.HandleFunc("/tune", srv.tune).Methods("POST")
	srv.router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	return srv
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

func (s *Server) outputsLocked() outputsResponse {
	out := newOutputsResponse(s.sim.CurrentOutputs())
	out.Overstressed = metrics.Overstressed(out.Displacement, s.sim.Params().Dynamics.Height, s.threshold)
	if err := s.sim.LastError(); err != nil {
		out.Held = true
		out.Error = err.Error()
	}
	return out
}

func (s *Server) getOutputs(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := s.outputsLocked()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) getGeometry(w http.ResponseWriter, r *http.Request) {
	b, err := sim.ParseBuilding(mux.Vars(r)["building"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}

	s.mu.Lock()
	bent := s.sim.CurrentGeometry(b)
	var resp geometryResponse
	if bent != nil {
		resp = newGeometryResponse(b, bent)
	}
	s.mu.Unlock()

	if bent == nil {
		s.writeError(w, http.StatusConflict, "no frame yet; POST /api/tick first", "")
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getParams(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	params := s.sim.GetParams()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, params)
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := historyResponse{
		Times:    s.history.Times(),
		WithTMD:  s.history.WithTMD(),
		NoTMD:    s.history.NoTMD(),
		MaxAbs:   s.history.MaxAbs(),
		Capacity: s.history.Capacity(),
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, resp)
}

// configure applies a JSON object of named parameters atomically: either
// all of them take effect or none do.
func (s *Server) configure(w http.ResponseWriter, r *http.Request) {
	var body map[string]float64
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request payload", "")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.sim.Params()
	for name, v := range body {
		next, err := p.With(name, v)
		if errors.Is(err, dynamo.ErrDomain) {
			s.domainError(w, err)
			return
		}
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error(), name)
			return
		}
		p = next
	}
	if err := s.sim.Configure(p); err != nil {
		s.domainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sim.GetParams())
}

func (s *Server) tick(w http.ResponseWriter, r *http.Request) {
	req := tickRequest{Dt: 1.0 / 60}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request payload", "")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.sim.Tick(req.Dt); err != nil {
		if errors.Is(err, dynamo.ErrNotConfigured) {
			s.writeError(w, http.StatusConflict, err.Error(), "")
			return
		}
		s.writeJSON(w, http.StatusUnprocessableEntity, s.outputsLocked())
		return
	}
	s.writeJSON(w, http.StatusOK, s.outputsLocked())
}

func (s *Server) tune(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.sim.TuneDamper()
	if err != nil {
		s.domainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tuneResponse{DamperLength: l})
}

func (s *Server) domainError(w http.ResponseWriter, err error) {
	var de *dynamo.DomainError
	if errors.As(err, &de) {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error(), de.Param)
		return
	}
	if errors.Is(err, dynamo.ErrNotConfigured) {
		s.writeError(w, http.StatusConflict, err.Error(), "")
		return
	}
	s.logger.Error("request failed", "err", err)
	s.writeError(w, http.StatusInternalServerError, err.Error(), "")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	if err := writeJSON(w, status, v); err != nil {
		s.logger.Error("write response", "status", status, "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg, param string) {
	s.writeJSON(w, status, errorResponse{Error: msg, Param: param})
}

// writeJSON marshals v before writing the header; an unencodable value
// answers 500.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"response encoding failed"}` + "\n"))
		return err
	}
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}
