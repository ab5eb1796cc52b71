// Package server exposes proposal figures over HTTP for the map viewer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dlwalsh/wa2019/pkg/apportion"
	"github.com/dlwalsh/wa2019/pkg/export"
	"github.com/dlwalsh/wa2019/pkg/proposal"
	"github.com/dlwalsh/wa2019/pkg/sa1"
)

// Config wires the server to its reference data.
type Config struct {
	Registry     *sa1.Registry
	ProposalPath string
	Policy       apportion.PhantomPolicy
	Geometry     apportion.GeometryProvider
	Workers      int
	Port         int
	Logger       *zap.Logger
}

// Server is the local server for reviewing a proposal. The proposal file is
// re-read on every request so edits show up without a restart.
type Server struct {
	cfg    Config
	logger *zap.Logger
}

// New creates a server. The registry is never claimed against directly;
// every request works on a clone.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, logger: logger}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/figures", s.handleFigures)
	mux.HandleFunc("GET /api/coverage", s.handleCoverage)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.HandleFunc("GET /api/proposal.geojson", s.handleGeoJSON)
	mux.HandleFunc("POST /api/selection", s.handleSelection)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server starting",
		zap.String("url", fmt.Sprintf("http://localhost:%d", s.cfg.Port)),
		zap.String("proposal", s.cfg.ProposalPath),
		zap.String("policy", s.cfg.Policy.Name()),
		zap.Int("sa1s", s.cfg.Registry.Len()))

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// analyse runs the current proposal against a fresh copy of the registry.
func (s *Server) analyse(ctx context.Context) (*apportion.Run, error) {
	p, err := proposal.Load(s.cfg.ProposalPath)
	if err != nil {
		return nil, err
	}
	opts := []apportion.Option{
		apportion.WithWorkers(s.cfg.Workers),
		apportion.WithLogger(s.logger),
	}
	if s.cfg.Geometry != nil {
		opts = append(opts, apportion.WithGeometry(s.cfg.Geometry))
	}
	engine := apportion.NewEngine(s.cfg.Registry.Clone(), s.cfg.Policy, opts...)
	return engine.Run(ctx, p)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>WA 2019 Redistribution</title></head>
<body style="margin:0;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>WA 2019 Redistribution</h1>
<p><a href="/api/figures">figures</a> &middot; <a href="/api/coverage">coverage</a> &middot;
<a href="/api/validation">validation</a> &middot; <a href="/api/proposal.geojson">proposal.geojson</a></p>
</div>
</body></html>`)
}

func (s *Server) handleFigures(w http.ResponseWriter, r *http.Request) {
	run, err := s.analyse(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, run)
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	run, err := s.analyse(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, map[string]any{
		"complete":   run.Coverage.Complete(),
		"missing":    run.Coverage.Missing,
		"duplicates": run.Coverage.Duplicates,
		"claimants":  run.Coverage.Claimants,
	})
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	run, err := s.analyse(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, run.Report)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	run, err := s.analyse(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	data, err := export.Encode(run.Districts)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(data)
}

type selectionRequest struct {
	IDs []sa1.ID `json:"ids"`
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decoding selection: %w", err))
		return
	}
	s.writeJSON(w, apportion.Summarize(s.cfg.Registry, req.IDs, s.cfg.Policy))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("writing response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
