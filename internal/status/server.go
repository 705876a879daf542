// Package status exposes the outcome of the most recent sync cycle over HTTP.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/gorilla/mux"

	dnssync "traefik-dns-sync/internal/sync"
)

// Server holds the last cycle's result behind a read/write lock. The sync loop
// writes via Record; HTTP handlers only read.
type Server struct {
	mu        stdsync.RWMutex
	hasRun    bool
	lastRun   time.Time
	lastError string
	summary   dnssync.Summary
}

type statusResponse struct {
	LastRun   time.Time       `json:"last_run"`
	LastError string          `json:"last_error,omitempty"`
	Summary   dnssync.Summary `json:"summary"`
}

// NewServer returns a Server with no recorded cycles yet.
func NewServer() *Server {
	return &Server{}
}

// Record stores the outcome of a completed cycle.
func (s *Server) Record(summary dnssync.Summary, runErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hasRun = true
	s.lastRun = time.Now().UTC()
	s.summary = summary
	if runErr != nil {
		s.lastError = runErr.Error()
	} else {
		s.lastError = ""
	}
}

// Handler returns the HTTP routes: GET /healthz and GET /status.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	return router
}

// ListenAndServe serves the status endpoint on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string, log *slog.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("status endpoint listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if !s.hasRun {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "no cycle completed yet"})
		return
	}
	json.NewEncoder(w).Encode(statusResponse{
		LastRun:   s.lastRun,
		LastError: s.lastError,
		Summary:   s.summary,
	})
}
