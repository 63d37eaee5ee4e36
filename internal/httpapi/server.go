// Package httpapi exposes a Store over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mesh-intelligence/taskly/internal/store"
	"github.com/mesh-intelligence/taskly/internal/view"
	"github.com/mesh-intelligence/taskly/pkg/types"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

// Server routes HTTP requests to a Store.
type Server struct {
	store  *store.Store
	router *mux.Router
	logger *log.Logger
}

// NewServer returns a Server for st. A nil logger discards request errors.
func NewServer(st *store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Server{store: st, router: mux.NewRouter(), logger: logger}

	r := s.router
	r.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	r.HandleFunc("/tasks/grouped", s.groupedTasks).Methods(http.MethodGet)
	r.HandleFunc("/tasks/delete", s.deleteTasks).Methods(http.MethodPost)
	r.HandleFunc("/tasks/reorder", s.reorderTasks).Methods(http.MethodPost)
	r.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	r.HandleFunc("/tasks/{id}", s.updateTask).Methods(http.MethodPatch)
	r.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/tasks/{id}/toggle", s.toggleTask).Methods(http.MethodPost)
	r.HandleFunc("/week", s.week).Methods(http.MethodGet)
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
// If ready is non-nil it receives the bound address once listening.
func (s *Server) Run(ctx context.Context, addr string, ready chan<- string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrInvalidTitle),
		errors.Is(err, types.ErrInvalidPosition),
		errors.Is(err, types.ErrInvalidSortMode),
		errors.Is(err, view.ErrInvalidDate),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Printf("warning: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
