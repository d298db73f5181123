// Package api exposes a small local control API so external frontends can
// observe and steer a running monitoring session without a GUI.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mhoffm/shotrelay/internal/history"
	"github.com/mhoffm/shotrelay/internal/watch"
)

// Server is the control API backend.
type Server struct {
	session *watch.Session
	store   *history.Store // may be nil
	logs    *LogBuffer
	token   string // empty disables auth
	server  *http.Server
}

// NewServer creates a control API server on the given port.
func NewServer(port int, token string, session *watch.Session, store *history.Store, logs *LogBuffer) *Server {
	s := &Server{
		session: session,
		store:   store,
		logs:    logs,
		token:   token,
	}
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.routes(),
	}
	return s
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("control API listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down control API")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check (no auth)
	mux.HandleFunc("GET /api/health", s.handleHealth)

	mux.Handle("GET /api/status", s.requireAuth(http.HandlerFunc(s.handleStatus)))
	mux.Handle("PUT /api/delay", s.requireAuth(http.HandlerFunc(s.handleUpdateDelay)))
	mux.Handle("GET /api/uploads", s.requireAuth(http.HandlerFunc(s.handleListUploads)))
	mux.Handle("GET /api/log", s.requireAuth(http.HandlerFunc(s.handleLog)))

	return mux
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if strings.TrimPrefix(auth, "Bearer ") != s.token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"running":      s.session.Running(),
		"upload_delay": s.session.Delay(),
	})
}

func (s *Server) handleUpdateDelay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seconds int `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.session.UpdateDelay(req.Seconds)
	writeJSON(w, http.StatusOK, map[string]any{
		"upload_delay": s.session.Delay(),
	})
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type uploadJSON struct {
		ID         int    `json:"id"`
		Path       string `json:"path"`
		SizeBytes  int64  `json:"size_bytes"`
		Success    bool   `json:"success"`
		StatusCode int    `json:"status_code,omitempty"`
		UploadMs   int64  `json:"upload_ms"`
		TotalMs    int64  `json:"total_ms"`
		Error      string `json:"error,omitempty"`
		Deleted    bool   `json:"deleted"`
		UploadedAt string `json:"uploaded_at"`
	}

	out := make([]uploadJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, uploadJSON{
			ID:         rec.ID,
			Path:       rec.Path,
			SizeBytes:  rec.SizeBytes,
			Success:    rec.Success,
			StatusCode: rec.StatusCode,
			UploadMs:   rec.UploadMs,
			TotalMs:    rec.TotalMs,
			Error:      rec.Error,
			Deleted:    rec.Deleted,
			UploadedAt: rec.UploadedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lines": s.logs.Lines(limit),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
