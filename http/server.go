package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AbhigyanVE/carspect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes the extraction pipeline over a JSON API.
type Server struct {
	server *http.Server
	svc    carspect.ExtractService
	logger *slog.Logger
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, svc carspect.ExtractService, logger *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/extract", s.handleExtract)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}

	return s
}

// Handler returns the routed handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe blocks serving requests until Shutdown is called.
func (s *Server) ListenAndServe() error {
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Success  bool                  `json:"success"`
	Data     *carspect.FinalRecord `json:"data,omitempty"`
	Usage    *carspect.Usage       `json:"usage,omitempty"`
	LLMUsed  bool                  `json:"llm_used"`
	CacheHit bool                  `json:"cache_hit"`
	Error    string                `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, extractResponse{Error: "invalid JSON body"})
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, extractResponse{Error: "url is required"})
		return
	}

	result, err := s.svc.Extract(r.Context(), req.URL)
	if err != nil {
		code := carspect.ErrorCode(err)
		s.logger.Error("extract failed", "url", req.URL, "code", code, "err", err)
		writeJSON(w, statusFromCode(code), extractResponse{Error: carspect.ErrorMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, extractResponse{
		Success:  true,
		Data:     result.Record,
		Usage:    result.Usage,
		LLMUsed:  result.LLMUsed,
		CacheHit: result.CacheHit,
	})
}

// statusFromCode maps coded errors onto the API's two failure classes:
// validation problems are the caller's fault, everything else is a pipeline
// failure.
func statusFromCode(code string) int {
	if code == carspect.EINVALID {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
