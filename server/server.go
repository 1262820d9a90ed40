package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"deepmap_research/export"
	"deepmap_research/maps"
	"deepmap_research/metrics"
	"deepmap_research/store"
	"deepmap_research/tree"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	maps    *maps.Service
	log     *slog.Logger
	timeout time.Duration
}

type Option func(*Server)

// WithRequestTimeout bounds each build/expand request, model calls included.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

func New(svc *maps.Service, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, errors.New("map service required")
	}
	s := &Server{maps: svc, log: slog.Default(), timeout: 5 * time.Minute}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	// 兼容旧前端的接口名
	r.Post("/generate_tree", s.handleGenerateTree)
	r.Get("/get_map", s.handleGetMap)
	r.Post("/go_deeper", s.handleGoDeeper)

	r.Route("/api/maps", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleGenerateTree)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleMapByID)
			r.Delete("/", s.handleDelete)
			r.Post("/deeper", s.handleDeeperByID)
			r.Get("/paths", s.handlePaths)
			r.Get("/outline", s.handleOutline)
			r.Get("/lineage", s.handleLineage)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// --- Handlers ---

type generateReq struct {
	Prompt string `json:"prompt"`
	MaxBr  int    `json:"max_br"`
}

type deeperReq struct {
	ID    string `json:"id"`
	MaxBr int    `json:"max_br"`
}

func (s *Server) handleGenerateTree(w http.ResponseWriter, r *http.Request) {
	var req generateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(tree.ErrInvalidInput, "invalid request body"))
		return
	}
	if req.Prompt == "" {
		writeError(w, errors.Wrap(tree.ErrInvalidInput, "prompt is required"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	rec, err := s.maps.Create(ctx, req.Prompt, req.MaxBr)
	if err != nil {
		s.log.WarnContext(ctx, "generate tree failed", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, errors.Wrap(tree.ErrInvalidInput, "map id required"))
		return
	}
	s.writeMap(w, r, id)
}

func (s *Server) handleMapByID(w http.ResponseWriter, r *http.Request) {
	s.writeMap(w, r, chi.URLParam(r, "id"))
}

func (s *Server) writeMap(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := s.maps.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleGoDeeper(w http.ResponseWriter, r *http.Request) {
	var req deeperReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(tree.ErrInvalidInput, "invalid request body"))
		return
	}
	if req.ID == "" {
		writeError(w, errors.Wrap(tree.ErrInvalidInput, "map id required"))
		return
	}
	s.deeper(w, r, req.ID, req.MaxBr)
}

func (s *Server) handleDeeperByID(w http.ResponseWriter, r *http.Request) {
	maxBr := 0
	if v := r.URL.Query().Get("max_br"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, errors.Wrapf(tree.ErrInvalidInput, "max_br %q is not a number", v))
			return
		}
		maxBr = n
	}
	s.deeper(w, r, chi.URLParam(r, "id"), maxBr)
}

func (s *Server) deeper(w http.ResponseWriter, r *http.Request, id string, maxBr int) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	rec, err := s.maps.Deeper(ctx, id, maxBr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ids, err := s.maps.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.maps.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	paths, err := s.maps.Paths(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][][]string{"paths": paths})
}

func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	ids, err := s.maps.Lineage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	rec, err := s.maps.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		html, err := export.HTML(rec.Tree)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(export.Markdown(rec.Tree)))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrCorruptRecord):
		return http.StatusInternalServerError
	case errors.Is(err, tree.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case tree.IsGenerationFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		s.log.InfoContext(r.Context(), "http request",
			"method", r.Method, "path", r.URL.Path, "status", status, "elapsed", elapsed)
	})
}
