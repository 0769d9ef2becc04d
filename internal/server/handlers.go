package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/54b3r/docrag/internal/loader"
	"github.com/54b3r/docrag/internal/logging"
	"github.com/54b3r/docrag/internal/rag"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// handleIngest handles POST /api/ingest. Paths outside the ingest root are
// rejected with 403. Loader errors map to client errors: unsupported formats
// to 400, unreadable files to 404, and parse failures to 422.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req ingestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	path, err := confineToDir(s.ingestRoot, req.Path)
	if err != nil {
		log.Warn("ingest path rejected", slog.String("file", req.Path), slog.String("root", s.ingestRoot))
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	rep, err := s.svc.Ingest(ctx, path)
	if err != nil {
		status := ingestStatus(err)
		if status >= http.StatusInternalServerError {
			log.Error("ingest failed", slog.String("file", path), slog.Any("error", err))
		} else {
			log.Warn("ingest rejected", slog.String("file", path), slog.Any("error", err))
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, log, http.StatusOK, ingestResponse{
		Path:    rep.Path,
		Records: rep.Records,
		Chunks:  rep.Chunks,
		Stored:  rep.Stored,
	})
}

// ingestStatus maps an ingestion error to an HTTP status.
func ingestStatus(err error) int {
	switch {
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, loader.ErrIO):
		return http.StatusNotFound
	case errors.Is(err, loader.ErrParse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleAsk handles POST /api/ask. The answer is written back into the store
// when feedback is enabled.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req askRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	rep, err := s.svc.Ask(ctx, req.Question)
	if err == nil && rep.QueryErr != nil {
		err = rep.QueryErr
	}
	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Error("ask failed", slog.Any("error", err))
		status := http.StatusBadGateway
		if outcome == "timeout" {
			status = http.StatusGatewayTimeout
		}
		writeError(w, status, err.Error())
		return
	}

	resp := askResponse{
		Question: rep.Answer.Question,
		Answer:   rep.Answer.Text,
		Mode:     rep.Answer.Mode,
		Sources:  toItems(rep.Answer.Sources),
	}
	if rep.Feedback != nil {
		resp.Verified = &rep.Feedback.Verified
		resp.Retrieved = toItems(rep.Feedback.Retrieved)
	}
	writeJSON(w, log, http.StatusOK, resp)
}

// handleSearch handles GET /api/search?q=...&k=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	k := rag.DefaultTopK
	if raw := r.URL.Query().Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = n
	}

	items, err := s.svc.Search(r.Context(), q, k)
	if err != nil {
		log.Error("search failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, log, http.StatusOK, searchResponse{Query: q, Items: toItems(items)})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, logging.FromContext(r.Context()), http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("response encode error", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}
