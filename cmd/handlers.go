package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-finder/internal/export"
	"github.com/sells-group/lead-finder/internal/model"
	"github.com/sells-group/lead-finder/internal/pipeline"
	"github.com/sells-group/lead-finder/internal/progress"
	"github.com/sells-group/lead-finder/internal/store"
)

// streamBuffer is how many events may queue ahead of a slow client.
const streamBuffer = 64

// leadRunner executes lead searches.
type leadRunner interface {
	Execute(ctx context.Context, run *pipeline.Run, sink progress.Sink) ([]model.LeadRecord, error)
	Messages() pipeline.Messages
}

// leadReader serves history queries.
type leadReader interface {
	RecentLeads(ctx context.Context, limit int) ([]model.StoredLead, error)
	LogsBySearch(ctx context.Context, searchID string) ([]model.SearchLog, error)
}

// server holds the HTTP handlers' dependencies.
type server struct {
	pipeline leadRunner
	store    leadReader
	runs     *progress.Registry
	audit    progress.Sink // may be nil
}

// newRouter builds the API routes.
func newRouter(s *server, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/find-leads", s.handleFindLeads)
		r.Post("/searches/{id}/stop", s.handleStop)
		r.Get("/searches/{id}/logs", s.handleLogs)
		r.Get("/leads", s.handleLeads)
		r.Get("/leads/export", s.handleExport)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "live_searches": s.runs.Len()})
}

// defaultSearchLimit applies when the form omits a place limit.
const defaultSearchLimit = 20

// findLeadsRequest is the search form payload: comma separated titles and
// a radius in kilometres.
type findLeadsRequest struct {
	Keywords         string        `json:"keywords"`
	TargetTitles     string        `json:"targetTitles"`
	SelectedLocation *model.LatLng `json:"selectedLocation"`
	Radius           float64       `json:"radius"`
	Limit            int           `json:"limit"`
}

func (f findLeadsRequest) toSearch() (model.SearchRequest, error) {
	if strings.TrimSpace(f.Keywords) == "" || strings.TrimSpace(f.TargetTitles) == "" || f.SelectedLocation == nil {
		return model.SearchRequest{}, eris.New("missing required parameters")
	}
	if f.Limit <= 0 {
		f.Limit = defaultSearchLimit
	}
	req := model.SearchRequest{
		Keywords:     strings.TrimSpace(f.Keywords),
		TargetTitles: splitTitles(f.TargetTitles),
		Location:     *f.SelectedLocation,
		RadiusMeters: f.Radius * 1000,
		ResultLimit:  f.Limit,
	}
	return req, req.Validate()
}

func splitTitles(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// handleFindLeads streams a search as server-sent events. The first frame
// is a status carrying the search ID.
func (s *server) handleFindLeads(w http.ResponseWriter, r *http.Request) {
	var body findLeadsRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := body.toSearch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sse, err := progress.NewSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	run := pipeline.NewRun("", req)
	s.runs.Register(run.ID, run)
	log := zap.L().With(zap.String("search_id", run.ID))

	start := model.StatusEvent(s.pipeline.Messages().SearchingPlaces)
	start.SearchID = run.ID
	if err := sse.Write(start); err != nil {
		s.runs.Remove(run.ID)
		log.Warn("client gone before search started", zap.Error(err))
		return
	}

	stream := progress.NewStream(streamBuffer)
	ctx := r.Context()
	go func() {
		defer stream.Close()
		defer s.runs.Remove(run.ID)
		records, err := s.pipeline.Execute(ctx, run, progress.Fanout(stream, s.audit))
		if err != nil {
			log.Warn("search ended with error", zap.Int("results", len(records)), zap.Error(err))
			return
		}
		log.Info("search finished", zap.Int("results", len(records)))
	}()

	if err := sse.Pump(ctx, stream.Events()); err != nil {
		log.Info("event stream closed early", zap.Error(err))
	}
	stream.Detach()
}

func (s *server) handleStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.runs.Stop(id) {
		writeError(w, http.StatusNotFound, "search not found")
		return
	}
	zap.L().Info("search stop requested", zap.String("search_id", id))
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopping", "searchId": id})
}

func (s *server) handleLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.LogsBySearch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		zap.L().Error("load search logs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load logs")
		return
	}
	if logs == nil {
		logs = []model.SearchLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

func queryLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return store.DefaultRecentLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, eris.New("limit must be a positive integer")
	}
	return n, nil
}

func (s *server) handleLeads(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	leads, err := s.store.RecentLeads(r.Context(), limit)
	if err != nil {
		zap.L().Error("load recent leads", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load leads")
		return
	}
	if leads == nil {
		leads = []model.StoredLead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	leads, err := s.store.RecentLeads(r.Context(), limit)
	if err != nil {
		zap.L().Error("load leads for export", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load leads")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(time.Now())))
	if err := export.Write(w, format, leads); err != nil {
		zap.L().Error("write export", zap.Error(err))
	}
}
