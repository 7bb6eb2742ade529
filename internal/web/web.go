package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"golang.org/x/sync/errgroup"

	"icalyse/internal/bookmarks"
	"icalyse/internal/config"
	"icalyse/internal/export"
	"icalyse/internal/ics"
	appLog "icalyse/internal/log"
	"icalyse/internal/metrics"
	"icalyse/internal/pipeline"
	"icalyse/internal/query"
)

// CalendarSource loads calendars either normalized (for the pipeline) or as
// raw component trees (for /merge). *ics.Client implements it.
type CalendarSource interface {
	pipeline.CalendarLoader
	FetchCalendar(ctx context.Context, url string) (*ical.Calendar, error)
}

// Server provides the export endpoints and the bookmark API.
type Server struct {
	cfg       *config.Config
	source    CalendarSource
	pipeline  *pipeline.Pipeline
	bookmarks *bookmarks.Store
	mux       *http.ServeMux

	// now is overridden in tests to pin DTSTAMP and CSV filenames.
	now func() time.Time
}

// NewServer constructs a new Server. A nil store disables /api/bookmarks.
func NewServer(cfg *config.Config, source CalendarSource, store *bookmarks.Store) *Server {
	s := &Server{
		cfg:    cfg,
		source: source,
		pipeline: pipeline.New(source, pipeline.Options{
			Location: cfg.Location(),
			Locale:   cfg.Locale,
		}),
		bookmarks: store,
		mux:       http.NewServeMux(),
		now:       time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

// StartServer serves HTTP on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, source CalendarSource, store *bookmarks.Store) error {
	s := NewServer(cfg, source, store)
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) registerRoutes() {
	s.route("GET /health", s.handleHealth)
	s.route("GET /json", s.handleJSON)
	s.route("GET /csv", s.handleCSV)
	s.route("GET /ics", s.handleICS)
	s.route("GET /merge", s.handleMerge)
	s.mux.Handle("GET /metrics", metrics.Handler())

	if s.bookmarks != nil {
		s.route("GET /api/bookmarks", s.handleListBookmarks)
		s.route("POST /api/bookmarks", s.handleAddBookmark)
		s.route("DELETE /api/bookmarks", s.handleRemoveBookmark)
	}
}

// route registers h under pattern, counting responses per endpoint.
func (s *Server) route(pattern string, h http.HandlerFunc) {
	_, endpoint, _ := strings.Cut(pattern, " ")
	s.mux.Handle(pattern, instrument(endpoint, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleJSON returns the full pipeline result.
//
// GET /json?urls=...&from=2024-01-01&to=2024-01-31&summary=team -sync
func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	res, err := s.pipeline.Run(r.Context(), query.Parse(r.URL.Query()))
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}

	writeEncoded(w, r, export.JSONContentType, "", func(buf io.Writer) error {
		return export.WriteJSON(buf, res)
	})
}

// handleCSV returns the result as a CSV attachment. Requests without any
// source are sent back to the CSV tab of the UI.
func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	q := query.Parse(r.URL.Query())
	if len(q.URLs) == 0 {
		http.Redirect(w, r, "/?tab=csv", http.StatusSeeOther)
		return
	}

	res, err := s.pipeline.Run(r.Context(), q)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}

	writeEncoded(w, r, export.CSVContentType, export.CSVFilename(s.now()), func(buf io.Writer) error {
		return export.WriteCSV(buf, res, s.pipeline.Location())
	})
}

// handleICS re-serializes the processed events as an iCalendar attachment.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	q := query.Parse(r.URL.Query())
	if len(q.URLs) == 0 {
		http.Redirect(w, r, "/?tab=ics", http.StatusSeeOther)
		return
	}

	res, err := s.pipeline.Run(r.Context(), q)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}

	now := s.now()
	writeEncoded(w, r, export.CalendarContentType, export.CalendarFilename, func(buf io.Writer) error {
		return export.WriteCalendar(buf, res, now)
	})
}

// handleMerge concatenates the VEVENTs of every source without running the
// pipeline.
//
// GET /merge?url=a.ics&url=b.ics
func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	q := query.Parse(r.URL.Query())
	cals, err := s.fetchRaw(r.Context(), q.URLs)
	if err != nil {
		s.writePipelineError(w, r, err)
		return
	}

	merged := ics.MergeRaw(cals)
	writeEncoded(w, r, "text/calendar", "", func(buf io.Writer) error {
		return export.WriteRawCalendar(buf, merged)
	})
}

// fetchRaw downloads every source concurrently, failing on the first error.
func (s *Server) fetchRaw(ctx context.Context, urls []string) ([]*ical.Calendar, error) {
	if len(urls) == 0 {
		return nil, pipeline.ErrMissingInput
	}

	cals := make([]*ical.Calendar, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range urls {
		g.Go(func() error {
			cal, err := s.source.FetchCalendar(gctx, u)
			if err != nil {
				return &pipeline.SourceUnavailableError{URL: u, Err: err}
			}
			cals[i] = cal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cals, nil
}

type bookmarkRequest struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.bookmarks.List())
}

// handleAddBookmark stores {url, name}. An already bookmarked URL keeps its
// name and answers 200 instead of 201.
func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	added, err := s.bookmarks.Add(req.URL, req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if added {
		if err := s.bookmarks.Save(); err != nil {
			appLog.Error("failed to save bookmarks", err, "request_id", requestID(r.Context()))
			writeError(w, http.StatusInternalServerError, "failed to save bookmarks")
			return
		}
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, s.bookmarks.List())
}

// handleRemoveBookmark deletes ?url=. Unknown URLs answer 404.
func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	u := r.URL.Query().Get(query.KeyURL)
	if u == "" {
		writeError(w, http.StatusBadRequest, "missing url parameter")
		return
	}
	if !s.bookmarks.Remove(u) {
		writeError(w, http.StatusNotFound, "bookmark not found")
		return
	}
	if err := s.bookmarks.Save(); err != nil {
		appLog.Error("failed to save bookmarks", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to save bookmarks")
		return
	}
	writeJSON(w, http.StatusOK, s.bookmarks.List())
}

// writePipelineError maps run errors to HTTP statuses and logs them once.
func (s *Server) writePipelineError(w http.ResponseWriter, r *http.Request, err error) {
	var srcErr *pipeline.SourceUnavailableError
	switch {
	case errors.Is(err, pipeline.ErrMissingInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &srcErr):
		appLog.Error("calendar source unavailable", srcErr.Err,
			"url", ics.RedactURL(srcErr.URL),
			"request_id", requestID(r.Context()),
		)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		appLog.Error("pipeline run failed", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to process calendar")
	}
}

// writeEncoded renders the body in memory before sending any header, so an
// encoding failure turns into a 500 instead of a truncated 200. A non-empty
// filename adds an attachment disposition.
func writeEncoded(w http.ResponseWriter, r *http.Request, contentType, filename string, encode func(io.Writer) error) {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		appLog.Error("failed to encode response", err, "request_id", requestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		appLog.Error("failed to write response", err, "request_id", requestID(r.Context()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
