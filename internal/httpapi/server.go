// Package httpapi exposes the auditor over HTTP: upload transcripts, read the
// run result, download the workbook.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"sales-auditor-go/internal/aggregator"
	"sales-auditor-go/internal/archive"
	"sales-auditor-go/internal/logger"
	"sales-auditor-go/internal/observe"
	"sales-auditor-go/internal/processor"
	"sales-auditor-go/internal/report"
)

const (
	maxUploadBytes  = 64 << 20
	maxRunsInMemory = 100
)

// Runner is the part of processor.Processor the API needs.
type Runner interface {
	Run(ctx context.Context, run *aggregator.Run, files []processor.Upload, progress func(processor.Progress)) (processor.Result, error)
}

type Options struct {
	ReportFileName string
	// Archive is optional; nil keeps runs in memory only.
	Archive *archive.Store
	Metrics *observe.Metrics
}

type Server struct {
	runner Runner
	opts   Options
	log    *logger.Logger

	mu   sync.Mutex
	runs map[string]*runEntry
}

type runEntry struct {
	// held while the run is processing so re-submissions queue up
	busy   sync.Mutex
	run    *aggregator.Run
	result processor.Result
}

func New(runner Runner, opts Options, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if opts.ReportFileName == "" {
		opts.ReportFileName = report.DefaultFileName
	}
	return &Server{runner: runner, opts: opts, log: log, runs: map[string]*runEntry{}}
}

// Handler returns the routed mux, instrumented when metrics are configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /process", s.handleProcess)
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/report", s.handleReport)
	mux.Handle("GET /metrics", observe.Handler())

	if s.opts.Metrics != nil {
		return s.opts.Metrics.Middleware(mux)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "process")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		reqLog.WithError(err).Warn("bad multipart form")
		http.Error(w, "expected multipart form with files", http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		reqLog.Warn("no files uploaded")
		http.Error(w, "missing files", http.StatusBadRequest)
		return
	}

	files := make([]processor.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			http.Error(w, "cannot read upload "+h.Filename, http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, "cannot read upload "+h.Filename, http.StatusBadRequest)
			return
		}
		files = append(files, processor.Upload{Name: h.Filename, Data: data})
	}

	entry, err := s.entryFor(r.Context(), r.FormValue("run_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	reqLog = reqLog.WithField("run_id", entry.run.ID).WithField("files", len(files))
	reqLog.Info("process request received")

	entry.busy.Lock()
	if r.FormValue("reset") == "true" {
		entry.run.Reset()
		reqLog.Info("run reset before processing")
	}
	res, runErr := s.runner.Run(r.Context(), entry.run, files, nil)
	entry.result = res
	entry.busy.Unlock()

	reqLog.WithField("duration_ms", res.DurationMs).WithField("records", len(res.Records)).Info("processor finished")
	s.archive(r.Context(), entry, len(files))

	status := http.StatusOK
	if runErr != nil {
		reqLog.WithError(runErr).Warn("processor returned error")
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

// entryFor returns the run for id, creating a fresh one when id is empty.
func (s *Server) entryFor(ctx context.Context, id string) (*runEntry, error) {
	if id == "" {
		e := &runEntry{run: aggregator.NewRun()}
		s.mu.Lock()
		s.store(e)
		s.mu.Unlock()
		return e, nil
	}

	s.mu.Lock()
	e, ok := s.runs[id]
	s.mu.Unlock()
	if ok {
		return e, nil
	}
	if s.opts.Archive == nil {
		return nil, fmt.Errorf("unknown run_id %q", id)
	}

	// Continue an archived run: its records seed the dedupe index.
	rep, diag, err := s.opts.Archive.Report(ctx, id)
	if err != nil {
		if !errors.Is(err, archive.ErrNotFound) {
			s.log.WithError(err).Warn("archive lookup failed")
		}
		return nil, fmt.Errorf("unknown run_id %q", id)
	}
	run := aggregator.NewRunWithID(id)
	for _, rec := range rep.Records {
		run.Append(rec)
	}
	loaded := &runEntry{run: run, result: processor.Result{RunID: id, Report: rep, Diagnostics: diag}}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another request may have loaded the same run meanwhile
	if e, ok := s.runs[id]; ok {
		return e, nil
	}
	s.store(loaded)
	return loaded, nil
}

// store must be called with s.mu held.
func (s *Server) store(e *runEntry) {
	s.runs[e.run.ID] = e
	if len(s.runs) <= maxRunsInMemory {
		return
	}
	var oldest *runEntry
	for _, c := range s.runs {
		if oldest == nil || c.run.CreatedAt.Before(oldest.run.CreatedAt) {
			oldest = c
		}
	}
	delete(s.runs, oldest.run.ID)
}

func (s *Server) lookup(id string) (processor.Result, bool) {
	s.mu.Lock()
	e, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		return processor.Result{}, false
	}
	e.busy.Lock()
	defer e.busy.Unlock()
	return e.result, true
}

func (s *Server) archive(ctx context.Context, e *runEntry, fileCount int) {
	if s.opts.Archive == nil {
		return
	}
	e.busy.Lock()
	res := e.result
	e.busy.Unlock()

	wb, err := report.Bytes(res.Report)
	if err != nil {
		s.log.WithError(err).Warn("render workbook for archive failed")
		return
	}
	err = s.opts.Archive.Save(ctx, archive.Entry{
		ID:          e.run.ID,
		CreatedAt:   e.run.CreatedAt,
		FileCount:   fileCount,
		Report:      res.Report,
		Diagnostics: res.Diagnostics,
		Workbook:    wb,
	})
	if err != nil {
		s.log.WithError(err).WithField("run_id", e.run.ID).Warn("archive save failed")
	}
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if res, ok := s.lookup(id); ok {
		writeJSON(w, http.StatusOK, res)
		return
	}
	if s.opts.Archive != nil {
		rep, diag, err := s.opts.Archive.Report(r.Context(), id)
		if err == nil {
			writeJSON(w, http.StatusOK, processor.Result{RunID: id, Report: rep, Diagnostics: diag})
			return
		}
	}
	http.Error(w, "run not found", http.StatusNotFound)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "report")
	id := r.PathValue("id")

	var data []byte
	if res, ok := s.lookup(id); ok {
		b, err := report.Bytes(res.Report)
		if err != nil {
			reqLog.WithError(err).Error("render workbook failed")
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		data = b
	} else if s.opts.Archive != nil {
		b, err := s.opts.Archive.Workbook(r.Context(), id)
		if err != nil {
			if errors.Is(err, archive.ErrNotFound) {
				http.Error(w, "run not found", http.StatusNotFound)
				return
			}
			reqLog.WithError(err).Error("archive read failed")
			http.Error(w, "archive read failed", http.StatusInternalServerError)
			return
		}
		data = b
	} else {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, s.opts.ReportFileName))
	if _, err := w.Write(data); err != nil {
		reqLog.WithError(err).Error("failed to write workbook")
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.opts.Archive != nil {
		list, err := s.opts.Archive.List(r.Context(), 50)
		if err != nil {
			s.log.WithError(err).Error("archive list failed")
			http.Error(w, "archive list failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	s.mu.Lock()
	list := make([]archive.Summary, 0, len(s.runs))
	for _, e := range s.runs {
		list = append(list, archive.Summary{ID: e.run.ID, CreatedAt: e.run.CreatedAt, RecordCount: e.run.Len()})
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
