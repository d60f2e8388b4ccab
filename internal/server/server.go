// Package server is the HTTP front end for server mode: it accepts render
// jobs, exposes their status and serves finished artifacts.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/slidecast/internal/metrics"
	"github.com/local/slidecast/internal/queue"
	"github.com/local/slidecast/internal/statuscheck"
	"github.com/local/slidecast/internal/store"
)

// Queue is the subset of queue operations the front end needs.
type Queue interface {
	Enqueue(ctx context.Context, payload []byte) error
	CancelJob(ctx context.Context, jobID string) error
	Depths(ctx context.Context) (int64, int64, error)
}

// StatusStore reads and writes externally visible job state.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
	Get(ctx context.Context, jobID string) (store.Status, bool, error)
}

// Dependencies wires the server to its collaborators.
type Dependencies struct {
	Queue   Queue
	Status  StatusStore
	Checker *statuscheck.Checker

	DataDir       string // job output directories live under DataDir/<job_id>
	DefaultSlides int
}

type Server struct {
	deps Dependencies
}

func New(deps Dependencies) *Server {
	return &Server{deps: deps}
}

// RegisterRoutes attaches all handlers to mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/render", s.handleRender)
	mux.HandleFunc("/render/upload", s.handleRenderUpload)
	mux.HandleFunc("/status/", s.handleStatus)
	mux.HandleFunc("/cancel/", s.handleCancel)
	mux.HandleFunc("/download/", s.handleDownload)
}

type renderReq struct {
	Input      string `json:"input"` // local path or s3:// URL
	SlideCount int    `json:"slide_count"`
}

type renderResp struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req renderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Input == "" {
		http.Error(w, "missing input", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(req.Input, "s3://") {
		if _, err := os.Stat(req.Input); err != nil {
			http.Error(w, "input not found", http.StatusBadRequest)
			return
		}
	}
	s.acceptJob(w, r, req.Input, req.SlideCount)
}

// handleRenderUpload accepts a multipart document upload and enqueues it.
func (s *Server) handleRenderUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	uploads := filepath.Join(s.deps.DataDir, "uploads")
	if err := os.MkdirAll(uploads, 0o755); err != nil {
		http.Error(w, "upload error", http.StatusInternalServerError)
		return
	}
	dst := filepath.Join(uploads, uuid.NewString()+filepath.Ext(hdr.Filename))
	out, err := os.Create(dst)
	if err != nil {
		http.Error(w, "upload error", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(dst)
		http.Error(w, "upload error", http.StatusInternalServerError)
		return
	}
	out.Close()

	slidesWanted := 0
	fmt.Sscan(r.FormValue("slide_count"), &slidesWanted)
	s.acceptJob(w, r, dst, slidesWanted)
}

func (s *Server) acceptJob(w http.ResponseWriter, r *http.Request, input string, slideCount int) {
	if slideCount <= 0 {
		slideCount = s.deps.DefaultSlides
	}
	jobID := uuid.NewString()
	job := queue.Job{
		ID:         jobID,
		Input:      input,
		SlideCount: slideCount,
		OutDir:     filepath.Join(s.deps.DataDir, jobID),
	}

	start := time.Now()
	_ = s.deps.Status.Set(r.Context(), jobID, store.Status{
		Status:   "queued",
		Progress: 0,
		Message:  "queued",
		Start:    &start,
		Metadata: map[string]interface{}{"input": input, "slide_count": slideCount},
	})

	if err := s.deps.Queue.Enqueue(r.Context(), job.Encode()); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("enqueue failed")
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
		return
	}

	log.Info().Str("job_id", jobID).Str("input", input).Int("slides", slideCount).Msg("job accepted")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(renderResp{Status: "queued", JobID: jobID})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/status/")
	if jobID == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}
	st, ok, err := s.deps.Status.Get(r.Context(), jobID)
	if err != nil {
		http.Error(w, "status store unavailable", http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	jobID := strings.TrimPrefix(r.URL.Path, "/cancel/")
	if jobID == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}
	if _, ok, _ := s.deps.Status.Get(r.Context(), jobID); !ok {
		http.Error(w, "unknown job", http.StatusNotFound)
		return
	}
	if err := s.deps.Queue.CancelJob(r.Context(), jobID); err != nil {
		http.Error(w, "cancel failed", http.StatusServiceUnavailable)
		return
	}
	_ = s.deps.Status.Set(r.Context(), jobID, store.Status{Status: "cancelled", Message: "cancelled by client"})
	log.Info().Str("job_id", jobID).Msg("job cancelled")
	w.WriteHeader(http.StatusAccepted)
}

// artifactNames are the only files the download handler will serve.
var artifactNames = map[string]string{
	"deck.pdf":         "application/pdf",
	"script.docx":      "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"presentation.mp4": "video/mp4",
}

// handleDownload serves /download/<job_id>/<artifact> from the job directory.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/download/")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.Error(w, "usage: /download/<job_id>/<artifact>", http.StatusBadRequest)
		return
	}
	jobID, artifact := parts[0], parts[1]
	contentType, ok := artifactNames[artifact]
	if !ok {
		http.Error(w, "unknown artifact", http.StatusNotFound)
		return
	}
	path := filepath.Join(s.deps.DataDir, jobID, artifact)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "artifact not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact))
	http.ServeFile(w, r, path)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	sum := s.deps.Checker.Summary(r.Context())
	w.Header().Set("Content-Type", "application/json")
	if !sum.OK() {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(sum)
}
