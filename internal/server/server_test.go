package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/local/slidecast/internal/metrics"
	"github.com/local/slidecast/internal/queue"
	"github.com/local/slidecast/internal/statuscheck"
	"github.com/local/slidecast/internal/store"
)

type fakeQueue struct {
	enqueued  [][]byte
	cancelled []string
}

func (f *fakeQueue) Enqueue(ctx context.Context, payload []byte) error {
	f.enqueued = append(f.enqueued, payload)
	return nil
}

func (f *fakeQueue) CancelJob(ctx context.Context, jobID string) error {
	f.cancelled = append(f.cancelled, jobID)
	return nil
}

func (f *fakeQueue) Depths(ctx context.Context) (int64, int64, error) { return 0, 0, nil }

type fakeStatus struct {
	m map[string]store.Status
}

func newFakeStatus() *fakeStatus { return &fakeStatus{m: map[string]store.Status{}} }

func (f *fakeStatus) Set(ctx context.Context, jobID string, st store.Status) error {
	f.m[jobID] = st
	return nil
}

func (f *fakeStatus) Get(ctx context.Context, jobID string) (store.Status, bool, error) {
	st, ok := f.m[jobID]
	return st, ok, nil
}

func newTestServer(t *testing.T) (*Server, *fakeQueue, *fakeStatus, *http.ServeMux) {
	t.Helper()
	metrics.Init()
	q := &fakeQueue{}
	st := newFakeStatus()
	srv := New(Dependencies{
		Queue:         q,
		Status:        st,
		Checker:       statuscheck.New(statuscheck.Options{}),
		DataDir:       t.TempDir(),
		DefaultSlides: 8,
	})
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return srv, q, st, mux
}

func TestRender_AcceptsJobAndEnqueues(t *testing.T) {
	srv, q, st, mux := newTestServer(t)

	input := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(input, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(renderReq{Input: input, SlideCount: 5})
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/render", bytes.NewReader(body)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp renderResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID == "" || resp.Status != "queued" {
		t.Fatalf("response = %+v", resp)
	}

	if len(q.enqueued) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(q.enqueued))
	}
	job, err := queue.DecodeJob(q.enqueued[0])
	if err != nil {
		t.Fatalf("decode job: %v", err)
	}
	if job.ID != resp.JobID || job.SlideCount != 5 || job.Input != input {
		t.Errorf("job = %+v", job)
	}
	if job.OutDir != filepath.Join(srv.deps.DataDir, job.ID) {
		t.Errorf("out dir = %q", job.OutDir)
	}
	if got := st.m[resp.JobID]; got.Status != "queued" {
		t.Errorf("status store entry = %+v", got)
	}
}

func TestRender_RejectsBadRequests(t *testing.T) {
	_, q, _, mux := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"not json", "{", http.StatusBadRequest},
		{"missing input", `{}`, http.StatusBadRequest},
		{"nonexistent file", `{"input":"/definitely/not/here.pdf"}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/render", bytes.NewReader([]byte(c.body))))
			if rec.Code != c.want {
				t.Errorf("status = %d, want %d", rec.Code, c.want)
			}
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/render", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /render status = %d", rec.Code)
	}

	if len(q.enqueued) != 0 {
		t.Errorf("bad requests must not enqueue, got %d jobs", len(q.enqueued))
	}
}

func TestStatusEndpoint(t *testing.T) {
	_, _, st, mux := newTestServer(t)
	st.m["job-1"] = store.Status{Status: "running", Stage: "segment", Progress: 30}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/job-1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got store.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Stage != "segment" || got.Progress != 30 {
		t.Errorf("got %+v", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job status = %d", rec.Code)
	}
}

func TestCancelEndpoint(t *testing.T) {
	_, q, st, mux := newTestServer(t)
	st.m["job-2"] = store.Status{Status: "running"}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cancel/job-2", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(q.cancelled) != 1 || q.cancelled[0] != "job-2" {
		t.Errorf("cancelled = %v", q.cancelled)
	}
	if st.m["job-2"].Status != "cancelled" {
		t.Errorf("status = %+v", st.m["job-2"])
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cancel/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown job cancel status = %d", rec.Code)
	}
}

func TestDownload_OnlyKnownArtifacts(t *testing.T) {
	srv, _, _, mux := newTestServer(t)

	jobDir := filepath.Join(srv.deps.DataDir, "job-3")
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, "deck.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, "secrets.txt"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/job-3/deck.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("deck download status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/job-3/secrets.txt", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unlisted artifact status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/job-3/presentation.mp4", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing artifact status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	_, _, _, mux := newTestServer(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}
