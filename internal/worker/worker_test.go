package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/local/slidecast/internal/config"
	"github.com/local/slidecast/internal/queue"
	"github.com/local/slidecast/internal/store"
)

type fakeQueue struct {
	mu  sync.Mutex
	dlq []string
}

func (f *fakeQueue) Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error) {
	return "", nil, nil
}

func (f *fakeQueue) Ack(ctx context.Context, msgID string) error { return nil }

func (f *fakeQueue) IsCancelled(ctx context.Context, jobID string) (bool, error) {
	return false, nil
}

func (f *fakeQueue) AddDLQ(ctx context.Context, payload []byte, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dlq = append(f.dlq, reason)
	return nil
}

func (f *fakeQueue) Depths(ctx context.Context) (int64, int64, error) { return 0, 0, nil }

type fakeStatus struct {
	mu       sync.Mutex
	sets     []store.Status
	progress []string
}

func (f *fakeStatus) Set(ctx context.Context, jobID string, st store.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, st)
	return nil
}

func (f *fakeStatus) UpdateProgress(ctx context.Context, jobID, stage string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, stage)
	return nil
}

func TestProcess_FailedJobGoesToDLQ(t *testing.T) {
	cfg := config.FromEnv()
	q := &fakeQueue{}
	st := &fakeStatus{}
	w := New(cfg, q, st, nil)

	job := queue.Job{
		ID:         "job-1",
		Input:      "/definitely/not/here.pdf",
		SlideCount: 4,
		OutDir:     t.TempDir(),
	}
	w.process(0, job, job.Encode())

	if len(q.dlq) != 1 {
		t.Fatalf("expected 1 dlq entry, got %d", len(q.dlq))
	}

	if len(st.sets) < 2 {
		t.Fatalf("expected running and failed status writes, got %d", len(st.sets))
	}
	first, last := st.sets[0], st.sets[len(st.sets)-1]
	if first.Status != "running" || first.Message != "started" {
		t.Errorf("first status = %+v", first)
	}
	if last.Status != "failed" || last.Message == "" {
		t.Errorf("final status = %+v", last)
	}
}

func TestProcess_StageUpdatesPreserveMessage(t *testing.T) {
	cfg := config.FromEnv()
	st := &fakeStatus{}
	w := New(cfg, &fakeQueue{}, st, nil)

	job := queue.Job{ID: "job-2", Input: "/missing/input.pdf", OutDir: t.TempDir()}
	w.process(0, job, job.Encode())

	// Stage reports go through the partial progress write, never through a
	// full status write that would blank out the message field.
	if len(st.progress) == 0 {
		t.Fatal("expected at least one stage progress update")
	}
	if st.progress[0] != "ingest" {
		t.Errorf("first stage = %q, want ingest", st.progress[0])
	}
	for _, s := range st.sets {
		if s.Message == "" {
			t.Errorf("full status write with empty message: %+v", s)
		}
	}
}

func TestProcess_S3InputWithoutStorageFails(t *testing.T) {
	cfg := config.FromEnv()
	q := &fakeQueue{}
	st := &fakeStatus{}
	w := New(cfg, q, st, nil)

	job := queue.Job{ID: "job-3", Input: "s3://bucket/doc.pdf", OutDir: t.TempDir()}
	w.process(0, job, job.Encode())

	if len(q.dlq) != 1 {
		t.Fatalf("expected dlq entry, got %d", len(q.dlq))
	}
	last := st.sets[len(st.sets)-1]
	if last.Status != "failed" {
		t.Errorf("final status = %+v", last)
	}
}
