// Package worker consumes render jobs from the queue and drives the pipeline,
// publishing progress to the status store as each stage completes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/slidecast/internal/config"
	"github.com/local/slidecast/internal/metrics"
	"github.com/local/slidecast/internal/pipeline"
	"github.com/local/slidecast/internal/queue"
	"github.com/local/slidecast/internal/store"
)

// Queue is the consumer side of the job queue.
type Queue interface {
	Dequeue(ctx context.Context, consumer string, timeout time.Duration) (string, []byte, error)
	Ack(ctx context.Context, msgID string) error
	IsCancelled(ctx context.Context, jobID string) (bool, error)
	AddDLQ(ctx context.Context, payload []byte, reason string) error
	Depths(ctx context.Context) (int64, int64, error)
}

// StatusStore publishes job progress.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st store.Status) error
	UpdateProgress(ctx context.Context, jobID, stage string, progress int) error
}

// Uploader pushes finished artifacts to object storage.
type Uploader interface {
	FetchToTemp(ctx context.Context, s3url string) (string, error)
	UploadAll(ctx context.Context, jobID string, paths []string) ([]string, error)
}

// Worker runs the consume loops.
type Worker struct {
	cfg      config.Config
	q        Queue
	status   StatusStore
	uploader Uploader // nil when S3 upload is disabled
	pipe     *pipeline.Pipeline

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(cfg config.Config, q Queue, status StatusStore, uploader Uploader) *Worker {
	if cfg.Worker.Concurrency <= 0 {
		cfg.Worker.Concurrency = 2
	}
	return &Worker{
		cfg:      cfg,
		q:        q,
		status:   status,
		uploader: uploader,
		pipe:     pipeline.New(cfg),
		stop:     make(chan struct{}),
	}
}

// Start launches the consumer goroutines and the queue depth gauge.
func (w *Worker) Start() {
	for i := 0; i < w.cfg.Worker.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(i)
	}
	w.wg.Add(1)
	go w.gaugeLoop()
}

// Stop signals the loops and waits for in-flight jobs to finish or ctx to end.
func (w *Worker) Stop(ctx context.Context) error {
	close(w.stop)
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop(id int) {
	defer w.wg.Done()
	consumer := fmt.Sprintf("worker-%d", id)
	log.Info().Int("worker", id).Msg("render worker started")
	for {
		select {
		case <-w.stop:
			log.Info().Int("worker", id).Msg("render worker stopped")
			return
		default:
		}

		msgID, data, err := w.q.Dequeue(context.Background(), consumer, 2*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("queue dequeue error")
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if data == nil {
			continue
		}

		job, err := queue.DecodeJob(data)
		if err != nil || job.ID == "" {
			log.Error().Err(err).Str("msg_id", msgID).Msg("malformed job payload")
			_ = w.q.AddDLQ(context.Background(), data, "malformed payload")
			_ = w.q.Ack(context.Background(), msgID)
			continue
		}

		if cancelled, _ := w.q.IsCancelled(context.Background(), job.ID); cancelled {
			log.Warn().Int("worker", id).Str("job_id", job.ID).Msg("job cancelled before processing, skipping")
			_ = w.q.Ack(context.Background(), msgID)
			continue
		}

		w.process(id, job, data)
		_ = w.q.Ack(context.Background(), msgID)
	}
}

func (w *Worker) process(id int, job queue.Job, raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Worker.JobTimeout)
	defer cancel()

	// A cancel request arriving mid-run aborts the pipeline through the context.
	go w.watchCancel(ctx, cancel, job.ID)

	input := job.Input
	if strings.HasPrefix(input, "s3://") {
		if w.uploader == nil {
			w.fail(job, raw, "s3 input but storage is not configured")
			return
		}
		local, err := w.uploader.FetchToTemp(ctx, input)
		if err != nil {
			w.fail(job, raw, fmt.Sprintf("fetch input: %v", err))
			return
		}
		defer os.Remove(local)
		input = local
	}

	start := time.Now()
	_ = w.status.Set(ctx, job.ID, store.Status{Status: "running", Stage: "ingest", Message: "started", Start: &start})

	res, err := w.pipe.Run(ctx, pipeline.Request{
		Input:      input,
		SlideCount: job.SlideCount,
		OutDir:     job.OutDir,
		OnProgress: func(stage string, pct int) {
			_ = w.status.UpdateProgress(context.Background(), job.ID, stage, pct)
		},
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			log.Warn().Int("worker", id).Str("job_id", job.ID).Msg("job cancelled mid-run")
			end := time.Now()
			_ = w.status.Set(context.Background(), job.ID, store.Status{Status: "cancelled", Message: "cancelled mid-run", End: &end})
			return
		}
		w.fail(job, raw, err.Error())
		return
	}

	meta := map[string]interface{}{
		"requested_slides": res.Requested,
		"produced_slides":  res.Produced,
		"budget_shortfall": res.BudgetShortfall,
		"deck":             res.DeckPath,
		"script":           res.ScriptPath,
	}
	if res.VideoPath != "" {
		meta["video"] = res.VideoPath
		meta["runtime_seconds"] = int(res.Runtime.Seconds())
	}

	if w.uploader != nil {
		urls, err := w.uploader.UploadAll(ctx, job.ID, []string{res.DeckPath, res.ScriptPath, res.VideoPath})
		if err != nil {
			w.fail(job, raw, fmt.Sprintf("upload artifacts: %v", err))
			return
		}
		meta["s3_urls"] = urls
	}

	end := time.Now()
	msg := "completed"
	if res.BudgetShortfall {
		msg = fmt.Sprintf("completed with %d of %d slides", res.Produced, res.Requested)
	}
	_ = w.status.Set(context.Background(), job.ID, store.Status{
		Status: "done", Stage: "done", Progress: 100, Message: msg, End: &end, Metadata: meta,
	})
	log.Info().Int("worker", id).Str("job_id", job.ID).Int("slides", res.Produced).Msg("job finished")
}

func (w *Worker) fail(job queue.Job, raw []byte, reason string) {
	log.Error().Str("job_id", job.ID).Str("reason", reason).Msg("job failed")
	end := time.Now()
	_ = w.status.Set(context.Background(), job.ID, store.Status{Status: "failed", Message: reason, End: &end})
	_ = w.q.AddDLQ(context.Background(), raw, reason)
}

// watchCancel polls the cancellation set and cancels the run context on a hit.
func (w *Worker) watchCancel(ctx context.Context, cancel context.CancelFunc, jobID string) {
	t := time.NewTicker(2 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if cancelled, _ := w.q.IsCancelled(ctx, jobID); cancelled {
				cancel()
				return
			}
		}
	}
}

// gaugeLoop refreshes the queue depth gauges.
func (w *Worker) gaugeLoop() {
	defer w.wg.Done()
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-w.stop:
			return
		case <-t.C:
			depth, dlq, err := w.q.Depths(context.Background())
			if err != nil {
				continue
			}
			metrics.SetQueueDepth("jobs", depth)
			metrics.SetQueueDepth("dlq", dlq)
		}
	}
}
