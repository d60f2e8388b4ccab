// Package store keeps per-job render status in Redis hashes so the HTTP API
// can answer progress queries without touching the workers.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Status is one job's externally visible state.
type Status struct {
	Status   string                 `json:"status"` // queued, running, done, failed, cancelled
	Stage    string                 `json:"stage,omitempty"`
	Progress int                    `json:"progress"`
	Message  string                 `json:"message,omitempty"`
	Start    *time.Time             `json:"start_time,omitempty"`
	End      *time.Time             `json:"end_time,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// RedisStatus stores job statuses under job:<id>:status hashes.
type RedisStatus struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects the status store. Entries expire after ttl (default 7 days).
func New(redisURL string, ttl time.Duration) (*RedisStatus, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	if err := c.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStatus{client: c, ttl: ttl}, nil
}

func (s *RedisStatus) key(jobID string) string { return fmt.Sprintf("job:%s:status", jobID) }

// Set writes the full status for a job.
func (s *RedisStatus) Set(ctx context.Context, jobID string, st Status) error {
	m := map[string]interface{}{
		"status":   st.Status,
		"stage":    st.Stage,
		"progress": st.Progress,
		"message":  st.Message,
	}
	if st.Start != nil {
		m["start"] = st.Start.Format(time.RFC3339Nano)
	}
	if st.End != nil {
		m["end"] = st.End.Format(time.RFC3339Nano)
	}
	if st.Metadata != nil {
		b, _ := json.Marshal(st.Metadata)
		m["metadata"] = string(b)
	}
	key := s.key(jobID)
	if err := s.client.HSet(ctx, key, m).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

// UpdateProgress writes only the stage and progress fields, leaving status,
// message and timestamps untouched.
func (s *RedisStatus) UpdateProgress(ctx context.Context, jobID, stage string, progress int) error {
	key := s.key(jobID)
	if err := s.client.HSet(ctx, key, map[string]interface{}{
		"stage":    stage,
		"progress": progress,
	}).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

// Get reads a job's status; the bool reports whether the job is known.
func (s *RedisStatus) Get(ctx context.Context, jobID string) (Status, bool, error) {
	res, err := s.client.HGetAll(ctx, s.key(jobID)).Result()
	if err != nil {
		return Status{}, false, err
	}
	if len(res) == 0 {
		return Status{}, false, nil
	}
	st := Status{Status: res["status"], Stage: res["stage"], Message: res["message"]}
	if p := res["progress"]; p != "" {
		fmt.Sscan(p, &st.Progress)
	}
	if v := res["start"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.Start = &t
		}
	}
	if v := res["end"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			st.End = &t
		}
	}
	if v := res["metadata"]; v != "" {
		_ = json.Unmarshal([]byte(v), &st.Metadata)
	}
	return st, true, nil
}

func (s *RedisStatus) Close() error { return s.client.Close() }

// Ping checks redis connectivity.
func (s *RedisStatus) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }
