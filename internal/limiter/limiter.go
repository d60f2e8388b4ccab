// Package limiter bounds how many instances of a heavy external tool may run
// at once. LibreOffice and ffmpeg can each take hundreds of MB; with several
// queue workers active, unbounded parallel encodes exhaust the host.
package limiter

import (
	"context"
	"sync"
)

// Gate holds one semaphore per named tool.
type Gate struct {
	maxInflight int
	mu          sync.Mutex
	sem         map[string]chan struct{}
}

// New builds a gate allowing maxInflight concurrent runs per tool.
func New(maxInflight int) *Gate {
	if maxInflight <= 0 {
		maxInflight = 1
	}
	return &Gate{maxInflight: maxInflight, sem: map[string]chan struct{}{}}
}

func (g *Gate) slot(tool string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sem[tool]
	if !ok {
		s = make(chan struct{}, g.maxInflight)
		g.sem[tool] = s
	}
	return s
}

// Acquire blocks until a slot for tool is free or ctx ends.
func (g *Gate) Acquire(ctx context.Context, tool string) error {
	select {
	case g.slot(tool) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (g *Gate) Release(tool string) {
	select {
	case <-g.slot(tool):
	default:
	}
}
