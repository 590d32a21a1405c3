package pager

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/oakwood-commons/pagekit/internal/window"
)

// sliceConfig holds the behavior knobs for FromSlice sources.
type sliceConfig struct {
	latency   time.Duration
	failPages map[int]bool
	failRate  float64
	rng       *rand.Rand
}

// SliceOption configures a FromSlice source.
type SliceOption func(*sliceConfig)

// WithLatency makes every page take at least d to arrive. The wait honors
// context cancellation.
func WithLatency(d time.Duration) SliceOption {
	return func(c *sliceConfig) {
		c.latency = d
	}
}

// WithFailPages makes the listed pages fail deterministically. Useful in
// tests and the flaky-feed example.
func WithFailPages(pages ...int) SliceOption {
	return func(c *sliceConfig) {
		if c.failPages == nil {
			c.failPages = make(map[int]bool, len(pages))
		}
		for _, p := range pages {
			c.failPages[p] = true
		}
	}
}

// WithFailRate makes each fetch fail with probability rate (0..1), drawn
// from a generator seeded with seed so demos stay reproducible.
func WithFailRate(rate float64, seed int64) SliceOption {
	return func(c *sliceConfig) {
		c.failRate = rate
		c.rng = rand.New(rand.NewSource(seed))
	}
}

// FromSlice builds a Source that serves pages cut from an in-memory dataset.
// The returned source is safe for concurrent calls and copies each page, so
// callers can mutate the page they receive without touching the dataset.
func FromSlice[T any](rows []T, opts ...SliceOption) Source[T] {
	var cfg sliceConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var mu sync.Mutex // guards cfg.rng
	return func(ctx context.Context, page, limit int) ([]T, error) {
		if cfg.latency > 0 {
			timer := time.NewTimer(cfg.latency)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		if cfg.failPages[page] {
			return nil, fmt.Errorf("page %d unavailable", page)
		}
		if cfg.rng != nil && cfg.failRate > 0 {
			mu.Lock()
			roll := cfg.rng.Float64()
			mu.Unlock()
			if roll < cfg.failRate {
				return nil, fmt.Errorf("page %d unavailable", page)
			}
		}

		w := window.Config{Page: page, Limit: limit}
		if err := w.Validate(); err != nil {
			return nil, err
		}
		cut := window.Cut(rows, w)
		out := make([]T, len(cut))
		copy(out, cut)
		return out, nil
	}
}
