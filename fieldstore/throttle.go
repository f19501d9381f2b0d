package fieldstore

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ThrottleConfig holds the limits a ThrottledStore enforces.
type ThrottleConfig struct {
	// WriteBytesPerSec caps upload throughput. 0 means unlimited.
	WriteBytesPerSec int64
	// MaxConcurrentWrites caps in-flight Create/Put calls. 0 means 1.
	MaxConcurrentWrites int64
}

// ThrottledStore wraps a Store with an upload byte-rate limit and a cap on
// concurrent writers, so bulk archive uploads do not starve the rest of
// the system. Reads pass through untouched.
type ThrottledStore struct {
	inner    Store
	limiter  *rate.Limiter // nil if unlimited
	writeSem *semaphore.Weighted
}

// NewThrottledStore wraps inner with the given limits.
func NewThrottledStore(inner Store, cfg ThrottleConfig) *ThrottledStore {
	if cfg.MaxConcurrentWrites <= 0 {
		cfg.MaxConcurrentWrites = 1
	}
	s := &ThrottledStore{
		inner:    inner,
		writeSem: semaphore.NewWeighted(cfg.MaxConcurrentWrites),
	}
	if cfg.WriteBytesPerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.WriteBytesPerSec), int(cfg.WriteBytesPerSec))
	}
	return s
}

func (s *ThrottledStore) Open(ctx context.Context, name string) (Archive, error) {
	return s.inner.Open(ctx, name)
}

func (s *ThrottledStore) Create(ctx context.Context, name string) (WritableArchive, error) {
	if err := s.writeSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	w, err := s.inner.Create(ctx, name)
	if err != nil {
		s.writeSem.Release(1)
		return nil, err
	}
	return &throttledWritableArchive{
		inner:   w,
		ctx:     ctx,
		limiter: s.limiter,
		release: func() { s.writeSem.Release(1) },
	}, nil
}

func (s *ThrottledStore) Put(ctx context.Context, name string, data []byte) error {
	if err := s.writeSem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.writeSem.Release(1)
	if err := s.waitBytes(ctx, len(data)); err != nil {
		return err
	}
	return s.inner.Put(ctx, name, data)
}

func (s *ThrottledStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}

func (s *ThrottledStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// waitBytes blocks until the limiter admits n bytes. Requests larger than
// the limiter burst are split so they remain admissible.
func (s *ThrottledStore) waitBytes(ctx context.Context, n int) error {
	if s.limiter == nil {
		return nil
	}
	burst := s.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := s.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

type throttledWritableArchive struct {
	inner    WritableArchive
	ctx      context.Context
	limiter  *rate.Limiter
	release  func()
	released bool
}

func (a *throttledWritableArchive) Write(p []byte) (int, error) {
	if a.limiter != nil {
		burst := a.limiter.Burst()
		remaining := len(p)
		for remaining > 0 {
			chunk := remaining
			if chunk > burst {
				chunk = burst
			}
			if err := a.limiter.WaitN(a.ctx, chunk); err != nil {
				return len(p) - remaining, err
			}
			remaining -= chunk
		}
	}
	return a.inner.Write(p)
}

func (a *throttledWritableArchive) Close() error {
	a.releaseOnce()
	return a.inner.Close()
}

func (a *throttledWritableArchive) Abort() error {
	a.releaseOnce()
	return a.inner.Abort()
}

func (a *throttledWritableArchive) releaseOnce() {
	if !a.released {
		a.released = true
		a.release()
	}
}
