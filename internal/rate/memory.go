package rate

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/certhub/internal/metrics"
)

// MemoryLimiter: fixed window in-process, para deploys de un solo nodo
// o desarrollo sin redis. Mismo contrato que RedisLimiter.
type MemoryLimiter struct {
	max    int64
	window time.Duration

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	hits  int64
}

func NewMemoryLimiter(max int, win time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     int64(max),
		window:  win,
		windows: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !w.start.Equal(winStart) {
		w = &window{start: winStart}
		l.windows[key] = w
		// Barrido oportunista de ventanas viejas.
		for k, old := range l.windows {
			if now.Sub(old.start) > 2*l.window {
				delete(l.windows, k)
			}
		}
	}
	w.hits++

	res := Result{
		Allowed:   w.hits <= l.max,
		Remaining: remaining(l.max, w.hits),
	}
	if !res.Allowed {
		res.RetryAfter = w.start.Add(l.window).Sub(now)
		metrics.VerifyThrottled.Inc()
	}
	return res, nil
}
