package riot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itbasis/go-clock"
)

// Development keys allow 20 req/s and 100 req/2min; stay under both.
const (
	requestsPerSecond = 15
	requestsPer2Min   = 90
)

type window struct {
	limit int
	span  time.Duration
	hits  []time.Time
}

// prune drops hits older than the window span.
func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	w.hits = w.hits[i:]
}

// limiter is a client-side sliding-window rate limiter over several windows.
type limiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	log     *slog.Logger
	windows []*window
}

func newLimiter(c clock.Clock, log *slog.Logger) *limiter {
	return &limiter{
		clock: c,
		log:   log,
		windows: []*window{
			{limit: requestsPerSecond, span: time.Second},
			{limit: requestsPer2Min, span: 2 * time.Minute},
		},
	}
}

// reserve records a request and returns 0 when every window has room.
// Otherwise nothing is recorded and the wait until the fullest window frees a
// slot is returned.
func (l *limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	var wait time.Duration
	for _, w := range l.windows {
		w.prune(now)
		if len(w.hits) >= w.limit {
			wait = max(wait, w.hits[0].Add(w.span).Sub(now))
		}
	}
	if wait > 0 {
		return wait
	}
	for _, w := range l.windows {
		w.hits = append(w.hits, now)
	}
	return 0
}

// Wait blocks until a request may be sent or ctx is done.
func (l *limiter) Wait(ctx context.Context) error {
	for {
		wait := l.reserve()
		if wait == 0 {
			return nil
		}
		l.log.Debug("rate limit wait", "wait", wait)
		if err := sleep(ctx, l.clock, wait); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, c clock.Clock, d time.Duration) error {
	t := c.Timer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
