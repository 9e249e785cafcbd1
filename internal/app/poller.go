package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/leaddeck/internal/leads"
	"github.com/five82/leaddeck/internal/query"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// StartPoller launches a background goroutine that invalidates the lead list
// at a fixed cadence, backing off while refreshes keep failing. It returns
// immediately; the goroutine ends with ctx.
func StartPoller(ctx context.Context, qc *query.Client, interval time.Duration, logger *zap.Logger) {
	go poll(ctx, qc, interval, logger)
}

func poll(ctx context.Context, qc *query.Client, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	failures := 0
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		failures = nextFailures(qc, failures)
		qc.Invalidate(leads.ListKey)

		wait := calculateBackoff(failures, interval)
		if failures > 0 {
			logger.Debug("lead refresh backing off",
				zap.Int("failures", failures),
				zap.Duration("wait", wait))
		}
		timer.Reset(wait)
	}
}

// nextFailures counts consecutive failed refreshes from the list entry's
// last settled state. A refresh still in flight leaves the count alone.
func nextFailures(qc *query.Client, failures int) int {
	st, ok := qc.Peek(leads.ListKey)
	if !ok {
		return failures
	}
	switch st.Status {
	case query.StatusError:
		return failures + 1
	case query.StatusSuccess:
		return 0
	default:
		return failures
	}
}

// calculateBackoff returns the wait before the next poll: the base interval
// doubled per consecutive failure, capped at maxBackoff. A base interval
// already above the cap is never shortened.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 || base >= maxBackoff {
		return base
	}
	wait := base
	for i := 0; i < failures; i++ {
		wait *= 2
		if wait >= maxBackoff {
			return maxBackoff
		}
	}
	return wait
}
