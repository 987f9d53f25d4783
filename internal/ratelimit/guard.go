package ratelimit

import (
	"context"
	"time"

	"github.com/Yertled/Discord-Inactive-Checker/internal/platform"
	"github.com/sirupsen/logrus"
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Guard retries a call for as long as the platform keeps signalling rate limits
type Guard struct {
	defaultBackoff time.Duration
	sleep          SleepFunc
}

// NewGuard creates a guard that waits defaultBackoff when the server gives no retry hint
func NewGuard(defaultBackoff time.Duration, sleep SleepFunc) *Guard {
	if sleep == nil {
		sleep = Sleep
	}
	return &Guard{
		defaultBackoff: defaultBackoff,
		sleep:          sleep,
	}
}

// Do runs call, backing off and re-running it after every rate-limit error. Any other error
// is returned as is. retries is the number of backoffs taken.
func (g *Guard) Do(ctx context.Context, call func() error) (retries int, err error) {
	for {
		err = call()
		if err == nil {
			return retries, nil
		}

		retryAfter, limited := platform.RateLimited(err)
		if !limited {
			return retries, err
		}
		if retryAfter <= 0 {
			retryAfter = g.defaultBackoff
		}

		logrus.Infof("Rate limited. Waiting for %v", retryAfter)
		if err := g.sleep(ctx, retryAfter); err != nil {
			return retries, err
		}
		retries++
	}
}

// Sleep is a SleepFunc backed by a timer
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
