// Package retrycontrol wraps a Fetcher with bounded retries: on a transient
// fault it sleeps and tries again, honoring any server Retry-After override
// over its own exponential backoff; it gives up after maxAttempts.
package retrycontrol

import (
	"context"
	"math/rand"
	"time"

	"github.com/igoriokas/web-crawler/internal/faults"
	"github.com/igoriokas/web-crawler/internal/fetcher"
	"github.com/igoriokas/web-crawler/pkg/failure"
	"github.com/igoriokas/web-crawler/pkg/timeutil"
	"github.com/rs/zerolog"
)

const (
	fetchTimeout = 5 * time.Second
	jitterMax    = 250 * time.Millisecond
)

// AttemptRecorder is notified before and after each network attempt so the
// Ledger can persist attempt history independently of the outcome.
type AttemptRecorder interface {
	MarkAttempt(url string) error
	LogAttempt(url string, ordinal, statusCode int, duration time.Duration, errStr string) error
}

// Controller retries a Fetcher call across prior+1..maxAttempts attempts.
type Controller struct {
	Fetcher      fetcher.Fetcher
	Recorder     AttemptRecorder
	MaxAttempts  int
	BackoffParam timeutil.BackoffParam
	Sleeper      timeutil.Sleeper
	Rng          *rand.Rand
	Log          zerolog.Logger
}

// New returns a Controller with production defaults: 1s initial backoff,
// 2x multiplier, 30s cap, a real sleeper, and a disabled logger.
func New(f fetcher.Fetcher, recorder AttemptRecorder, maxAttempts int) *Controller {
	return &Controller{
		Fetcher:      f,
		Recorder:     recorder,
		MaxAttempts:  maxAttempts,
		BackoffParam: timeutil.NewBackoffParam(time.Second, 2.0, 30*time.Second),
		Sleeper:      timeutil.NewRealSleeper(),
		Rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		Log:          zerolog.Nop(),
	}
}

func (c *Controller) WithLogger(log zerolog.Logger) *Controller {
	c.Log = log
	return c
}

// Fetch retries url starting from priorAttempts+1 up to MaxAttempts. It
// returns the successful Result, or once attempts are exhausted the last
// fault converted to a PageFault, or immediately on a non-transient fault.
func (c *Controller) Fetch(ctx context.Context, url string, priorAttempts int) (fetcher.Result, failure.ClassifiedError) {
	var last failure.ClassifiedError

	for ordinal := priorAttempts + 1; ordinal <= c.MaxAttempts; ordinal++ {
		if err := c.Recorder.MarkAttempt(url); err != nil {
			return fetcher.Result{}, faults.NewEnvironmentFault("recording attempt: %v", err)
		}

		start := time.Now()
		res, err := c.Fetcher.Get(ctx, url, fetchTimeout)
		elapsed := time.Since(start)

		if err == nil {
			_ = c.Recorder.LogAttempt(url, ordinal, res.StatusCode, elapsed, "")
			return res, nil
		}

		statusCode, errStr := statusAndMessage(err)
		_ = c.Recorder.LogAttempt(url, ordinal, statusCode, elapsed, errStr)

		transient, ok := err.(*faults.TransientFault)
		if !ok {
			return fetcher.Result{}, err
		}
		last = err

		if ordinal == c.MaxAttempts {
			break
		}

		delay := c.delayFor(ordinal, transient)
		c.Log.Debug().Str("url", url).Int("attempt", ordinal).Dur("delay", delay).Msg("retrying after transient fault")
		c.Sleeper.Sleep(delay)
	}

	c.Log.Warn().Str("url", url).Int("max_attempts", c.MaxAttempts).Msg("max attempts reached")
	return fetcher.Result{}, faults.NewPageFault("Max attempts reached: %v", last)
}

func statusAndMessage(err failure.ClassifiedError) (int, string) {
	switch e := err.(type) {
	case *faults.TransientFault:
		return e.StatusCode, e.Error()
	case *faults.PageFault:
		return e.StatusCode, e.Error()
	default:
		return 0, err.Error()
	}
}

func (c *Controller) delayFor(ordinal int, transient *faults.TransientFault) time.Duration {
	// ExponentialBackoffDelay computes initial*multiplier^(backoffCount-1), so
	// ordinal+1 here yields base*2^ordinal: attempt 1 waits 2s, attempt 2
	// waits 4s, attempt 3 waits 8s with the default 1s base, each plus up to
	// jitterMax of random jitter.
	backoff := timeutil.ExponentialBackoffDelay(ordinal+1, jitterMax, *c.Rng, c.BackoffParam)
	if transient.RetryAfter > backoff {
		return transient.RetryAfter
	}
	return backoff
}
