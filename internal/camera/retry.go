package camera

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sweeney/marker-interlock/internal/logger"
)

// RetrySource retries failed reads on the wrapped source with exponential
// backoff. With zero retries a failed read is returned immediately.
type RetrySource struct {
	src      Source
	retries  int
	initial  time.Duration
	maxDelay time.Duration
}

// NewRetrySource wraps src. initial is the first backoff delay; later
// delays grow exponentially up to 16x initial.
func NewRetrySource(src Source, retries int, initial time.Duration) *RetrySource {
	return &RetrySource{
		src:      src,
		retries:  retries,
		initial:  initial,
		maxDelay: 16 * initial,
	}
}

// Read returns the next frame, retrying up to the configured count.
// ErrExhausted is never retried.
func (r *RetrySource) Read() (Frame, error) {
	if r.retries <= 0 {
		return r.src.Read()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initial
	b.MaxInterval = r.maxDelay

	log := logger.Named("camera")
	return backoff.Retry(context.Background(), func() (Frame, error) {
		f, err := r.src.Read()
		if errors.Is(err, ErrExhausted) {
			return nil, backoff.Permanent(err)
		}
		return f, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.retries+1)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("frame read failed")
		}),
	)
}

// Close closes the wrapped source.
func (r *RetrySource) Close() error {
	return r.src.Close()
}
