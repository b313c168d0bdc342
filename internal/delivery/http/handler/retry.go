package handler

import (
	"context"
	"errors"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

const retryBackoff = 20 * time.Millisecond

// retryTransient repeats fn while it fails with a transient storage conflict,
// up to maxAttempts times, backing off linearly between attempts.
func retryTransient[T any](ctx context.Context, log *logrus.Logger, maxAttempts int, fields logrus.Fields, fn func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = fn()
		if !errors.Is(err, repository.ErrTransientConflict) {
			return result, err
		}

		log.WithFields(fields).WithField("attempt", attempt).Warn("Hit a serialization conflict")

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-time.After(time.Duration(attempt) * retryBackoff):
		}
	}
	return result, err
}
