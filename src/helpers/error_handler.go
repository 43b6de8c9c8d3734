package helpers

import (
	"context"
	"fmt"
	"time"

	"market-backfill/src/logger"

	"github.com/pkg/errors"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type GapfillError struct {
	Message string
	Cause   error
}

func (e *GapfillError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GapfillError) Unwrap() error {
	return e.Cause
}

// ConfigurationError: missing or unusable settings. Fatal to the operation.
type ConfigurationError struct{ GapfillError }

// UpstreamError: network, timeout or rate limit from a bar source. Aborts the
// current symbol's batch only.
type UpstreamError struct{ GapfillError }

// DatabaseError: the store could not be read or written.
type DatabaseError struct{ GapfillError }

// ValidationError: stored or fetched data that cannot be interpreted.
type ValidationError struct{ GapfillError }

// -----------------------------------------------------------------------------

func NewConfigurationError(message string, cause error) error {
	return errors.WithStack(&ConfigurationError{GapfillError{Message: message, Cause: cause}})
}

func NewUpstreamError(message string, cause error) error {
	return errors.WithStack(&UpstreamError{GapfillError{Message: message, Cause: cause}})
}

func NewDatabaseError(message string, cause error) error {
	return errors.WithStack(&DatabaseError{GapfillError{Message: message, Cause: cause}})
}

func NewValidationError(message string, cause error) error {
	return errors.WithStack(&ValidationError{GapfillError{Message: message, Cause: cause}})
}

// -----------------------------------------------------------------------------

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsUpstreamError(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

func IsDatabaseError(err error) bool {
	var target *DatabaseError
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so RetryWithBackoff returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to attempts times, doubling baseDelay between
// tries. It stops early on success, on a Permanent error, or when ctx is done.
func RetryWithBackoff[T any](
	ctx context.Context,
	operation string,
	attempts int,
	baseDelay time.Duration,
	log *logger.Logger,
	fn func() (T, error),
) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		res, err := fn()
		if err == nil {
			return res, nil
		}
		lastErr = err

		if IsPermanent(err) {
			var p *permanentError
			errors.As(err, &p)
			return zero, p.err
		}
		if attempt == attempts-1 {
			break
		}

		delay := baseDelay * time.Duration(1<<attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, attempts, operation, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, errors.Wrapf(ctx.Err(), "%s cancelled after %d attempts (last error: %v)", operation, attempt+1, lastErr)
		case <-time.After(delay):
		}
	}

	return zero, errors.Wrapf(lastErr, "%s failed after %d attempts", operation, attempts)
}
