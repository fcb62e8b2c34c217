// Package retry provides the single fixed-delay retry policy shared by
// catalog pagination and file downloads.
package retry

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"
)

// terminalError marks an error that must not be retried (authorization
// failures, missing resources). errors.Is/As see through the wrapper.
type terminalError struct {
	err error
}

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

// Terminal wraps err so Do gives up on it immediately.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsTerminal reports whether err was marked with Terminal.
func IsTerminal(err error) bool {
	var te *terminalError
	return errors.As(err, &te)
}

// Policy holds the retry parameters from the run configuration. The delay is
// a constant pause, not exponential backoff: the remote API penalizes bursts,
// not persistence.
type Policy struct {
	MaxTries int
	Delay    time.Duration
}

// Do runs fn up to MaxTries times, pausing Delay between attempts. Terminal
// errors abort immediately. The op string only labels log lines.
func (p Policy) Do(op string, fn func() error) error {
	maxTries := p.MaxTries
	if maxTries < 1 {
		maxTries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxTries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if IsTerminal(lastErr) {
			log.WithError(lastErr).Debugf("%s failed with non-retryable error", op)
			return lastErr
		}
		if attempt < maxTries {
			log.WithError(lastErr).Warnf("%s failed (attempt %d/%d), retrying in %s", op, attempt, maxTries, p.Delay)
			time.Sleep(p.Delay)
		}
	}

	log.WithError(lastErr).Errorf("%s failed after %d attempts", op, maxTries)
	return lastErr
}
