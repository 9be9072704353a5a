// Package critical provides a mutual-exclusion section whose acquisition is
// bounded by a timeout. Callers that cannot enter in time get an error
// instead of blocking forever.
package critical

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTimeout is returned when the section could not be entered in time.
var ErrTimeout = errors.New("unable to enter critical section")

// TimeoutError reports a failed acquisition.
type TimeoutError struct {
	Timeout time.Duration
	Err     error // context error that ended the wait
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v within %s: %v", ErrTimeout, e.Timeout, e.Err)
}

// Is reports ErrTimeout as a match.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Unwrap returns the context error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// Section is a lock with a bounded acquisition time.
type Section struct {
	sem     *semaphore.Weighted
	timeout time.Duration
}

// New creates a section. A non-positive timeout means a single
// non-blocking attempt.
func New(timeout time.Duration) *Section {
	return &Section{
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
	}
}

// Timeout returns the acquisition timeout.
func (s *Section) Timeout() time.Duration {
	return s.timeout
}

// Enter acquires the section and returns the function that releases it.
func (s *Section) Enter(ctx context.Context) (func(), error) {
	if s.timeout <= 0 {
		if !s.sem.TryAcquire(1) {
			return nil, &TimeoutError{Timeout: s.timeout, Err: context.DeadlineExceeded}
		}
		return s.release, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, &TimeoutError{Timeout: s.timeout, Err: err}
	}
	return s.release, nil
}

// Do runs fn inside the section.
func (s *Section) Do(ctx context.Context, fn func() error) error {
	release, err := s.Enter(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (s *Section) release() {
	s.sem.Release(1)
}
