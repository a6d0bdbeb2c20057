package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"mecanica_oficina/internal/domain/entities"

	"github.com/google/uuid"
)

const (
	defaultMaxAttempts  = 5
	defaultStoreTimeout = 5 * time.Second
)

// settings are shared by every use case constructor.
type settings struct {
	now          func() time.Time
	newID        func() string
	maxAttempts  int
	storeTimeout time.Duration
}

func defaultSettings() settings {
	return settings{
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
		maxAttempts:  defaultMaxAttempts,
		storeTimeout: defaultStoreTimeout,
	}
}

// Option is a functional option for the use case constructors.
type Option func(s *settings) error

// WithClock replaces the wall clock used for lifecycle stamps and sequence years.
func WithClock(now func() time.Time) Option {
	return func(s *settings) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		s.now = now
		return nil
	}
}

// WithIDGenerator replaces uuid.NewString for entity ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *settings) error {
		if newID == nil {
			return errors.New("id generator is nil")
		}
		s.newID = newID
		return nil
	}
}

// WithMaxAttempts bounds how many times a write is re-read and reapplied after a stale
// version or an allocation conflict.
func WithMaxAttempts(n int) Option {
	return func(s *settings) error {
		if n < 1 {
			return fmt.Errorf("max attempts (%d) is not positive", n)
		}
		s.maxAttempts = n
		return nil
	}
}

// WithStoreTimeout bounds every single store call. An expired call fails with
// entities.ErrStoreTimeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *settings) error {
		if d <= 0 {
			return fmt.Errorf("store timeout (%s) is not positive", d)
		}
		s.storeTimeout = d
		return nil
	}
}

func newSettings(opts []Option) (settings, error) {
	s := defaultSettings()
	for _, opt := range opts {
		if err := opt(&s); err != nil {
			return settings{}, err
		}
	}
	return s, nil
}

// storeCall runs fn with the per-call store deadline.
func storeCall[T any](ctx context.Context, s settings, fn func(ctx context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	v, err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		var zero T
		return zero, fmt.Errorf("%w: %v", entities.ErrStoreTimeout, err)
	}
	return v, err
}

// retriable is narrower than entities.IsRetryable: a timed out write may have landed, so
// ErrStoreTimeout is left to the caller.
func retriable(err error) bool {
	return errors.Is(err, entities.ErrStaleWrite) || errors.Is(err, entities.ErrAllocationConflict)
}

// retry runs op until it succeeds, fails for a non-retriable reason or runs out of attempts.
func (s settings) retry(ctx context.Context, tag string, op func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err = op(); err == nil || !retriable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		log.Printf("%s retrying attempt=%d/%d err=%v", tag, attempt, s.maxAttempts, err)
	}
	return err
}
