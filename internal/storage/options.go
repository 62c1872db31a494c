// ABOUTME: Functional options shared by the storage backends
// ABOUTME: Injects the clock and logger so tests can control both

package storage

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store backend.
type Option func(*options)

// WithClock overrides the time source used for LastUpdateTime and stats.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger used for migrations and recoverable problems.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
