package memory

import (
	"context"
	"time"

	"github.com/crochee/jobflow/pkg/scheduler"
)

// ListenerErrorHandler receives the errors returned by job listeners.
type ListenerErrorHandler func(ctx context.Context, listener string, jc *scheduler.ExecutionContext, err error)

type option struct {
	interval         time.Duration
	slotNum          int
	nowFunc          func() time.Time
	misfireThreshold time.Duration
	instanceID       string
	onListenerError  ListenerErrorHandler
}

type Option func(*option)

// WithInterval sets how far the wheel pointer moves on each tick.
func WithInterval(interval time.Duration) Option {
	return func(o *option) {
		o.interval = interval
	}
}

func WithSlot(slotNum int) Option {
	return func(o *option) {
		o.slotNum = slotNum
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *option) {
		o.nowFunc = now
	}
}

// WithMisfireThreshold sets how late a firing may be before misfire handling applies.
func WithMisfireThreshold(d time.Duration) Option {
	return func(o *option) {
		o.misfireThreshold = d
	}
}

func WithInstanceID(id string) Option {
	return func(o *option) {
		o.instanceID = id
	}
}

func WithListenerErrorHandler(h ListenerErrorHandler) Option {
	return func(o *option) {
		o.onListenerError = h
	}
}
