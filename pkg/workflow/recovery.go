package workflow

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
)

// Trigger groups of retries scheduled by a Recovery.
const (
	RecoveryFirstTriggerGroup = "jobflow.recovery.first"
	RecoveryTriggerGroup      = "jobflow.recovery"
)

type RecoveryOption func(*Recovery)

// WithRecoveryClock sets the clock the retry start time is computed from.
func WithRecoveryClock(now func() time.Time) RecoveryOption {
	return func(r *Recovery) {
		r.nowFunc = now
	}
}

// Recovery reschedules the running job after a transient failure, a bounded
// number of times. It is used from inside Job.Execute.
type Recovery struct {
	jc        *scheduler.ExecutionContext
	attempts  int
	delay     time.Duration
	remaining int
	first     bool
	nowFunc   func() time.Time
}

// NewRecovery reads the attempts left from the firing trigger, a trigger
// without them is the first failure and gets the full budget.
func NewRecovery(jc *scheduler.ExecutionContext, attempts int, delay time.Duration,
	opts ...RecoveryOption) *Recovery {
	r := &Recovery{
		jc:       jc,
		attempts: attempts,
		delay:    delay,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	remaining, ok := jc.Trigger.Data.GetInt(RemainingAttemptsKey)
	if !ok {
		remaining = attempts
	}
	r.remaining = remaining
	r.first = !ok
	return r
}

func (r *Recovery) RemainingAttempts() int {
	return r.remaining
}

func (r *Recovery) Start(ctx context.Context) error {
	return r.StartWithReset(ctx, nil)
}

// StartWithReset calls reset, then schedules the retry. Jobs disallowing
// concurrent execution wait for the delay first.
func (r *Recovery) StartWithReset(ctx context.Context, reset func(ctx context.Context) error) error {
	s := r.jc.Scheduler
	job := r.jc.JobDetail
	if r.remaining <= 0 {
		recoveryExhausted.WithLabelValues(s.Name()).Inc()
		return &AllRecoveryAttemptsFailedError{Job: job.Key.String(), Attempts: r.attempts}
	}
	if reset != nil {
		if err := reset(ctx); err != nil {
			return errors.Wrapf(err, "reset job %s", job.Key)
		}
	}
	trigger := r.retryTrigger()
	if job.ConcurrentExecutionDisallowed {
		if err := sleep(ctx, r.delay); err != nil {
			return err
		}
	}
	if _, err := s.ScheduleJob(ctx, trigger); err != nil {
		return errors.Wrapf(err, "schedule retry of %s", job.Key)
	}
	recoveryRetries.WithLabelValues(s.Name()).Inc()
	logger.From(ctx).Info("job retry scheduled",
		zap.String("scheduler", s.Name()),
		zap.Stringer("job", job.Key),
		zap.Stringer("trigger", trigger.Key),
		zap.Int("remaining_attempts", r.remaining-1),
		zap.Time("start_time", trigger.StartTime))
	DetachRule(r.jc.MergedData)
	return nil
}

func (r *Recovery) retryTrigger() *scheduler.Trigger {
	current := r.jc.Trigger
	group := RecoveryTriggerGroup
	priority := current.Priority
	switch {
	case r.first:
		group = RecoveryFirstTriggerGroup
		priority++
	case current.Key.Group == RecoveryFirstTriggerGroup:
		// later attempts run at the priority of the original trigger
		priority--
	}
	data := current.Data.Merge()
	data[RemainingAttemptsKey] = r.remaining - 1
	return scheduler.NewTrigger(scheduler.NewTriggerKey(r.jc.FireInstanceID, group), current.JobKey,
		scheduler.WithTriggerDescription("retry of "+current.Key.String()),
		scheduler.WithPriority(priority),
		scheduler.WithStartTime(r.nowFunc().Add(r.delay)),
		scheduler.WithSchedule(current.Schedule),
		scheduler.WithMisfireInstruction(scheduler.MisfireIgnore),
		scheduler.WithTriggerData(data),
	)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
