package scheduler

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock/scheduler_mock.go -package=mock github.com/crochee/jobflow/pkg/scheduler Scheduler,ListenerManager

// Scheduler stores jobs and triggers and fires jobs when their triggers elapse.
type Scheduler interface {
	// Name returns the scheduler name, unique within a process.
	Name() string

	InstanceID() string

	// ScheduleJob stores the trigger for its already stored job and returns the first fire time.
	ScheduleJob(ctx context.Context, trigger *Trigger) (time.Time, error)

	// ScheduleJobs stores every job with its triggers. A job may come with no trigger at all.
	ScheduleJobs(ctx context.Context, jobs map[*JobDetail][]*Trigger, replace bool) error

	// AddJob stores a job without scheduling it.
	AddJob(ctx context.Context, job *JobDetail, replace, storeNonDurableWhileAwaitingScheduling bool) error

	// DeleteJobs removes the jobs and all their triggers, it reports whether every job was found.
	DeleteJobs(ctx context.Context, keys []JobKey) (bool, error)

	// GetJobKeys returns the keys of stored jobs whose group matches.
	GetJobKeys(ctx context.Context, matcher GroupMatcher) ([]JobKey, error)

	CheckExists(ctx context.Context, key JobKey) (bool, error)

	// UnscheduleJob removes the trigger, it reports whether the trigger was found.
	UnscheduleJob(ctx context.Context, key TriggerKey) (bool, error)

	ListenerManager() ListenerManager
}

// JobListener is notified synchronously, on the executing goroutine, after a job ran.
type JobListener interface {
	Name() string

	// JobWasExecuted receives the execution context and the job's own error.
	// A returned error is reported through the scheduler's listener error channel.
	JobWasExecuted(ctx context.Context, jc *ExecutionContext, jobErr error) error
}

type ListenerManager interface {
	AddJobListener(l JobListener) error
	JobListener(name string) (JobListener, bool)
	RemoveJobListener(name string) bool
}

// ExecutionContext is handed to a Job when its trigger fires, and afterwards to the listeners.
type ExecutionContext struct {
	Scheduler Scheduler
	Trigger   *Trigger
	JobDetail *JobDetail
	// MergedData is the job data overlaid by the trigger data, private to this firing.
	MergedData        JobDataMap
	FireInstanceID    string
	FireTime          time.Time
	ScheduledFireTime time.Time
	PreviousFireTime  time.Time
	// NextFireTime is zero when the trigger will not fire again.
	NextFireTime time.Time
	// Result is set by the job, it is carried to the jobs it starts.
	Result interface{}
}

// MayFireAgain reports whether the firing trigger has a further fire time.
func (c *ExecutionContext) MayFireAgain() bool {
	return !c.NextFireTime.IsZero()
}
