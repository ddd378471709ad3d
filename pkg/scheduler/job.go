package scheduler

import (
	"context"
)

// Job represents the work performed when a Trigger bound to its JobDetail fires.
type Job interface {
	// Execute is called by a Scheduler when a Trigger associated with the job fires.
	Execute(ctx context.Context, jc *ExecutionContext) error
}

// JobFunc adapts a function to the Job interface.
type JobFunc func(ctx context.Context, jc *ExecutionContext) error

func (f JobFunc) Execute(ctx context.Context, jc *ExecutionContext) error {
	return f(ctx, jc)
}

// JobDetail is a stored job definition.
type JobDetail struct {
	Key         JobKey
	Description string
	Job         Job
	// Durable jobs stay stored once no trigger references them any more.
	Durable bool
	// ConcurrentExecutionDisallowed keeps two firings of the job from overlapping.
	ConcurrentExecutionDisallowed bool
	Data                          JobDataMap
}

type JobOption func(*JobDetail)

func WithDescription(desc string) JobOption {
	return func(d *JobDetail) {
		d.Description = desc
	}
}

func WithDurability(durable bool) JobOption {
	return func(d *JobDetail) {
		d.Durable = durable
	}
}

func WithConcurrentExecutionDisallowed() JobOption {
	return func(d *JobDetail) {
		d.ConcurrentExecutionDisallowed = true
	}
}

func WithJobData(data JobDataMap) JobOption {
	return func(d *JobDetail) {
		d.Data = data.Merge()
	}
}

func NewJobDetail(key JobKey, job Job, opts ...JobOption) *JobDetail {
	d := &JobDetail{
		Key:  key,
		Job:  job,
		Data: JobDataMap{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Clone copies the detail, the data map is not shared.
func (d *JobDetail) Clone() *JobDetail {
	c := *d
	c.Data = d.Data.Merge()
	return &c
}
