package workflow

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
)

// batch is the pending jobs of one scheduler.
type batch struct {
	scheduler scheduler.Scheduler
	jobs      []*scheduler.JobDetail
	keys      map[scheduler.JobKey]struct{}
}

func (b *batch) jobKeys() []scheduler.JobKey {
	keys := make([]scheduler.JobKey, 0, len(b.jobs))
	for _, job := range b.jobs {
		keys = append(keys, job.Key)
	}
	return keys
}

// registry stores the jobs of a workflow with one batch call per scheduler and
// deletes them again when a later step fails. It is not safe for concurrent use.
type registry struct {
	dispatcher       *Dispatcher
	batches          []*batch // 注册顺序, rollback 依赖该顺序
	defaultScheduler scheduler.Scheduler
	// cur is the index of the batch being stored, len(batches) once all are stored.
	cur int
}

func newRegistry(d *Dispatcher) *registry {
	return &registry{dispatcher: d}
}

func (r *registry) find(s scheduler.Scheduler) (*batch, error) {
	for _, b := range r.batches {
		if b.scheduler.Name() != s.Name() {
			continue
		}
		if b.scheduler != s {
			return nil, errors.Wrapf(ErrSchedulerAlreadyRegistered, "scheduler %s", s.Name())
		}
		return b, nil
	}
	return nil, nil
}

// addScheduler makes s known to the workflow, the first time it is also
// registered with the dispatcher.
func (r *registry) addScheduler(s scheduler.Scheduler) (*batch, error) {
	b, err := r.find(s)
	if err != nil || b != nil {
		return b, err
	}
	if err = r.dispatcher.AddScheduler(s); err != nil {
		return nil, err
	}
	b = &batch{scheduler: s, keys: make(map[scheduler.JobKey]struct{})}
	r.batches = append(r.batches, b)
	return b, nil
}

func (r *registry) setDefaultScheduler(s scheduler.Scheduler) error {
	if _, err := r.addScheduler(s); err != nil {
		return err
	}
	r.defaultScheduler = s
	return nil
}

// register adds the job to the pending batch of s.
func (r *registry) register(s scheduler.Scheduler, job *scheduler.JobDetail) error {
	b, err := r.addScheduler(s)
	if err != nil {
		return err
	}
	if _, ok := b.keys[job.Key]; ok {
		return scheduler.AlreadyExists("job", job.Key)
	}
	b.keys[job.Key] = struct{}{}
	b.jobs = append(b.jobs, job)
	return nil
}

// storeJobs stores every batch in registration order, it stops at the first failure.
func (r *registry) storeJobs(ctx context.Context) error {
	for i, b := range r.batches {
		r.cur = i
		if len(b.jobs) == 0 {
			continue
		}
		jobs := make(map[*scheduler.JobDetail][]*scheduler.Trigger, len(b.jobs))
		for _, job := range b.jobs {
			jobs[job] = nil
		}
		if err := b.scheduler.ScheduleJobs(ctx, jobs, false); err != nil {
			return errors.Wrapf(err, "store %d jobs on %s", len(b.jobs), b.scheduler.Name())
		}
		logger.From(ctx).Debug("jobs stored",
			zap.String("scheduler", b.scheduler.Name()),
			zap.Int("count", len(b.jobs)))
	}
	r.cur = len(r.batches)
	return nil
}

// rollback deletes the jobs of the batches stored before the failed one.
// Errors are logged only, the caller reports the failure that caused the rollback.
func (r *registry) rollback(ctx context.Context) {
	var err error
	for i := 0; i < r.cur && i < len(r.batches); i++ {
		b := r.batches[i]
		if len(b.jobs) == 0 {
			continue
		}
		if _, e := b.scheduler.DeleteJobs(ctx, b.jobKeys()); e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "delete jobs on %s", b.scheduler.Name()))
		}
	}
	if err != nil {
		logger.From(ctx).Error("rollback failed", zap.Error(err))
	}
	r.reset()
}

// commit hands the stored jobs over to their schedulers.
func (r *registry) commit() {
	r.reset()
}

func (r *registry) reset() {
	for _, b := range r.batches {
		b.jobs = nil
		b.keys = make(map[scheduler.JobKey]struct{})
	}
	r.cur = 0
}
