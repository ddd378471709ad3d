package workflow

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
)

type option struct {
	nowFunc func() time.Time
}

type Option func(*option)

// WithClock sets the clock giving the start time of Start.
func WithClock(now func() time.Time) Option {
	return func(o *option) {
		o.nowFunc = now
	}
}

// Workflow collects jobs and the rules linking them, Start stores the jobs on
// their schedulers and applies the start rule. A Workflow is not safe for concurrent use.
type Workflow struct {
	dispatcher *Dispatcher
	registry   *registry
	startRule  Rule
	nowFunc    func() time.Time
}

var _ Resolver = (*Workflow)(nil)

func New(d *Dispatcher, opts ...Option) *Workflow {
	o := &option{nowFunc: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return &Workflow{
		dispatcher: d,
		registry:   newRegistry(d),
		nowFunc:    o.nowFunc,
	}
}

// AddScheduler makes s available to the rules of the workflow.
func (w *Workflow) AddScheduler(s scheduler.Scheduler) error {
	_, err := w.registry.addScheduler(s)
	return err
}

// SetDefaultScheduler sets the scheduler used for jobs and rules naming none.
func (w *Workflow) SetDefaultScheduler(s scheduler.Scheduler) error {
	return w.registry.setDefaultScheduler(s)
}

// Scheduler resolves names against every scheduler known to the dispatcher,
// the empty name is the default scheduler.
func (w *Workflow) Scheduler(name string) (scheduler.Scheduler, error) {
	if name == "" {
		if w.registry.defaultScheduler == nil {
			return nil, ErrNoDefaultScheduler
		}
		return w.registry.defaultScheduler, nil
	}
	return w.dispatcher.Scheduler(name)
}

func (w *Workflow) Schedulers() []scheduler.Scheduler {
	return w.dispatcher.Schedulers()
}

// AddJob adds the job to the default scheduler, the rules become its follow-up.
func (w *Workflow) AddJob(ctx context.Context, job *scheduler.JobDetail, rules ...Rule) error {
	if w.registry.defaultScheduler == nil {
		return errors.Wrapf(ErrNoDefaultScheduler, "add job %s", job.Key)
	}
	return w.AddJobOn(ctx, w.registry.defaultScheduler, job, rules...)
}

// AddJobOn adds the job to s, the rules become its follow-up.
func (w *Workflow) AddJobOn(ctx context.Context, s scheduler.Scheduler, job *scheduler.JobDetail,
	rules ...Rule) error {
	if _, err := w.registry.addScheduler(s); err != nil {
		return err
	}
	data := job.Data.Clone()
	if data == nil {
		data = scheduler.JobDataMap{}
	}
	for _, rule := range rules {
		if err := Verify(rule, w); err != nil {
			return err
		}
		if err := AttachRule(data, rule); err != nil {
			return err
		}
	}
	// the job is only touched once it is registered
	if err := w.registry.register(s, job); err != nil {
		return err
	}
	if len(rules) > 0 {
		job.Data = data
	}
	logger.From(ctx).Debug("job added",
		zap.String("scheduler", s.Name()),
		zap.Stringer("job", job.Key))
	return nil
}

// AddJobRule attaches a follow-up rule to the job, after the rules it already has.
func (w *Workflow) AddJobRule(job *scheduler.JobDetail, rule Rule) error {
	if err := Verify(rule, w); err != nil {
		return err
	}
	if job.Data == nil {
		job.Data = scheduler.JobDataMap{}
	}
	return AttachRule(job.Data, rule)
}

// AddTriggerRule attaches a rule applied once the trigger has fired for the last time.
func (w *Workflow) AddTriggerRule(trigger *scheduler.Trigger, rule Rule) error {
	if err := Verify(rule, w); err != nil {
		return err
	}
	if trigger.Data == nil {
		trigger.Data = scheduler.JobDataMap{}
	}
	return AttachRule(trigger.Data, rule)
}

// AddStartRule extends the rule applied by Start.
func (w *Workflow) AddStartRule(rule Rule) error {
	if err := Verify(rule, w); err != nil {
		return err
	}
	if w.startRule == nil {
		w.startRule = rule
		return nil
	}
	w.startRule = Sequence(w.startRule, rule)
	return nil
}

// AddStartFunc runs fn as part of the start rule.
func (w *Workflow) AddStartFunc(fn func(ctx context.Context, p Parameters) error) error {
	return w.AddStartRule(funcRule{desc: "run start function", fn: fn})
}

// Start stores the added jobs and applies the start rule. On failure the jobs
// already stored are deleted and the first error is returned.
func (w *Workflow) Start(ctx context.Context) error {
	if err := w.registry.storeJobs(ctx); err != nil {
		w.registry.rollback(ctx)
		return err
	}
	if w.startRule != nil {
		p := StartParameters(w.nowFunc())
		if err := Apply(ctx, w.startRule, p, w); err != nil {
			w.registry.rollback(ctx)
			return err
		}
		logger.From(ctx).Info("workflow started", zap.String("rule", w.startRule.Description()))
	}
	w.registry.commit()
	return nil
}
