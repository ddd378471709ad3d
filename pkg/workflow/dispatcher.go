package workflow

import (
	"context"
	"sort"

	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
)

// DispatcherListenerName is the name the dispatcher listens under on every scheduler.
const DispatcherListenerName = "jobflow.dispatcher"

// Dispatcher applies the follow-up rule of every job completing on its schedulers.
// It is safe for concurrent use, the scheduler table is its only state.
type Dispatcher struct {
	// key: scheduler name value: scheduler.Scheduler
	schedulers cmap.ConcurrentMap
}

var (
	_ scheduler.JobListener = (*Dispatcher)(nil)
	_ Resolver              = (*Dispatcher)(nil)
)

func NewDispatcher() *Dispatcher {
	return &Dispatcher{schedulers: cmap.New()}
}

func (d *Dispatcher) Name() string {
	return DispatcherListenerName
}

// AddScheduler installs the dispatcher on s. Adding the same scheduler again is a no-op.
func (d *Dispatcher) AddScheduler(s scheduler.Scheduler) error {
	name := s.Name()
	if v, ok := d.schedulers.Get(name); ok {
		if known, _ := v.(scheduler.Scheduler); known == s {
			return nil
		}
		return errors.Wrapf(ErrSchedulerAlreadyRegistered, "another scheduler named %s", name)
	}
	lm := s.ListenerManager()
	if _, ok := lm.JobListener(DispatcherListenerName); ok {
		return errors.Wrapf(ErrSchedulerAlreadyRegistered, "scheduler %s already has listener %s",
			name, DispatcherListenerName)
	}
	if !d.schedulers.SetIfAbsent(name, s) {
		return d.AddScheduler(s)
	}
	if err := lm.AddJobListener(d); err != nil {
		d.schedulers.Remove(name)
		return errors.Wrapf(err, "install listener on %s", name)
	}
	return nil
}

// RemoveScheduler uninstalls the dispatcher from the named scheduler.
func (d *Dispatcher) RemoveScheduler(name string) bool {
	v, ok := d.schedulers.Get(name)
	if !ok {
		return false
	}
	d.schedulers.Remove(name)
	if s, ok := v.(scheduler.Scheduler); ok {
		s.ListenerManager().RemoveJobListener(DispatcherListenerName)
	}
	return true
}

// Scheduler returns a registered scheduler. The dispatcher has no default scheduler,
// JobWasExecuted resolves the empty name to the firing one.
func (d *Dispatcher) Scheduler(name string) (scheduler.Scheduler, error) {
	if name == "" {
		return nil, ErrNoDefaultScheduler
	}
	v, ok := d.schedulers.Get(name)
	if !ok {
		return nil, &UnknownSchedulerError{Name: name}
	}
	s, ok := v.(scheduler.Scheduler)
	if !ok {
		return nil, &UnknownSchedulerError{Name: name}
	}
	return s, nil
}

func (d *Dispatcher) Schedulers() []scheduler.Scheduler {
	items := d.schedulers.Items()
	list := make([]scheduler.Scheduler, 0, len(items))
	for _, v := range items {
		if s, ok := v.(scheduler.Scheduler); ok {
			list = append(list, s)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// JobWasExecuted removes a trigger that will not fire again and applies the
// follow-up rule of its job.
func (d *Dispatcher) JobWasExecuted(ctx context.Context, jc *scheduler.ExecutionContext, jobErr error) error {
	if jc.MayFireAgain() {
		return nil
	}
	s := jc.Scheduler
	log := logger.From(ctx).With(
		zap.String("scheduler", s.Name()),
		zap.Stringer("job", jc.JobDetail.Key),
		zap.Stringer("trigger", jc.Trigger.Key))
	if _, err := s.UnscheduleJob(ctx, jc.Trigger.Key); err != nil {
		dispatchErrors.WithLabelValues(s.Name()).Inc()
		return errors.Wrapf(err, "unschedule %s", jc.Trigger.Key)
	}
	rule, err := RuleFromData(jc.MergedData)
	if err != nil {
		dispatchErrors.WithLabelValues(s.Name()).Inc()
		return errors.Wrapf(err, "read follow-up of %s", jc.JobDetail.Key)
	}
	if rule == nil {
		return nil
	}
	if jobErr != nil {
		log.Warn("job failed, follow-up still applied",
			zap.String("rule", rule.Description()),
			zap.Error(jobErr))
	}
	log.Debug("apply follow-up", zap.String("rule", rule.Description()))
	if err = Apply(ctx, rule, ParametersFromContext(jc), WithDefault(d, s)); err != nil {
		dispatchErrors.WithLabelValues(s.Name()).Inc()
		return errors.Wrapf(err, "apply follow-up of %s", jc.JobDetail.Key)
	}
	rulesApplied.WithLabelValues(s.Name()).Inc()
	return nil
}

// StartJob fires the job on s now, a start already done by someone else is not an error.
func (d *Dispatcher) StartJob(ctx context.Context, s scheduler.Scheduler, key scheduler.JobKey, priority int,
	p Parameters) error {
	return startJob(ctx, s, key, priority, p)
}
