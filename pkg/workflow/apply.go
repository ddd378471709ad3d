package workflow

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
)

// DispatcherTriggerGroup holds the triggers started by rules. Their names derive
// from the job key only, so starting a job twice yields the same trigger key.
const DispatcherTriggerGroup = "jobflow.dispatcher"

// StartTriggerKey returns the trigger key used to start a job.
func StartTriggerKey(key scheduler.JobKey) scheduler.TriggerKey {
	return scheduler.TriggerKey{Name: key.Group + "." + key.Name, Group: DispatcherTriggerGroup}
}

// Apply schedules the work described by the rule. Unnamed schedulers resolve to
// the default scheduler of r.
func Apply(ctx context.Context, rule Rule, p Parameters, r Resolver) error {
	switch v := rule.(type) {
	case StartJobRule:
		s, err := r.Scheduler(v.Scheduler)
		if err != nil {
			return err
		}
		return startJob(ctx, s, v.Key, v.Priority, p)
	case StartGroupRule:
		list, err := targetSchedulers(r, v.Target, v.Scheduler)
		if err != nil {
			return err
		}
		for _, s := range list {
			keys, err := s.GetJobKeys(ctx, v.Matcher)
			if err != nil {
				return errors.Wrapf(err, "list jobs of %s on %s", v.Matcher, s.Name())
			}
			for _, key := range keys {
				if err = startJob(ctx, s, key, v.Priority, p); err != nil {
					return err
				}
			}
		}
		return nil
	case StartTriggerRule:
		s, err := r.Scheduler(v.Scheduler)
		if err != nil {
			return err
		}
		return scheduleTrigger(ctx, s, v.Trigger.Clone(), p)
	case SequenceRule:
		for _, rule := range v.Rules {
			if err := Apply(ctx, rule, p, r); err != nil {
				return err
			}
		}
		return nil
	case GuardedRule:
		ok, err := CanStartJobs(ctx, v.Condition, r)
		if err != nil {
			return err
		}
		if !ok {
			logger.From(ctx).Debug("guard not satisfied",
				zap.String("cause", p.Cause()),
				zap.String("condition", v.Condition.Description()))
			return nil
		}
		return Apply(ctx, v.Rule, p, r)
	case funcRule:
		return v.fn(ctx, p)
	}
	return errors.Errorf("unsupported rule %T", rule)
}

// Verify checks that every scheduler named in the rule tree can be resolved,
// without scheduling anything.
func Verify(rule Rule, r Resolver) error {
	switch v := rule.(type) {
	case StartJobRule:
		return verifyName(r, v.Scheduler)
	case StartGroupRule:
		if v.Target == TargetAllSchedulers {
			return nil
		}
		return verifyName(r, v.Scheduler)
	case StartTriggerRule:
		if v.Trigger == nil {
			return errors.New("start trigger rule without trigger")
		}
		if err := v.Trigger.Schedule.Validate(); err != nil {
			return errors.Wrapf(err, "trigger %s", v.Trigger.Key)
		}
		return verifyName(r, v.Scheduler)
	case SequenceRule:
		for _, rule := range v.Rules {
			if err := Verify(rule, r); err != nil {
				return err
			}
		}
		return nil
	case GuardedRule:
		if err := VerifyCondition(v.Condition, r); err != nil {
			return err
		}
		return Verify(v.Rule, r)
	case funcRule:
		return nil
	}
	return errors.Errorf("unsupported rule %T", rule)
}

// startJob fires the job immediately through its deterministic start trigger.
func startJob(ctx context.Context, s scheduler.Scheduler, key scheduler.JobKey, priority int, p Parameters) error {
	trigger := scheduler.NewTrigger(StartTriggerKey(key), key,
		scheduler.WithPriority(priority),
		scheduler.WithStartTime(p.ScheduledStartTime()),
		scheduler.WithMisfireInstruction(scheduler.MisfireIgnore),
		scheduler.WithTriggerDescription(p.Cause()),
	)
	return scheduleTrigger(ctx, s, trigger, p)
}

// scheduleTrigger stamps the carried data on the trigger and schedules it.
// Errors meaning another path already started the job are swallowed.
func scheduleTrigger(ctx context.Context, s scheduler.Scheduler, trigger *scheduler.Trigger, p Parameters) error {
	if data := p.CarriedData(); data != nil {
		if trigger.Data == nil {
			trigger.Data = scheduler.JobDataMap{}
		}
		trigger.Data[InputDataKey] = data
	}
	log := logger.From(ctx).With(
		zap.String("scheduler", s.Name()),
		zap.Stringer("job", trigger.JobKey),
		zap.Stringer("trigger", trigger.Key),
		zap.String("cause", p.Cause()))
	_, err := s.ScheduleJob(ctx, trigger)
	if err == nil {
		triggersStarted.WithLabelValues(s.Name()).Inc()
		log.Debug("job started")
		return nil
	}
	if reason, ok := raced(ctx, s, trigger.JobKey, err); ok {
		racesSwallowed.WithLabelValues(s.Name(), reason).Inc()
		log.Debug("job already handled", zap.String("reason", reason), zap.Error(err))
		return nil
	}
	return errors.Wrapf(err, "start job %s on %s", trigger.JobKey, s.Name())
}

// raced reports whether err means the start was already done by someone else.
func raced(ctx context.Context, s scheduler.Scheduler, key scheduler.JobKey, err error) (string, bool) {
	if scheduler.IsAlreadyExists(err) {
		return "already_exists", true
	}
	if errors.Is(err, scheduler.ErrIntegrityViolation) {
		return "integrity_violation", true
	}
	if !scheduler.IsPersistence(err) {
		return "", false
	}
	exists, cerr := s.CheckExists(ctx, key)
	if cerr != nil || exists {
		return "", false
	}
	return "job_gone", true
}
