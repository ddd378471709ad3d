package workflow

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/crochee/jobflow/pkg/scheduler"
)

// Condition is a read-only predicate over scheduler state gating a rule.
// The set of variants is closed: JobDoneCondition, GroupDoneCondition and AndCondition.
type Condition interface {
	Description() string
	// And returns a condition holding when both this one and other hold.
	And(other Condition) Condition

	isCondition()
}

// JobDoneCondition holds once the job is no longer stored.
type JobDoneCondition struct {
	Scheduler string
	Key       scheduler.JobKey
}

func JobDone(key scheduler.JobKey) JobDoneCondition {
	return JobDoneCondition{Key: key}
}

func (c JobDoneCondition) OnScheduler(name string) JobDoneCondition {
	c.Scheduler = name
	return c
}

// OnSameScheduler makes the condition check the scheduler it is evaluated on.
func (c JobDoneCondition) OnSameScheduler() JobDoneCondition {
	c.Scheduler = ""
	return c
}

func (c JobDoneCondition) Description() string {
	return fmt.Sprintf("job %s is done%s", c.Key, onScheduler(c.Scheduler))
}

func (c JobDoneCondition) And(other Condition) Condition {
	return AndCondition{Left: c, Right: other}
}

func (JobDoneCondition) isCondition() {}

// GroupDoneCondition holds once no stored job matches the group.
type GroupDoneCondition struct {
	Scheduler string
	Matcher   scheduler.GroupMatcher
}

func GroupDone(matcher scheduler.GroupMatcher) GroupDoneCondition {
	return GroupDoneCondition{Matcher: matcher}
}

func (c GroupDoneCondition) OnScheduler(name string) GroupDoneCondition {
	c.Scheduler = name
	return c
}

func (c GroupDoneCondition) OnSameScheduler() GroupDoneCondition {
	c.Scheduler = ""
	return c
}

func (c GroupDoneCondition) Description() string {
	return fmt.Sprintf("jobs of %s are done%s", c.Matcher, onScheduler(c.Scheduler))
}

func (c GroupDoneCondition) And(other Condition) Condition {
	return AndCondition{Left: c, Right: other}
}

func (GroupDoneCondition) isCondition() {}

// AndCondition holds when both operands hold, Right is not evaluated when Left fails.
type AndCondition struct {
	Left  Condition
	Right Condition
}

func (c AndCondition) Description() string {
	return c.Left.Description() + " and " + c.Right.Description()
}

func (c AndCondition) And(other Condition) Condition {
	return AndCondition{Left: c, Right: other}
}

func (AndCondition) isCondition() {}

func onScheduler(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf(" on scheduler %s", name)
}

// CanStartJobs evaluates the condition against the schedulers of r.
func CanStartJobs(ctx context.Context, cond Condition, r Resolver) (bool, error) {
	switch c := cond.(type) {
	case JobDoneCondition:
		s, err := r.Scheduler(c.Scheduler)
		if err != nil {
			return false, err
		}
		exists, err := s.CheckExists(ctx, c.Key)
		if err != nil {
			return false, errors.Wrapf(err, "check job %s on %s", c.Key, s.Name())
		}
		return !exists, nil
	case GroupDoneCondition:
		s, err := r.Scheduler(c.Scheduler)
		if err != nil {
			return false, err
		}
		keys, err := s.GetJobKeys(ctx, c.Matcher)
		if err != nil {
			return false, errors.Wrapf(err, "list jobs of %s on %s", c.Matcher, s.Name())
		}
		return len(keys) == 0, nil
	case AndCondition:
		ok, err := CanStartJobs(ctx, c.Left, r)
		if err != nil || !ok {
			return false, err
		}
		return CanStartJobs(ctx, c.Right, r)
	}
	return false, errors.Errorf("unsupported condition %T", cond)
}

// verifyName resolves a named scheduler. The empty name stands for the scheduler
// the rule ends up running on, known only when it is applied.
func verifyName(r Resolver, name string) error {
	if name == "" {
		return nil
	}
	_, err := r.Scheduler(name)
	return err
}

// VerifyCondition checks that every scheduler the condition names can be resolved.
func VerifyCondition(cond Condition, r Resolver) error {
	switch c := cond.(type) {
	case JobDoneCondition:
		return verifyName(r, c.Scheduler)
	case GroupDoneCondition:
		return verifyName(r, c.Scheduler)
	case AndCondition:
		if err := VerifyCondition(c.Left, r); err != nil {
			return err
		}
		return VerifyCondition(c.Right, r)
	}
	return errors.Errorf("unsupported condition %T", cond)
}
