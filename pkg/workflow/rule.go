package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/crochee/jobflow/pkg/scheduler"
)

// Rule is an action advancing the workflow graph when applied.
// The set of variants is closed: StartJobRule, StartGroupRule, StartTriggerRule,
// SequenceRule and GuardedRule.
type Rule interface {
	Description() string
	// With returns a rule applying this one, then next.
	With(next Rule) Rule
	// When returns a rule applying this one only if cond holds.
	When(cond Condition) Rule

	isRule()
}

// StartJobRule fires a stored job immediately.
type StartJobRule struct {
	Scheduler string
	Key       scheduler.JobKey
	Priority  int
}

func StartJob(key scheduler.JobKey) StartJobRule {
	return StartJobRule{Key: key, Priority: scheduler.DefaultPriority}
}

func (r StartJobRule) OnScheduler(name string) StartJobRule {
	r.Scheduler = name
	return r
}

// OnSameScheduler starts the job on the scheduler the rule is applied on.
func (r StartJobRule) OnSameScheduler() StartJobRule {
	r.Scheduler = ""
	return r
}

func (r StartJobRule) SetTriggerPriority(priority int) StartJobRule {
	r.Priority = priority
	return r
}

func (r StartJobRule) Description() string {
	return fmt.Sprintf("start job %s%s", r.Key, onScheduler(r.Scheduler))
}

func (r StartJobRule) With(next Rule) Rule {
	return Sequence(r, next)
}

func (r StartJobRule) When(cond Condition) Rule {
	return When(cond, r)
}

func (StartJobRule) isRule() {}

// GroupTarget selects the schedulers a StartGroupRule runs against.
type GroupTarget string

const (
	TargetScheduler           GroupTarget = "single"
	TargetAllSchedulers       GroupTarget = "all"
	TargetAllSchedulersExcept GroupTarget = "all_except"
)

// StartGroupRule fires every job matching a group at the time it is applied.
type StartGroupRule struct {
	Target GroupTarget
	// Scheduler is the target scheduler, or the excluded one for TargetAllSchedulersExcept.
	Scheduler string
	Matcher   scheduler.GroupMatcher
	Priority  int
}

func StartGroup(matcher scheduler.GroupMatcher) StartGroupRule {
	return StartGroupRule{Target: TargetScheduler, Matcher: matcher, Priority: scheduler.DefaultPriority}
}

func (r StartGroupRule) OnScheduler(name string) StartGroupRule {
	r.Target = TargetScheduler
	r.Scheduler = name
	return r
}

func (r StartGroupRule) OnSameScheduler() StartGroupRule {
	return r.OnScheduler("")
}

func (r StartGroupRule) OnAllSchedulers() StartGroupRule {
	r.Target = TargetAllSchedulers
	r.Scheduler = ""
	return r
}

func (r StartGroupRule) OnAllSchedulersExcept(name string) StartGroupRule {
	r.Target = TargetAllSchedulersExcept
	r.Scheduler = name
	return r
}

func (r StartGroupRule) SetTriggerPriority(priority int) StartGroupRule {
	r.Priority = priority
	return r
}

func (r StartGroupRule) Description() string {
	switch r.Target {
	case TargetAllSchedulers:
		return fmt.Sprintf("start jobs of %s on all schedulers", r.Matcher)
	case TargetAllSchedulersExcept:
		return fmt.Sprintf("start jobs of %s on all schedulers except %s", r.Matcher, r.Scheduler)
	}
	return fmt.Sprintf("start jobs of %s%s", r.Matcher, onScheduler(r.Scheduler))
}

func (r StartGroupRule) With(next Rule) Rule {
	return Sequence(r, next)
}

func (r StartGroupRule) When(cond Condition) Rule {
	return When(cond, r)
}

func (StartGroupRule) isRule() {}

// StartTriggerRule schedules a caller supplied trigger as is.
type StartTriggerRule struct {
	Scheduler string
	Trigger   *scheduler.Trigger
}

// StartTrigger keeps a copy of t, later changes to t do not affect the rule.
func StartTrigger(t *scheduler.Trigger) StartTriggerRule {
	if t == nil {
		return StartTriggerRule{}
	}
	return StartTriggerRule{Trigger: t.Clone()}
}

func (r StartTriggerRule) OnScheduler(name string) StartTriggerRule {
	r.Scheduler = name
	return r
}

func (r StartTriggerRule) OnSameScheduler() StartTriggerRule {
	r.Scheduler = ""
	return r
}

func (r StartTriggerRule) Description() string {
	return fmt.Sprintf("start %s%s", r.Trigger, onScheduler(r.Scheduler))
}

func (r StartTriggerRule) With(next Rule) Rule {
	return Sequence(r, next)
}

func (r StartTriggerRule) When(cond Condition) Rule {
	return When(cond, r)
}

func (StartTriggerRule) isRule() {}

// SequenceRule applies its rules in order, stopping at the first error.
type SequenceRule struct {
	Rules []Rule
}

// Sequence flattens nested sequences, a single rule is returned unchanged.
func Sequence(rules ...Rule) Rule {
	flat := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if seq, ok := r.(SequenceRule); ok {
			flat = append(flat, seq.Rules...)
			continue
		}
		if r != nil {
			flat = append(flat, r)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return SequenceRule{Rules: flat}
}

func (r SequenceRule) Description() string {
	desc := make([]string, 0, len(r.Rules))
	for _, rule := range r.Rules {
		desc = append(desc, rule.Description())
	}
	return strings.Join(desc, " and ")
}

func (r SequenceRule) With(next Rule) Rule {
	return Sequence(r, next)
}

func (r SequenceRule) When(cond Condition) Rule {
	return When(cond, r)
}

func (SequenceRule) isRule() {}

// GuardedRule applies Rule only when Condition holds at application time.
type GuardedRule struct {
	Condition Condition
	Rule      Rule
}

func When(cond Condition, rule Rule) GuardedRule {
	return GuardedRule{Condition: cond, Rule: rule}
}

// And refines the guard without wrapping the rule again.
func (r GuardedRule) And(cond Condition) GuardedRule {
	r.Condition = r.Condition.And(cond)
	return r
}

func (r GuardedRule) Description() string {
	return fmt.Sprintf("%s when %s", r.Rule.Description(), r.Condition.Description())
}

func (r GuardedRule) With(next Rule) Rule {
	return Sequence(r, next)
}

func (r GuardedRule) When(cond Condition) Rule {
	return r.And(cond)
}

func (GuardedRule) isRule() {}

// funcRule runs code at workflow start, it is never persisted.
type funcRule struct {
	desc string
	fn   func(ctx context.Context, p Parameters) error
}

func (r funcRule) Description() string {
	return r.desc
}

func (r funcRule) With(next Rule) Rule {
	return Sequence(r, next)
}

func (r funcRule) When(cond Condition) Rule {
	return When(cond, r)
}

func (funcRule) isRule() {}
