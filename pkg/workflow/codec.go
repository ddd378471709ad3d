package workflow

import (
	"github.com/pkg/errors"

	"github.com/crochee/jobflow/pkg/json"
	"github.com/crochee/jobflow/pkg/scheduler"
)

const (
	typeStartJob     = "start_job"
	typeStartGroup   = "start_group"
	typeStartTrigger = "start_trigger"
	typeSequence     = "sequence"
	typeGuarded      = "guarded"

	typeJobDone   = "job_done"
	typeGroupDone = "group_done"
	typeAnd       = "and"
)

// ruleDoc is the persisted form of a Rule, Type selects the fields in use.
type ruleDoc struct {
	Type      string                  `json:"type"`
	Scheduler string                  `json:"scheduler,omitempty"`
	Job       *scheduler.JobKey       `json:"job,omitempty"`
	Target    GroupTarget             `json:"target,omitempty"`
	Group     *scheduler.GroupMatcher `json:"group,omitempty"`
	Priority  int                     `json:"priority,omitempty"`
	Trigger   *scheduler.Trigger      `json:"trigger,omitempty"`
	Rules     []*ruleDoc              `json:"rules,omitempty"`
	Condition *conditionDoc           `json:"condition,omitempty"`
	Rule      *ruleDoc                `json:"rule,omitempty"`
}

type conditionDoc struct {
	Type      string                  `json:"type"`
	Scheduler string                  `json:"scheduler,omitempty"`
	Job       *scheduler.JobKey       `json:"job,omitempty"`
	Group     *scheduler.GroupMatcher `json:"group,omitempty"`
	Left      *conditionDoc           `json:"left,omitempty"`
	Right     *conditionDoc           `json:"right,omitempty"`
}

// MarshalRule encodes the rule as a tagged JSON document.
func MarshalRule(rule Rule) (string, error) {
	doc, err := encodeRule(rule)
	if err != nil {
		return "", err
	}
	return json.MarshalToString(doc)
}

func UnmarshalRule(s string) (Rule, error) {
	var doc ruleDoc
	if err := json.UnmarshalFromString(s, &doc); err != nil {
		return nil, errors.Wrap(err, "decode rule")
	}
	return decodeRule(&doc)
}

// MarshalCondition encodes the condition as a tagged JSON document.
func MarshalCondition(cond Condition) (string, error) {
	doc, err := encodeCondition(cond)
	if err != nil {
		return "", err
	}
	return json.MarshalToString(doc)
}

func UnmarshalCondition(s string) (Condition, error) {
	var doc conditionDoc
	if err := json.UnmarshalFromString(s, &doc); err != nil {
		return nil, errors.Wrap(err, "decode condition")
	}
	return decodeCondition(&doc)
}

func encodeRule(rule Rule) (*ruleDoc, error) {
	switch v := rule.(type) {
	case StartJobRule:
		key := v.Key
		return &ruleDoc{Type: typeStartJob, Scheduler: v.Scheduler, Job: &key, Priority: v.Priority}, nil
	case StartGroupRule:
		matcher := v.Matcher
		return &ruleDoc{
			Type:      typeStartGroup,
			Scheduler: v.Scheduler,
			Target:    v.Target,
			Group:     &matcher,
			Priority:  v.Priority,
		}, nil
	case StartTriggerRule:
		if v.Trigger == nil {
			return nil, errors.New("start trigger rule without trigger")
		}
		return &ruleDoc{Type: typeStartTrigger, Scheduler: v.Scheduler, Trigger: v.Trigger.Clone()}, nil
	case SequenceRule:
		doc := &ruleDoc{Type: typeSequence, Rules: make([]*ruleDoc, 0, len(v.Rules))}
		for _, r := range v.Rules {
			sub, err := encodeRule(r)
			if err != nil {
				return nil, err
			}
			doc.Rules = append(doc.Rules, sub)
		}
		return doc, nil
	case GuardedRule:
		cond, err := encodeCondition(v.Condition)
		if err != nil {
			return nil, err
		}
		inner, err := encodeRule(v.Rule)
		if err != nil {
			return nil, err
		}
		return &ruleDoc{Type: typeGuarded, Condition: cond, Rule: inner}, nil
	case funcRule:
		return nil, errors.Errorf("rule %q runs code and cannot be persisted", v.desc)
	}
	return nil, errors.Errorf("unsupported rule %T", rule)
}

func decodeRule(doc *ruleDoc) (Rule, error) {
	if doc == nil {
		return nil, errors.New("missing rule")
	}
	switch doc.Type {
	case typeStartJob:
		if doc.Job == nil {
			return nil, errors.New("start_job rule without job")
		}
		return StartJobRule{Scheduler: doc.Scheduler, Key: *doc.Job, Priority: doc.Priority}, nil
	case typeStartGroup:
		if doc.Group == nil {
			return nil, errors.New("start_group rule without group")
		}
		target := doc.Target
		switch target {
		case "":
			target = TargetScheduler
		case TargetScheduler, TargetAllSchedulers, TargetAllSchedulersExcept:
		default:
			return nil, errors.Errorf("unknown group target %q", target)
		}
		return StartGroupRule{
			Target:    target,
			Scheduler: doc.Scheduler,
			Matcher:   *doc.Group,
			Priority:  doc.Priority,
		}, nil
	case typeStartTrigger:
		if doc.Trigger == nil {
			return nil, errors.New("start_trigger rule without trigger")
		}
		return StartTriggerRule{Scheduler: doc.Scheduler, Trigger: doc.Trigger}, nil
	case typeSequence:
		rules := make([]Rule, 0, len(doc.Rules))
		for _, sub := range doc.Rules {
			r, err := decodeRule(sub)
			if err != nil {
				return nil, err
			}
			rules = append(rules, r)
		}
		return SequenceRule{Rules: rules}, nil
	case typeGuarded:
		cond, err := decodeCondition(doc.Condition)
		if err != nil {
			return nil, err
		}
		inner, err := decodeRule(doc.Rule)
		if err != nil {
			return nil, err
		}
		return GuardedRule{Condition: cond, Rule: inner}, nil
	}
	return nil, errors.Errorf("unknown rule type %q", doc.Type)
}

func encodeCondition(cond Condition) (*conditionDoc, error) {
	switch v := cond.(type) {
	case JobDoneCondition:
		key := v.Key
		return &conditionDoc{Type: typeJobDone, Scheduler: v.Scheduler, Job: &key}, nil
	case GroupDoneCondition:
		matcher := v.Matcher
		return &conditionDoc{Type: typeGroupDone, Scheduler: v.Scheduler, Group: &matcher}, nil
	case AndCondition:
		left, err := encodeCondition(v.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeCondition(v.Right)
		if err != nil {
			return nil, err
		}
		return &conditionDoc{Type: typeAnd, Left: left, Right: right}, nil
	}
	return nil, errors.Errorf("unsupported condition %T", cond)
}

func decodeCondition(doc *conditionDoc) (Condition, error) {
	if doc == nil {
		return nil, errors.New("missing condition")
	}
	switch doc.Type {
	case typeJobDone:
		if doc.Job == nil {
			return nil, errors.New("job_done condition without job")
		}
		return JobDoneCondition{Scheduler: doc.Scheduler, Key: *doc.Job}, nil
	case typeGroupDone:
		if doc.Group == nil {
			return nil, errors.New("group_done condition without group")
		}
		return GroupDoneCondition{Scheduler: doc.Scheduler, Matcher: *doc.Group}, nil
	case typeAnd:
		left, err := decodeCondition(doc.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeCondition(doc.Right)
		if err != nil {
			return nil, err
		}
		return AndCondition{Left: left, Right: right}, nil
	}
	return nil, errors.Errorf("unknown condition type %q", doc.Type)
}
