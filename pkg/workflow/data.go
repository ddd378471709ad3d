package workflow

import (
	"github.com/pkg/errors"

	"github.com/crochee/jobflow/pkg/scheduler"
)

// Keys reserved in job and trigger data.
const (
	// RuleDataKey holds the encoded follow-up rule of a job or trigger.
	RuleDataKey = "jobflow.rule"
	// InputDataKey holds the output of the job that started this one.
	InputDataKey = "jobflow.input"
	// RemainingAttemptsKey holds the recovery attempts left on a retry trigger.
	RemainingAttemptsKey = "jobflow.remaining_attempts"
)

// AttachRule stores the rule in data. A rule already present is kept and runs first.
func AttachRule(data scheduler.JobDataMap, rule Rule) error {
	if data == nil {
		return errors.New("attach rule to nil data")
	}
	old, err := RuleFromData(data)
	if err != nil {
		return err
	}
	if old != nil {
		rule = Sequence(old, rule)
	}
	s, err := MarshalRule(rule)
	if err != nil {
		return err
	}
	data[RuleDataKey] = s
	return nil
}

// RuleFromData returns the rule stored in data, nil when there is none.
func RuleFromData(data scheduler.JobDataMap) (Rule, error) {
	v, ok := data[RuleDataKey]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, errors.Errorf("rule data is a %T, not a string", v)
	}
	return UnmarshalRule(s)
}

// DetachRule removes the rule from data.
func DetachRule(data scheduler.JobDataMap) {
	delete(data, RuleDataKey)
}

// Input returns the data carried to this firing by the job that started it.
// Structured values come back in their decoded JSON shape.
func Input(jc *scheduler.ExecutionContext) interface{} {
	return jc.MergedData[InputDataKey]
}
