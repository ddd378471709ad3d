package workflow

import (
	"time"

	"github.com/crochee/jobflow/pkg/scheduler"
)

// StartCause is the cause of the parameters a workflow start applies its rule with.
const StartCause = "start"

// Parameters is the payload threaded through one rule application.
type Parameters struct {
	cause              string
	scheduledStartTime time.Time
	carriedData        interface{}
}

// StartParameters returns the parameters used by Workflow.Start.
func StartParameters(now time.Time) Parameters {
	return Parameters{cause: StartCause, scheduledStartTime: now}
}

// ParametersFromContext derives the parameters of a follow-up from the firing that completed.
func ParametersFromContext(jc *scheduler.ExecutionContext) Parameters {
	return Parameters{
		cause:              jc.Trigger.Key.String(),
		scheduledStartTime: jc.ScheduledFireTime,
		carriedData:        jc.Result,
	}
}

func (p Parameters) Cause() string {
	return p.cause
}

func (p Parameters) ScheduledStartTime() time.Time {
	return p.scheduledStartTime
}

// CarriedData is the output of the previous job, nil when there is none.
func (p Parameters) CarriedData() interface{} {
	return p.carriedData
}

func (p Parameters) WithCause(cause string) Parameters {
	p.cause = cause
	return p
}
