package workflow

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

const namespace = "jobflow"

var (
	triggersStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "triggers_started_total",
		Help:      "Triggers scheduled by workflow rules.",
	}, []string{"scheduler"})

	racesSwallowed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "races_swallowed_total",
		Help:      "Starts skipped because another path already handled them.",
	}, []string{"scheduler", "reason"})

	rulesApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatcher",
		Name:      "rules_applied_total",
		Help:      "Follow-up rules applied on job completion.",
	}, []string{"scheduler"})

	dispatchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dispatcher",
		Name:      "errors_total",
		Help:      "Job completions whose follow-up handling failed.",
	}, []string{"scheduler"})

	recoveryRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recovery",
		Name:      "retries_total",
		Help:      "Retry triggers scheduled by the recovery helper.",
	}, []string{"scheduler"})

	recoveryExhausted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "recovery",
		Name:      "exhausted_total",
		Help:      "Jobs that used up their recovery attempts.",
	}, []string{"scheduler"})
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		triggersStarted,
		racesSwallowed,
		rulesApplied,
		dispatchErrors,
		recoveryRetries,
		recoveryExhausted,
	}
}

// RegisterMetrics registers the workflow collectors, registering them twice is not an error.
func RegisterMetrics(reg prometheus.Registerer) error {
	var err error
	for _, c := range collectors() {
		if e := reg.Register(c); e != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(e, &are) {
				continue
			}
			err = multierr.Append(err, e)
		}
	}
	return err
}
