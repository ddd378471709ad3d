// Package demo builds the two step workflow run by the jobflow binary:
// a callback job posts an order, and its response is handed to a report job.
package demo

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/config"
	"github.com/crochee/jobflow/internal/callback"
	"github.com/crochee/jobflow/pkg/idx"
	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
	"github.com/crochee/jobflow/pkg/workflow"
)

var (
	CallbackJobKey = scheduler.NewJobKey("callback", "g1")
	ReportJobKey   = scheduler.NewJobKey("report", "g2")
)

type Demo struct {
	Callback *scheduler.JobDetail
	Report   *scheduler.JobDetail
	// reportOn is the scheduler running the report job, "" for the callback's one.
	reportOn string
}

// New defines the jobs, report is the job run with the callback response.
func New(cfg config.Demo, report scheduler.Job, reportOn string) (*Demo, error) {
	order, err := idx.NextString()
	if err != nil {
		return nil, errors.Wrap(err, "generate order id")
	}
	cb := callback.New(
		callback.WithTimeout(cfg.Timeout),
		callback.WithRetry(uint64(cfg.Retries), cfg.RetryInterval),
		callback.WithRecovery(cfg.Attempts, cfg.Delay),
		callback.WithRateLimit(cfg.RateLimit, 1),
	)
	return &Demo{
		Callback: scheduler.NewJobDetail(CallbackJobKey, cb,
			scheduler.WithDescription("post the order to the callback receiver"),
			scheduler.WithConcurrentExecutionDisallowed(),
			scheduler.WithJobData(scheduler.JobDataMap{
				callback.URLKey: cfg.CallbackURL,
				callback.BodyKey: map[string]interface{}{
					"order":      order,
					"created_at": time.Now().UTC().Format(time.RFC3339),
				},
			})),
		Report: scheduler.NewJobDetail(ReportJobKey, report,
			scheduler.WithDescription("report the callback response")),
		reportOn: reportOn,
	}, nil
}

func (d *Demo) followUp() workflow.Rule {
	rule := workflow.StartJob(d.Report.Key)
	if d.reportOn != "" {
		return rule.OnScheduler(d.reportOn)
	}
	return rule.OnSameScheduler()
}

// Register adds the jobs to w, the callback job on the default scheduler.
func (d *Demo) Register(ctx context.Context, w *workflow.Workflow, reportOn scheduler.Scheduler) error {
	if err := w.AddJob(ctx, d.Callback, d.followUp()); err != nil {
		return err
	}
	if reportOn == nil {
		if err := w.AddJob(ctx, d.Report); err != nil {
			return err
		}
	} else if err := w.AddJobOn(ctx, reportOn, d.Report); err != nil {
		return err
	}
	return w.AddStartRule(workflow.StartJob(d.Callback.Key))
}

// Rows describes the jobs for table output.
func (d *Demo) Rows() []map[string]interface{} {
	rows := make([]map[string]interface{}, 0, 2)
	for _, job := range []*scheduler.JobDetail{d.Callback, d.Report} {
		row := map[string]interface{}{
			"job":         job.Key,
			"description": job.Description,
			"serial":      job.ConcurrentExecutionDisallowed,
		}
		if rule, err := workflow.RuleFromData(job.Data); err == nil && rule != nil {
			row["then"] = rule.Description()
		}
		rows = append(rows, row)
	}
	return rows
}

// Fields orders the columns of Rows.
func Fields() []string {
	return []string{"job", "description", "serial", "then"}
}

// ReportJob logs the input it was started with.
func ReportJob() scheduler.Job {
	return scheduler.JobFunc(func(ctx context.Context, jc *scheduler.ExecutionContext) error {
		logger.From(ctx).Info("callback reported",
			zap.Stringer("job", jc.JobDetail.Key),
			zap.Any("response", workflow.Input(jc)))
		return nil
	})
}
