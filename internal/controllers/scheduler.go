package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/crochee/jobflow/pkg/code"
	"github.com/crochee/jobflow/pkg/resp"
	"github.com/crochee/jobflow/pkg/scheduler"
	"github.com/crochee/jobflow/pkg/workflow"
)

type SchedulerView struct {
	Name       string   `json:"name"`
	InstanceID string   `json:"instance_id"`
	Jobs       []string `json:"jobs"`
}

type Schedulers struct {
	dispatcher *workflow.Dispatcher
}

func NewSchedulers(d *workflow.Dispatcher) *Schedulers {
	return &Schedulers{dispatcher: d}
}

// List 列出调度器及其中的任务
func (s *Schedulers) List(c *gin.Context) {
	ctx := c.Request.Context()
	schedulers := s.dispatcher.Schedulers()
	views := make([]SchedulerView, 0, len(schedulers))
	for _, sch := range schedulers {
		keys, err := sch.GetJobKeys(ctx, scheduler.AnyGroup())
		if err != nil {
			resp.Error(c, code.ErrInternalServerError.WithResult(err.Error()))
			return
		}
		jobs := make([]string, len(keys))
		for i, key := range keys {
			jobs[i] = key.String()
		}
		views = append(views, SchedulerView{Name: sch.Name(), InstanceID: sch.InstanceID(), Jobs: jobs})
	}
	resp.Success(c, views)
}
