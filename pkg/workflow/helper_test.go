package workflow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
	"github.com/crochee/jobflow/pkg/scheduler/memory"
	"github.com/crochee/jobflow/pkg/scheduler/mock"
)

func testContext() context.Context {
	return logger.With(context.Background(), logger.New(logger.WithLevel("error")))
}

// newMockScheduler returns a named mock scheduler accepting the dispatcher listener.
func newMockScheduler(ctrl *gomock.Controller, name string) *mock.MockScheduler {
	s := mock.NewMockScheduler(ctrl)
	lm := mock.NewMockListenerManager(ctrl)
	s.EXPECT().Name().Return(name).AnyTimes()
	s.EXPECT().ListenerManager().Return(lm).AnyTimes()
	lm.EXPECT().JobListener(DispatcherListenerName).Return(nil, false).AnyTimes()
	lm.EXPECT().AddJobListener(gomock.Any()).Return(nil).AnyTimes()
	lm.EXPECT().RemoveJobListener(DispatcherListenerName).Return(true).AnyTimes()
	return s
}

// newStore returns a memory scheduler that is never started, useful to inspect state.
func newStore(t *testing.T, d *Dispatcher, name string) *memory.Scheduler {
	t.Helper()
	s := memory.New(name)
	require.NoError(t, d.AddScheduler(s))
	return s
}

// startMemory returns a running memory scheduler registered with d.
func startMemory(t *testing.T, d *Dispatcher, name string) *memory.Scheduler {
	t.Helper()
	s := memory.New(name, memory.WithInterval(10*time.Millisecond), memory.WithSlot(64))
	require.NoError(t, d.AddScheduler(s))
	ctx, cancel := context.WithCancel(testContext())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return s
}

func addDurable(t *testing.T, s scheduler.Scheduler, keys ...scheduler.JobKey) {
	t.Helper()
	for _, key := range keys {
		job := scheduler.NewJobDetail(key, nopJob(), scheduler.WithDurability(true))
		require.NoError(t, s.AddJob(context.Background(), job, false, false))
	}
}

func nopJob() scheduler.Job {
	return scheduler.JobFunc(func(ctx context.Context, jc *scheduler.ExecutionContext) error {
		return nil
	})
}

type triggerMatcher struct {
	job scheduler.JobKey
}

func (m triggerMatcher) Matches(x interface{}) bool {
	t, ok := x.(*scheduler.Trigger)
	return ok && t.JobKey == m.job
}

func (m triggerMatcher) String() string {
	return fmt.Sprintf("is a trigger of %s", m.job)
}

// triggerFor matches the triggers of a job.
func triggerFor(key scheduler.JobKey) gomock.Matcher {
	return triggerMatcher{job: key}
}
