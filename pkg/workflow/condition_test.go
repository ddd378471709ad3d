package workflow

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crochee/jobflow/pkg/scheduler"
)

func TestCanStartJobs(t *testing.T) {
	d := NewDispatcher()
	s := newStore(t, d, "s1")
	job1 := scheduler.NewJobKey("job1", "g1")
	addDurable(t, s, job1)
	r := WithDefault(d, s)
	ctx := context.Background()

	tests := []struct {
		name   string
		cond   Condition
		expect bool
	}{
		{"job present", JobDone(job1), false},
		{"job absent", JobDone(scheduler.NewJobKey("job2", "g1")), true},
		{"named scheduler", JobDone(job1).OnScheduler("s1"), false},
		{"group present", GroupDone(scheduler.GroupEquals("g1")), false},
		{"group absent", GroupDone(scheduler.GroupEquals("g2")), true},
		{"group prefix", GroupDone(scheduler.GroupStartsWith("g")), false},
		{"and both", JobDone(scheduler.NewJobKey("x", "g9")).And(GroupDone(scheduler.GroupEquals("g2"))), true},
		{"and right false", GroupDone(scheduler.GroupEquals("g2")).And(JobDone(job1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := CanStartJobs(ctx, tt.cond, r)
			require.NoError(t, err)
			assert.Equal(t, tt.expect, ok)
		})
	}
}

func TestCanStartJobsUnknownScheduler(t *testing.T) {
	d := NewDispatcher()
	_, err := CanStartJobs(context.Background(), JobDone(scheduler.NewJobKey("job1")).OnScheduler("nope"), d)
	assert.True(t, errors.Is(err, ErrUnknownScheduler))
	var use *UnknownSchedulerError
	require.True(t, errors.As(err, &use))
	assert.Equal(t, "nope", use.Name)
}

func TestAndShortCircuit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := NewDispatcher()
	left := newMockScheduler(ctrl, "left")
	require.NoError(t, d.AddScheduler(left))
	key := scheduler.NewJobKey("job1", "g1")
	left.EXPECT().CheckExists(gomock.Any(), key).Return(true, nil).Times(1)

	cond := JobDone(key).OnScheduler("left").And(JobDone(key).OnScheduler("unresolvable"))
	ok, err := CanStartJobs(context.Background(), cond, d)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyCondition(t *testing.T) {
	d := NewDispatcher()
	newStore(t, d, "s1")
	key := scheduler.NewJobKey("job1")

	assert.NoError(t, VerifyCondition(JobDone(key), d))
	assert.NoError(t, VerifyCondition(JobDone(key).OnScheduler("s1").And(GroupDone(scheduler.AnyGroup())), d))
	err := VerifyCondition(JobDone(key).And(GroupDone(scheduler.AnyGroup()).OnScheduler("s2")), d)
	assert.True(t, errors.Is(err, ErrUnknownScheduler))
}

func TestConditionDescription(t *testing.T) {
	cond := JobDone(scheduler.NewJobKey("job1", "g1")).OnScheduler("s1").
		And(GroupDone(scheduler.GroupEquals("g2")))
	assert.Equal(t, `job g1.job1 is done on scheduler s1 and jobs of group equals "g2" are done`,
		cond.Description())
}
