package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crochee/jobflow/pkg/scheduler"
	"github.com/crochee/jobflow/pkg/scheduler/memory"
	"github.com/crochee/jobflow/pkg/scheduler/mock"
)

func TestDispatcherAddScheduler(t *testing.T) {
	d := NewDispatcher()
	s := memory.New("s1")
	require.NoError(t, d.AddScheduler(s))
	require.NoError(t, d.AddScheduler(s))

	l, ok := s.ListenerManager().JobListener(DispatcherListenerName)
	require.True(t, ok)
	assert.Equal(t, d, l)

	err := d.AddScheduler(memory.New("s1"))
	assert.True(t, errors.Is(err, ErrSchedulerAlreadyRegistered))

	// a second dispatcher cannot take over a scheduler
	err = NewDispatcher().AddScheduler(s)
	assert.True(t, errors.Is(err, ErrSchedulerAlreadyRegistered))

	got, err := d.Scheduler("s1")
	require.NoError(t, err)
	assert.Equal(t, scheduler.Scheduler(s), got)
	_, err = d.Scheduler("")
	assert.True(t, errors.Is(err, ErrNoDefaultScheduler))

	assert.True(t, d.RemoveScheduler("s1"))
	assert.False(t, d.RemoveScheduler("s1"))
	_, ok = s.ListenerManager().JobListener(DispatcherListenerName)
	assert.False(t, ok)
	_, err = d.Scheduler("s1")
	assert.True(t, errors.Is(err, ErrUnknownScheduler))
}

func TestDispatcherSchedulersSorted(t *testing.T) {
	d := NewDispatcher()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, d.AddScheduler(memory.New(name)))
	}
	var names []string
	for _, s := range d.Schedulers() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestDispatcherListenerInstallFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := mock.NewMockScheduler(ctrl)
	lm := mock.NewMockListenerManager(ctrl)
	s.EXPECT().Name().Return("s1").AnyTimes()
	s.EXPECT().ListenerManager().Return(lm).AnyTimes()
	lm.EXPECT().JobListener(DispatcherListenerName).Return(nil, false)
	lm.EXPECT().AddJobListener(gomock.Any()).Return(errors.New("closed"))

	d := NewDispatcher()
	assert.Error(t, d.AddScheduler(s))
	assert.Empty(t, d.Schedulers())
}

func executionContext(s scheduler.Scheduler, data scheduler.JobDataMap) *scheduler.ExecutionContext {
	key := scheduler.NewJobKey("job1", "g1")
	return &scheduler.ExecutionContext{
		Scheduler:         s,
		Trigger:           scheduler.NewTrigger(StartTriggerKey(key), key),
		JobDetail:         scheduler.NewJobDetail(key, nopJob()),
		MergedData:        data,
		ScheduledFireTime: time.Now(),
	}
}

func TestJobWasExecuted(t *testing.T) {
	following := scheduler.NewJobKey("following", "g2")
	ruleData := func() scheduler.JobDataMap {
		data := scheduler.JobDataMap{}
		require.NoError(t, AttachRule(data, StartJob(following)))
		return data
	}
	tests := []struct {
		name    string
		data    scheduler.JobDataMap
		again   bool
		jobErr  error
		setup   func(s *mock.MockScheduler)
		wantErr bool
	}{
		{
			name:   "job failed without rule",
			data:   scheduler.JobDataMap{},
			jobErr: errors.New("job failed"),
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().UnscheduleJob(gomock.Any(), gomock.Any()).Return(true, nil)
			},
		},
		{
			name:  "fires again",
			data:  ruleData(),
			again: true,
			setup: func(s *mock.MockScheduler) {},
		},
		{
			name: "no rule",
			data: scheduler.JobDataMap{},
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().UnscheduleJob(gomock.Any(), StartTriggerKey(scheduler.NewJobKey("job1", "g1"))).Return(true, nil)
			},
		},
		{
			name: "follow-up started",
			data: ruleData(),
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().UnscheduleJob(gomock.Any(), gomock.Any()).Return(true, nil)
				s.EXPECT().ScheduleJob(gomock.Any(), triggerFor(following)).Return(time.Now(), nil)
			},
		},
		{
			name:   "job failed",
			data:   ruleData(),
			jobErr: errors.New("job failed"),
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().UnscheduleJob(gomock.Any(), gomock.Any()).Return(true, nil)
				s.EXPECT().ScheduleJob(gomock.Any(), triggerFor(following)).Return(time.Now(), nil)
			},
		},
		{
			name: "follow-up fails",
			data: ruleData(),
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().UnscheduleJob(gomock.Any(), gomock.Any()).Return(true, nil)
				s.EXPECT().ScheduleJob(gomock.Any(), triggerFor(following)).
					Return(time.Time{}, scheduler.ErrSchedulerShutdown)
			},
			wantErr: true,
		},
		{
			name: "unschedule fails",
			data: ruleData(),
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().UnscheduleJob(gomock.Any(), gomock.Any()).Return(false, errors.New("store down"))
			},
			wantErr: true,
		},
		{
			name: "bad rule data",
			data: scheduler.JobDataMap{RuleDataKey: "{"},
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().UnscheduleJob(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			s := newMockScheduler(ctrl, "s1")
			tt.setup(s)
			d := NewDispatcher()
			require.NoError(t, d.AddScheduler(s))
			jc := executionContext(s, tt.data)
			if tt.again {
				jc.NextFireTime = time.Now().Add(time.Minute)
			}
			err := d.JobWasExecuted(context.Background(), jc, tt.jobErr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestJobWasExecutedNamedScheduler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s1 := newMockScheduler(ctrl, "s1")
	s2 := newMockScheduler(ctrl, "s2")
	d := NewDispatcher()
	require.NoError(t, d.AddScheduler(s1))
	require.NoError(t, d.AddScheduler(s2))
	following := scheduler.NewJobKey("following", "g2")
	data := scheduler.JobDataMap{}
	require.NoError(t, AttachRule(data, StartJob(following).OnScheduler("s2")))

	s1.EXPECT().UnscheduleJob(gomock.Any(), gomock.Any()).Return(true, nil)
	s2.EXPECT().ScheduleJob(gomock.Any(), triggerFor(following)).Return(time.Now(), nil)
	assert.NoError(t, d.JobWasExecuted(context.Background(), executionContext(s1, data), nil))
}
