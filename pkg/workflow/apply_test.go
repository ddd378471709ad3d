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
	"github.com/crochee/jobflow/pkg/scheduler/mock"
)

func TestStartTriggerKeyIsStable(t *testing.T) {
	key := scheduler.NewJobKey("job1", "g1")
	assert.Equal(t, StartTriggerKey(key), StartTriggerKey(scheduler.NewJobKey("job1", "g1")))
	assert.Equal(t, scheduler.NewTriggerKey("g1.job1", DispatcherTriggerGroup), StartTriggerKey(key))
	assert.NotEqual(t, StartTriggerKey(key), StartTriggerKey(scheduler.NewJobKey("job1", "g2")))
}

func TestStartJobTwice(t *testing.T) {
	d := NewDispatcher()
	s := newStore(t, d, "s1")
	key := scheduler.NewJobKey("job1", "g1")
	addDurable(t, s, key)
	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	p := StartParameters(at)
	r := WithDefault(d, s)

	require.NoError(t, Apply(context.Background(), StartJob(key).SetTriggerPriority(8), p, r))
	require.NoError(t, Apply(context.Background(), StartJob(key), p, r))

	assert.Equal(t, []scheduler.TriggerKey{StartTriggerKey(key)}, s.TriggerKeys(key))
	trigger, ok := s.Trigger(StartTriggerKey(key))
	require.True(t, ok)
	assert.Equal(t, 8, trigger.Priority)
	assert.True(t, at.Equal(trigger.StartTime))
	assert.Equal(t, scheduler.MisfireIgnore, trigger.MisfireInstruction)
	assert.Equal(t, StartCause, trigger.Description)
}

func TestStartJobRaceHandling(t *testing.T) {
	key := scheduler.NewJobKey("job1", "g1")
	persistence := &scheduler.PersistenceError{Op: "store trigger", Key: "t", Err: errors.New("write failed")}
	tests := []struct {
		name    string
		setup   func(s *mock.MockScheduler)
		wantErr bool
	}{
		{
			name: "already exists",
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().ScheduleJob(gomock.Any(), gomock.Any()).
					Return(time.Time{}, scheduler.AlreadyExists("trigger", StartTriggerKey(key)))
			},
		},
		{
			name: "integrity violation",
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().ScheduleJob(gomock.Any(), gomock.Any()).
					Return(time.Time{}, errors.Wrap(scheduler.ErrIntegrityViolation, "duplicate row"))
			},
		},
		{
			name: "job gone",
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().ScheduleJob(gomock.Any(), gomock.Any()).Return(time.Time{}, persistence)
				s.EXPECT().CheckExists(gomock.Any(), key).Return(false, nil)
			},
		},
		{
			name: "job still there",
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().ScheduleJob(gomock.Any(), gomock.Any()).Return(time.Time{}, persistence)
				s.EXPECT().CheckExists(gomock.Any(), key).Return(true, nil)
			},
			wantErr: true,
		},
		{
			name: "check fails",
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().ScheduleJob(gomock.Any(), gomock.Any()).Return(time.Time{}, persistence)
				s.EXPECT().CheckExists(gomock.Any(), key).Return(false, errors.New("store down"))
			},
			wantErr: true,
		},
		{
			name: "other error",
			setup: func(s *mock.MockScheduler) {
				s.EXPECT().ScheduleJob(gomock.Any(), gomock.Any()).Return(time.Time{}, scheduler.ErrSchedulerShutdown)
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
			err := NewDispatcher().StartJob(context.Background(), s, key, scheduler.DefaultPriority,
				StartParameters(time.Now()))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStartJobCarriesInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := newMockScheduler(ctrl, "s1")
	key := scheduler.NewJobKey("job1", "g1")
	jc := &scheduler.ExecutionContext{
		Trigger:           scheduler.NewTrigger(scheduler.NewTriggerKey("t1", "tg"), scheduler.NewJobKey("job0", "g0")),
		ScheduledFireTime: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Result:            map[string]interface{}{"id": "42"},
	}
	s.EXPECT().ScheduleJob(gomock.Any(), triggerFor(key)).DoAndReturn(
		func(ctx context.Context, trigger *scheduler.Trigger) (time.Time, error) {
			assert.Equal(t, jc.Result, trigger.Data[InputDataKey])
			assert.Equal(t, "tg.t1", trigger.Description)
			assert.True(t, jc.ScheduledFireTime.Equal(trigger.StartTime))
			return trigger.StartTime, nil
		})
	require.NoError(t, Apply(context.Background(), StartJob(key), ParametersFromContext(jc), WithDefault(NewDispatcher(), s)))
}

func TestSequenceOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := newMockScheduler(ctrl, "s1")
	a := scheduler.NewJobKey("a", "g")
	b := scheduler.NewJobKey("b", "g")
	gomock.InOrder(
		s.EXPECT().ScheduleJob(gomock.Any(), triggerFor(a)).Return(time.Now(), nil),
		s.EXPECT().ScheduleJob(gomock.Any(), triggerFor(b)).Return(time.Now(), nil),
	)
	rule := StartJob(a).With(StartJob(b))
	assert.Equal(t, "start job g.a and start job g.b", rule.Description())
	require.NoError(t, Apply(context.Background(), rule, StartParameters(time.Now()), WithDefault(NewDispatcher(), s)))
}

func TestSequenceStopsAtError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	s := newMockScheduler(ctrl, "s1")
	a := scheduler.NewJobKey("a", "g")
	b := scheduler.NewJobKey("b", "g")
	s.EXPECT().ScheduleJob(gomock.Any(), triggerFor(a)).Return(time.Time{}, scheduler.ErrSchedulerShutdown)

	err := Apply(context.Background(), Sequence(StartJob(a), StartJob(b)), StartParameters(time.Now()),
		WithDefault(NewDispatcher(), s))
	assert.True(t, errors.Is(err, scheduler.ErrSchedulerShutdown))
}

func TestGuardReevaluation(t *testing.T) {
	d := NewDispatcher()
	s := newStore(t, d, "s1")
	p1 := scheduler.NewJobKey("p1", "preds")
	p2 := scheduler.NewJobKey("p2", "preds")
	f := scheduler.NewJobKey("f", "follow")
	addDurable(t, s, p1, p2, f)
	rule := StartJob(f).When(GroupDone(scheduler.GroupEquals("preds")))
	r := WithDefault(d, s)
	ctx := context.Background()

	_, err := s.DeleteJobs(ctx, []scheduler.JobKey{p1})
	require.NoError(t, err)
	require.NoError(t, Apply(ctx, rule, StartParameters(time.Now()), r))
	assert.Empty(t, s.TriggerKeys(f))

	_, err = s.DeleteJobs(ctx, []scheduler.JobKey{p2})
	require.NoError(t, err)
	require.NoError(t, Apply(ctx, rule, StartParameters(time.Now()), r))
	require.NoError(t, Apply(ctx, rule, StartParameters(time.Now()), r))
	assert.Equal(t, []scheduler.TriggerKey{StartTriggerKey(f)}, s.TriggerKeys(f))
}

func TestGuardedAndRefines(t *testing.T) {
	key := scheduler.NewJobKey("f", "g")
	guarded := When(JobDone(scheduler.NewJobKey("a", "g")), StartJob(key)).And(JobDone(scheduler.NewJobKey("b", "g")))
	_, nested := guarded.Rule.(GuardedRule)
	assert.False(t, nested)
	_, ok := guarded.Condition.(AndCondition)
	assert.True(t, ok)
	assert.Equal(t, "start job g.f when job g.a is done and job g.b is done", guarded.Description())
}

func TestStartGroup(t *testing.T) {
	d := NewDispatcher()
	s1 := newStore(t, d, "s1")
	s2 := newStore(t, d, "s2")
	s3 := newStore(t, d, "s3")
	for _, s := range []scheduler.Scheduler{s1, s2, s3} {
		addDurable(t, s, scheduler.NewJobKey("a", "batch"), scheduler.NewJobKey("b", "batch"),
			scheduler.NewJobKey("c", "other"))
	}
	ctx := context.Background()
	rule := StartGroup(scheduler.GroupEquals("batch")).OnAllSchedulersExcept("s2")
	require.NoError(t, Verify(rule, d))
	require.NoError(t, Apply(ctx, rule, StartParameters(time.Now()), d))

	for _, tt := range []struct {
		s interface {
			TriggerKeys(scheduler.JobKey) []scheduler.TriggerKey
		}
		started bool
	}{{s1, true}, {s2, false}, {s3, true}} {
		assert.Equal(t, tt.started, len(tt.s.TriggerKeys(scheduler.NewJobKey("a", "batch"))) == 1)
		assert.Equal(t, tt.started, len(tt.s.TriggerKeys(scheduler.NewJobKey("b", "batch"))) == 1)
		assert.Empty(t, tt.s.TriggerKeys(scheduler.NewJobKey("c", "other")))
	}

	require.NoError(t, Apply(ctx, StartGroup(scheduler.GroupEquals("other")).OnScheduler("s2"),
		StartParameters(time.Now()), d))
	assert.Len(t, s2.TriggerKeys(scheduler.NewJobKey("c", "other")), 1)
	assert.Empty(t, s1.TriggerKeys(scheduler.NewJobKey("c", "other")))
}

func TestStartTriggerRule(t *testing.T) {
	d := NewDispatcher()
	s := newStore(t, d, "s1")
	key := scheduler.NewJobKey("job1", "g1")
	addDurable(t, s, key)
	trigger := scheduler.NewTrigger(scheduler.NewTriggerKey("every-minute", "custom"), key,
		scheduler.WithSchedule(scheduler.Every(time.Minute)),
		scheduler.WithTriggerData(scheduler.JobDataMap{"k": "v"}))
	rule := StartTrigger(trigger).OnScheduler("s1")
	trigger.Data["k"] = "changed"

	jc := &scheduler.ExecutionContext{Trigger: trigger, ScheduledFireTime: time.Now(), Result: "output"}
	p := ParametersFromContext(jc)
	require.NoError(t, Apply(context.Background(), rule, p, d))
	require.NoError(t, Apply(context.Background(), rule, p, d))

	stored, ok := s.Trigger(trigger.Key)
	require.True(t, ok)
	assert.Equal(t, "v", stored.Data["k"])
	assert.Equal(t, "output", stored.Data[InputDataKey])
	assert.Equal(t, scheduler.Every(time.Minute), stored.Schedule)
}

func TestVerify(t *testing.T) {
	d := NewDispatcher()
	newStore(t, d, "s1")
	key := scheduler.NewJobKey("job1")
	tests := []struct {
		name    string
		rule    Rule
		unknown bool
	}{
		{"same scheduler", StartJob(key), false},
		{"named", StartJob(key).OnScheduler("s1"), false},
		{"unknown", StartJob(key).OnScheduler("s9"), true},
		{"all schedulers", StartGroup(scheduler.AnyGroup()).OnAllSchedulers(), false},
		{"all except unknown", StartGroup(scheduler.AnyGroup()).OnAllSchedulersExcept("s9"), true},
		{"sequence", StartJob(key).With(StartJob(key).OnScheduler("s9")), true},
		{"guard", StartJob(key).When(JobDone(key).OnScheduler("s9")), true},
		{"trigger", StartTrigger(scheduler.NewTrigger(scheduler.NewTriggerKey("t"), key)).OnScheduler("s9"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.rule, d)
			if tt.unknown {
				assert.True(t, errors.Is(err, ErrUnknownScheduler), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestVerifyNilTrigger(t *testing.T) {
	rule := StartTrigger(nil)
	assert.Nil(t, rule.Trigger)
	assert.Error(t, Verify(rule, NewDispatcher()))
	assert.Error(t, Verify(StartJob(scheduler.NewJobKey("a")).With(rule), NewDispatcher()))
}

func TestVerifyDoesNotSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	d := NewDispatcher()
	s := newMockScheduler(ctrl, "s1")
	require.NoError(t, d.AddScheduler(s))
	rule := StartJob(scheduler.NewJobKey("a")).OnScheduler("s1").
		With(StartGroup(scheduler.AnyGroup()).OnAllSchedulers()).
		When(GroupDone(scheduler.AnyGroup()).OnScheduler("s1"))
	assert.NoError(t, Verify(rule, d))
}
