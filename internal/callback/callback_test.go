package callback

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crochee/jobflow/pkg/code"
	"github.com/crochee/jobflow/pkg/json"
	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
	"github.com/crochee/jobflow/pkg/scheduler/mock"
	"github.com/crochee/jobflow/pkg/workflow"
)

func testContext() context.Context {
	return logger.With(context.Background(), logger.New(logger.WithLevel("debug")))
}

func executionContext(s scheduler.Scheduler, data scheduler.JobDataMap) *scheduler.ExecutionContext {
	key := scheduler.NewJobKey("callback", "g1")
	job := scheduler.NewJobDetail(key, New())
	trigger := scheduler.NewTrigger(workflow.StartTriggerKey(key), key, scheduler.WithTriggerData(data))
	return &scheduler.ExecutionContext{
		Scheduler:      s,
		Trigger:        trigger,
		JobDetail:      job,
		MergedData:     job.Data.Merge(trigger.Data),
		FireInstanceID: "fire-1",
	}
}

func writeError(w http.ResponseWriter, e code.ErrorCode) {
	b, _ := json.Marshal(e)
	w.WriteHeader(e.StatusCode())
	_, _ = w.Write(b)
}

func TestCallbackCarriesInput(t *testing.T) {
	var header http.Header
	var received interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order":"o-1","status":"accepted"}`))
	}))
	defer srv.Close()

	jc := executionContext(nil, scheduler.JobDataMap{
		URLKey:                srv.URL,
		workflow.InputDataKey: map[string]interface{}{"n": float64(1)},
	})
	require.NoError(t, New().Execute(testContext(), jc))
	assert.Equal(t, map[string]interface{}{"n": float64(1)}, received)
	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.NotEmpty(t, header.Get(IdempotencyHeader))
	assert.Equal(t, map[string]interface{}{"order": "o-1", "status": "accepted"}, jc.Result)
}

func TestCallbackBody(t *testing.T) {
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get(IdempotencyHeader))
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, `"ping"`, string(b))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	for i := 0; i < 2; i++ {
		jc := executionContext(nil, scheduler.JobDataMap{URLKey: srv.URL, BodyKey: "ping"})
		require.NoError(t, New().Execute(testContext(), jc))
		assert.Nil(t, jc.Result)
	}
	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
}

func TestCallbackRetriesTemporaryErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			writeError(w, code.ErrCallbackUnavailable)
			return
		}
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	jc := executionContext(nil, scheduler.JobDataMap{URLKey: srv.URL})
	require.NoError(t, New(WithRetry(2, time.Millisecond)).Execute(testContext(), jc))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "done", jc.Result)
}

func TestCallbackRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeError(w, code.ErrCallbackRejected.WithResult("unknown order"))
	}))
	defer srv.Close()

	// no retry is scheduled on the mock
	s := mock.NewMockScheduler(ctrl)
	jc := executionContext(s, scheduler.JobDataMap{URLKey: srv.URL})
	err := New(WithRetry(3, time.Millisecond)).Execute(testContext(), jc)
	assert.True(t, errors.Is(err, code.ErrCallbackRejected))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCallbackHandsOverToRecovery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, code.ErrCallbackUnavailable)
	}))
	defer srv.Close()

	s := mock.NewMockScheduler(ctrl)
	s.EXPECT().Name().Return("s1").AnyTimes()
	var retry *scheduler.Trigger
	s.EXPECT().ScheduleJob(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, trigger *scheduler.Trigger) (time.Time, error) {
			retry = trigger
			return trigger.StartTime, nil
		})
	data := scheduler.JobDataMap{URLKey: srv.URL}
	require.NoError(t, workflow.AttachRule(data, workflow.StartJob(scheduler.NewJobKey("report", "g2"))))
	jc := executionContext(s, data)

	job := New(WithRetry(1, time.Millisecond), WithRecovery(2, time.Minute))
	require.NoError(t, job.Execute(testContext(), jc))
	require.NotNil(t, retry)
	assert.Equal(t, scheduler.NewTriggerKey("fire-1", workflow.RecoveryFirstTriggerGroup), retry.Key)
	remaining, _ := retry.Data.GetInt(workflow.RemainingAttemptsKey)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, srv.URL, retry.Data[URLKey])
	_, ok := jc.MergedData[workflow.RuleDataKey]
	assert.False(t, ok)
}

func TestCallbackRecoveryExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := mock.NewMockScheduler(ctrl)
	s.EXPECT().Name().Return("s1").AnyTimes()
	jc := executionContext(s, scheduler.JobDataMap{URLKey: srv.URL, workflow.RemainingAttemptsKey: 0})
	err := New(WithRetry(0, 0)).Execute(testContext(), jc)
	assert.True(t, errors.Is(err, workflow.ErrAllRecoveryAttemptsFailed))
}

func TestCallbackWithoutURL(t *testing.T) {
	jc := executionContext(nil, scheduler.JobDataMap{})
	assert.Error(t, New().Execute(testContext(), jc))
}

func TestCallbackRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	job := New(WithRateLimit(10, 1))
	begin := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, job.Execute(testContext(), executionContext(nil, scheduler.JobDataMap{URLKey: srv.URL})))
	}
	// the burst covers the first request, the next two wait 100ms each
	assert.GreaterOrEqual(t, int64(time.Since(begin)), int64(150*time.Millisecond))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}
