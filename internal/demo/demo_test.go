package demo

import (
	"bytes"
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/config"
	"github.com/crochee/jobflow/internal/controllers"
	"github.com/crochee/jobflow/internal/router"
	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/scheduler"
	"github.com/crochee/jobflow/pkg/scheduler/memory"
	"github.com/crochee/jobflow/pkg/table"
	"github.com/crochee/jobflow/pkg/workflow"
)

func startMemory(t *testing.T, ctx context.Context, d *workflow.Dispatcher, name string) *memory.Scheduler {
	t.Helper()
	s := memory.New(name, memory.WithInterval(10*time.Millisecond), memory.WithSlot(64))
	require.NoError(t, d.AddScheduler(s))
	ctx, cancel := context.WithCancel(ctx)
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

func TestDemoRecoversAndReports(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := logger.With(context.Background(), logger.New(logger.WithLevel("error")))
	d := workflow.NewDispatcher()
	callbacks := controllers.NewCallbacks(3)
	srv := httptest.NewServer(router.New(router.Options{
		Logger:     zap.NewNop(),
		Dispatcher: d,
		Callbacks:  callbacks,
		Gatherer:   prometheus.NewRegistry(),
	}))
	defer srv.Close()

	primary := startMemory(t, ctx, d, "main")
	reports := startMemory(t, ctx, d, "reports")

	var reported atomic.Value
	var runs int32
	report := scheduler.JobFunc(func(ctx context.Context, jc *scheduler.ExecutionContext) error {
		atomic.AddInt32(&runs, 1)
		reported.Store(workflow.Input(jc))
		return nil
	})
	demo, err := New(config.Demo{
		CallbackURL:   srv.URL + "/callbacks/orders",
		Attempts:      2,
		Delay:         20 * time.Millisecond,
		Timeout:       time.Second,
		Retries:       1,
		RetryInterval: time.Millisecond,
	}, report, reports.Name())
	require.NoError(t, err)

	w := workflow.New(d)
	require.NoError(t, w.SetDefaultScheduler(primary))
	require.NoError(t, demo.Register(ctx, w, reports))
	require.NoError(t, w.Start(ctx))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&runs) == 1
	}, 5*time.Second, 10*time.Millisecond)
	// two calls in the first firing, one more per recovery attempt
	assert.Equal(t, int64(4), callbacks.Count("orders"))
	got, ok := reported.Load().(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "orders", got["name"])
	assert.Equal(t, float64(4), got["seq"])
	body, ok := got["received"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, body["order"])

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestDemoRows(t *testing.T) {
	demo, err := New(config.Demo{CallbackURL: "http://127.0.0.1/callbacks/orders"}, ReportJob(), "reports")
	require.NoError(t, err)
	// rules are attached on registration
	require.NoError(t, workflow.AttachRule(demo.Callback.Data, demo.followUp()))

	var buf bytes.Buffer
	require.NoError(t, table.RenderAsTable(&buf, demo.Rows(), Fields()))
	assert.Contains(t, buf.String(), "g1.callback")
	assert.Contains(t, buf.String(), "start job g2.report on scheduler reports")
}
