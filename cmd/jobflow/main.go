package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/config"
	"github.com/crochee/jobflow/internal/controllers"
	"github.com/crochee/jobflow/internal/demo"
	"github.com/crochee/jobflow/internal/router"
	"github.com/crochee/jobflow/pkg/code"
	"github.com/crochee/jobflow/pkg/logger"
	"github.com/crochee/jobflow/pkg/middleware"
	"github.com/crochee/jobflow/pkg/routine"
	"github.com/crochee/jobflow/pkg/scheduler"
	"github.com/crochee/jobflow/pkg/scheduler/memory"
	"github.com/crochee/jobflow/pkg/table"
	"github.com/crochee/jobflow/pkg/workflow"
)

const serviceName = "jobflow"

var (
	configFile = flag.String("f", "./conf/jobflow.yaml", "the config file")
	describe   = flag.Bool("describe", false, "print the demo workflow and exit")
)

func main() {
	flag.Parse()
	// 初始化配置
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	if err = code.Check(code.All()...); err != nil {
		log.Fatal(err)
	}
	if cfg.HTTP.GinMode != "" {
		gin.SetMode(cfg.HTTP.GinMode)
	}
	// 初始化系统日志
	l := logger.New(
		logger.WithServerName(serviceName),
		logger.WithLevel(cfg.Log.Level),
		logger.WithWriter(logger.SetWriter(cfg.Log.Console, cfg.Log.Path)))
	zap.ReplaceGlobals(l)
	if err = run(logger.With(context.Background(), l), cfg); err != nil &&
		!errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	d := workflow.NewDispatcher()
	schedulers := make([]*memory.Scheduler, 0, len(cfg.Schedulers))
	for _, sc := range cfg.Schedulers {
		s := memory.New(sc.Name,
			memory.WithInterval(sc.Interval),
			memory.WithSlot(sc.Slots),
			memory.WithMisfireThreshold(sc.MisfireThreshold),
			memory.WithListenerErrorHandler(onListenerError))
		if err := d.AddScheduler(s); err != nil {
			return err
		}
		schedulers = append(schedulers, s)
	}

	reg := prometheus.NewRegistry()
	requestDuration := middleware.NewRequestDuration(serviceName)
	if err := workflow.RegisterMetrics(reg); err != nil {
		return err
	}
	reg.MustRegister(requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var flow *demo.Demo
	w := workflow.New(d)
	if cfg.Demo.Enabled {
		var err error
		if flow, err = buildDemo(ctx, w, cfg, schedulers); err != nil {
			return err
		}
		if *describe {
			return table.RenderAsTable(os.Stdout, flow.Rows(), demo.Fields())
		}
	}

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler: router.New(router.Options{
			Logger:          logger.From(ctx),
			Dispatcher:      d,
			Callbacks:       controllers.NewCallbacks(cfg.Demo.FailFirst),
			Gatherer:        reg,
			RequestDuration: requestDuration,
			CORSOrigins:     cfg.HTTP.CORSOrigins,
		}),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g := routine.NewGroup(ctx)
	for _, s := range schedulers {
		s := s
		g.Go(s.Start)
	}
	// 服务启动流程
	g.Go(func(ctx context.Context) error {
		zap.S().Infof("run on %s, listen on %s", gin.Mode(), ln.Addr())
		return srv.Serve(ln)
	})
	// 服务关闭流程
	g.Go(func(ctx context.Context) error {
		return shutdownAction(ctx, srv)
	})
	if flow != nil {
		if err = w.Start(ctx); err != nil {
			_ = srv.Close()
			_ = g.Wait()
			return err
		}
	}
	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// buildDemo registers the demo jobs, the report job runs on the second scheduler when there is one.
func buildDemo(ctx context.Context, w *workflow.Workflow, cfg *config.Config,
	schedulers []*memory.Scheduler) (*demo.Demo, error) {
	var reportOn scheduler.Scheduler
	var reportName string
	if len(schedulers) > 1 {
		reportOn = schedulers[1]
		reportName = schedulers[1].Name()
	}
	flow, err := demo.New(cfg.Demo, demo.ReportJob(), reportName)
	if err != nil {
		return nil, err
	}
	if err = w.SetDefaultScheduler(schedulers[0]); err != nil {
		return nil, err
	}
	if err = flow.Register(ctx, w, reportOn); err != nil {
		return nil, err
	}
	return flow, nil
}

func onListenerError(ctx context.Context, listener string, jc *scheduler.ExecutionContext, err error) {
	logger.From(ctx).Error("listener failed",
		zap.String("listener", listener),
		zap.Stringer("job", jc.JobDetail.Key),
		zap.Error(err))
}

func shutdownAction(ctx context.Context, srv *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-ctx.Done():
	case <-quit:
	}
	zap.L().Info("shutting down server...")
	return srv.Shutdown(context.Background())
}
