package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/crochee/jobflow/internal/controllers"
	"github.com/crochee/jobflow/pkg/middleware"
	"github.com/crochee/jobflow/pkg/workflow"
)

type Options struct {
	Logger     *zap.Logger
	Dispatcher *workflow.Dispatcher
	Callbacks  *controllers.Callbacks
	// Gatherer serves /metrics, RequestDuration is registered by the caller.
	Gatherer        prometheus.Gatherer
	RequestDuration *prometheus.HistogramVec
	CORSOrigins     []string
}

// New gin router
func New(opts Options) *gin.Engine {
	router := gin.New()

	handlers := []gin.HandlerFunc{
		middleware.RequestLogger(opts.Logger),
		middleware.Log,
		middleware.Recovery,
	}
	if len(opts.CORSOrigins) > 0 {
		handlers = append(handlers, middleware.CrossDomain(opts.CORSOrigins))
	}
	if opts.RequestDuration != nil {
		handlers = append(handlers, middleware.Metric(opts.RequestDuration))
	}
	router.Use(handlers...)

	router.GET("/healthz", controllers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	router.GET("/log", controllers.GetLog)
	router.PUT("/log", controllers.SetLog)
	router.POST("/callbacks/:name", opts.Callbacks.Receive)

	v1RouterGroup(router, opts)
	return router
}

func v1RouterGroup(router *gin.Engine, opts Options) {
	v1Router := router.Group("/v1")
	schedulers := controllers.NewSchedulers(opts.Dispatcher)
	v1Router.GET("/schedulers", schedulers.List)
}
