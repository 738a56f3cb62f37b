package main

import (
	"flag"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/yuxishi/zvm-license-report/internal/cache"
	"github.com/yuxishi/zvm-license-report/internal/config"
	"github.com/yuxishi/zvm-license-report/internal/handler"
	"github.com/yuxishi/zvm-license-report/internal/history"
	"github.com/yuxishi/zvm-license-report/internal/logging"
	"github.com/yuxishi/zvm-license-report/internal/model"
	"github.com/yuxishi/zvm-license-report/internal/pipeline"
	"github.com/yuxishi/zvm-license-report/internal/telemetry"
	"github.com/yuxishi/zvm-license-report/internal/zvm"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG"), "path to the YAML configuration")
	verbose := flag.Bool("verbose", false, "log debug output to the console")
	flag.Parse()

	if *configPath == "" {
		*configPath = "config.yaml"
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, closer, err := logging.New(logging.Options{Dir: cfg.LogDir, Verbose: *verbose})
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	store, err := history.Open(cfg.History.Path, cfg.History.MaxSamples)
	if err != nil {
		logger.WithError(err).Fatal("open history")
	}

	httpClient := zvm.NewHTTPClient(cfg.VerifyTLS, cfg.GetTimeout())
	p := pipeline.New(cfg, logger, pipeline.WithHTTPClient(httpClient), pipeline.WithHistory(store))
	prober := zvm.NewClient(cfg.ZVMURL, "", zvm.WithHTTPClient(httpClient))

	c := cache.New[*model.ZertoData](cfg.GetCacheTTL())
	stop := make(chan struct{})
	defer close(stop)
	go c.Cleanup(cfg.GetCacheTTL(), stop)

	h := handler.New(p, prober, c, logger)

	collector := telemetry.NewLicenseCollector()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)
	h.SetTelemetry(collector)

	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	h.Routes(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	port := cfg.GetPort()
	logger.WithField("port", port).Info("starting dashboard")
	log.Printf("Starting server on http://localhost:%s", port)
	if err := r.Run(":" + port); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
