package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"relief-claims-api/config"
	"relief-claims-api/controllers"
	"relief-claims-api/middleware"
	"relief-claims-api/monitor"
	"relief-claims-api/repository"
	"relief-claims-api/routes"
	"relief-claims-api/services"
	"relief-claims-api/storage"
	"relief-claims-api/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}

	log, logFile := config.InitLogging(cfg.Log, cfg.Environment)
	if logFile != nil {
		defer logFile.Close()
	}

	// Set Gin mode
	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open claim store")
	}

	blobs, err := openBlobStore(cfg.Storage)
	if err != nil {
		log.WithError(err).Fatal("Failed to open document storage")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := services.NewMetrics(registry)

	var notifier services.Notifier = services.NopNotifier{}
	mailer := config.NewMailer(cfg.SMTP)
	var pool *worker.Pool
	if mailer.Enabled() {
		pool = worker.NewPool(cfg.SMTP.Workers, log)
		// Workers outlive the signal; Stop drains them after the server shuts down.
		pool.Start(context.WithoutCancel(ctx))
		notifier = services.NewMailNotifier(store.Officers(), mailer, pool, log)
	} else {
		log.Info("SMTP not configured, officer notifications disabled")
	}

	retry := services.RetryPolicy{
		MaxRetries:      cfg.Workflow.MaxRetries,
		InitialInterval: cfg.Workflow.RetryInitialInterval,
		OnRetry: func(err error, wait time.Duration) {
			log.WithError(err).WithField("wait", wait).Debug("Retrying after conflict")
		},
	}
	documents := services.NewDocumentStore(store, blobs, cfg.Storage.MaxUploadBytes, retry, log)
	engine := services.NewWorkflowEngine(store, documents, services.EngineOptions{
		Retry:             retry,
		RequiredDocuments: cfg.Workflow.RequiredDocuments,
		Notifier:          notifier,
		Metrics:           metrics,
		Logger:            log,
	})
	officers := services.NewOfficerService(store.Officers(), cfg.JWT.Secret, cfg.JWT.Expire)

	// Create Gin router
	router := gin.New()
	router.Use(middleware.RequestLogger(log))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))

	// Register monitor routes before the 404 catch-all in SetupRoutes
	monitor.RegisterMetrics(router, registry)
	monitor.RegisterLogsRoute(router, cfg.Log.File, cfg.Server.MonitorToken)

	routes.SetupRoutes(router, routes.Dependencies{
		Auth:      controllers.NewAuthController(officers),
		Claims:    controllers.NewClaimController(engine),
		Documents: controllers.NewDocumentController(engine, cfg.Storage.MaxUploadBytes),
		JWTSecret: cfg.JWT.Secret,
		Officers:  store.Officers(),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"backend": cfg.Storage.Backend,
			"storage": cfg.Storage.Driver,
		}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	if pool != nil {
		pool.Stop()
	}
}

func openStore(cfg *config.Config, log logrus.FieldLogger) (repository.Store, error) {
	if cfg.Storage.Backend == "memory" {
		log.Warn("Using in-memory claim store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	db, err := config.OpenDB(cfg.Database, cfg.Environment)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected successfully")
	return repository.NewGormStore(db), nil
}

func openBlobStore(cfg config.StorageConfig) (storage.BlobStore, error) {
	if cfg.Driver == "s3" {
		return storage.NewS3Store(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
	}
	return storage.NewLocalStore(cfg.UploadPath)
}
