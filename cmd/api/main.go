package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/config"
	"github.com/cmlabs-hris/ops-portal/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/ops-portal/internal/handler/http"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/cache"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/cron"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/database"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/geocode"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/jwt"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/metrics"
	"github.com/cmlabs-hris/ops-portal/internal/pkg/storage"
	"github.com/cmlabs-hris/ops-portal/internal/repository/postgresql"
	redisRepository "github.com/cmlabs-hris/ops-portal/internal/repository/redis"
	attendanceService "github.com/cmlabs-hris/ops-portal/internal/service/attendance"
	"github.com/cmlabs-hris/ops-portal/internal/service/file"
	officeService "github.com/cmlabs-hris/ops-portal/internal/service/office"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := appHTTP.NewLogger(cfg.App.Env, cfg.SlogLevel())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	redisClient := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		// Office settings fall through to postgres and orphan paths are only logged
		slog.Warn("Redis is not reachable at startup", "addr", cfg.Redis.Addr)
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	officeRepo := redisRepository.NewOfficeCache(postgresql.NewOfficeRepository(db), redisClient.Client, cfg.Redis.OfficeCacheTTL)
	cleanupQueue := redisRepository.NewPhotoCleanupQueue(redisClient.Client, cfg.Redis.OrphanQueueKey)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	fileStorage, err := storage.NewLocalStorage(cfg.Storage.BasePath, cfg.Storage.BaseURL, JWTService)
	if err != nil {
		return fmt.Errorf("initialize local storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	var geocoder attendance.ReverseGeocoder
	if cfg.Geocoder.Enabled {
		geocoder = geocode.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout)
	}

	fileService := file.NewFileService(fileStorage, file.ImageOptions{
		MaxDimension: cfg.Storage.MaxDimension,
		Quality:      cfg.Storage.JPEGQuality,
	})
	officeSvc := officeService.NewOfficeService(officeRepo, cfg.Geofence.DefaultRadiusMeters)
	attendanceSvc := attendanceService.NewAttendanceService(attendanceService.Dependencies{
		Repository:    attendanceRepo,
		OfficeService: officeSvc,
		FileService:   fileService,
		Transactor:    postgresql.NewTxManager(db),
		Geocoder:      geocoder,
		CleanupQueue:  cleanupQueue,
		Metrics:       recorder,
	}, attendanceService.Options{
		Location: cfg.Location(),
		Acquire: attendance.AcquireOptions{
			Timeout: cfg.Geofence.LocationTimeout,
			MaxAge:  cfg.Geofence.LocationMaxAge,
		},
		PhotoURLExpiry: cfg.Storage.URLExpiry,
	})

	scheduler := cron.NewScheduler(ctx)
	if cfg.Cron.Enabled {
		cron.NewPhotoJobs(cleanupQueue, fileStorage, cfg.Cron.OrphanBatchSize).RegisterJobs(scheduler, cfg.Cron.OrphanSweepInterval)
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := appHTTP.NewRouter(
		JWTService.JWTAuth(),
		appHTTP.RouterOptions{
			Logger:         logger,
			AllowedOrigins: cfg.App.AllowedOrigins,
			Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		},
		appHTTP.NewAttendanceHandler(attendanceSvc),
		appHTTP.NewOfficeHandler(officeSvc),
		appHTTP.NewFileHandler(fileService, JWTService),
		appHTTP.NewHealthHandler(map[string]appHTTP.HealthChecker{
			"database": db,
			"redis":    redisClient,
		}),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
