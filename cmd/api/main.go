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

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/queue"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	correctionService "github.com/cmlabs-hris/attendance-engine/internal/service/correction"
	leaveService "github.com/cmlabs-hris/attendance-engine/internal/service/leave"
	"github.com/go-chi/httplog/v3"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logLevel, _ := config.ParseLogLevel(cfg.App.LogLevel)
	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       logLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
		slog.String("env", cfg.App.Env),
	)
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

	if cfg.Database.RunMigrations {
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	// Repositories
	txManager := postgresql.NewTxManager(db)
	dailyRecordRepo := postgresql.NewDailyRecordRepository(db)
	clockEventRepo := postgresql.NewClockEventRepository(db)
	correctionRepo := postgresql.NewCorrectionRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	timePeriodRepo := postgresql.NewTimePeriodRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	employeeScheduleRepo := postgresql.NewEmployeeScheduleRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	settingRepo := postgresql.NewSettingRepository(db)
	batchRepo := postgresql.NewBatchRepository(db)

	// Job queue; the async path is disabled when its table is unreachable
	jobQueue := queue.New(postgresql.NewJobStore(db), txManager, queue.Config{
		Workers:      cfg.Queue.Workers,
		PollInterval: cfg.Queue.PollInterval,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		Lease:        cfg.Queue.Lease,
	})
	var enqueuer attendanceService.JobQueue
	if err := jobQueue.Ping(ctx); err != nil {
		slog.Warn("Job queue unavailable, asynchronous recalculation disabled", "error", err)
	} else {
		enqueuer = jobQueue
	}

	calculator := attendanceService.NewCalculator(cfg.Attendance.Location, cfg.Attendance.ClockTolerance)
	orchestrator := attendanceService.NewOrchestrator(attendanceService.Dependencies{
		Tx:          txManager,
		Calculator:  calculator,
		Provisioner: attendanceService.NewProvisioner(dailyRecordRepo, employeeScheduleRepo, shiftRepo),
		Batches:     attendanceService.NewBatchTracker(batchRepo, txManager, cfg.Queue.BatchTTL),
		Queue:       enqueuer,
		Records:     dailyRecordRepo,
		ClockEvents: clockEventRepo,
		Corrections: correctionRepo,
		Leaves:      leaveRequestRepo,
		TimePeriods: timePeriodRepo,
		Employees:   employeeRepo,
	}, attendanceService.Config{
		SyncTimeout:  cfg.Attendance.SyncTimeout,
		MaxRangeDays: cfg.Attendance.MaxRangeDays,
	})

	if orchestrator.AsyncEnabled() {
		jobQueue.Register(attendanceService.JobKindRecalculate, orchestrator.HandleJob, orchestrator.FinishJob)
		jobQueue.Start(ctx)
		defer jobQueue.Stop()
	}

	correctionSvc := correctionService.NewCorrectionService(dailyRecordRepo, correctionRepo, orchestrator)
	leaveSvc := leaveService.NewLeaveService(leaveRequestRepo, orchestrator)

	// Cron jobs
	scheduler := cron.NewScheduler()
	attendanceJobs, err := cron.NewAttendanceJobs(orchestrator, settingRepo, cfg.Attendance.Location, cfg.Attendance.DefaultAutoCalcTime)
	if err != nil {
		return fmt.Errorf("init attendance jobs: %w", err)
	}
	attendanceJobs.RegisterJobs(scheduler)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// HTTP
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	router := appHTTP.NewRouter(
		JWTService,
		appHTTP.RouterOptions{
			Logger:         logger,
			LogLevel:       logLevel,
			AllowedOrigins: cfg.App.CORSAllowedOrigins,
		},
		appHTTP.NewAttendanceHandler(orchestrator),
		appHTTP.NewCorrectionHandler(correctionSvc),
		appHTTP.NewLeaveHandler(leaveSvc),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "async_recalculation", orchestrator.AsyncEnabled())
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

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
