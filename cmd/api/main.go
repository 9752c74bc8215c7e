package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/api/swagger"
	"github.com/noah-isme/school-admin-api/internal/handler"
	"github.com/noah-isme/school-admin-api/internal/middleware"
	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/internal/service"
	"github.com/noah-isme/school-admin-api/pkg/cache"
	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
	"github.com/noah-isme/school-admin-api/pkg/errreport"
	"github.com/noah-isme/school-admin-api/pkg/jobs"
	"github.com/noah-isme/school-admin-api/pkg/logger"
	"github.com/noah-isme/school-admin-api/pkg/notify"
	corsmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-admin-api/pkg/validation"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const paymentStatusJob = "payment-status"

// @title School Admin API
// @version 1.0.0
// @description School management backend: directory, grades, report cards, billing and timetables.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// The API keeps serving without Redis: caching and run locks are skipped.
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	host, _ := os.Hostname()
	reporter := errreport.New(errreport.Options{
		Token:       cfg.Rollbar.Token,
		Environment: cfg.Env,
		CodeVersion: version,
		ServerHost:  host,
	}, logr)
	defer reporter.Close()

	notifier := notify.New(cfg.Mail.SendGridAPIKey, notify.Sender{Name: cfg.Mail.FromName, Address: cfg.Mail.FromAddress}, logr)
	validate := validation.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	parentRepo := repository.NewParentRepository(db)
	classRepo := repository.NewClassRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	reportCardRepo := repository.NewReportCardRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentConfigRepo := repository.NewPaymentConfigRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	schoolDayRepo := repository.NewSchoolDayConfigRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, userRepo, db, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	parentSvc := service.NewParentService(parentRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	evaluationSvc := service.NewEvaluationService(evaluationRepo, validate, logr)
	periodSvc := service.NewPeriodService(periodRepo, validate, logr)
	gradeSvc := service.NewGradeService(gradeRepo, evaluationRepo, periodRepo, teacherRepo, validate, logr)
	reportCardSvc := service.NewReportCardService(service.ReportCardDeps{
		Repo:     reportCardRepo,
		Students: studentRepo,
		Periods:  periodRepo,
		Grades:   gradeRepo,
		Invoices: invoiceRepo,
		Courses:  courseRepo,
		Owners:   studentSvc,
		Tx:       db,
		Cache:    cacheSvc,
	}, validate, logr)
	billingSvc := service.NewBillingService(service.BillingDeps{
		Fees:     feeRepo,
		Invoices: invoiceRepo,
		Config:   paymentConfigRepo,
		Cards:    reportCardRepo,
		Owners:   studentSvc,
		Tx:       db,
	}, validate, logr)
	paymentDeps := service.PaymentStatusDeps{
		Invoices:    invoiceRepo,
		Assignments: feeRepo,
		ReportCards: reportCardRepo,
		Config:      paymentConfigRepo,
		Contacts:    studentRepo,
		Notifier:    notifier,
		Metrics:     metricsSvc,
		Tx:          db,
		LockTTL:     cfg.Cron.LockTTL,
		AppName:     cfg.AppName,
	}
	if redisClient != nil {
		paymentDeps.Locker = cacheRepo
	}
	paymentSvc := service.NewPaymentStatusService(paymentDeps, logr)
	timetableSvc := service.NewTimetableService(timeSlotRepo, schoolDayRepo, db, metricsSvc, cfg.Timetable.SlotMinutes, validate, logr)
	scheduleSvc := service.NewScheduleService(service.ScheduleDeps{
		Repo:     scheduleRepo,
		Classes:  classRepo,
		Courses:  courseRepo,
		Teachers: teacherRepo,
		Slots:    timeSlotRepo,
		Tx:       db,
	}, validate, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.ReportErrors(reporter))

	if cfg.Env != config.EnvProduction {
		swagger.SwaggerInfo.BasePath = cfg.APIPrefix
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Users:       handler.NewUserHandler(userSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Teachers:    handler.NewTeacherHandler(teacherSvc),
		Parents:     handler.NewParentHandler(parentSvc),
		Classes:     handler.NewClassHandler(classSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Evaluations: handler.NewEvaluationHandler(evaluationSvc),
		Grades:      handler.NewGradeHandler(gradeSvc, studentSvc),
		Periods:     handler.NewPeriodHandler(periodSvc),
		ReportCards: handler.NewReportCardHandler(reportCardSvc, cfg.AppName),
		Billing:     handler.NewBillingHandler(billingSvc),
		Timetable:   handler.NewTimetableHandler(timetableSvc, scheduleSvc),
		Cron:        handler.NewCronHandler(paymentSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc),
	}, handler.RouteOptions{
		Prefix:     cfg.APIPrefix,
		CronSecret: cfg.Cron.Secret,
		Tokens:     authSvc,
	})

	var scheduler *jobs.Scheduler
	var queue *jobs.Queue
	if cfg.Payments.SchedulerEnabled {
		queue = jobs.NewQueue("payments", paymentJobHandler(paymentSvc, logr), jobs.QueueConfig{
			Workers:    1,
			BufferSize: 1,
			MaxRetries: cfg.Payments.WorkerRetries,
			RetryDelay: 30 * time.Second,
			Logger:     logr,
		})
		queue.Start(ctx)
		scheduler = jobs.NewScheduler(queue, paymentStatusJob, cfg.Payments.SchedulerInterval, logr)
		go scheduler.Run(ctx, false)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if scheduler != nil {
		<-scheduler.Done()
	}
	if queue != nil {
		queue.Stop()
	}
}

// paymentJobHandler adapts the payment propagation to the job queue. A run rejected because
// another instance holds the lock is not retried.
func paymentJobHandler(payments *service.PaymentStatusService, logr *zap.Logger) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		result, err := payments.Run(ctx)
		if errors.Is(err, appErrors.ErrLocked) {
			return jobs.Permanent(err)
		}
		if err != nil {
			return err
		}
		logr.Info("scheduled payment status run",
			zap.String("job_id", job.ID),
			zap.Int("attempt", job.Attempt),
			zap.Any("result", result),
		)
		return nil
	}
}
