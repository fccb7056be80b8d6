package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pmp_prep_backend/internal/config"
	"pmp_prep_backend/internal/controller"
	"pmp_prep_backend/internal/exam"
	"pmp_prep_backend/internal/repository"
	"pmp_prep_backend/internal/service"
	"pmp_prep_backend/pkg/database"
	"pmp_prep_backend/pkg/logger"
	"pmp_prep_backend/pkg/monitoring"
	"pmp_prep_backend/pkg/security"
	"pmp_prep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user     *repository.UserRepository
	catalog  *repository.CatalogRepository
	sessions *repository.ExamSessionRepository
	reports  *repository.ExamReportRepository
	behavior *repository.BehaviorRepository
	practice *repository.PracticeRepository
}

type services struct {
	auth     *service.AuthService
	perf     *service.PerformanceService
	coach    *service.CoachService
	exam     *service.ExamService
	practice *service.PracticeService
}

type controllers struct {
	auth     *controller.AuthController
	exam     *controller.ExamController
	coach    *controller.CoachController
	practice *controller.PracticeController
	health   *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		catalog:  repository.NewCatalogRepository(db),
		sessions: repository.NewExamSessionRepository(db),
		reports:  repository.NewExamReportRepository(db),
		behavior: repository.NewBehaviorRepository(db),
		practice: repository.NewPracticeRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	plan := exam.DefaultPlan()
	plan.TotalQuestions = cfg.Exam.TotalQuestions
	plan.Duration = time.Duration(cfg.Exam.DurationMinutes) * time.Minute

	archiver, err := service.NewReportArchiver(&cfg.Archive)
	if err != nil {
		logger.Log.Warn("report archiver disabled", zap.Error(err))
	}

	s := &services{}
	s.auth = service.NewAuthService(repos.user, cfg)
	s.perf = service.NewPerformanceService(repos.sessions, repos.practice, rdb)
	s.coach = service.NewCoachService(repos.behavior, repos.sessions, db, plan)
	s.exam = service.NewExamService(repos.sessions, repos.catalog, repos.reports, s.perf, s.coach, archiver, db, plan)
	s.practice = service.NewPracticeService(repos.practice, repos.catalog, s.perf)
	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		exam:     controller.NewExamController(s.exam),
		coach:    controller.NewCoachController(s.exam, s.coach),
		practice: controller.NewPracticeController(s.practice, s.perf),
		health:   controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1200
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// auto-migration is opt-in for release deployments
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("pmp-prep", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

// ApplyConfig hot-applies the reloadable subset of a freshly parsed config.
// JWT settings are read on every request, so they are published atomically;
// anything else needs a restart.
func (a *App) ApplyConfig(newCfg *config.Config) {
	a.Config.SetJWT(newCfg.JWT)

	if newCfg.Server.Port != a.Config.Server.Port || newCfg.Database != a.Config.Database {
		logger.Log.Warn("server and database config changes require a restart")
	}
	logger.Log.Info("configuration reloaded")
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
