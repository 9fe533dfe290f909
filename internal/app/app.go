package app

import (
	"context"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/controller"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/session"
	"edu_quiz_backend/pkg/configwatcher"
	"edu_quiz_backend/pkg/database"
	"edu_quiz_backend/pkg/logger"
	"edu_quiz_backend/pkg/monitoring"
	"edu_quiz_backend/pkg/security"
	"edu_quiz_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	batch    *repository.BatchRepository
	subject  *repository.SubjectRepository
	topic    *repository.TopicRepository
	quiz     *repository.QuizRepository
	attempt  *repository.AttemptRepository
	progress *repository.ProgressRepository
}

type services struct {
	auth     *service.AuthService
	storage  *service.StorageService
	content  *service.ContentService
	batch    *service.BatchService
	user     *service.UserService
	quiz     *service.QuizService
	progress *service.ProgressService
	attempt  *service.AttemptService
	session  *service.SessionService
	report   *service.ReportService
}

type controllers struct {
	auth     *controller.AuthController
	content  *controller.ContentController
	quiz     *controller.QuizController
	session  *controller.SessionController
	attempt  *controller.AttemptController
	progress *controller.ProgressController
	batch    *controller.BatchController
	user     *controller.UserController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		batch:    repository.NewBatchRepository(db),
		subject:  repository.NewSubjectRepository(db),
		topic:    repository.NewTopicRepository(db),
		quiz:     repository.NewQuizRepository(db),
		attempt:  repository.NewAttemptRepository(db),
		progress: repository.NewProgressRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.content = service.NewContentService(repos.subject, repos.topic)
	s.batch = service.NewBatchService(repos.batch, repos.user)
	s.user = service.NewUserService(repos.user)
	s.quiz = service.NewQuizService(repos.quiz, repos.topic, repos.batch, repos.user, repos.attempt)
	s.progress = service.NewProgressService(repos.progress, repos.attempt, repos.quiz, repos.topic)
	s.attempt = service.NewAttemptService(repos.attempt, s.quiz, s.progress, cfg.Scoring.FloorNegativeTotal)
	s.session = service.NewSessionService(session.NewRedisStore(rdb), s.quiz, s.attempt, repos.user, cfg.Session)
	s.report = service.NewReportService(repos.attempt, repos.quiz)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:     controller.NewAuthController(s.auth),
		content:  controller.NewContentController(s.content),
		quiz:     controller.NewQuizController(s.quiz, s.storage),
		session:  controller.NewSessionController(s.session),
		attempt:  controller.NewAttemptController(s.attempt, s.report),
		progress: controller.NewProgressController(s.progress),
		batch:    controller.NewBatchController(s.batch),
		user:     controller.NewUserController(s.user),
		health:   controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
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
	services := app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(services, db, rdb)

	// 评分与会话参数支持热调整，连接类配置重启才生效
	app.RegisterConfigCallback(func(c *config.Config) {
		services.attempt.FloorNegativeTotal = c.Scoring.FloorNegativeTotal
		services.session.SessionCfg = c.Session
	})

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("edu-quiz-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 配置热更新：只对回调方声明过的配置生效，已建立的连接不重建
	go configwatcher.WatchConfig(filepath.Join("configs", "config.yaml"), cfg, func(newCfg interface{}) {
		updated, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		app.Config = updated
		for _, callback := range app.configCallbacks {
			callback(updated)
		}
		logger.Log.Info("Config reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
