package app

import (
	"edu_quiz_backend/docs"
	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/middleware"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile/timer", c.auth.UpdateTimerPreference)

	// 目录
	rg.GET("/subjects", c.content.ListSubjects)
	rg.GET("/subjects/:subjectId/topics", c.content.ListTopics)
	rg.GET("/topics/:topicId/quizzes", c.quiz.ListQuizzesForStudent)
	rg.GET("/quizzes/:id", c.quiz.GetQuizForStudent)

	// 直接交卷（无会话的一次性提交）
	rg.POST("/quizzes/:id/attempt", c.attempt.SubmitAttempt)
	rg.GET("/quizzes/:id/attempts", c.attempt.ListQuizAttempts)

	// 考试会话
	rg.POST("/quizzes/:id/session", c.session.StartSession)
	rg.GET("/quizzes/:id/session", c.session.Heartbeat)
	rg.PUT("/quizzes/:id/session/answer", c.session.SaveAnswer)
	rg.POST("/quizzes/:id/session/submit", c.session.SubmitSession)
	rg.DELETE("/quizzes/:id/session", c.session.AbandonSession)

	// 成绩与报表
	rg.GET("/attempts", c.attempt.ListMyAttempts)
	rg.GET("/attempts/:id/report", c.attempt.GetAttemptReport)

	// 主题进度
	rg.GET("/topic-progress", c.progress.ListMyProgress)
	rg.GET("/topic-progress/topic/:topicId", c.progress.GetTopicProgress)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		// 目录管理
		admin.POST("/subjects", c.content.CreateSubject)
		admin.PUT("/subjects/:id", c.content.UpdateSubject)
		admin.DELETE("/subjects/:id", c.content.DeleteSubject)
		admin.POST("/topics", c.content.CreateTopic)
		admin.PUT("/topics/:id", c.content.UpdateTopic)
		admin.DELETE("/topics/:id", c.content.DeleteTopic)

		// 试卷与题目管理
		admin.POST("/quizzes", c.quiz.CreateQuiz)
		admin.GET("/quizzes/:id", c.quiz.GetQuiz)
		admin.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		admin.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
		admin.POST("/quizzes/:id/questions", c.quiz.AddQuestion)
		admin.PUT("/questions/:id", c.quiz.UpdateQuestion)
		admin.DELETE("/questions/:id", c.quiz.DeleteQuestion)
		admin.POST("/questions/image", c.quiz.UploadQuestionImage)

		// 成绩查询
		admin.GET("/quizzes/:id/attempts", c.attempt.ListAttemptsForQuizAdmin)

		// 批次管理
		admin.GET("/batches", c.batch.ListBatches)
		admin.POST("/batches", c.batch.CreateBatch)
		admin.PUT("/batches/:id", c.batch.UpdateBatch)
		admin.DELETE("/batches/:id", c.batch.DeleteBatch)
		admin.PUT("/users/:userId/batches", c.batch.AssignUser)

		// 用户管理
		admin.GET("/users", c.user.ListUsers)
		admin.GET("/users/:userId", c.user.GetUser)
		admin.PUT("/users/:userId/disabled", c.user.SetDisabled)
		admin.PUT("/users/:userId/role", c.user.SetRole)
	}
}
