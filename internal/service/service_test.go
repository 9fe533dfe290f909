package service

import (
	"testing"
	"time"

	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/pkg/database"
	"edu_quiz_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

// testEnv 一套完整的内存环境：sqlite 单连接保证条件自增的串行语义
type testEnv struct {
	db       *gorm.DB
	quiz     *QuizService
	attempt  *AttemptService
	progress *ProgressService
	repos    struct {
		user     *repository.UserRepository
		batch    *repository.BatchRepository
		subject  *repository.SubjectRepository
		topic    *repository.TopicRepository
		quiz     *repository.QuizRepository
		attempt  *repository.AttemptRepository
		progress *repository.ProgressRepository
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	env := &testEnv{db: db}
	env.repos.user = repository.NewUserRepository(db)
	env.repos.batch = repository.NewBatchRepository(db)
	env.repos.subject = repository.NewSubjectRepository(db)
	env.repos.topic = repository.NewTopicRepository(db)
	env.repos.quiz = repository.NewQuizRepository(db)
	env.repos.attempt = repository.NewAttemptRepository(db)
	env.repos.progress = repository.NewProgressRepository(db)

	env.quiz = NewQuizService(env.repos.quiz, env.repos.topic, env.repos.batch, env.repos.user, env.repos.attempt)
	env.progress = NewProgressService(env.repos.progress, env.repos.attempt, env.repos.quiz, env.repos.topic)
	env.attempt = NewAttemptService(env.repos.attempt, env.quiz, env.progress, false)

	return env
}

func (e *testEnv) seedUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         "Test Student",
		Email:        email,
		Password:     "hashed",
		Role:         model.Student,
		TimerEnabled: true,
	}
	require.NoError(t, e.repos.user.Create(user))
	return user
}

func (e *testEnv) seedTopic(t *testing.T) *model.Topic {
	t.Helper()
	subject := &model.Subject{Name: "Mathematics", Active: true}
	require.NoError(t, e.repos.subject.Create(subject))
	topic := &model.Topic{SubjectID: subject.ID, Name: "Algebra", Active: true}
	require.NoError(t, e.repos.topic.Create(topic))
	return topic
}

// seedQuiz 两道单选共 3 分：位置 0 正确答案 1（1 分），位置 1 正确答案 2（2 分，倒扣 1）
func (e *testEnv) seedQuiz(t *testing.T, topicID uint, mutate func(*model.Quiz)) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{
		TopicID:          topicID,
		Title:            "Linear Equations",
		MaxAttempts:      2,
		PassingThreshold: 60,
		OpenToAll:        true,
		Published:        true,
		Active:           true,
	}
	if mutate != nil {
		mutate(quiz)
	}
	require.NoError(t, e.repos.quiz.Create(quiz))

	questions := []*model.Question{
		{
			QuizID:       quiz.ID,
			QuestionType: "single_choice",
			Text:         "2x = 4, x = ?",
			Order:        0,
			Marks:        1,
			Options:      `["1","2","3"]`,
			AnswerKey:    `{"correctIndex":1}`,
		},
		{
			QuizID:        quiz.ID,
			QuestionType:  "single_choice",
			Text:          "3x = 9, x = ?",
			Order:         1,
			Marks:         2,
			NegativeMarks: 1,
			Options:       `["1","2","3"]`,
			AnswerKey:     `{"correctIndex":2}`,
		},
	}
	for _, q := range questions {
		require.NoError(t, e.repos.quiz.CreateQuestion(q))
	}

	full, err := e.repos.quiz.FindByIDWithQuestions(quiz.ID)
	require.NoError(t, err)
	return full
}

func ptrTime(t time.Time) *time.Time { return &t }

// 模型不允许使用方言专属的列类型，迁移必须在 sqlite 驱动上原样可用
func TestMigratePortableAcrossDrivers(t *testing.T) {
	env := newTestEnv(t)

	for _, table := range []string{
		"users", "batches", "subjects", "topics",
		"quizzes", "questions", "attempts", "attempt_counters", "topic_progress",
	} {
		require.True(t, env.db.Migrator().HasTable(table), "missing table %s", table)
	}

	user := env.seedUser(t, "role@example.com")
	var reloaded model.User
	require.NoError(t, env.db.First(&reloaded, user.ID).Error)
	require.Equal(t, model.Student, reloaded.Role)
}
