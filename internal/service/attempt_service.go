package service

import (
	"encoding/json"
	"errors"
	"time"

	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/scoring"
	"edu_quiz_backend/internal/util"
	"edu_quiz_backend/pkg/logger"
	"edu_quiz_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AttemptService struct {
	AttemptRepo     *repository.AttemptRepository
	QuizService     *QuizService
	ProgressService *ProgressService

	// FloorNegativeTotal 为 true 时负的总分记 0
	FloorNegativeTotal bool
}

func NewAttemptService(
	attemptRepo *repository.AttemptRepository,
	quizService *QuizService,
	progressService *ProgressService,
	floorNegativeTotal bool,
) *AttemptService {
	return &AttemptService{
		AttemptRepo:        attemptRepo,
		QuizService:        quizService,
		ProgressService:    progressService,
		FloorNegativeTotal: floorNegativeTotal,
	}
}

// SubmitInput 一次提交的全部输入；答案以摊平后的位置为键
type SubmitInput struct {
	UserID           uint
	QuizID           uint
	Answers          map[int]json.RawMessage
	TimeSpentSeconds int
}

// Submit 评分一次提交并落库。流程：资格校验 → 名额快速预检 →
// 全卷判分 → 事务内占额并写入 → 主题进度重算。
// 预检只是减少无谓判分的捷径，真正的并发闸门在 ReserveAndCreate 里。
func (s *AttemptService) Submit(input *SubmitInput) (*model.Attempt, *scoring.Outcome, error) {
	now := time.Now()

	quiz, err := s.QuizService.GetQuiz(input.QuizID)
	if err != nil {
		monitoring.AttemptRejected.WithLabelValues("quiz_not_found").Inc()
		return nil, nil, err
	}

	if err := s.QuizService.CheckAccess(quiz, input.UserID, now); err != nil {
		monitoring.AttemptRejected.WithLabelValues("access_denied").Inc()
		return nil, nil, err
	}

	used, err := s.AttemptRepo.CountByUserAndQuiz(input.UserID, input.QuizID)
	if err != nil {
		return nil, nil, err
	}
	if used >= quiz.MaxAttempts {
		monitoring.AttemptRejected.WithLabelValues("limit_reached").Inc()
		return nil, nil, util.ErrAttemptLimitReached
	}

	sheet, err := s.QuizService.BuildSheet(quiz)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := scoring.Aggregate(sheet, input.Answers, scoring.Options{
		FloorNegativeTotal: s.FloorNegativeTotal,
	})
	if err != nil {
		monitoring.AttemptRejected.WithLabelValues("malformed_submission").Inc()
		return nil, nil, err
	}

	answersJSON, err := json.Marshal(input.Answers)
	if err != nil {
		return nil, nil, err
	}
	resultsJSON, err := json.Marshal(outcome.PerQuestion)
	if err != nil {
		return nil, nil, err
	}

	result := model.AttemptResultFail
	if outcome.Passed {
		result = model.AttemptResultPass
	}

	attempt := &model.Attempt{
		UserID:             input.UserID,
		QuizID:             input.QuizID,
		Answers:            string(answersJSON),
		PerQuestionResults: string(resultsJSON),
		MarksObtained:      outcome.MarksObtained,
		TotalMarks:         outcome.TotalMarks,
		Percentage:         outcome.Percentage,
		Result:             result,
		CorrectCount:       outcome.CorrectCount,
		IncorrectCount:     outcome.IncorrectCount,
		UnattemptedCount:   outcome.UnattemptedCount,
		TimeSpentSeconds:   input.TimeSpentSeconds,
		SubmittedAt:        now,
	}

	if err := s.AttemptRepo.ReserveAndCreate(attempt, quiz.MaxAttempts); err != nil {
		if errors.Is(err, util.ErrAttemptLimitReached) {
			monitoring.AttemptRejected.WithLabelValues("limit_reached").Inc()
		}
		return nil, nil, err
	}

	monitoring.AttemptCounter.WithLabelValues(result).Inc()

	// 进度是派生数据，重算失败只记日志，不回滚已评分的成绩
	if err := s.ProgressService.Recompute(input.UserID, quiz.TopicID); err != nil {
		logger.Log.Error("topic progress recompute failed",
			zap.Uint("user_id", input.UserID),
			zap.Uint("topic_id", quiz.TopicID),
			zap.Error(err))
	}

	return attempt, outcome, nil
}

func (s *AttemptService) GetAttempt(id, userID uint, isAdmin bool) (*model.Attempt, error) {
	attempt, err := s.AttemptRepo.FindByID(id)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	if !isAdmin && attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return attempt, nil
}

func (s *AttemptService) ListForQuiz(userID, quizID uint) ([]model.Attempt, error) {
	return s.AttemptRepo.ListByUserAndQuiz(userID, quizID)
}

func (s *AttemptService) ListForUser(userID uint, page, limit int) ([]model.Attempt, int64, error) {
	return s.AttemptRepo.ListByUser(userID, page, limit)
}

func (s *AttemptService) ListByQuizForAdmin(quizID uint, page, limit int) ([]model.Attempt, int64, error) {
	return s.AttemptRepo.ListByQuiz(quizID, page, limit)
}
