package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/scoring"
	"edu_quiz_backend/internal/session"
	"edu_quiz_backend/internal/util"
	"edu_quiz_backend/pkg/logger"

	"go.uber.org/zap"
)

type SessionService struct {
	Store          session.Store
	QuizService    *QuizService
	AttemptService *AttemptService
	UserRepo       *repository.UserRepository
	SessionCfg     config.SessionConfig
}

func NewSessionService(
	store session.Store,
	quizService *QuizService,
	attemptService *AttemptService,
	userRepo *repository.UserRepository,
	sessionCfg config.SessionConfig,
) *SessionService {
	return &SessionService{
		Store:          store,
		QuizService:    quizService,
		AttemptService: attemptService,
		UserRepo:       userRepo,
		SessionCfg:     sessionCfg,
	}
}

// Snapshot 下发给前端的会话视图：乱序题目、已答/跳过集合与权威剩余时间
type Snapshot struct {
	SessionID        string                  `json:"sessionId"`
	QuizID           uint                    `json:"quizId"`
	Status           session.Status          `json:"status"`
	Questions        []StudentQuestion       `json:"questions"`
	Answers          map[int]json.RawMessage `json:"answers"`
	Answered         []int                   `json:"answered"`
	Skipped          []int                   `json:"skipped"`
	Timed            bool                    `json:"timed"`
	RemainingSeconds int                     `json:"remainingSeconds"`
	ElapsedSeconds   int                     `json:"elapsedSeconds"`
	ShowWarning      bool                    `json:"showWarning"`
	Resumed          bool                    `json:"resumed"`
}

// Start 恢复可用的既有会话，否则开启新会话。
// 结构版本不符或已提交的旧会话直接作废重建，绝不尝试迁移。
func (s *SessionService) Start(ctx context.Context, userID, quizID uint) (*Snapshot, error) {
	now := time.Now()

	quiz, err := s.QuizService.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if err := s.QuizService.CheckAccess(quiz, userID, now); err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, scoring.ErrQuizWithoutQuestions
	}

	used, err := s.AttemptService.AttemptRepo.CountByUserAndQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}

	state, err := s.Store.Load(ctx, userID, quizID)
	resumed := false
	switch {
	case err == nil && state.Valid() && len(state.QuestionOrder) == len(quiz.Questions):
		resumed = true
	case err == nil || errors.Is(err, session.ErrNotFound):
		// 开新会话前才检查名额：续考不消耗名额
		if used >= quiz.MaxAttempts {
			return nil, util.ErrAttemptLimitReached
		}
		state = s.newState(userID, quiz, now)
	default:
		return nil, err
	}

	if resumed && state.Expired(now) {
		return s.submitExpired(ctx, state, quiz, now)
	}

	if err := s.Store.Save(ctx, state, s.SessionCfg.TTL()); err != nil {
		return nil, err
	}

	return s.snapshot(quiz, state, now, resumed)
}

func (s *SessionService) newState(userID uint, quiz *model.Quiz, now time.Time) *session.State {
	timed := quiz.DurationMinutes > 0
	// 学生关闭倒计时后仅统计用时，不限制交卷
	if user, err := s.UserRepo.FindByID(userID); err == nil && !user.TimerEnabled {
		timed = false
	}
	return session.NewState(
		userID,
		quiz.ID,
		len(quiz.Questions),
		time.Duration(quiz.DurationMinutes)*time.Minute,
		timed,
		now,
		nil,
	)
}

// AnswerInput 保存一题作答；Raw 为空或 null 即清除，Skip 标记跳过
type AnswerInput struct {
	Position int             `json:"position"`
	Answer   json.RawMessage `json:"answer"`
	Skip     bool            `json:"skip"`
}

func (s *SessionService) SaveAnswer(ctx context.Context, userID, quizID uint, input *AnswerInput) (*Snapshot, error) {
	now := time.Now()

	quiz, state, err := s.loadActive(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	if state.Expired(now) {
		return s.submitExpired(ctx, state, quiz, now)
	}

	if input.Position < 0 || input.Position >= len(quiz.Questions) {
		return nil, scoring.ErrInconsistentAnswerMap
	}

	state.SetAnswer(input.Position, input.Answer, input.Skip)

	if err := s.Store.Save(ctx, state, s.SessionCfg.TTL()); err != nil {
		return nil, err
	}
	return s.snapshot(quiz, state, now, false)
}

// Heartbeat 轮询会话状态；计时到点时自动交卷
func (s *SessionService) Heartbeat(ctx context.Context, userID, quizID uint) (*Snapshot, error) {
	now := time.Now()

	quiz, state, err := s.loadActive(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	if state.Expired(now) {
		return s.submitExpired(ctx, state, quiz, now)
	}

	warning := state.CrossedWarning(now)
	if warning {
		if err := s.Store.Save(ctx, state, s.SessionCfg.TTL()); err != nil {
			return nil, err
		}
	}

	snap, err := s.snapshot(quiz, state, now, false)
	if err != nil {
		return nil, err
	}
	snap.ShowWarning = warning
	return snap, nil
}

// SubmitResult 交卷结果
type SubmitResult struct {
	Attempt *model.Attempt   `json:"attempt"`
	Outcome *scoring.Outcome `json:"outcome"`
}

// Submit 在提交锁内评分并落库。会话只有在成绩确认写入后才被清除，
// 失败时原样保留供重试；锁挡住重复点击造成的双重提交。
func (s *SessionService) Submit(ctx context.Context, userID, quizID uint) (*SubmitResult, error) {
	_, state, err := s.loadActive(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	acquired, err := s.Store.AcquireSubmitLock(ctx, userID, quizID, s.SessionCfg.SubmitLockTTL())
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, util.ErrSubmitInFlight
	}
	defer func() {
		if err := s.Store.ReleaseSubmitLock(ctx, userID, quizID); err != nil {
			logger.Log.Error("release submit lock failed",
				zap.Uint("user_id", userID),
				zap.Uint("quiz_id", quizID),
				zap.Error(err))
		}
	}()

	return s.submitLocked(ctx, state, time.Now())
}

// submitLocked 持锁评分；成功后清除会话
func (s *SessionService) submitLocked(ctx context.Context, state *session.State, now time.Time) (*SubmitResult, error) {
	state.BeginSubmit()

	attempt, outcome, err := s.AttemptService.Submit(&SubmitInput{
		UserID:           state.UserID,
		QuizID:           state.QuizID,
		Answers:          state.Answers,
		TimeSpentSeconds: state.ElapsedSeconds(now),
	})
	if err != nil {
		state.FailSubmit()
		if saveErr := s.Store.Save(ctx, state, s.SessionCfg.TTL()); saveErr != nil {
			logger.Log.Error("keep session after failed submit",
				zap.Uint("user_id", state.UserID),
				zap.Uint("quiz_id", state.QuizID),
				zap.Error(saveErr))
		}
		return nil, err
	}

	state.CompleteSubmit()
	if err := s.Store.Delete(ctx, state.UserID, state.QuizID); err != nil {
		logger.Log.Error("clear session after submit",
			zap.Uint("user_id", state.UserID),
			zap.Uint("quiz_id", state.QuizID),
			zap.Error(err))
	}

	return &SubmitResult{Attempt: attempt, Outcome: outcome}, nil
}

// submitExpired 计时到点：按当前已保存的作答自动交卷
func (s *SessionService) submitExpired(ctx context.Context, state *session.State, quiz *model.Quiz, now time.Time) (*Snapshot, error) {
	acquired, err := s.Store.AcquireSubmitLock(ctx, state.UserID, state.QuizID, s.SessionCfg.SubmitLockTTL())
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, util.ErrSubmitInFlight
	}
	defer func() {
		_ = s.Store.ReleaseSubmitLock(ctx, state.UserID, state.QuizID)
	}()

	if _, err := s.submitLocked(ctx, state, now); err != nil {
		return nil, err
	}

	snap, err := s.snapshot(quiz, state, now, false)
	if err != nil {
		return nil, err
	}
	snap.Status = session.StatusSubmitted
	return snap, nil
}

// Abandon 主动放弃会话（不评分、不占名额）
func (s *SessionService) Abandon(ctx context.Context, userID, quizID uint) error {
	if _, err := s.Store.Load(ctx, userID, quizID); errors.Is(err, session.ErrNotFound) {
		return util.ErrSessionNotFound
	} else if err != nil {
		return err
	}
	return s.Store.Delete(ctx, userID, quizID)
}

func (s *SessionService) loadActive(ctx context.Context, userID, quizID uint) (*model.Quiz, *session.State, error) {
	state, err := s.Store.Load(ctx, userID, quizID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if !state.Valid() {
		return nil, nil, util.ErrSessionNotFound
	}

	quiz, err := s.QuizService.GetQuiz(quizID)
	if err != nil {
		return nil, nil, err
	}
	if len(state.QuestionOrder) != len(quiz.Questions) {
		// 试卷在考试中途被改动，旧会话不再可信
		_ = s.Store.Delete(ctx, userID, quizID)
		return nil, nil, util.ErrSessionNotFound
	}
	return quiz, state, nil
}

func (s *SessionService) snapshot(quiz *model.Quiz, state *session.State, now time.Time, resumed bool) (*Snapshot, error) {
	questions, err := s.QuizService.StudentQuestions(quiz, state.QuestionOrder)
	if err != nil {
		return nil, err
	}

	remaining, timed := state.Remaining(now)
	return &Snapshot{
		SessionID:        state.ID,
		QuizID:           state.QuizID,
		Status:           state.Status,
		Questions:        questions,
		Answers:          state.Answers,
		Answered:         state.Answered,
		Skipped:          state.Skipped,
		Timed:            timed,
		RemainingSeconds: int(remaining.Seconds()),
		ElapsedSeconds:   state.ElapsedSeconds(now),
		Resumed:          resumed,
	}, nil
}
