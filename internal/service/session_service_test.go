package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"edu_quiz_backend/internal/config"
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/scoring"
	"edu_quiz_backend/internal/session"
	"edu_quiz_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionEnv(t *testing.T) (*testEnv, *SessionService, *session.MemoryStore) {
	t.Helper()
	env := newTestEnv(t)
	store := session.NewMemoryStore()
	svc := NewSessionService(store, env.quiz, env.attempt, env.repos.user, config.SessionConfig{})
	return env, svc, store
}

func TestSessionStartShufflesQuestions(t *testing.T) {
	env, svc, _ := newSessionEnv(t)
	user := env.seedUser(t, "start@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)
	ctx := context.Background()

	snap, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	assert.False(t, snap.Resumed)
	assert.Equal(t, session.StatusInProgress, snap.Status)
	assert.False(t, snap.Timed)
	require.Len(t, snap.Questions, 2)

	// 下发顺序是 {0,1} 的一个排列
	seen := map[int]bool{}
	for _, q := range snap.Questions {
		seen[q.Position] = true
	}
	assert.True(t, seen[0] && seen[1])
	assert.Empty(t, snap.Answered)
}

func TestSessionResumeKeepsOrderAndAnswers(t *testing.T) {
	env, svc, _ := newSessionEnv(t)
	user := env.seedUser(t, "resume@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)
	ctx := context.Background()

	first, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	_, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{
		Position: 0,
		Answer:   json.RawMessage("1"),
	})
	require.NoError(t, err)

	second, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	assert.True(t, second.Resumed)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, []int{0}, second.Answered)
	assert.Equal(t, json.RawMessage("1"), second.Answers[0])

	// 续考绝不重新洗牌
	for i := range first.Questions {
		assert.Equal(t, first.Questions[i].Position, second.Questions[i].Position)
	}
}

func TestSessionSkipAndClear(t *testing.T) {
	env, svc, _ := newSessionEnv(t)
	user := env.seedUser(t, "skipflow@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	snap, err := svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 1, Skip: true})
	require.NoError(t, err)
	assert.Equal(t, []int{1}, snap.Skipped)
	assert.Empty(t, snap.Answered)

	// 跳过后再作答：离开跳过列表，进入已答列表
	snap, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 1, Answer: json.RawMessage("2")})
	require.NoError(t, err)
	assert.Empty(t, snap.Skipped)
	assert.Equal(t, []int{1}, snap.Answered)

	// null 载荷清除作答
	snap, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 1, Answer: json.RawMessage("null")})
	require.NoError(t, err)
	assert.Empty(t, snap.Answered)

	_, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 5, Answer: json.RawMessage("1")})
	assert.ErrorIs(t, err, scoring.ErrInconsistentAnswerMap)
}

func TestSessionQuotaOnlyChargedForNewSession(t *testing.T) {
	env, svc, _ := newSessionEnv(t)
	user := env.seedUser(t, "quota@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, func(q *model.Quiz) { q.MaxAttempts = 1 })
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	// 名额在场外被用光，进行中的会话仍可继续
	_, _, err = env.attempt.Submit(&SubmitInput{
		UserID:  user.ID,
		QuizID:  quiz.ID,
		Answers: map[int]json.RawMessage{0: json.RawMessage("1")},
	})
	require.NoError(t, err)

	snap, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	assert.True(t, snap.Resumed)

	// 放弃后重新开考则要重新过名额关
	require.NoError(t, svc.Abandon(ctx, user.ID, quiz.ID))
	_, err = svc.Start(ctx, user.ID, quiz.ID)
	assert.ErrorIs(t, err, util.ErrAttemptLimitReached)
}

func TestSessionSubmitGradesAndClears(t *testing.T) {
	env, svc, store := newSessionEnv(t)
	user := env.seedUser(t, "submit@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	_, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 0, Answer: json.RawMessage("1")})
	require.NoError(t, err)
	_, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 1, Answer: json.RawMessage("2")})
	require.NoError(t, err)

	result, err := svc.Submit(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	assert.True(t, result.Outcome.Passed)
	assert.Equal(t, model.AttemptResultPass, result.Attempt.Result)

	// 成功交卷后会话被清除，重复交卷没有可交的对象
	_, err = store.Load(ctx, user.ID, quiz.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = svc.Submit(ctx, user.ID, quiz.ID)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
}

func TestSessionSubmitLockBlocksConcurrent(t *testing.T) {
	env, svc, store := newSessionEnv(t)
	user := env.seedUser(t, "lock@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	acquired, err := store.AcquireSubmitLock(ctx, user.ID, quiz.ID, 30*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = svc.Submit(ctx, user.ID, quiz.ID)
	assert.ErrorIs(t, err, util.ErrSubmitInFlight)

	// 会话未被动过，释放锁后可以正常交卷
	require.NoError(t, store.ReleaseSubmitLock(ctx, user.ID, quiz.ID))
	_, err = svc.Submit(ctx, user.ID, quiz.ID)
	assert.NoError(t, err)
}

func TestSessionFailedSubmitKeepsSession(t *testing.T) {
	env, svc, store := newSessionEnv(t)
	user := env.seedUser(t, "retry@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	// 坏载荷导致评分失败：名额不扣，会话保留
	_, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 0, Answer: json.RawMessage(`"bad"`)})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, user.ID, quiz.ID)
	assert.ErrorIs(t, err, scoring.ErrMalformedAnswer)

	state, err := store.Load(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusInProgress, state.Status)

	used, err := env.repos.attempt.CountByUserAndQuiz(user.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, used)

	// 改好答案后重试成功
	_, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 0, Answer: json.RawMessage("1")})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, user.ID, quiz.ID)
	assert.NoError(t, err)
}

func TestSessionExpiryAutoSubmits(t *testing.T) {
	env, svc, store := newSessionEnv(t)
	user := env.seedUser(t, "expiry@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, func(q *model.Quiz) { q.DurationMinutes = 30 })
	ctx := context.Background()

	snap, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	assert.True(t, snap.Timed)

	_, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 0, Answer: json.RawMessage("1")})
	require.NoError(t, err)

	// 把截止时间拨到过去，模拟计时耗尽
	state, err := store.Load(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute).Unix()
	state.EndsAt = &past
	require.NoError(t, store.Save(ctx, state, time.Hour))

	snap, err = svc.Heartbeat(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusSubmitted, snap.Status)

	// 自动交卷按已保存的作答评分
	attempts, err := env.repos.attempt.ListByUserAndQuiz(user.ID, quiz.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 1, attempts[0].CorrectCount)
	assert.Equal(t, 1, attempts[0].UnattemptedCount)

	_, err = store.Load(ctx, user.ID, quiz.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionWarningFiresOnce(t *testing.T) {
	env, svc, _ := newSessionEnv(t)
	user := env.seedUser(t, "warning@test.com")
	topic := env.seedTopic(t)
	// 1 分钟的考试一开始就处于提醒阈值内
	quiz := env.seedQuiz(t, topic.ID, func(q *model.Quiz) { q.DurationMinutes = 1 })
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	snap, err := svc.Heartbeat(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	assert.True(t, snap.ShowWarning)

	snap, err = svc.Heartbeat(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	assert.False(t, snap.ShowWarning)
}

func TestSessionTimerPreferenceDisablesCountdown(t *testing.T) {
	env, svc, _ := newSessionEnv(t)
	user := env.seedUser(t, "untimed@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, func(q *model.Quiz) { q.DurationMinutes = 30 })
	ctx := context.Background()

	require.NoError(t, env.db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("timer_enabled", false).Error)

	snap, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)
	assert.False(t, snap.Timed)
	assert.Zero(t, snap.RemainingSeconds)
}

func TestSessionInvalidatedWhenQuizEdited(t *testing.T) {
	env, svc, store := newSessionEnv(t)
	user := env.seedUser(t, "edited@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	// 考试中途加题：旧会话的顺序不再可信
	_, err = env.quiz.AddQuestion(quiz.ID, &QuestionInput{
		QuestionType: "true_false",
		Text:         "0 是自然数",
		Marks:        1,
		AnswerKey:    json.RawMessage(`{"correctIndex":1}`),
	})
	require.NoError(t, err)

	_, err = svc.SaveAnswer(ctx, user.ID, quiz.ID, &AnswerInput{Position: 0, Answer: json.RawMessage("1")})
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	_, err = store.Load(ctx, user.ID, quiz.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionAbandon(t *testing.T) {
	env, svc, store := newSessionEnv(t)
	user := env.seedUser(t, "abandon@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)
	ctx := context.Background()

	_, err := svc.Start(ctx, user.ID, quiz.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(ctx, user.ID, quiz.ID))
	_, err = store.Load(ctx, user.ID, quiz.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	assert.ErrorIs(t, svc.Abandon(ctx, user.ID, quiz.ID), util.ErrSessionNotFound)

	// 放弃不占名额，可重新开考
	used, err := env.repos.attempt.CountByUserAndQuiz(user.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, used)
	_, err = svc.Start(ctx, user.ID, quiz.ID)
	assert.NoError(t, err)
}
