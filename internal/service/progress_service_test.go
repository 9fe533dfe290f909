package service

import (
	"encoding/json"
	"testing"

	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressKeepsBestScore(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "best@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, func(q *model.Quiz) { q.MaxAttempts = 3 })

	// 第一次满分，第二次更差：进度里保留最好成绩
	_, _, err := env.attempt.Submit(&SubmitInput{
		UserID: user.ID,
		QuizID: quiz.ID,
		Answers: map[int]json.RawMessage{
			0: json.RawMessage("1"),
			1: json.RawMessage("2"),
		},
	})
	require.NoError(t, err)

	_, _, err = env.attempt.Submit(&SubmitInput{
		UserID:  user.ID,
		QuizID:  quiz.ID,
		Answers: map[int]json.RawMessage{0: json.RawMessage("1")},
	})
	require.NoError(t, err)

	view, err := env.progress.GetTopicProgress(user.ID, topic.ID)
	require.NoError(t, err)
	require.Len(t, view.Quizzes, 1)
	assert.Equal(t, 100.0, view.Quizzes[0].Percentage)
	assert.True(t, view.Quizzes[0].Passed)
	assert.True(t, view.IsCompleted)
}

// 及格状态一旦拿到就不会被后续更差的尝试收回
func TestProgressPassIsSticky(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "sticky@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, func(q *model.Quiz) { q.MaxAttempts = 3 })

	_, _, err := env.attempt.Submit(&SubmitInput{
		UserID: user.ID,
		QuizID: quiz.ID,
		Answers: map[int]json.RawMessage{
			0: json.RawMessage("1"),
			1: json.RawMessage("2"),
		},
	})
	require.NoError(t, err)

	// 第二次全错
	_, _, err = env.attempt.Submit(&SubmitInput{
		UserID: user.ID,
		QuizID: quiz.ID,
		Answers: map[int]json.RawMessage{
			0: json.RawMessage("0"),
			1: json.RawMessage("0"),
		},
	})
	require.NoError(t, err)

	view, err := env.progress.GetTopicProgress(user.ID, topic.ID)
	require.NoError(t, err)
	require.Len(t, view.Quizzes, 1)
	assert.True(t, view.Quizzes[0].Passed)
	assert.True(t, view.IsCompleted)
}

func TestProgressCompletionRequiresAllQuizzes(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "completion@test.com")
	topic := env.seedTopic(t)
	first := env.seedQuiz(t, topic.ID, nil)
	second := env.seedQuiz(t, topic.ID, func(q *model.Quiz) { q.Title = "Quadratic Equations" })

	pass := map[int]json.RawMessage{
		0: json.RawMessage("1"),
		1: json.RawMessage("2"),
	}

	_, _, err := env.attempt.Submit(&SubmitInput{UserID: user.ID, QuizID: first.ID, Answers: pass})
	require.NoError(t, err)

	view, err := env.progress.GetTopicProgress(user.ID, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.TotalQuizzes)
	assert.Equal(t, 1, view.AttemptedQuizzes)
	assert.Equal(t, 1, view.PassedQuizzes)
	assert.False(t, view.IsCompleted)

	_, _, err = env.attempt.Submit(&SubmitInput{UserID: user.ID, QuizID: second.ID, Answers: pass})
	require.NoError(t, err)

	view, err = env.progress.GetTopicProgress(user.ID, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, view.PassedQuizzes)
	assert.True(t, view.IsCompleted)
}

func TestProgressIgnoresInactiveQuizzes(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "inactive@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)

	// 已下线的试卷不进完成度分母
	retired := env.seedQuiz(t, topic.ID, func(q *model.Quiz) {
		q.Title = "Retired"
		q.Active = false
	})
	_ = retired

	_, _, err := env.attempt.Submit(&SubmitInput{
		UserID: user.ID,
		QuizID: quiz.ID,
		Answers: map[int]json.RawMessage{
			0: json.RawMessage("1"),
			1: json.RawMessage("2"),
		},
	})
	require.NoError(t, err)

	view, err := env.progress.GetTopicProgress(user.ID, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.TotalQuizzes)
	assert.True(t, view.IsCompleted)
}

func TestProgressEmptyTopic(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "emptytopic@test.com")
	topic := env.seedTopic(t)

	// 没有任何尝试时返回空视图而不是 404
	view, err := env.progress.GetTopicProgress(user.ID, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.AttemptedQuizzes)
	assert.False(t, view.IsCompleted)

	_, err = env.progress.GetTopicProgress(user.ID, 9999)
	assert.ErrorIs(t, err, util.ErrTopicNotFound)
}

func TestListUserProgress(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "list@test.com")
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)

	views, err := env.progress.ListUserProgress(user.ID)
	require.NoError(t, err)
	assert.Empty(t, views)

	_, _, err = env.attempt.Submit(&SubmitInput{
		UserID:  user.ID,
		QuizID:  quiz.ID,
		Answers: map[int]json.RawMessage{0: json.RawMessage("1")},
	})
	require.NoError(t, err)

	views, err = env.progress.ListUserProgress(user.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, topic.ID, views[0].TopicID)
}
