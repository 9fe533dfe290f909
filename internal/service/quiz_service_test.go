package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// 学生视图是下发给考生的唯一题目形态，任何题型都不得携带判分材料
func TestStudentQuestionsCarryNoGradingMaterial(t *testing.T) {
	env := newTestEnv(t)
	topic := env.seedTopic(t)
	quiz := env.seedQuiz(t, topic.ID, nil)

	_, err := env.quiz.AddQuestion(quiz.ID, &QuestionInput{
		QuestionType: "hotspot",
		Text:         "点击图中所有的直角三角形",
		ImageURL:     "/uploads/triangles.png",
		Order:        2,
		Marks:        2,
		AnswerKey:    json.RawMessage(`{"regions":[{"x":10,"y":10,"width":20,"height":20}]}`),
	})
	require.NoError(t, err)

	full, err := env.quiz.GetQuiz(quiz.ID)
	require.NoError(t, err)
	require.Len(t, full.Questions, 3)

	views, err := env.quiz.StudentQuestions(full, []int{2, 0, 1})
	require.NoError(t, err)

	payload, err := json.Marshal(views)
	require.NoError(t, err)
	body := string(payload)
	for _, leak := range []string{"correctIndex", "regions", "width", "answerKey", "explanation"} {
		require.False(t, strings.Contains(body, leak), "student payload leaks %q: %s", leak, body)
	}

	// 热区题仍然携带底图供前端渲染，点击落点即为作答
	require.Contains(t, body, "/uploads/triangles.png")
}
