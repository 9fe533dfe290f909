package service

import (
	"encoding/json"

	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/scoring"
	"edu_quiz_backend/internal/util"
)

type ReportService struct {
	AttemptRepo *repository.AttemptRepository
	QuizRepo    *repository.QuizRepository
}

func NewReportService(attemptRepo *repository.AttemptRepository, quizRepo *repository.QuizRepository) *ReportService {
	return &ReportService{AttemptRepo: attemptRepo, QuizRepo: quizRepo}
}

// QuestionReport 报表里的一题：落库时的判分结果加上当前题面与解析
type QuestionReport struct {
	Position    int             `json:"position"`
	Text        string          `json:"text"`
	Section     string          `json:"section,omitempty"`
	Type        string          `json:"type"`
	YourAnswer  json.RawMessage `json:"yourAnswer,omitempty"`
	IsCorrect   bool            `json:"isCorrect"`
	IsAttempted bool            `json:"isAttempted"`
	MarksDelta  float64         `json:"marksDelta"`
	Marks       float64         `json:"marks"`
	Explanation string          `json:"explanation,omitempty"`
}

// AttemptReport 一次尝试的完整报表
type AttemptReport struct {
	Attempt   *model.Attempt   `json:"attempt"`
	QuizTitle string           `json:"quizTitle"`
	Questions []QuestionReport `json:"questions"`
}

// BuildReport 逐题报表。判分明细一律取落库时的 PerQuestionResults，
// 绝不按现行答案键重评：题目事后被改过也不影响历史成绩。
func (s *ReportService) BuildReport(attemptID, userID uint, isAdmin bool) (*AttemptReport, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, util.ErrAttemptNotFound
	}
	if !isAdmin && attempt.UserID != userID {
		return nil, util.ErrPermissionDenied
	}

	quiz, err := s.QuizRepo.FindByIDWithQuestions(attempt.QuizID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}

	var perQuestion []scoring.QuestionOutcome
	if err := json.Unmarshal([]byte(attempt.PerQuestionResults), &perQuestion); err != nil {
		return nil, err
	}

	var answers map[int]json.RawMessage
	if attempt.Answers != "" {
		if err := json.Unmarshal([]byte(attempt.Answers), &answers); err != nil {
			return nil, err
		}
	}

	report := &AttemptReport{
		Attempt:   attempt,
		QuizTitle: quiz.Title,
		Questions: make([]QuestionReport, 0, len(perQuestion)),
	}

	for _, outcome := range perQuestion {
		entry := QuestionReport{
			Position:    outcome.Position,
			IsCorrect:   outcome.IsCorrect,
			IsAttempted: outcome.IsAttempted,
			MarksDelta:  outcome.MarksDelta,
			Marks:       outcome.Marks,
		}
		// 题面属于当前试卷状态；评分结果属于历史，两者可以不一致
		if outcome.Position >= 0 && outcome.Position < len(quiz.Questions) {
			q := quiz.Questions[outcome.Position]
			entry.Text = q.Text
			entry.Section = q.Section
			entry.Type = q.QuestionType
			entry.Explanation = q.Explanation
		}
		if raw, ok := answers[outcome.Position]; ok {
			entry.YourAnswer = raw
		}
		report.Questions = append(report.Questions, entry)
	}

	return report, nil
}
