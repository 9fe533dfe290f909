package scoring

import (
	"encoding/json"
	"fmt"
)

// Section 试卷中的命名小节；尝试评分前会被摊平成单一题目序列
type Section struct {
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// QuizSheet 评分视角下的试卷：题目要么直接平铺，要么分节。
// 摊平后的顺序就是答题时使用的位置序号。
type QuizSheet struct {
	Questions        []Question `json:"questions,omitempty"`
	Sections         []Section  `json:"sections,omitempty"`
	PassingThreshold float64    `json:"passingThreshold"`
}

// Flatten 返回按作答顺序排列的单一题目列表
func (s QuizSheet) Flatten() []Question {
	if len(s.Sections) == 0 {
		return s.Questions
	}
	var out []Question
	for _, sec := range s.Sections {
		out = append(out, sec.Questions...)
	}
	return out
}

// QuestionOutcome 单题的聚合结果，同时供报表回放使用
type QuestionOutcome struct {
	Position    int     `json:"position"`
	IsCorrect   bool    `json:"isCorrect"`
	IsAttempted bool    `json:"isAttempted"`
	MarksDelta  float64 `json:"marksDelta"`
	Marks       float64 `json:"marks"`
}

// Outcome 一次完整评分的聚合结果。纯数据：提交时间等由调用方补充。
type Outcome struct {
	PerQuestion      []QuestionOutcome `json:"perQuestion"`
	MarksObtained    float64           `json:"marksObtained"`
	TotalMarks       float64           `json:"totalMarks"`
	Percentage       float64           `json:"percentage"`
	Passed           bool              `json:"passed"`
	CorrectCount     int               `json:"correctCount"`
	IncorrectCount   int               `json:"incorrectCount"`
	UnattemptedCount int               `json:"unattemptedCount"`
}

// Options 聚合策略开关
type Options struct {
	// FloorNegativeTotal 为 true 时总分下限为 0（单题倒扣仍然保留）
	FloorNegativeTotal bool
}

// Aggregate runs the evaluator over every question of the sheet and folds the
// per-question results into one Outcome. answers is a sparse map keyed by the
// flattened question position; a key outside [0, questionCount) fails closed
// with ErrInconsistentAnswerMap. The function is deterministic for a given
// (sheet, answers) pair.
func Aggregate(sheet QuizSheet, answers map[int]json.RawMessage, opts Options) (*Outcome, error) {
	questions := sheet.Flatten()
	if len(questions) == 0 {
		return nil, ErrQuizWithoutQuestions
	}

	for pos := range answers {
		if pos < 0 || pos >= len(questions) {
			return nil, fmt.Errorf("%w: position %d of %d questions", ErrInconsistentAnswerMap, pos, len(questions))
		}
	}

	out := &Outcome{PerQuestion: make([]QuestionOutcome, len(questions))}
	for pos, q := range questions {
		res, err := Evaluate(q, answers[pos])
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", pos, err)
		}

		out.PerQuestion[pos] = QuestionOutcome{
			Position:    pos,
			IsCorrect:   res.IsCorrect,
			IsAttempted: res.IsAttempted,
			MarksDelta:  res.MarksDelta,
			Marks:       q.Marks,
		}
		out.TotalMarks += q.Marks
		out.MarksObtained += res.MarksDelta
		switch {
		case !res.IsAttempted:
			out.UnattemptedCount++
		case res.IsCorrect:
			out.CorrectCount++
		default:
			out.IncorrectCount++
		}
	}

	if opts.FloorNegativeTotal && out.MarksObtained < 0 {
		out.MarksObtained = 0
	}
	if out.TotalMarks > 0 {
		out.Percentage = 100 * out.MarksObtained / out.TotalMarks
	}
	out.Passed = out.Percentage >= sheet.PassingThreshold
	return out, nil
}
