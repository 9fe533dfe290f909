package model

import (
	"encoding/json"

	"edu_quiz_backend/internal/scoring"
)

// swagger:model Question
type Question struct {
	BaseModel
	QuizID       uint   `gorm:"index;type:bigint unsigned" json:"quizId"`
	QuestionType string `gorm:"size:50" json:"questionType"`
	Text         string `gorm:"type:text" json:"text"`
	ImageURL     string `gorm:"size:255" json:"imageUrl"`
	Section      string `gorm:"size:100" json:"section"`
	Order        int    `gorm:"default:0" json:"order"`

	Marks         float64 `gorm:"default:1" json:"marks"`
	NegativeMarks float64 `gorm:"default:0" json:"negativeMarks"`

	Options string `gorm:"type:json" json:"options"` // JSON array of option texts
	// AnswerKey 按题型存放 correctIndex / correctIndexes / acceptedAnswers /
	// pairs / correctOrder / regions 中对应的字段
	AnswerKey string `gorm:"type:json" json:"-"`

	Explanation string `gorm:"type:text" json:"explanation"`
}

func (Question) TableName() string {
	return "questions"
}

// ToScoring 将持久化形态转换为评分引擎的唯一题目定义。
// 会话渲染、评分与报表都必须经由这一转换取得题目，避免出现第二套判分逻辑。
func (q *Question) ToScoring() (scoring.Question, error) {
	var sq scoring.Question
	if q.AnswerKey != "" {
		if err := json.Unmarshal([]byte(q.AnswerKey), &sq); err != nil {
			return scoring.Question{}, err
		}
	}
	if q.Options != "" {
		if err := json.Unmarshal([]byte(q.Options), &sq.Options); err != nil {
			return scoring.Question{}, err
		}
	}
	sq.Type = scoring.QuestionType(q.QuestionType)
	sq.Marks = q.Marks
	sq.NegativeMarks = q.NegativeMarks
	return sq, nil
}
