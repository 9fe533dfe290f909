package model

import "time"

const (
	AttemptResultPass = "pass"
	AttemptResultFail = "fail"
)

// Attempt 一次评分的权威落库结果，创建后不再修改
// swagger:model Attempt
type Attempt struct {
	BaseModel
	UserID uint `gorm:"index;type:bigint unsigned" json:"userId"`
	QuizID uint `gorm:"index;type:bigint unsigned" json:"quizId"`

	// Answers 原始提交（按位置的稀疏映射），PerQuestionResults 为评分器逐题输出
	Answers            string `gorm:"type:json" json:"answers"`
	PerQuestionResults string `gorm:"type:json" json:"perQuestionResults"`

	MarksObtained float64 `json:"marksObtained"`
	TotalMarks    float64 `json:"totalMarks"`
	Percentage    float64 `json:"percentage"`
	Result        string  `gorm:"size:10" json:"result"` // pass | fail

	CorrectCount     int `json:"correctCount"`
	IncorrectCount   int `json:"incorrectCount"`
	UnattemptedCount int `json:"unattemptedCount"`

	TimeSpentSeconds int       `json:"timeSpentSeconds"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// AttemptCounter 每用户每试卷的已用次数，条件自增是并发提交的准入闸门
type AttemptCounter struct {
	BaseModel
	UserID uint `gorm:"uniqueIndex:idx_attempt_counter,priority:1;type:bigint unsigned" json:"userId"`
	QuizID uint `gorm:"uniqueIndex:idx_attempt_counter,priority:2;type:bigint unsigned" json:"quizId"`
	Used   int  `gorm:"default:0" json:"used"`
}

func (AttemptCounter) TableName() string {
	return "attempt_counters"
}
