package model

// QuizCompletion 主题进度中单份试卷的最好成绩
type QuizCompletion struct {
	QuizID     uint    `json:"quizId"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
}

// TopicProgress 按 (用户, 主题) 维护的派生完成度，新尝试落库后整体重算
type TopicProgress struct {
	BaseModel
	UserID  uint `gorm:"uniqueIndex:idx_topic_progress,priority:1;type:bigint unsigned" json:"userId"`
	TopicID uint `gorm:"uniqueIndex:idx_topic_progress,priority:2;type:bigint unsigned" json:"topicId"`

	CompletedQuizzes string `gorm:"type:json" json:"completedQuizzes"` // JSON []QuizCompletion
	IsCompleted      bool   `gorm:"default:false" json:"isCompleted"`
}

func (TopicProgress) TableName() string {
	return "topic_progress"
}
