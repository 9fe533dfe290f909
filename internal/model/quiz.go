package model

import "time"

// swagger:model Quiz
type Quiz struct {
	BaseModel
	TopicID     uint   `gorm:"index;type:bigint unsigned" json:"topicId"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	DurationMinutes int `gorm:"default:0" json:"durationMinutes"` // 0 表示不限时
	MaxAttempts     int `gorm:"default:1" json:"maxAttempts"`

	// 开放窗口：nil 端点表示不限
	StartAt *time.Time `json:"startAt,omitempty"`
	EndAt   *time.Time `json:"endAt,omitempty"`

	// PassingThreshold 及格百分比，评分与主题完成度统一以此为准
	PassingThreshold float64 `gorm:"default:60" json:"passingThreshold"`

	OpenToAll bool `gorm:"default:true" json:"openToAll"`
	Published bool `gorm:"default:false" json:"published"`
	Active    bool `gorm:"default:true" json:"active"`

	Batches   []Batch    `gorm:"many2many:quiz_batches;" json:"batches,omitempty"`
	Questions []Question `json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
