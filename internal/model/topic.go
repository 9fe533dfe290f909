package model

// swagger:model Topic
type Topic struct {
	BaseModel
	SubjectID   uint   `gorm:"index;type:bigint unsigned" json:"subjectId"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Order       int    `gorm:"default:0" json:"order"`
	Active      bool   `gorm:"default:true" json:"active"`
}

func (Topic) TableName() string {
	return "topics"
}
