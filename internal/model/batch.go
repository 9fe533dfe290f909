package model

// Batch 行政班/批次，用于限定试卷的可见范围
type Batch struct {
	BaseModel
	Name        string `gorm:"size:100;not null;unique" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Active      bool   `gorm:"default:true" json:"active"`
}

func (Batch) TableName() string {
	return "batches"
}
