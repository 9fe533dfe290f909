package model

// swagger:model Subject
type Subject struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IconURL     string `gorm:"size:255" json:"iconUrl"`
	Order       int    `gorm:"default:0" json:"order"`
	Active      bool   `gorm:"default:true" json:"active"`

	Topics []Topic `json:"topics,omitempty"`
}

func (Subject) TableName() string {
	return "subjects"
}
