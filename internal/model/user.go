package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string   `gorm:"size:100;not null" json:"name"`
	Email    string   `gorm:"size:100;unique;not null" json:"email"`
	Password string   `gorm:"size:100;not null" json:"-"`
	// Role 合法取值由绑定层的 oneof 校验约束，列本身保持可移植的 varchar
	Role     UserRole `gorm:"size:10;default:'student'" json:"role"`
	// TimerEnabled 关闭时考试不启用倒计时，用时仅用于统计
	TimerEnabled bool      `gorm:"default:true" json:"timerEnabled"`
	Disabled     bool      `gorm:"default:false" json:"disabled"`
	LastLogin    time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastLogin"`
	LastSeen     time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"lastSeen"`

	Batches []Batch `gorm:"many2many:user_batches;" json:"batches,omitempty"`
}

func (User) TableName() string {
	return "users"
}
