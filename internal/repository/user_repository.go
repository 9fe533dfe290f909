package repository

import (
	"edu_quiz_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByIDWithBatches(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.Preload("Batches").First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) Update(user *model.User) error {
	return r.DB.Save(user).Error
}

func (r *UserRepository) UpdateLastLogin(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login", time.Now()).
		Error
}

func (r *UserRepository) UpdateLastSeen(userID uint) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_seen", time.Now()).
		Error
}

func (r *UserRepository) List(page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	if err := r.DB.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Preload("Batches").
		Order("id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) SetDisabled(userID uint, disabled bool) error {
	return r.DB.Model(&model.User{}).
		Where("id = ?", userID).
		Update("disabled", disabled).
		Error
}

// ReplaceBatches 整体替换用户的批次归属
func (r *UserRepository) ReplaceBatches(user *model.User, batches []model.Batch) error {
	return r.DB.Model(user).Association("Batches").Replace(batches)
}
