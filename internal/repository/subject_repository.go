package repository

import (
	"edu_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	DB *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{DB: db}
}

func (r *SubjectRepository) Create(subject *model.Subject) error {
	return r.DB.Create(subject).Error
}

func (r *SubjectRepository) FindByID(id uint) (*model.Subject, error) {
	var subject model.Subject
	err := r.DB.First(&subject, id).Error
	return &subject, err
}

// ListActive 学生端目录：仅启用的学科，内嵌启用的主题
func (r *SubjectRepository) ListActive() ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.DB.Where("active = ?", true).
		Preload("Topics", func(db *gorm.DB) *gorm.DB {
			return db.Where("active = ?", true).Order("topics.`order`")
		}).
		Order("`order`").
		Find(&subjects).Error
	return subjects, err
}

// ListAll 管理端列表，含停用项
func (r *SubjectRepository) ListAll() ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.DB.Preload("Topics", func(db *gorm.DB) *gorm.DB {
		return db.Order("topics.`order`")
	}).
		Order("`order`").
		Find(&subjects).Error
	return subjects, err
}

func (r *SubjectRepository) Update(subject *model.Subject) error {
	return r.DB.Save(subject).Error
}

func (r *SubjectRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Subject{}, id).Error
}
