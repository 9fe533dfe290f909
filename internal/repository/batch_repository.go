package repository

import (
	"edu_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type BatchRepository struct {
	DB *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{DB: db}
}

func (r *BatchRepository) Create(batch *model.Batch) error {
	return r.DB.Create(batch).Error
}

func (r *BatchRepository) FindByID(id uint) (*model.Batch, error) {
	var batch model.Batch
	err := r.DB.First(&batch, id).Error
	return &batch, err
}

func (r *BatchRepository) FindByIDs(ids []uint) ([]model.Batch, error) {
	var batches []model.Batch
	err := r.DB.Where("id IN ?", ids).Find(&batches).Error
	return batches, err
}

func (r *BatchRepository) List() ([]model.Batch, error) {
	var batches []model.Batch
	err := r.DB.Order("name").Find(&batches).Error
	return batches, err
}

func (r *BatchRepository) Update(batch *model.Batch) error {
	return r.DB.Save(batch).Error
}

func (r *BatchRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Batch{}, id).Error
}
