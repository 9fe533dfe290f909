package service

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/util"

	"gorm.io/gorm"
)

// BatchService 批次（班级）管理与人员指派
type BatchService struct {
	BatchRepo *repository.BatchRepository
	UserRepo  *repository.UserRepository
}

func NewBatchService(batchRepo *repository.BatchRepository, userRepo *repository.UserRepository) *BatchService {
	return &BatchService{BatchRepo: batchRepo, UserRepo: userRepo}
}

func (s *BatchService) List() ([]model.Batch, error) {
	return s.BatchRepo.List()
}

func (s *BatchService) Get(id uint) (*model.Batch, error) {
	batch, err := s.BatchRepo.FindByID(id)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrBatchNotFound
	}
	return batch, err
}

func (s *BatchService) Create(batch *model.Batch) error {
	return s.BatchRepo.Create(batch)
}

func (s *BatchService) Update(batch *model.Batch) error {
	return s.BatchRepo.Update(batch)
}

func (s *BatchService) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.BatchRepo.Delete(id)
}

// AssignUser 整体替换某用户的批次归属
func (s *BatchService) AssignUser(userID uint, batchIDs []uint) error {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return util.ErrUserNotFound
	}
	batches, err := s.BatchRepo.FindByIDs(batchIDs)
	if err != nil {
		return err
	}
	return s.UserRepo.ReplaceBatches(user, batches)
}
