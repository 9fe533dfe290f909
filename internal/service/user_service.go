package service

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/util"

	"gorm.io/gorm"
)

// UserService 管理端用户管理
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) List(page, limit int) ([]model.User, int64, error) {
	return s.UserRepo.List(page, limit)
}

func (s *UserService) Get(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByIDWithBatches(id)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *UserService) SetDisabled(id uint, disabled bool) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.UserRepo.SetDisabled(id, disabled)
}

func (s *UserService) SetRole(id uint, role model.UserRole) error {
	user, err := s.Get(id)
	if err != nil {
		return err
	}
	user.Role = role
	return s.UserRepo.Update(user)
}
