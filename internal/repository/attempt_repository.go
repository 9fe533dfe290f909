package repository

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/util"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// ReserveAndCreate 在同一事务内占用一次考试名额并落库评分结果。
// 名额通过条件自增实现：UPDATE ... SET used = used + 1 WHERE used < max，
// 影响行数为 0 说明名额已满，并发提交下至多放行 maxAttempts 次。
func (r *AttemptRepository) ReserveAndCreate(attempt *model.Attempt, maxAttempts int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		counter := model.AttemptCounter{UserID: attempt.UserID, QuizID: attempt.QuizID}
		if err := tx.Where(model.AttemptCounter{UserID: attempt.UserID, QuizID: attempt.QuizID}).
			FirstOrCreate(&counter).Error; err != nil {
			return err
		}

		res := tx.Model(&model.AttemptCounter{}).
			Where("user_id = ? AND quiz_id = ? AND used < ?", attempt.UserID, attempt.QuizID, maxAttempts).
			Update("used", gorm.Expr("used + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return util.ErrAttemptLimitReached
		}

		return tx.Create(attempt).Error
	})
}

func (r *AttemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.First(&attempt, id).Error
	return &attempt, err
}

func (r *AttemptRepository) CountByUserAndQuiz(userID, quizID uint) (int, error) {
	var counter model.AttemptCounter
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&counter).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.Used, nil
}

func (r *AttemptRepository) ListByUserAndQuiz(userID, quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("submitted_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListByUser(userID uint, page, limit int) ([]model.Attempt, int64, error) {
	var attempts []model.Attempt
	var total int64

	q := r.DB.Model(&model.Attempt{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("submitted_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&attempts).Error
	return attempts, total, err
}

// ListByUserAndQuizIDs 主题进度重算用：一把取回该主题下全部尝试
func (r *AttemptRepository) ListByUserAndQuizIDs(userID uint, quizIDs []uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	if len(quizIDs) == 0 {
		return attempts, nil
	}
	err := r.DB.Where("user_id = ? AND quiz_id IN ?", userID, quizIDs).
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListByQuiz(quizID uint, page, limit int) ([]model.Attempt, int64, error) {
	var attempts []model.Attempt
	var total int64

	q := r.DB.Model(&model.Attempt{}).Where("quiz_id = ?", quizID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("submitted_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&attempts).Error
	return attempts, total, err
}
