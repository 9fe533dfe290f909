package repository

import (
	"edu_quiz_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Find(userID, topicID uint) (*model.TopicProgress, error) {
	var progress model.TopicProgress
	err := r.DB.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&progress).Error
	return &progress, err
}

// Upsert 以 (user_id, topic_id) 为冲突键整行覆盖，重算结果幂等落库
func (r *ProgressRepository) Upsert(progress *model.TopicProgress) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "topic_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed_quizzes", "is_completed", "updated_at"}),
	}).Create(progress).Error
}

func (r *ProgressRepository) ListByUser(userID uint) ([]model.TopicProgress, error) {
	var progresses []model.TopicProgress
	err := r.DB.Where("user_id = ?", userID).Find(&progresses).Error
	return progresses, err
}

// ListByUserAndTopics 一次取回多个主题的进度
func (r *ProgressRepository) ListByUserAndTopics(userID uint, topicIDs []uint) ([]model.TopicProgress, error) {
	var progresses []model.TopicProgress
	if len(topicIDs) == 0 {
		return progresses, nil
	}
	err := r.DB.Where("user_id = ? AND topic_id IN ?", userID, topicIDs).Find(&progresses).Error
	return progresses, err
}
