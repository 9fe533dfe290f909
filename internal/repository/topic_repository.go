package repository

import (
	"edu_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type TopicRepository struct {
	DB *gorm.DB
}

func NewTopicRepository(db *gorm.DB) *TopicRepository {
	return &TopicRepository{DB: db}
}

func (r *TopicRepository) Create(topic *model.Topic) error {
	return r.DB.Create(topic).Error
}

func (r *TopicRepository) FindByID(id uint) (*model.Topic, error) {
	var topic model.Topic
	err := r.DB.First(&topic, id).Error
	return &topic, err
}

func (r *TopicRepository) ListBySubject(subjectID uint, includeInactive bool) ([]model.Topic, error) {
	var topics []model.Topic
	q := r.DB.Where("subject_id = ?", subjectID)
	if !includeInactive {
		q = q.Where("active = ?", true)
	}
	err := q.Order("`order`").Find(&topics).Error
	return topics, err
}

func (r *TopicRepository) Update(topic *model.Topic) error {
	return r.DB.Save(topic).Error
}

func (r *TopicRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Topic{}, id).Error
}
