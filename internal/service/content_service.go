package service

import (
	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/util"

	"gorm.io/gorm"
)

// ContentService 学科与主题目录
type ContentService struct {
	SubjectRepo *repository.SubjectRepository
	TopicRepo   *repository.TopicRepository
}

func NewContentService(subjectRepo *repository.SubjectRepository, topicRepo *repository.TopicRepository) *ContentService {
	return &ContentService{SubjectRepo: subjectRepo, TopicRepo: topicRepo}
}

func (s *ContentService) ListSubjects(includeInactive bool) ([]model.Subject, error) {
	if includeInactive {
		return s.SubjectRepo.ListAll()
	}
	return s.SubjectRepo.ListActive()
}

func (s *ContentService) GetSubject(id uint) (*model.Subject, error) {
	subject, err := s.SubjectRepo.FindByID(id)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrSubjectNotFound
	}
	return subject, err
}

func (s *ContentService) CreateSubject(subject *model.Subject) error {
	return s.SubjectRepo.Create(subject)
}

func (s *ContentService) UpdateSubject(subject *model.Subject) error {
	return s.SubjectRepo.Update(subject)
}

func (s *ContentService) DeleteSubject(id uint) error {
	if _, err := s.GetSubject(id); err != nil {
		return err
	}
	return s.SubjectRepo.Delete(id)
}

func (s *ContentService) ListTopics(subjectID uint, includeInactive bool) ([]model.Topic, error) {
	if _, err := s.GetSubject(subjectID); err != nil {
		return nil, err
	}
	return s.TopicRepo.ListBySubject(subjectID, includeInactive)
}

func (s *ContentService) GetTopic(id uint) (*model.Topic, error) {
	topic, err := s.TopicRepo.FindByID(id)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrTopicNotFound
	}
	return topic, err
}

func (s *ContentService) CreateTopic(topic *model.Topic) error {
	if _, err := s.GetSubject(topic.SubjectID); err != nil {
		return err
	}
	return s.TopicRepo.Create(topic)
}

func (s *ContentService) UpdateTopic(topic *model.Topic) error {
	return s.TopicRepo.Update(topic)
}

func (s *ContentService) DeleteTopic(id uint) error {
	if _, err := s.GetTopic(id); err != nil {
		return err
	}
	return s.TopicRepo.Delete(id)
}
