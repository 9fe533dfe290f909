package repository

import (
	"edu_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Batches").First(&quiz, id).Error
	return &quiz, err
}

// FindByIDWithQuestions 题目按分组与排序字段稳定排列，位置即摊平后的下标
func (r *QuizRepository) FindByIDWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Preload("Batches").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.section").Order("questions.`order`").Order("questions.id")
		}).
		First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) ListByTopic(topicID uint, publishedOnly bool) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	q := r.DB.Where("topic_id = ?", topicID)
	if publishedOnly {
		q = q.Where("published = ? AND active = ?", true, true)
	}
	err := q.Preload("Batches").Order("id").Find(&quizzes).Error
	return quizzes, err
}

// ListActiveByTopic 主题完成度的分母：该主题下所有启用且已发布的试卷
func (r *QuizRepository) ListActiveByTopic(topicID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("topic_id = ? AND published = ? AND active = ?", topicID, true, true).
		Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

// ReplaceBatches 整体替换试卷的批次指派
func (r *QuizRepository) ReplaceBatches(quiz *model.Quiz, batches []model.Batch) error {
	return r.DB.Model(quiz).Association("Batches").Replace(batches)
}

func (r *QuizRepository) CreateQuestion(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuizRepository) FindQuestionByID(id uint) (*model.Question, error) {
	var question model.Question
	err := r.DB.First(&question, id).Error
	return &question, err
}

func (r *QuizRepository) UpdateQuestion(question *model.Question) error {
	return r.DB.Save(question).Error
}

func (r *QuizRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}
