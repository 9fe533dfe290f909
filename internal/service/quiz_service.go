package service

import (
	"encoding/json"
	"time"

	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/scoring"
	"edu_quiz_backend/internal/util"

	"gorm.io/gorm"
)

type QuizService struct {
	QuizRepo    *repository.QuizRepository
	TopicRepo   *repository.TopicRepository
	BatchRepo   *repository.BatchRepository
	UserRepo    *repository.UserRepository
	AttemptRepo *repository.AttemptRepository
}

func NewQuizService(
	quizRepo *repository.QuizRepository,
	topicRepo *repository.TopicRepository,
	batchRepo *repository.BatchRepository,
	userRepo *repository.UserRepository,
	attemptRepo *repository.AttemptRepository,
) *QuizService {
	return &QuizService{
		QuizRepo:    quizRepo,
		TopicRepo:   topicRepo,
		BatchRepo:   batchRepo,
		UserRepo:    userRepo,
		AttemptRepo: attemptRepo,
	}
}

// QuestionInput 管理端建题请求；答案键在落库前必须通过评分引擎校验
type QuestionInput struct {
	QuestionType  string          `json:"questionType" binding:"required"`
	Text          string          `json:"text" binding:"required"`
	ImageURL      string          `json:"imageUrl"`
	Section       string          `json:"section"`
	Order         int             `json:"order"`
	Marks         float64         `json:"marks"`
	NegativeMarks float64         `json:"negativeMarks"`
	Options       json.RawMessage `json:"options"`
	AnswerKey     json.RawMessage `json:"answerKey" binding:"required"`
	Explanation   string          `json:"explanation"`
}

// StudentQuestion 学生视图：绝不携带答案键与解析
type StudentQuestion struct {
	ID            uint            `json:"id"`
	Position      int             `json:"position"`
	QuestionType  string          `json:"questionType"`
	Text          string          `json:"text"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Section       string          `json:"section,omitempty"`
	Marks         float64         `json:"marks"`
	NegativeMarks float64         `json:"negativeMarks"`
	Options       json.RawMessage `json:"options,omitempty"`
}

func (s *QuizService) CreateQuiz(quiz *model.Quiz, batchIDs []uint) error {
	if _, err := s.TopicRepo.FindByID(quiz.TopicID); err != nil {
		return util.ErrTopicNotFound
	}
	if quiz.PassingThreshold == 0 {
		quiz.PassingThreshold = 60
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return err
	}
	return s.assignBatches(quiz, batchIDs)
}

func (s *QuizService) UpdateQuiz(quiz *model.Quiz, batchIDs []uint) error {
	if err := s.QuizRepo.Update(quiz); err != nil {
		return err
	}
	if batchIDs != nil {
		return s.assignBatches(quiz, batchIDs)
	}
	return nil
}

func (s *QuizService) assignBatches(quiz *model.Quiz, batchIDs []uint) error {
	if batchIDs == nil {
		return nil
	}
	batches, err := s.BatchRepo.FindByIDs(batchIDs)
	if err != nil {
		return err
	}
	return s.QuizRepo.ReplaceBatches(quiz, batches)
}

func (s *QuizService) GetQuiz(id uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByIDWithQuestions(id)
	if err == gorm.ErrRecordNotFound {
		return nil, util.ErrQuizNotFound
	}
	return quiz, err
}

func (s *QuizService) DeleteQuiz(id uint) error {
	if _, err := s.QuizRepo.FindByID(id); err != nil {
		return util.ErrQuizNotFound
	}
	return s.QuizRepo.Delete(id)
}

// AddQuestion 校验答案键后入库，坏键在此被拒绝而不是等到判分才暴露
func (s *QuizService) AddQuestion(quizID uint, input *QuestionInput) (*model.Question, error) {
	if _, err := s.QuizRepo.FindByID(quizID); err != nil {
		return nil, util.ErrQuizNotFound
	}

	question := &model.Question{
		QuizID:        quizID,
		QuestionType:  input.QuestionType,
		Text:          input.Text,
		ImageURL:      input.ImageURL,
		Section:       input.Section,
		Order:         input.Order,
		Marks:         input.Marks,
		NegativeMarks: input.NegativeMarks,
		Options:       string(input.Options),
		AnswerKey:     string(input.AnswerKey),
		Explanation:   input.Explanation,
	}
	if question.Marks == 0 {
		question.Marks = 1
	}

	sq, err := question.ToScoring()
	if err != nil {
		return nil, scoring.ErrInvalidQuestionKey
	}
	if err := sq.ValidateKey(); err != nil {
		return nil, err
	}

	if err := s.QuizRepo.CreateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) UpdateQuestion(questionID uint, input *QuestionInput) (*model.Question, error) {
	question, err := s.QuizRepo.FindQuestionByID(questionID)
	if err != nil {
		return nil, util.ErrQuestionNotFound
	}

	question.QuestionType = input.QuestionType
	question.Text = input.Text
	question.ImageURL = input.ImageURL
	question.Section = input.Section
	question.Order = input.Order
	question.Marks = input.Marks
	question.NegativeMarks = input.NegativeMarks
	question.Options = string(input.Options)
	question.AnswerKey = string(input.AnswerKey)
	question.Explanation = input.Explanation

	sq, err := question.ToScoring()
	if err != nil {
		return nil, scoring.ErrInvalidQuestionKey
	}
	if err := sq.ValidateKey(); err != nil {
		return nil, err
	}

	if err := s.QuizRepo.UpdateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) DeleteQuestion(questionID uint) error {
	if _, err := s.QuizRepo.FindQuestionByID(questionID); err != nil {
		return util.ErrQuestionNotFound
	}
	return s.QuizRepo.DeleteQuestion(questionID)
}

// BuildSheet 将持久化的试卷摊平成评分引擎的输入。
// 题目顺序由仓储层的稳定排序保证，位置即摊平后的下标。
func (s *QuizService) BuildSheet(quiz *model.Quiz) (scoring.QuizSheet, error) {
	sheet := scoring.QuizSheet{PassingThreshold: quiz.PassingThreshold}
	if len(quiz.Questions) == 0 {
		return sheet, scoring.ErrQuizWithoutQuestions
	}

	for _, q := range quiz.Questions {
		sq, err := q.ToScoring()
		if err != nil {
			return sheet, scoring.ErrInvalidQuestionKey
		}
		sheet.Questions = append(sheet.Questions, sq)
	}
	return sheet, nil
}

// CheckAccess 报名资格：已发布、窗口内、对所有人开放或命中批次
func (s *QuizService) CheckAccess(quiz *model.Quiz, userID uint, now time.Time) error {
	if !quiz.Published || !quiz.Active {
		return util.ErrQuizNotPublished
	}
	if quiz.StartAt != nil && now.Before(*quiz.StartAt) {
		return util.ErrQuizNotYetAvailable
	}
	if quiz.EndAt != nil && now.After(*quiz.EndAt) {
		return util.ErrQuizNoLongerOpen
	}
	if quiz.OpenToAll {
		return nil
	}

	user, err := s.UserRepo.FindByIDWithBatches(userID)
	if err != nil {
		return util.ErrUserNotFound
	}
	for _, ub := range user.Batches {
		for _, qb := range quiz.Batches {
			if ub.ID == qb.ID {
				return nil
			}
		}
	}
	return util.ErrQuizNotAssigned
}

// QuizView 学生端的试卷视图，附剩余可考次数
type QuizView struct {
	Quiz              *model.Quiz `json:"quiz"`
	QuestionCount     int         `json:"questionCount"`
	AttemptsUsed      int         `json:"attemptsUsed"`
	AttemptsRemaining int         `json:"attemptsRemaining"`
}

// ListForStudent 主题下该学生可见的试卷
func (s *QuizService) ListForStudent(topicID, userID uint, now time.Time) ([]QuizView, error) {
	quizzes, err := s.QuizRepo.ListByTopic(topicID, true)
	if err != nil {
		return nil, err
	}

	views := make([]QuizView, 0, len(quizzes))
	for i := range quizzes {
		quiz := &quizzes[i]
		if err := s.CheckAccess(quiz, userID, now); err != nil {
			continue
		}
		used, err := s.AttemptRepo.CountByUserAndQuiz(userID, quiz.ID)
		if err != nil {
			return nil, err
		}
		remaining := quiz.MaxAttempts - used
		if remaining < 0 {
			remaining = 0
		}
		var count int64
		if err := s.QuizRepo.DB.Model(&model.Question{}).Where("quiz_id = ?", quiz.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		views = append(views, QuizView{
			Quiz:              quiz,
			QuestionCount:     int(count),
			AttemptsUsed:      used,
			AttemptsRemaining: remaining,
		})
	}
	return views, nil
}

// StudentQuizView 学生端试卷详情：只给元信息与题量，不下发题目本体
func (s *QuizService) StudentQuizView(quizID, userID uint, now time.Time) (*QuizView, error) {
	quiz, err := s.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}
	if err := s.CheckAccess(quiz, userID, now); err != nil {
		return nil, err
	}

	used, err := s.AttemptRepo.CountByUserAndQuiz(userID, quizID)
	if err != nil {
		return nil, err
	}
	remaining := quiz.MaxAttempts - used
	if remaining < 0 {
		remaining = 0
	}

	detail := *quiz
	detail.Questions = nil
	return &QuizView{
		Quiz:              &detail,
		QuestionCount:     len(quiz.Questions),
		AttemptsUsed:      used,
		AttemptsRemaining: remaining,
	}, nil
}

// StudentQuestions 以会话的乱序重排学生视图，隐藏答案键
func (s *QuizService) StudentQuestions(quiz *model.Quiz, order []int) ([]StudentQuestion, error) {
	questions := make([]StudentQuestion, 0, len(order))
	for _, pos := range order {
		if pos < 0 || pos >= len(quiz.Questions) {
			return nil, scoring.ErrInconsistentAnswerMap
		}
		q := quiz.Questions[pos]

		view := StudentQuestion{
			ID:            q.ID,
			Position:      pos,
			QuestionType:  q.QuestionType,
			Text:          q.Text,
			ImageURL:      q.ImageURL,
			Section:       q.Section,
			Marks:         q.Marks,
			NegativeMarks: q.NegativeMarks,
		}
		// 热区题只下发底图：判分矩形就是答案键本身，学生端自由点击即可
		if q.Options != "" {
			view.Options = json.RawMessage(q.Options)
		}
		questions = append(questions, view)
	}
	return questions, nil
}
