package service

import (
	"encoding/json"
	"sort"

	"edu_quiz_backend/internal/model"
	"edu_quiz_backend/internal/repository"
	"edu_quiz_backend/internal/util"

	"gorm.io/gorm"
)

type ProgressService struct {
	ProgressRepo *repository.ProgressRepository
	AttemptRepo  *repository.AttemptRepository
	QuizRepo     *repository.QuizRepository
	TopicRepo    *repository.TopicRepository
}

func NewProgressService(
	progressRepo *repository.ProgressRepository,
	attemptRepo *repository.AttemptRepository,
	quizRepo *repository.QuizRepository,
	topicRepo *repository.TopicRepository,
) *ProgressService {
	return &ProgressService{
		ProgressRepo: progressRepo,
		AttemptRepo:  attemptRepo,
		QuizRepo:     quizRepo,
		TopicRepo:    topicRepo,
	}
}

// Recompute 从历次尝试整体重算主题进度并幂等落库。
// 每份试卷取历史最好成绩；主题完成要求每份启用试卷都有过及格尝试，
// 及格与否以落库时按该试卷自身阈值算出的结果为准。
func (s *ProgressService) Recompute(userID, topicID uint) error {
	quizzes, err := s.QuizRepo.ListActiveByTopic(topicID)
	if err != nil {
		return err
	}

	quizIDs := make([]uint, 0, len(quizzes))
	for _, q := range quizzes {
		quizIDs = append(quizIDs, q.ID)
	}

	attempts, err := s.AttemptRepo.ListByUserAndQuizIDs(userID, quizIDs)
	if err != nil {
		return err
	}

	best := make(map[uint]model.QuizCompletion)
	for _, a := range attempts {
		entry, seen := best[a.QuizID]
		if !seen || a.Percentage > entry.Percentage {
			entry.QuizID = a.QuizID
			entry.Percentage = a.Percentage
			best[a.QuizID] = entry
		}
		if a.Result == model.AttemptResultPass {
			entry = best[a.QuizID]
			entry.Passed = true
			best[a.QuizID] = entry
		}
	}

	completions := make([]model.QuizCompletion, 0, len(best))
	for _, c := range best {
		completions = append(completions, c)
	}
	sort.Slice(completions, func(i, j int) bool { return completions[i].QuizID < completions[j].QuizID })

	completed := len(quizzes) > 0
	for _, q := range quizzes {
		if !best[q.ID].Passed {
			completed = false
			break
		}
	}

	data, err := json.Marshal(completions)
	if err != nil {
		return err
	}

	return s.ProgressRepo.Upsert(&model.TopicProgress{
		UserID:           userID,
		TopicID:          topicID,
		CompletedQuizzes: string(data),
		IsCompleted:      completed,
	})
}

// TopicProgressView 学生进度视图
type TopicProgressView struct {
	TopicID          uint                   `json:"topicId"`
	TotalQuizzes     int                    `json:"totalQuizzes"`
	AttemptedQuizzes int                    `json:"attemptedQuizzes"`
	PassedQuizzes    int                    `json:"passedQuizzes"`
	IsCompleted      bool                   `json:"isCompleted"`
	Quizzes          []model.QuizCompletion `json:"quizzes"`
}

func (s *ProgressService) GetTopicProgress(userID, topicID uint) (*TopicProgressView, error) {
	if _, err := s.TopicRepo.FindByID(topicID); err != nil {
		return nil, util.ErrTopicNotFound
	}

	quizzes, err := s.QuizRepo.ListActiveByTopic(topicID)
	if err != nil {
		return nil, err
	}

	view := &TopicProgressView{
		TopicID:      topicID,
		TotalQuizzes: len(quizzes),
		Quizzes:      []model.QuizCompletion{},
	}

	progress, err := s.ProgressRepo.Find(userID, topicID)
	if err == gorm.ErrRecordNotFound {
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	if progress.CompletedQuizzes != "" {
		if err := json.Unmarshal([]byte(progress.CompletedQuizzes), &view.Quizzes); err != nil {
			return nil, err
		}
	}
	view.AttemptedQuizzes = len(view.Quizzes)
	for _, c := range view.Quizzes {
		if c.Passed {
			view.PassedQuizzes++
		}
	}
	view.IsCompleted = progress.IsCompleted
	return view, nil
}

// ListUserProgress 学生的全部主题进度（仅含已有尝试的主题）
func (s *ProgressService) ListUserProgress(userID uint) ([]TopicProgressView, error) {
	progresses, err := s.ProgressRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	views := make([]TopicProgressView, 0, len(progresses))
	for _, p := range progresses {
		view, err := s.GetTopicProgress(userID, p.TopicID)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}
