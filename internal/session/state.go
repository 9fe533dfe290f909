package session

import (
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion 会话文档的结构版本；不一致的持久化会话一律作废重建，
// 避免多个零散键各自漂移
const SchemaVersion = 2

// WarningThreshold 剩余时间首次跨过该阈值时提醒一次
const WarningThreshold = 5 * time.Minute

type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
)

// State is the whole client-visible exam session for one (user, quiz) pair:
// shuffled order, sparse answers, answered/skipped tracking and the absolute
// deadline. It exists from quiz start until the one confirmed successful
// submission, surviving page reloads in between.
type State struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	UserID  uint   `json:"userId"`
	QuizID  uint   `json:"quizId"`
	Status  Status `json:"status"`

	// QuestionOrder 打乱后的位置序列；Answers 以摊平后的原始位置为键
	QuestionOrder []int                   `json:"questionOrder"`
	Answers       map[int]json.RawMessage `json:"answers"`
	Answered      []int                   `json:"answered"`
	Skipped       []int                   `json:"skipped"`

	StartedAt int64 `json:"startedAt"`
	// EndsAt 绝对结束时间戳（秒）；nil 表示本场不计时。
	// 剩余时间永远从它现算，刷新、休眠都不会造成漂移。
	EndsAt       *int64 `json:"endsAt,omitempty"`
	WarningShown bool   `json:"warningShown"`
}

// NewState 开启一次全新的会话：重新洗牌并重置所有作答状态。
// seed 仅用于测试的确定性洗牌，生产传 nil。
func NewState(userID, quizID uint, questionCount int, duration time.Duration, timed bool, now time.Time, seed *int64) *State {
	order := make([]int, questionCount)
	for i := range order {
		order[i] = i
	}
	var r *rand.Rand
	if seed != nil {
		r = rand.New(rand.NewSource(*seed))
	} else {
		r = rand.New(rand.NewSource(now.UnixNano()))
	}
	r.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	s := &State{
		Version:       SchemaVersion,
		ID:            uuid.New().String(),
		UserID:        userID,
		QuizID:        quizID,
		Status:        StatusInProgress,
		QuestionOrder: order,
		Answers:       make(map[int]json.RawMessage),
		StartedAt:     now.Unix(),
	}
	if timed && duration > 0 {
		end := now.Add(duration).Unix()
		s.EndsAt = &end
	}
	return s
}

// Valid 判断还原出的会话是否可继续使用
func (s *State) Valid() bool {
	return s != nil && s.Version == SchemaVersion && s.Status != StatusSubmitted
}

// SetAnswer 记录某一位置的作答。null/空视为清除：标记未作答，
// skip 为 true 时进入跳过列表。
func (s *State) SetAnswer(position int, raw json.RawMessage, skip bool) {
	if s.Answers == nil {
		s.Answers = make(map[int]json.RawMessage)
	}
	cleared := len(raw) == 0 || string(raw) == "null"
	if cleared {
		delete(s.Answers, position)
		if skip {
			s.addSkipped(position)
		}
	} else {
		s.Answers[position] = raw
		s.removeSkipped(position)
	}
	s.Reconcile()
}

func (s *State) addSkipped(position int) {
	for _, p := range s.Skipped {
		if p == position {
			return
		}
	}
	s.Skipped = append(s.Skipped, position)
}

func (s *State) removeSkipped(position int) {
	for i, p := range s.Skipped {
		if p == position {
			s.Skipped = append(s.Skipped[:i], s.Skipped[i+1:]...)
			return
		}
	}
}

// Reconcile rebuilds the answered set from the answers map instead of
// trusting it to stay in sync incrementally, so a restored session always
// reflects ground truth.
func (s *State) Reconcile() {
	answered := make([]int, 0, len(s.Answers))
	for pos := range s.Answers {
		answered = append(answered, pos)
	}
	sort.Ints(answered)
	s.Answered = answered
}

// Timed 本场是否启用倒计时
func (s *State) Timed() bool {
	return s.EndsAt != nil
}

// Remaining 剩余时间（不计时返回 0, false）；到点即归零
func (s *State) Remaining(now time.Time) (time.Duration, bool) {
	if s.EndsAt == nil {
		return 0, false
	}
	remaining := time.Unix(*s.EndsAt, 0).Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Expired 计时会话是否已经到点
func (s *State) Expired(now time.Time) bool {
	remaining, timed := s.Remaining(now)
	return timed && remaining == 0
}

// CrossedWarning 剩余时间首次跨过提醒阈值时返回 true，并保证同一会话不再触发
func (s *State) CrossedWarning(now time.Time) bool {
	remaining, timed := s.Remaining(now)
	if !timed || s.WarningShown || remaining > WarningThreshold || remaining == 0 {
		return false
	}
	s.WarningShown = true
	return true
}

// ElapsedSeconds 从开考时刻起的用时（不计时场次的统计口径）
func (s *State) ElapsedSeconds(now time.Time) int {
	elapsed := int(now.Unix() - s.StartedAt)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// BeginSubmit 进入提交态；同一会话只允许一次在途提交
func (s *State) BeginSubmit() bool {
	if s.Status != StatusInProgress {
		return false
	}
	s.Status = StatusSubmitting
	return true
}

// FailSubmit 提交失败回到作答态，会话原样保留供重试
func (s *State) FailSubmit() {
	if s.Status == StatusSubmitting {
		s.Status = StatusInProgress
	}
}

// CompleteSubmit 提交确认成功后的终态
func (s *State) CompleteSubmit() {
	s.Status = StatusSubmitted
}
