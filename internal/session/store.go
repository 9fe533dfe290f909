package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound 指定 (用户, 试卷) 下没有可恢复的会话
	ErrNotFound = errors.New("exam session not found")
	// ErrLockHeld 已有一次提交在途
	ErrLockHeld = errors.New("submit already in flight")
)

// Store persists exam sessions keyed by (user, quiz). Implementations must
// make AcquireSubmitLock atomic: at most one caller may hold the lock for a
// given pair at a time.
type Store interface {
	Load(ctx context.Context, userID, quizID uint) (*State, error)
	Save(ctx context.Context, state *State, ttl time.Duration) error
	Delete(ctx context.Context, userID, quizID uint) error

	AcquireSubmitLock(ctx context.Context, userID, quizID uint, ttl time.Duration) (bool, error)
	ReleaseSubmitLock(ctx context.Context, userID, quizID uint) error
}
