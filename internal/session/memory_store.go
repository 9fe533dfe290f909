package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore 进程内实现，供测试与无 Redis 的本地开发使用
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	locks    map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		locks:    make(map[string]struct{}),
	}
}

func (s *MemoryStore) Load(_ context.Context, userID, quizID uint) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.sessions[sessionKey(userID, quizID)]
	if !ok {
		return nil, ErrNotFound
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, ErrNotFound
	}
	return &state, nil
}

func (s *MemoryStore) Save(_ context.Context, state *State, _ time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionKey(state.UserID, state.QuizID)] = data
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, quizID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionKey(userID, quizID))
	return nil
}

func (s *MemoryStore) AcquireSubmitLock(_ context.Context, userID, quizID uint, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := lockKey(userID, quizID)
	if _, held := s.locks[key]; held {
		return false, nil
	}
	s.locks[key] = struct{}{}
	return true, nil
}

func (s *MemoryStore) ReleaseSubmitLock(_ context.Context, userID, quizID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, lockKey(userID, quizID))
	return nil
}
