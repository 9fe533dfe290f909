package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 键内嵌结构版本：升级 SchemaVersion 后旧会话自然失效，无需迁移
const (
	sessionKeyFormat = "exam:session:v%d:%d:%d"
	lockKeyFormat    = "exam:submit_lock:%d:%d"
)

// RedisStore 以单个 JSON 文档保存整个会话，读写都是一次往返
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func sessionKey(userID, quizID uint) string {
	return fmt.Sprintf(sessionKeyFormat, SchemaVersion, userID, quizID)
}

func lockKey(userID, quizID uint) string {
	return fmt.Sprintf(lockKeyFormat, userID, quizID)
}

func (s *RedisStore) Load(ctx context.Context, userID, quizID uint) (*State, error) {
	data, err := s.client.Get(ctx, sessionKey(userID, quizID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load exam session: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// 解析不了的文档当作不存在，调用方会重建
		_ = s.client.Del(ctx, sessionKey(userID, quizID)).Err()
		return nil, ErrNotFound
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *State, ttl time.Duration) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal exam session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(state.UserID, state.QuizID), data, ttl).Err(); err != nil {
		return fmt.Errorf("save exam session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID, quizID uint) error {
	if err := s.client.Del(ctx, sessionKey(userID, quizID)).Err(); err != nil {
		return fmt.Errorf("delete exam session: %w", err)
	}
	return nil
}

// AcquireSubmitLock SETNX 抢占提交锁，TTL 兜底防止持有方崩溃后永久锁死
func (s *RedisStore) AcquireSubmitLock(ctx context.Context, userID, quizID uint, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKey(userID, quizID), time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire submit lock: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseSubmitLock(ctx context.Context, userID, quizID uint) error {
	if err := s.client.Del(ctx, lockKey(userID, quizID)).Err(); err != nil {
		return fmt.Errorf("release submit lock: %w", err)
	}
	return nil
}
