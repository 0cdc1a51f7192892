package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizgen-backend/internal/config"
	"github.com/stemsi/quizgen-backend/internal/model"
)

// QuizCache keeps persisted quizzes in Redis. Quizzes never change after
// they are saved, so entries only expire.
type QuizCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuizCache creates a QuizCache. A non-positive ttl keeps entries forever.
func NewQuizCache(rdb *redis.Client, ttl time.Duration) *QuizCache {
	if ttl < 0 {
		ttl = 0
	}
	return &QuizCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached quiz, or nil on a miss.
func (c *QuizCache) Get(ctx context.Context, quizID string) (*model.Quiz, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.QuizPayloadKey(quizID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get quiz payload: %w", err)
	}

	var quiz model.Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, fmt.Errorf("unmarshal quiz payload: %w", err)
	}
	return &quiz, nil
}

// Set stores the quiz, owner and answer key included.
func (c *QuizCache) Set(ctx context.Context, quiz *model.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz payload: %w", err)
	}
	if err := c.rdb.Set(ctx, config.CacheKey.QuizPayloadKey(quiz.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache quiz payload: %w", err)
	}
	return nil
}
