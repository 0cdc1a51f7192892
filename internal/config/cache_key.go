package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key registering a signed-in token (by jti).
func (r *CacheKeyStruct) UserSessionKey(userID, jti string) string {
	return fmt.Sprintf("user:%s:session:%s", userID, jti)
}

// QuizPayloadKey returns the cache key for a persisted quiz structure.
func (r *CacheKeyStruct) QuizPayloadKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:payload", quizID)
}

var CacheKey = NewCacheKeyStruct()
