package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("HALT_ON_INCORRECT", "true")
	t.Setenv("GENERATION_TIMEOUT_SECONDS", "5")
	t.Setenv("MAX_QUESTIONS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.HaltOnIncorrect)
	assert.Equal(t, 5*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 50, cfg.MaxQuestions)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestParseOriginsEmptyAllowsAll(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "user:u1:session:j1", CacheKey.UserSessionKey("u1", "j1"))
	assert.Equal(t, "quiz:q1:payload", CacheKey.QuizPayloadKey("q1"))
}
