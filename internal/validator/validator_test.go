package validator

import (
	"testing"

	"github.com/stemsi/quizgen-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestValidateUsesJSONNames(t *testing.T) {
	Setup()

	fields := Validate(&model.StartQuizRequest{Topic: "   ", Count: 0})
	assert.Contains(t, fields, "topic")
	assert.Contains(t, fields, "count")
	assert.Equal(t, "topic must not be blank", fields["topic"])

	assert.Nil(t, Validate(&model.StartQuizRequest{Topic: "Go channels", Count: 3}))
}

func TestValidateSignUp(t *testing.T) {
	Setup()

	fields := Validate(&model.SignUpRequest{Name: "Ada", Email: "not-an-email", Password: "short"})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
	assert.NotContains(t, fields, "name")
}

func TestTranslateErrorsMalformedBody(t *testing.T) {
	fields := TranslateErrors(assert.AnError)
	assert.Equal(t, map[string]string{"body": "request body must be valid JSON"}, fields)
}
