package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stemsi/quizgen-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedQuiz struct {
	topic string
	count int
}

func (c *cannedQuiz) Generate(_ context.Context, topic string, count int) (*model.Quiz, error) {
	c.topic, c.count = topic, count
	return &model.Quiz{
		Prompt: "Quiz on " + topic,
		Questions: []model.Question{
			{Text: "2 + 2?", Options: []string{"3", "4"}, CorrectAnswerIndex: 1},
			{Text: "3 * 3?", Options: []string{"9", "6", "12"}, CorrectAnswerIndex: 0},
		},
	}, nil
}

func TestPlayScoresAnswers(t *testing.T) {
	gen := &cannedQuiz{}
	in := strings.NewReader("arithmetic\nabc\n2\n2\n5\n2\n")
	var out bytes.Buffer

	require.NoError(t, play(context.Background(), in, &out, gen))

	assert.Equal(t, "arithmetic", gen.topic)
	assert.Equal(t, 2, gen.count)
	text := out.String()
	assert.Contains(t, text, "Please enter a number of at least 1.")
	assert.Contains(t, text, "\t2) 4\n")
	assert.Contains(t, text, "Correct!")
	assert.Contains(t, text, "Please enter a number from 1 to 3.")
	assert.Contains(t, text, "Incorrect. The correct answer was: 9")
	assert.Contains(t, text, "Well done! You scored 1 out of 2")
}

func TestPlayAllWrong(t *testing.T) {
	in := strings.NewReader("arithmetic\n2\n1\n2\n")
	var out bytes.Buffer

	require.NoError(t, play(context.Background(), in, &out, &cannedQuiz{}))
	assert.Contains(t, out.String(), "Too bad. You scored 0 out of 2")
}

func TestPlayStopsOnEOF(t *testing.T) {
	in := strings.NewReader("arithmetic\n2\n2\n")
	err := play(context.Background(), in, io.Discard, &cannedQuiz{})
	assert.ErrorIs(t, err, io.EOF)
}
