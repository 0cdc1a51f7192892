package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stemsi/quizgen-backend/internal/config"
	"github.com/stemsi/quizgen-backend/internal/model"
)

const systemPrompt = `You are a quiz master. You will be provided with a topic followed by a | character and then the number of questions required. Produce a quiz consisting of the given number of questions, each with 4 possible answers. Only one of the answers should be correct. The response should be in JSON format. The response should only include the JSON.

The json should have the following format:

{
  "prompt": "the original quiz prompt",
  "questions": [
    {
      "text": "",
      "options": [
        "option1",
        "option2",
        "option3",
        "option4"
      ],
      "correct_answer": "option2",
      "correct_answer_index": 1
    }
  ]
}`

// ChatCompleter is the part of *openai.Client the generator uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator turns a topic into a quiz with one chat completion call.
type Generator struct {
	client       ChatCompleter
	model        string
	timeout      time.Duration
	maxQuestions int
	log          zerolog.Logger
}

// NewOpenAIClient builds the API client from config.
func NewOpenAIClient(cfg *config.Config) *openai.Client {
	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	return openai.NewClientWithConfig(oc)
}

// New creates a Generator.
func New(client ChatCompleter, cfg *config.Config, log zerolog.Logger) *Generator {
	modelName := cfg.OpenAIModel
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &Generator{
		client:       client,
		model:        modelName,
		timeout:      cfg.GenerationTimeout,
		maxQuestions: cfg.MaxQuestions,
		log:          log.With().Str("component", "generator").Logger(),
	}
}

type generatedQuestion struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswer      string   `json:"correct_answer"`
	CorrectAnswerIndex *int     `json:"correct_answer_index"`
}

type generatedQuiz struct {
	Prompt    string              `json:"prompt"`
	Questions []generatedQuestion `json:"questions"`
}

// Generate asks the model for a quiz about topic. count must be positive and
// is capped at the configured maximum. At most one external call is made.
func (g *Generator) Generate(ctx context.Context, topic string, count int) (*model.Quiz, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is required", model.ErrValidation)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: question count must be positive, got %d", model.ErrValidation, count)
	}
	if g.maxQuestions > 0 && count > g.maxQuestions {
		count = g.maxQuestions
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("%s | %d", topic, count)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			g.log.Warn().Str("topic", topic).Dur("timeout", g.timeout).Msg("Quiz generation timed out")
			return nil, fmt.Errorf("%w: timed out after %s", model.ErrGeneration, g.timeout)
		}
		g.log.Error().Err(err).Str("topic", topic).Msg("Quiz generation request failed")
		return nil, fmt.Errorf("%w: completion request: %w", model.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", model.ErrGeneration)
	}

	quiz, err := parseQuiz(resp.Choices[0].Message.Content, topic, count)
	if err != nil {
		g.log.Warn().Err(err).Str("topic", topic).Int("count", count).Msg("Discarding malformed quiz")
		return nil, err
	}

	g.log.Info().
		Str("topic", topic).
		Int("count", quiz.QuestionCount()).
		Dur("took", time.Since(start)).
		Msg("Quiz generated")
	return quiz, nil
}

func parseQuiz(content, topic string, count int) (*model.Quiz, error) {
	var raw generatedQuiz
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode quiz: %w", model.ErrGeneration, err)
	}

	if len(raw.Questions) > count {
		raw.Questions = raw.Questions[:count]
	}

	quiz := &model.Quiz{
		Prompt:    strings.TrimSpace(raw.Prompt),
		Questions: make([]model.Question, 0, len(raw.Questions)),
	}
	if quiz.Prompt == "" {
		quiz.Prompt = topic
	}

	for i, q := range raw.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("%w: question %d has no text", model.ErrGeneration, i+1)
		}
		if q.CorrectAnswerIndex == nil {
			return nil, fmt.Errorf("%w: question %d has no correct_answer_index", model.ErrGeneration, i+1)
		}
		quiz.Questions = append(quiz.Questions, model.Question{
			Text:               q.Text,
			Options:            q.Options,
			CorrectAnswerIndex: *q.CorrectAnswerIndex,
		})
	}

	if err := quiz.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrGeneration, err)
	}
	return quiz, nil
}

// stripCodeFence removes a surrounding ``` block some models add despite
// being asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
