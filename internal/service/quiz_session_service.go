package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen-backend/internal/model"
	"github.com/stemsi/quizgen-backend/internal/response"
)

// ProgressionStore persists quizzes and per-user answer records.
type ProgressionStore interface {
	Save(ctx context.Context, quiz *model.Quiz, ownerID string) (*model.Quiz, error)
	Get(ctx context.Context, quizID, userID string) (*model.Quiz, error)
	HasAnswers(ctx context.Context, quizID, userID string) (bool, error)
	RecordAnswer(ctx context.Context, quizID string, questionID int64, option int, userID string) (bool, error)
	CurrentQuestionID(ctx context.Context, quizID, userID string) (int64, bool, error)
	Results(ctx context.Context, quizID, userID string) (model.QuizResults, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.QuizSummary, int, error)
}

// QuizGenerator produces an unsaved quiz for a topic.
type QuizGenerator interface {
	Generate(ctx context.Context, topic string, count int) (*model.Quiz, error)
}

// QuizCache holds persisted quizzes. Get returns nil, nil on a miss.
type QuizCache interface {
	Get(ctx context.Context, quizID string) (*model.Quiz, error)
	Set(ctx context.Context, quiz *model.Quiz) error
}

// QuizState is where a user stands in a quiz. Question is nil once Completed.
type QuizState struct {
	QuizID    string                 `json:"quiz_id"`
	Prompt    string                 `json:"prompt"`
	Question  *model.QuestionForUser `json:"question"`
	Completed bool                   `json:"completed"`
	Results   model.QuizResults      `json:"results"`
}

// AnswerOutcome is the result of one submitted answer. The correct option is
// only revealed when the answer was wrong.
type AnswerOutcome struct {
	QuizID             string                 `json:"quiz_id"`
	QuestionID         int64                  `json:"question_id"`
	Correct            bool                   `json:"correct"`
	CorrectAnswer      string                 `json:"correct_answer,omitempty"`
	CorrectAnswerIndex *int                   `json:"correct_answer_index,omitempty"`
	Next               *model.QuestionForUser `json:"next"`
	Completed          bool                   `json:"completed"`
	Halted             bool                   `json:"halted"`
	Results            model.QuizResults      `json:"results"`
}

// ResultsReport is the score card for one user and quiz.
type ResultsReport struct {
	QuizID    string            `json:"quiz_id"`
	Prompt    string            `json:"prompt"`
	Results   model.QuizResults `json:"results"`
	Completed bool              `json:"completed"`
	Verdict   string            `json:"verdict"`
}

// QuizSessionService composes generation and persistence into quiz-taking
// operations. An empty user id is the anonymous caller.
type QuizSessionService struct {
	store           ProgressionStore
	generator       QuizGenerator
	cache           QuizCache
	haltOnIncorrect bool
	log             zerolog.Logger
}

// NewQuizSessionService creates a new QuizSessionService. cache may be nil.
func NewQuizSessionService(
	store ProgressionStore,
	generator QuizGenerator,
	cache QuizCache,
	haltOnIncorrect bool,
	log zerolog.Logger,
) *QuizSessionService {
	return &QuizSessionService{
		store:           store,
		generator:       generator,
		cache:           cache,
		haltOnIncorrect: haltOnIncorrect,
		log:             log.With().Str("component", "quiz_session").Logger(),
	}
}

// StartQuiz generates a quiz, persists it under userID and returns its first question.
func (s *QuizSessionService) StartQuiz(ctx context.Context, topic string, count int, userID string) (*QuizState, error) {
	generated, err := s.generator.Generate(ctx, topic, count)
	if err != nil {
		return nil, fmt.Errorf("start quiz: %w", err)
	}

	quiz, err := s.store.Save(ctx, generated, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("topic", topic).Msg("Failed to save generated quiz")
		return nil, fmt.Errorf("start quiz: %w", err)
	}
	s.remember(ctx, quiz)

	s.log.Info().
		Str("quiz_id", quiz.ID).
		Str("user_id", userID).
		Int("count", quiz.QuestionCount()).
		Msg("Quiz started")

	return &QuizState{
		QuizID:   quiz.ID,
		Prompt:   quiz.Prompt,
		Question: model.NewQuestionForUser(quiz, 0),
		Results:  model.QuizResults{Count: quiz.QuestionCount()},
	}, nil
}

// Resume returns the first question userID has not answered yet, or
// completion when every question has an answer.
func (s *QuizSessionService) Resume(ctx context.Context, quizID, userID string) (*QuizState, error) {
	quiz, err := s.loadQuiz(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("resume quiz %s: %w", quizID, err)
	}

	currentID, complete, err := s.store.CurrentQuestionID(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("resume quiz %s: %w", quizID, err)
	}
	results, err := s.store.Results(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("resume quiz %s: %w", quizID, err)
	}

	state := &QuizState{
		QuizID:    quiz.ID,
		Prompt:    quiz.Prompt,
		Completed: complete,
		Results:   results,
	}
	if !complete {
		idx, err := quiz.QuestionIndexOf(currentID)
		if err != nil {
			return nil, fmt.Errorf("resume quiz %s: %w", quizID, err)
		}
		state.Question = model.NewQuestionForUser(quiz, idx)
	}
	return state, nil
}

// SubmitAnswer records option for the question and advances to the question
// after it by position. Out-of-range options are rejected before any write.
func (s *QuizSessionService) SubmitAnswer(ctx context.Context, quizID string, questionID int64, option int, userID string) (*AnswerOutcome, error) {
	quiz, err := s.loadQuiz(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("answer quiz %s: %w", quizID, err)
	}

	idx, err := quiz.QuestionIndexOf(questionID)
	if err != nil {
		return nil, fmt.Errorf("answer quiz %s: %w", quizID, err)
	}
	question := quiz.Questions[idx]
	if !question.HasOption(option) {
		return nil, fmt.Errorf("answer quiz %s: %w: option %d out of range for question %d",
			quizID, model.ErrValidation, option, questionID)
	}

	correct, err := s.store.RecordAnswer(ctx, quizID, questionID, option, userID)
	if err != nil {
		s.log.Error().Err(err).Str("quiz_id", quizID).Int64("question_id", questionID).Msg("Failed to record answer")
		return nil, fmt.Errorf("answer quiz %s: %w", quizID, err)
	}

	results, err := s.store.Results(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("answer quiz %s: %w", quizID, err)
	}

	out := &AnswerOutcome{
		QuizID:     quizID,
		QuestionID: questionID,
		Correct:    correct,
		Completed:  idx == quiz.QuestionCount()-1,
		Results:    results,
	}
	if !correct {
		correctIdx := question.CorrectAnswerIndex
		out.CorrectAnswer = question.CorrectAnswer()
		out.CorrectAnswerIndex = &correctIdx
		out.Halted = s.haltOnIncorrect && !out.Completed
	}
	if !out.Completed && !out.Halted {
		out.Next = model.NewQuestionForUser(quiz, idx+1)
	}

	s.log.Debug().
		Str("quiz_id", quizID).
		Str("user_id", userID).
		Int64("question_id", questionID).
		Bool("correct", correct).
		Msg("Answer recorded")
	return out, nil
}

// GetResults reports userID's score for the quiz.
func (s *QuizSessionService) GetResults(ctx context.Context, quizID, userID string) (*ResultsReport, error) {
	quiz, err := s.loadQuiz(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("results for quiz %s: %w", quizID, err)
	}
	results, err := s.store.Results(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("results for quiz %s: %w", quizID, err)
	}
	return &ResultsReport{
		QuizID:    quiz.ID,
		Prompt:    quiz.Prompt,
		Results:   results,
		Completed: results.Completed(),
		Verdict:   results.Verdict(),
	}, nil
}

// ListQuizzes returns a page of the quizzes userID owns.
func (s *QuizSessionService) ListQuizzes(ctx context.Context, userID string, page, perPage int) ([]model.QuizSummary, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	quizzes, total, err := s.store.ListByOwner(ctx, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list quizzes: %w", err)
	}
	if quizzes == nil {
		quizzes = []model.QuizSummary{}
	}

	return quizzes, response.NewPagination(page, perPage, total), nil
}

// loadQuiz reads through the cache and applies the same visibility rule as the store.
func (s *QuizSessionService) loadQuiz(ctx context.Context, quizID, userID string) (*model.Quiz, error) {
	if s.cache != nil {
		quiz, err := s.cache.Get(ctx, quizID)
		if err != nil {
			s.log.Warn().Err(err).Str("quiz_id", quizID).Msg("Quiz cache read failed")
		}
		if quiz != nil {
			if quiz.VisibleTo(userID) {
				return quiz, nil
			}
			ok, err := s.store.HasAnswers(ctx, quizID, userID)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("quiz %s: %w", quizID, model.ErrNotFound)
			}
			return quiz, nil
		}
	}

	quiz, err := s.store.Get(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	s.remember(ctx, quiz)
	return quiz, nil
}

func (s *QuizSessionService) remember(ctx context.Context, quiz *model.Quiz) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, quiz); err != nil {
		s.log.Warn().Err(err).Str("quiz_id", quiz.ID).Msg("Quiz cache write failed")
	}
}
