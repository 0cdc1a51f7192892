package model

import (
	"errors"
	"fmt"
	"time"
)

// Question is a single multiple-choice question. ID is zero until persisted.
type Question struct {
	ID                 int64    `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
}

// CorrectAnswer returns the text of the correct option.
func (q Question) CorrectAnswer() string {
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectAnswerIndex]
}

// HasOption reports whether idx addresses one of the question's options.
func (q Question) HasOption(idx int) bool {
	return idx >= 0 && idx < len(q.Options)
}

// Quiz is a generated quiz. It is immutable once persisted; ID is empty before that.
type Quiz struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id,omitempty"`
	Prompt    string     `json:"prompt"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// QuestionCount returns the number of questions in the quiz.
func (q *Quiz) QuestionCount() int {
	return len(q.Questions)
}

// QuestionIndexOf returns the position of the question with the given id.
// Every question must carry an id; ids only exist after the quiz is persisted.
func (q *Quiz) QuestionIndexOf(questionID int64) (int, error) {
	idx := -1
	for i, question := range q.Questions {
		if question.ID == 0 {
			return -1, errors.New("quiz has questions without ids")
		}
		if question.ID == questionID && idx < 0 {
			idx = i
		}
	}
	if idx < 0 {
		return -1, fmt.Errorf("question %d: %w", questionID, ErrNotFound)
	}
	return idx, nil
}

// VisibleTo reports whether the quiz is shared or owned by userID. Users
// holding answer records may see owned quizzes too; the store checks that.
func (q *Quiz) VisibleTo(userID string) bool {
	return q.OwnerID == "" || q.OwnerID == userID
}

// CorrectAnswer returns the correct option text of the question at index.
func (q *Quiz) CorrectAnswer(questionIndex int) string {
	if questionIndex < 0 || questionIndex >= len(q.Questions) {
		return ""
	}
	return q.Questions[questionIndex].CorrectAnswer()
}

// Validate checks the structural invariants: at least one question, at least
// two options per question and a correct index inside the options.
func (q *Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz has no questions", ErrValidation)
	}
	for i, question := range q.Questions {
		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %d has %d options", ErrValidation, i+1, len(question.Options))
		}
		if !question.HasOption(question.CorrectAnswerIndex) {
			return fmt.Errorf("%w: question %d correct index %d out of range", ErrValidation, i+1, question.CorrectAnswerIndex)
		}
	}
	return nil
}

// QuizResults is derived from the answer records of one user for one quiz.
type QuizResults struct {
	Count    int `json:"count"`
	Answered int `json:"answered"`
	Correct  int `json:"correct"`
}

// Completed reports whether every question has an answer record.
func (r QuizResults) Completed() bool {
	return r.Count > 0 && r.Answered >= r.Count
}

// Verdict is the closing remark shown with a score.
func (r QuizResults) Verdict() string {
	if r.Correct*2 < r.Count {
		return "Too bad."
	}
	return "Well done!"
}

// QuizSummary is a row in the caller's quiz list.
type QuizSummary struct {
	ID            string      `json:"id"`
	Prompt        string      `json:"prompt"`
	QuestionCount int         `json:"question_count"`
	CreatedAt     time.Time   `json:"created_at"`
	Results       QuizResults `json:"results"`
}

// QuestionForUser is a question without its correct answer, sent to quiz takers.
type QuestionForUser struct {
	ID       int64    `json:"id"`
	Index    int      `json:"index"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Position string   `json:"position"`
}

// NewQuestionForUser strips the answer from the question at index.
func NewQuestionForUser(q *Quiz, index int) *QuestionForUser {
	question := q.Questions[index]
	return &QuestionForUser{
		ID:       question.ID,
		Index:    index,
		Text:     question.Text,
		Options:  question.Options,
		Position: fmt.Sprintf("%d/%d", index+1, len(q.Questions)),
	}
}

// StartQuizRequest is the payload for generating a new quiz.
type StartQuizRequest struct {
	Topic string `json:"topic" binding:"required,notblank,min=2,max=500"`
	Count int    `json:"count" binding:"required,min=1"`
}

// SubmitAnswerRequest is the payload for answering a question.
type SubmitAnswerRequest struct {
	Option *int `json:"option" binding:"required"`
}
