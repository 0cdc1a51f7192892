package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizgen-backend/internal/model"
)

// QuizRepository is the progression store: quizzes, their questions and
// options, and per-user answer records.
type QuizRepository struct {
	db *sql.DB
}

// NewQuizRepository creates a new QuizRepository.
func NewQuizRepository(db *sql.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// Save persists the whole quiz tree in one transaction and returns a copy
// carrying the assigned ids. An empty ownerID stores an unowned quiz.
func (r *QuizRepository) Save(ctx context.Context, quiz *model.Quiz, ownerID string) (*model.Quiz, error) {
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	saved := &model.Quiz{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Prompt:    quiz.Prompt,
		Questions: make([]model.Question, len(quiz.Questions)),
		CreatedAt: time.Now().UTC(),
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistenceErr("begin save", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO quizzes (id, owner_id, prompt, created_at) VALUES ($1, $2, $3, $4)`,
		saved.ID, nullableString(ownerID), saved.Prompt, saved.CreatedAt,
	); err != nil {
		return nil, persistenceErr("insert quiz", err)
	}

	for i, q := range quiz.Questions {
		var questionID int64
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO questions (quiz_id, text) VALUES ($1, $2) RETURNING id`,
			saved.ID, q.Text,
		).Scan(&questionID); err != nil {
			return nil, persistenceErr("insert question", err)
		}

		for j, opt := range q.Options {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO options (question_id, text, correct) VALUES ($1, $2, $3)`,
				questionID, opt, j == q.CorrectAnswerIndex,
			); err != nil {
				return nil, persistenceErr("insert option", err)
			}
		}

		saved.Questions[i] = model.Question{
			ID:                 questionID,
			Text:               q.Text,
			Options:            append([]string(nil), q.Options...),
			CorrectAnswerIndex: q.CorrectAnswerIndex,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, persistenceErr("commit save", err)
	}
	return saved, nil
}

// Get loads a quiz visible to userID. Absent and inaccessible quizzes are
// both reported as model.ErrNotFound.
func (r *QuizRepository) Get(ctx context.Context, quizID, userID string) (*model.Quiz, error) {
	quiz := &model.Quiz{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, COALESCE(owner_id, ''), prompt, created_at FROM quizzes WHERE id = $1`, quizID,
	).Scan(&quiz.ID, &quiz.OwnerID, &quiz.Prompt, &quiz.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("quiz %s: %w", quizID, model.ErrNotFound)
	}
	if err != nil {
		return nil, persistenceErr("get quiz", err)
	}

	if !quiz.VisibleTo(userID) {
		ok, err := r.HasAnswers(ctx, quizID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("quiz %s: %w", quizID, model.ErrNotFound)
		}
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT q.id, q.text, o.text, o.correct
		 FROM questions q
		 JOIN options o ON o.question_id = q.id
		 WHERE q.quiz_id = $1
		 ORDER BY q.id, o.id`, quizID,
	)
	if err != nil {
		return nil, persistenceErr("get questions", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			questionID int64
			text       string
			optText    string
			correct    bool
		)
		if err := rows.Scan(&questionID, &text, &optText, &correct); err != nil {
			return nil, persistenceErr("scan question", err)
		}

		n := len(quiz.Questions)
		if n == 0 || quiz.Questions[n-1].ID != questionID {
			quiz.Questions = append(quiz.Questions, model.Question{ID: questionID, Text: text})
			n++
		}
		q := &quiz.Questions[n-1]
		if correct {
			q.CorrectAnswerIndex = len(q.Options)
		}
		q.Options = append(q.Options, optText)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate questions", err)
	}

	if len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("quiz %s has no questions: %w", quizID, model.ErrNotFound)
	}
	return quiz, nil
}

// HasAnswers reports whether userID has at least one answer record for the quiz.
// Anonymous callers never qualify.
func (r *QuizRepository) HasAnswers(ctx context.Context, quizID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_quiz_answers WHERE quiz_id = $1 AND user_id = $2)`,
		quizID, userID,
	).Scan(&exists)
	if err != nil {
		return false, persistenceErr("check answers", err)
	}
	return exists, nil
}

// RecordAnswer compares option against the question's correct option and
// upserts the verdict for (userID, quizID, questionID). The read and the
// write share one transaction.
func (r *QuizRepository) RecordAnswer(ctx context.Context, quizID string, questionID int64, option int, userID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, persistenceErr("begin answer", err)
	}
	defer tx.Rollback()

	correctIdx, optionCount, err := correctOptionIndex(ctx, tx, quizID, questionID)
	if err != nil {
		return false, err
	}
	if optionCount == 0 {
		return false, fmt.Errorf("question %d in quiz %s: %w", questionID, quizID, model.ErrNotFound)
	}
	if option < 0 || option >= optionCount {
		return false, fmt.Errorf("%w: option %d out of range [0, %d)", model.ErrValidation, option, optionCount)
	}

	wasCorrect := option == correctIdx
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_quiz_answers (user_id, quiz_id, question_id, correct, answered_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, quiz_id, question_id)
		 DO UPDATE SET correct = EXCLUDED.correct, answered_at = EXCLUDED.answered_at`,
		userID, quizID, questionID, wasCorrect, time.Now().UTC(),
	); err != nil {
		return false, persistenceErr("upsert answer", err)
	}

	if err := tx.Commit(); err != nil {
		return false, persistenceErr("commit answer", err)
	}
	return wasCorrect, nil
}

func correctOptionIndex(ctx context.Context, tx *sql.Tx, quizID string, questionID int64) (int, int, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT o.correct
		 FROM options o
		 JOIN questions q ON q.id = o.question_id
		 WHERE q.id = $1 AND q.quiz_id = $2
		 ORDER BY o.id`, questionID, quizID,
	)
	if err != nil {
		return 0, 0, persistenceErr("get options", err)
	}
	defer rows.Close()

	correctIdx, count := -1, 0
	for rows.Next() {
		var correct bool
		if err := rows.Scan(&correct); err != nil {
			return 0, 0, persistenceErr("scan option", err)
		}
		if correct && correctIdx < 0 {
			correctIdx = count
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, 0, persistenceErr("iterate options", err)
	}
	return correctIdx, count, nil
}

// CurrentQuestionID returns the earliest question userID has not answered.
// complete is true when every question has an answer record.
func (r *QuizRepository) CurrentQuestionID(ctx context.Context, quizID, userID string) (id int64, complete bool, err error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE quiz_id = $1`, quizID,
	).Scan(&total); err != nil {
		return 0, false, persistenceErr("count questions", err)
	}
	if total == 0 {
		return 0, false, fmt.Errorf("quiz %s: %w", quizID, model.ErrNotFound)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT q.id
		 FROM questions q
		 LEFT JOIN user_quiz_answers a
		   ON a.question_id = q.id AND a.quiz_id = q.quiz_id AND a.user_id = $2
		 WHERE q.quiz_id = $1 AND a.question_id IS NULL
		 ORDER BY q.id
		 LIMIT 1`, quizID, userID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, persistenceErr("current question", err)
	}
	return id, false, nil
}

// Results aggregates userID's answer records for the quiz.
func (r *QuizRepository) Results(ctx context.Context, quizID, userID string) (model.QuizResults, error) {
	var res model.QuizResults
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(q.id),
		        COUNT(a.question_id),
		        COALESCE(SUM(CASE WHEN a.correct THEN 1 ELSE 0 END), 0)
		 FROM questions q
		 LEFT JOIN user_quiz_answers a
		   ON a.question_id = q.id AND a.quiz_id = q.quiz_id AND a.user_id = $2
		 WHERE q.quiz_id = $1`, quizID, userID,
	).Scan(&res.Count, &res.Answered, &res.Correct)
	if err != nil {
		return model.QuizResults{}, persistenceErr("aggregate results", err)
	}
	return res, nil
}

// ListByOwner returns the owner's quizzes, newest first, each with the
// owner's own results, plus the total count.
func (r *QuizRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.QuizSummary, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM quizzes WHERE owner_id = $1`, ownerID,
	).Scan(&total); err != nil {
		return nil, 0, persistenceErr("count quizzes", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT z.id, z.prompt, z.created_at,
		        (SELECT COUNT(*) FROM questions q WHERE q.quiz_id = z.id),
		        (SELECT COUNT(*) FROM user_quiz_answers a WHERE a.quiz_id = z.id AND a.user_id = $1),
		        (SELECT COUNT(*) FROM user_quiz_answers a WHERE a.quiz_id = z.id AND a.user_id = $1 AND a.correct)
		 FROM quizzes z
		 WHERE z.owner_id = $1
		 ORDER BY z.created_at DESC, z.id
		 LIMIT $2 OFFSET $3`, ownerID, limit, offset,
	)
	if err != nil {
		return nil, 0, persistenceErr("list quizzes", err)
	}
	defer rows.Close()

	summaries := make([]model.QuizSummary, 0)
	for rows.Next() {
		var s model.QuizSummary
		if err := rows.Scan(&s.ID, &s.Prompt, &s.CreatedAt, &s.Results.Count, &s.Results.Answered, &s.Results.Correct); err != nil {
			return nil, 0, persistenceErr("scan quiz", err)
		}
		s.QuestionCount = s.Results.Count
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, persistenceErr("iterate quizzes", err)
	}
	return summaries, total, nil
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrPersistence, op, err)
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
