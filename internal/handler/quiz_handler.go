package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen-backend/internal/middleware"
	"github.com/stemsi/quizgen-backend/internal/model"
	"github.com/stemsi/quizgen-backend/internal/response"
	"github.com/stemsi/quizgen-backend/internal/service"
	"github.com/stemsi/quizgen-backend/internal/validator"
)

// QuizHandler handles quiz-taking endpoints. Every route works for
// anonymous callers except the quiz list.
type QuizHandler struct {
	quizService *service.QuizSessionService
	log         zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizSessionService, log zerolog.Logger) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		log:         log.With().Str("component", "quiz_handler").Logger(),
	}
}

// StartQuiz godoc
// POST /api/v1/quizzes
// Generates a quiz for {topic, count} and returns its first question.
func (h *QuizHandler) StartQuiz(c *gin.Context) {
	var req model.StartQuizRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.quizService.StartQuiz(c.Request.Context(), req.Topic, req.Count, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, state)
}

// ListQuizzes godoc
// GET /api/v1/quizzes
// Lists the caller's quizzes with their own results.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	quizzes, pagination, err := h.quizService.ListQuizzes(c.Request.Context(), middleware.GetUserID(c), page, perPage)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"quizzes": quizzes}, pagination)
}

// Resume godoc
// GET /api/v1/quizzes/:quiz_id
// Returns the caller's current question, or completion.
func (h *QuizHandler) Resume(c *gin.Context) {
	state, err := h.quizService.Resume(c.Request.Context(), c.Param("quiz_id"), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SubmitAnswer godoc
// POST /api/v1/quizzes/:quiz_id/questions/:question_id/answer
// Records {option} (0-based) and returns the verdict and what comes next.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	questionID, err := strconv.ParseInt(c.Param("question_id"), 10, 64)
	if err != nil || questionID <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	outcome, err := h.quizService.SubmitAnswer(c.Request.Context(), c.Param("quiz_id"), questionID, *req.Option, middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, outcome)
}

// GetResults godoc
// GET /api/v1/quizzes/:quiz_id/results
// Returns the caller's score and verdict.
func (h *QuizHandler) GetResults(c *gin.Context) {
	report, err := h.quizService.GetResults(c.Request.Context(), c.Param("quiz_id"), middleware.GetUserID(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, report)
}

func (h *QuizHandler) fail(c *gin.Context, err error) {
	if status := response.FailFromError(c, err); status >= http.StatusInternalServerError {
		h.log.Error().
			Err(err).
			Str("path", c.FullPath()).
			Str("request_id", response.RequestID(c)).
			Msg("Quiz request failed")
	}
}
