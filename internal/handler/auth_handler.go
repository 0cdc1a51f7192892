package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizgen-backend/internal/middleware"
	"github.com/stemsi/quizgen-backend/internal/model"
	"github.com/stemsi/quizgen-backend/internal/repository"
	"github.com/stemsi/quizgen-backend/internal/response"
	"github.com/stemsi/quizgen-backend/internal/service"
	"github.com/stemsi/quizgen-backend/internal/validator"
)

// AuthHandler handles account endpoints.
type AuthHandler struct {
	authService *service.AuthService
	store       sessions.Store
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, store sessions.Store, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// SignUp godoc
// POST /api/v1/auth/sign-up
// Creates an account. The caller signs in separately.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req model.SignUpRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.authService.SignUp(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
			return
		}
		h.log.Error().Err(err).Msg("Sign up failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// SignIn godoc
// POST /api/v1/auth/sign-in
// Validates email + password, returns a JWT and sets the session cookie.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req model.SignInRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.authService.SignIn(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().Err(err).Msg("Sign in failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := middleware.SaveSession(c, h.store, result.Token, result.ExpiresAt); err != nil {
		h.log.Warn().Err(err).Str("user_id", result.User.ID).Msg("Failed to set session cookie")
	}

	response.Success(c, http.StatusOK, result)
}

// SignOut godoc
// POST /api/v1/auth/sign-out
// Revokes the current token and clears the session cookie.
func (h *AuthHandler) SignOut(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.SignOut(c.Request.Context(), claims.UserID(), claims.ID); err != nil {
		h.log.Error().Err(err).Str("user_id", claims.UserID()).Msg("Sign out failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	_ = middleware.ClearSession(c, h.store)

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the signed-in user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.authService.Me(c.Request.Context(), claims.UserID())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}
