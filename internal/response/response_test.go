package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   ErrCode
	}{
		{fmt.Errorf("start quiz: %w", model.ErrValidation), http.StatusBadRequest, ErrValidation},
		{fmt.Errorf("resume quiz q1: %w", model.ErrNotFound), http.StatusNotFound, ErrQuizNotFound},
		{fmt.Errorf("start quiz: %w", model.ErrGeneration), http.StatusBadGateway, ErrGenerationFailed},
		{fmt.Errorf("%w: save quiz: boom", model.ErrPersistence), http.StatusInternalServerError, ErrInternal},
		{errors.New("unexpected"), http.StatusInternalServerError, ErrInternal},
	}
	for _, tc := range cases {
		status, code := FromError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/", func(c *gin.Context) {
		FailFromError(c, model.ErrNotFound)
	})

	serve := func(header string) (*httptest.ResponseRecorder, Response) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set(HeaderRequestID, header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var body Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w, body
	}

	w, body := serve("trace-123")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "trace-123", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "trace-123", body.Metadata.RequestID)
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrQuizNotFound, body.Error.Code)
	assert.Nil(t, body.Data)

	w, body = serve(strings.Repeat("x", maxRequestIDLength+1))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
	assert.Equal(t, w.Header().Get(HeaderRequestID), body.Metadata.RequestID)

	w, _ = serve("has space")
	assert.NotEqual(t, "has space", w.Header().Get(HeaderRequestID))
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, &Pagination{Page: 2, PerPage: 10, TotalItems: 21, TotalPages: 3}, NewPagination(2, 10, 21))
	assert.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
}
