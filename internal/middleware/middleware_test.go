package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/quizgen-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	revoked bool
}

func (f *fakeVerifier) ValidateToken(tokenStr string) (*service.Claims, error) {
	if !strings.HasPrefix(tokenStr, "good-") {
		return nil, errors.New("bad token")
	}
	return &service.Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:      "jti-1",
		Subject: strings.TrimPrefix(tokenStr, "good-"),
	}}, nil
}

func (f *fakeVerifier) ValidateSession(_ context.Context, _, _ string) error {
	if f.revoked {
		return service.ErrSessionInvalidated
	}
	return nil
}

func whoAmI(c *gin.Context) {
	c.String(http.StatusOK, GetUserID(c))
}

func TestResolveUser(t *testing.T) {
	verifier := &fakeVerifier{}
	store := NewSessionStore("test-session-secret-0123456789ab", false)

	r := gin.New()
	r.Use(ResolveUser(verifier, store))
	r.GET("/who", whoAmI)
	r.GET("/private", RequireUser(), whoAmI)
	r.POST("/login", func(c *gin.Context) {
		require.NoError(t, SaveSession(c, store, "good-cookie-user", time.Now().Add(time.Hour)))
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"anonymous", "", ""},
		{"bearer", "Bearer good-alice", "alice"},
		{"bad token", "Bearer nope", ""},
		{"wrong scheme", "Basic good-alice", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.want, w.Body.String())
		})
	}

	// Cookie session.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "cookie-user", w.Body.String())

	// Revoked sessions fall back to anonymous.
	verifier.revoked = true
	req = httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer good-alice")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Now()
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.Use(ResolveUser(&fakeVerifier{}, nil))
	r.POST("/quizzes", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(auth string) int {
		req := httptest.NewRequest(http.MethodPost, "/quizzes", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, send(""))
	assert.Equal(t, http.StatusCreated, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))

	// Signed-in users have their own bucket.
	assert.Equal(t, http.StatusCreated, send("Bearer good-alice"))

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusCreated, send(""))
}

func TestBrotli(t *testing.T) {
	big := strings.Repeat("quiz ", 1000)
	r := gin.New()
	r.Use(Brotli(DefaultBrotliMinLength))
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/big", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, big, string(body))

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/big", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, big, w.Body.String())
}
