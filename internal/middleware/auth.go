package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/stemsi/quizgen-backend/internal/response"
	"github.com/stemsi/quizgen-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"

	// SessionName is the browser session cookie name.
	SessionName = "quizgen_session"

	sessionKeyToken = "token"
)

// TokenVerifier is the part of the auth service the middleware needs.
type TokenVerifier interface {
	ValidateToken(tokenStr string) (*service.Claims, error)
	ValidateSession(ctx context.Context, userID, jti string) error
}

// NewSessionStore builds the signed cookie store for browser sessions.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// ResolveUser attaches claims for a valid bearer token or session cookie.
// Requests without valid credentials continue anonymously.
func ResolveUser(verifier TokenVerifier, store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" && store != nil {
			if sess, err := store.Get(c.Request, SessionName); err == nil {
				tokenStr, _ = sess.Values[sessionKeyToken].(string)
			}
		}
		if tokenStr == "" {
			c.Next()
			return
		}

		claims, err := verifier.ValidateToken(tokenStr)
		if err != nil {
			c.Next()
			return
		}
		if err := verifier.ValidateSession(c.Request.Context(), claims.UserID(), claims.ID); err != nil {
			c.Next()
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireUser rejects anonymous requests. It must run after ResolveUser.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetClaims(c) == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetUserID returns the signed-in user's id, or "" for anonymous callers.
func GetUserID(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID()
	}
	return ""
}

// SaveSession stores the token in the session cookie until expiresAt.
func SaveSession(c *gin.Context, store sessions.Store, token string, expiresAt time.Time) error {
	sess, err := store.Get(c.Request, SessionName)
	if err != nil && sess == nil {
		return err
	}
	sess.Values[sessionKeyToken] = token
	sess.Options.MaxAge = int(time.Until(expiresAt).Seconds())
	return sess.Save(c.Request, c.Writer)
}

// ClearSession expires the session cookie.
func ClearSession(c *gin.Context, store sessions.Store) error {
	sess, err := store.Get(c.Request, SessionName)
	if err != nil && sess == nil {
		return err
	}
	delete(sess.Values, sessionKeyToken)
	sess.Options.MaxAge = -1
	return sess.Save(c.Request, c.Writer)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
