package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/models"
	"github.com/noah-isme/lms-api/pkg/config"
	appErrors "github.com/noah-isme/lms-api/pkg/errors"
	"github.com/noah-isme/lms-api/pkg/response"
)

// ContextSessionKey is the gin context key storing the resolved session.
const ContextSessionKey = "currentSession"

const cookieTokenKey = "token"

type sessionResolver interface {
	CurrentSession(ctx context.Context, token string) (*models.Session, error)
}

// CookieJar keeps the session token in a signed gorilla/sessions cookie for browser clients.
type CookieJar struct {
	store  *sessions.CookieStore
	name   string
	logger *zap.Logger
}

// NewCookieJar builds a cookie jar keyed by the session secret.
func NewCookieJar(cfg config.SessionConfig, logger *zap.Logger) *CookieJar {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(cfg.Secret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	name := cfg.CookieName
	if name == "" {
		name = "lms-session"
	}
	return &CookieJar{store: store, name: name, logger: logger}
}

// Token returns the token carried by the cookie, or "" when absent or tampered with.
func (j *CookieJar) Token(r *http.Request) string {
	if j == nil {
		return ""
	}
	session, err := j.store.Get(r, j.name)
	if err != nil {
		var cookieErr securecookie.Error
		if errors.As(err, &cookieErr) && cookieErr.IsDecode() {
			j.logger.Debug("ignoring undecodable session cookie", zap.Error(err))
		}
		return ""
	}
	token, _ := session.Values[cookieTokenKey].(string)
	return token
}

// Save writes token into the cookie.
func (j *CookieJar) Save(w http.ResponseWriter, r *http.Request, token string) error {
	session, _ := j.store.Get(r, j.name)
	session.Values[cookieTokenKey] = token
	return session.Save(r, w)
}

// Clear expires the cookie.
func (j *CookieJar) Clear(w http.ResponseWriter, r *http.Request) error {
	session, _ := j.store.Get(r, j.name)
	delete(session.Values, cookieTokenKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// TokenFromRequest prefers a bearer token and falls back to the session cookie.
func TokenFromRequest(c *gin.Context, jar *CookieJar) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return jar.Token(c.Request)
}

// Session protects routes by requiring a live session.
func Session(resolver sessionResolver, jar *CookieJar) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c, jar)
		if token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			c.Abort()
			return
		}

		session, err := resolver.CurrentSession(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// OptionalSession attaches the session when one resolves but never blocks.
func OptionalSession(resolver sessionResolver, jar *CookieJar) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c, jar); token != "" {
			if session, err := resolver.CurrentSession(c.Request.Context(), token); err == nil {
				c.Set(ContextSessionKey, session)
			}
		}
		c.Next()
	}
}

// SessionFromContext returns the session stored by Session or OptionalSession.
func SessionFromContext(c *gin.Context) *models.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	session, _ := value.(*models.Session)
	return session
}
