package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nlct/pass-auth/internal/domain/interfaces"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/service"
)

const sessionContextKey = "pass_auth_session"

// sessionState is what actually lives in the session blob. The auth
// snapshot is the only thing the auth layer stores; the rest of the portal
// keeps its own keys out of this struct.
type sessionState struct {
	Auth *models.AuthContext `json:"auth,omitempty"`
}

// Session is the per-request view of one persistent session. Handlers
// mutate it in memory; the manager writes it back once the handler chain
// finishes. It doubles as the SessionTerminator handed to the credential
// layer.
type Session struct {
	ID        string
	manager   *SessionManager
	state     sessionState
	destroyed bool
}

// Auth returns the stored auth snapshot, nil when nobody is logged in.
func (s *Session) Auth() *models.AuthContext { return s.state.Auth }

// SetAuth replaces the stored auth snapshot.
func (s *Session) SetAuth(auth *models.AuthContext) { s.state.Auth = auth }

// Terminate destroys the backing row immediately and stops the end-of-request
// write-back.
func (s *Session) Terminate(ctx context.Context) error {
	s.destroyed = true
	s.state = sessionState{}
	return s.manager.store.Destroy(ctx, s.ID)
}

var _ interfaces.SessionTerminator = (*Session)(nil)

// SessionCookieSettings carry the session cookie attributes.
type SessionCookieSettings struct {
	Name   string
	Domain string
	Secure bool
}

// SessionManager loads and saves sessions around each request.
type SessionManager struct {
	store       service.SessionStore
	tokens      service.TokenService
	cookie      SessionCookieSettings
	maxLifetime time.Duration
	logger      *zap.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(
	store service.SessionStore,
	tokens service.TokenService,
	cookie SessionCookieSettings,
	maxLifetime time.Duration,
	logger *zap.Logger,
) *SessionManager {
	return &SessionManager{
		store:       store,
		tokens:      tokens,
		cookie:      cookie,
		maxLifetime: maxLifetime,
		logger:      logger.Named("session_manager"),
	}
}

// Middleware attaches a Session to the request, creating a fresh ID when
// the browser carried none, and writes the state back afterwards. Storage
// errors abort the request; running without a working session would leave
// auth decisions unrecorded.
func (m *SessionManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		sessionID, isNew, err := m.resolveID(c)
		if err != nil {
			m.logger.Error("failed to issue session ID", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		sess := &Session{ID: sessionID, manager: m}
		blob, err := m.store.Read(ctx, sessionID)
		if err != nil {
			m.logger.Error("failed to read session", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if len(blob) > 0 {
			if err := json.Unmarshal(blob, &sess.state); err != nil {
				// Undecodable state is dropped; the user logs in again.
				m.logger.Warn("failed to decode session state", zap.Error(err))
				sess.state = sessionState{}
			}
		}

		if isNew {
			m.setCookie(c, sessionID)
		}
		c.Set(sessionContextKey, sess)
		c.Next()

		if sess.destroyed {
			m.clearCookie(c)
			return
		}
		m.save(ctx, sess)
	}
}

func (m *SessionManager) resolveID(c *gin.Context) (string, bool, error) {
	if cookie, err := c.Request.Cookie(m.cookie.Name); err == nil && cookie.Value != "" {
		return cookie.Value, false, nil
	}
	id, err := m.tokens.GenerateToken(32)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (m *SessionManager) save(ctx context.Context, sess *Session) {
	blob, err := json.Marshal(sess.state)
	if err != nil {
		m.logger.Error("failed to encode session state", zap.Error(err))
		return
	}
	var userID *uuid.UUID
	if sess.state.Auth != nil {
		userID = &sess.state.Auth.UserID
	}
	if err := m.store.Write(ctx, sess.ID, blob, userID); err != nil {
		m.logger.Error("failed to write session", zap.Error(err))
	}
}

func (m *SessionManager) setCookie(c *gin.Context, sessionID string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    sessionID,
		Path:     "/",
		Domain:   m.cookie.Domain,
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (m *SessionManager) clearCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     "/",
		Domain:   m.cookie.Domain,
		MaxAge:   -1,
		Secure:   m.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// CurrentSession pulls the Session attached by Middleware.
func CurrentSession(c *gin.Context) *Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*Session)
	return sess
}
