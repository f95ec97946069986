package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/nlct/pass-auth/internal/domain/errors"
	"github.com/nlct/pass-auth/internal/domain/interfaces"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/domain/service"
	"github.com/nlct/pass-auth/internal/infrastructure/web"
)

// memSessionStore keeps sessions in a map so handler tests run without a
// database.
type memSessionStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{data: make(map[string][]byte)}
}

func (s *memSessionStore) Open(ctx context.Context) error  { return nil }
func (s *memSessionStore) Close(ctx context.Context) error { return nil }
func (s *memSessionStore) Read(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[sessionID], nil
}
func (s *memSessionStore) Write(ctx context.Context, sessionID string, data []byte, userID *uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = data
	return nil
}
func (s *memSessionStore) Destroy(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}
func (s *memSessionStore) GC(ctx context.Context, maxLifetime time.Duration) (int64, error) {
	return 0, nil
}

var _ service.SessionStore = (*memSessionStore)(nil)

// MockCredentialService is a mock implementation of service.CredentialService.
type MockCredentialService struct {
	mock.Mock
}

func (m *MockCredentialService) VerifyCredentials(ctx context.Context, identifier, password string, opts service.VerifyOptions) (*models.AuthContext, error) {
	args := m.Called(ctx, identifier, password, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthContext), args.Error(1)
}
func (m *MockCredentialService) VerifyTOTP(ctx context.Context, auth *models.AuthContext, code string, trust bool, device models.DeviceFingerprint, jar interfaces.TrustCookieJar, term interfaces.SessionTerminator) (*models.AuthContext, error) {
	args := m.Called(ctx, auth, code, trust, device, jar, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthContext), args.Error(1)
}
func (m *MockCredentialService) VerifyRecoveryCode(ctx context.Context, auth *models.AuthContext, selector, verifier string, term interfaces.SessionTerminator) (*models.AuthContext, error) {
	args := m.Called(ctx, auth, selector, verifier, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthContext), args.Error(1)
}

var _ service.CredentialService = (*MockCredentialService)(nil)

type authTestEnv struct {
	router      *gin.Engine
	store       *memSessionStore
	credentials *MockCredentialService
}

func newAuthTestEnv() *authTestEnv {
	gin.SetMode(gin.TestMode)

	env := &authTestEnv{
		store:       newMemSessionStore(),
		credentials: new(MockCredentialService),
	}

	sessions := NewSessionManager(env.store, service.NewTokenService(),
		SessionCookieSettings{Name: "pass_sid"}, 24*time.Hour, zap.NewNop())
	handler := NewAuthHandler(env.credentials, web.CookieSettings{Name: "pass_trust"}, zap.NewNop())

	r := gin.New()
	group := r.Group("/api/v1", sessions.Middleware())
	group.POST("/auth/login", handler.Login)
	group.POST("/auth/totp", handler.VerifyTOTP)
	group.POST("/auth/recovery", handler.VerifyRecoveryCode)
	group.POST("/auth/logout", handler.Logout)
	env.router = r
	return env
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "pass_sid" {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestAuthHandler_Login_Success(t *testing.T) {
	env := newAuthTestEnv()

	auth := &models.AuthContext{
		UserID:   uuid.New(),
		Username: "astudent",
		Role:     models.RoleStudent,
	}
	env.credentials.On("VerifyCredentials", mock.Anything, "astudent", "secret", mock.Anything).
		Return(auth, nil)

	w := postJSON(t, env.router, "/api/v1/auth/login",
		gin.H{"username": "astudent", "password": "secret"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "astudent", resp.Username)
	assert.Equal(t, "student", resp.Role)
	assert.False(t, resp.RequiresVerification)

	// The auth snapshot must have been persisted against the session.
	cookie := sessionCookie(t, w)
	blob, err := env.store.Read(context.Background(), cookie.Value)
	require.NoError(t, err)
	var state sessionState
	require.NoError(t, json.Unmarshal(blob, &state))
	require.NotNil(t, state.Auth)
	assert.Equal(t, auth.UserID, state.Auth.UserID)
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	env := newAuthTestEnv()

	env.credentials.On("VerifyCredentials", mock.Anything, "astudent", "wrong", mock.Anything).
		Return(nil, domainErrors.ErrInvalidCredentials)

	w := postJSON(t, env.router, "/api/v1/auth/login",
		gin.H{"username": "astudent", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Login_BlockedAccount(t *testing.T) {
	env := newAuthTestEnv()

	env.credentials.On("VerifyCredentials", mock.Anything, "astudent", "secret", mock.Anything).
		Return(nil, domainErrors.ErrAccountBlocked)

	w := postJSON(t, env.router, "/api/v1/auth/login",
		gin.H{"username": "astudent", "password": "secret"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	env := newAuthTestEnv()

	w := postJSON(t, env.router, "/api/v1/auth/login", gin.H{"username": "astudent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.credentials.AssertNotCalled(t, "VerifyCredentials",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_VerifyTOTP_WrongCode(t *testing.T) {
	env := newAuthTestEnv()

	env.credentials.On("VerifyTOTP", mock.Anything, mock.Anything, "000000", false,
		mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domainErrors.ErrInvalidCode)

	w := postJSON(t, env.router, "/api/v1/auth/totp", gin.H{"code": "000000"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_VerifyRecoveryCode_MalformedShortCircuits(t *testing.T) {
	env := newAuthTestEnv()

	w := postJSON(t, env.router, "/api/v1/auth/recovery", gin.H{"code": "not a code"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	env.credentials.AssertNotCalled(t, "VerifyRecoveryCode",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthHandler_VerifyRecoveryCode_Success(t *testing.T) {
	env := newAuthTestEnv()

	auth := &models.AuthContext{UserID: uuid.New(), Username: "astudent", Role: models.RoleStudent}
	env.credentials.On("VerifyRecoveryCode", mock.Anything, mock.Anything, "a1b2c3", "d4e5f6", mock.Anything).
		Return(auth, nil)

	w := postJSON(t, env.router, "/api/v1/auth/recovery", gin.H{"code": "a1b2c3-d4e5f6"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	env := newAuthTestEnv()

	auth := &models.AuthContext{UserID: uuid.New(), Username: "astudent", Role: models.RoleStudent}
	env.credentials.On("VerifyCredentials", mock.Anything, "astudent", "secret", mock.Anything).
		Return(auth, nil)

	login := postJSON(t, env.router, "/api/v1/auth/login",
		gin.H{"username": "astudent", "password": "secret"})
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login)

	logout := postJSON(t, env.router, "/api/v1/auth/logout", gin.H{}, cookie)
	require.Equal(t, http.StatusOK, logout.Code)

	// The backing row is gone and the cookie is expired.
	blob, err := env.store.Read(context.Background(), cookie.Value)
	require.NoError(t, err)
	assert.Empty(t, blob)
	for _, c := range logout.Result().Cookies() {
		if c.Name == "pass_sid" {
			assert.Equal(t, -1, c.MaxAge)
		}
	}
}

func TestSessionMiddleware_PersistsAcrossRequests(t *testing.T) {
	env := newAuthTestEnv()

	auth := &models.AuthContext{UserID: uuid.New(), Username: "astudent", Role: models.RoleStudent, RequiresVerification: true}
	env.credentials.On("VerifyCredentials", mock.Anything, "astudent", "secret", mock.Anything).
		Return(auth, nil)

	login := postJSON(t, env.router, "/api/v1/auth/login",
		gin.H{"username": "astudent", "password": "secret"})
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookie(t, login)

	// The follow-up TOTP call sees the stored snapshot.
	cleared := auth.WithVerificationCleared()
	env.credentials.On("VerifyTOTP", mock.Anything,
		mock.MatchedBy(func(a *models.AuthContext) bool {
			return a != nil && a.UserID == auth.UserID && a.RequiresVerification
		}),
		"123456", false, mock.Anything, mock.Anything, mock.Anything).
		Return(cleared, nil)

	totp := postJSON(t, env.router, "/api/v1/auth/totp", gin.H{"code": "123456"}, cookie)
	require.Equal(t, http.StatusOK, totp.Code)

	var resp authResponse
	require.NoError(t, json.Unmarshal(totp.Body.Bytes(), &resp))
	assert.False(t, resp.RequiresVerification)
}
