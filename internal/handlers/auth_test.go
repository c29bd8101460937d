package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/database"
	"github.com/yukikurage/civic-proposals-api/internal/dto"
	"github.com/yukikurage/civic-proposals-api/internal/middleware"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"github.com/yukikurage/civic-proposals-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Password123!"

type fakeGoogle struct {
	identity *auth.GoogleIdentity
}

func (f *fakeGoogle) Verify(_ context.Context, token string) (*auth.GoogleIdentity, error) {
	if token != "valid-token" {
		return nil, errors.New("token rejected")
	}
	return f.identity, nil
}

type handlerTestEnv struct {
	db             *gorm.DB
	tokens         *auth.TokenManager
	revoker        *auth.MemoryRevoker
	accountService *services.AccountService
	authService    *services.AuthService
	requireAuth    gin.HandlerFunc
}

func setupHandlerTestEnv(t *testing.T, google auth.GoogleVerifier) handlerTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	accounts := repository.NewAccountRepository(db)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	revoker := auth.NewMemoryRevoker()
	policy := security.NewPasswordPolicy(true)

	return handlerTestEnv{
		db:             db,
		tokens:         tokens,
		revoker:        revoker,
		accountService: services.NewAccountService(accounts, policy, revoker, zap.NewNop()),
		authService:    services.NewAuthService(accounts, tokens, revoker, google, zap.NewNop()),
		requireAuth:    middleware.NewAuthenticator(tokens, revoker, accounts).RequireAuth(),
	}
}

func (env handlerTestEnv) registerUser(t *testing.T, email string) {
	t.Helper()
	_, _, err := env.accountService.Register(services.RegisterInput{
		Nome:          "Mario",
		Cognome:       "Rossi",
		CodiceFiscale: "RSSMRA85C03H501U",
		Email:         email,
		Password:      testPassword,
	})
	require.NoError(t, err)
}

func (env handlerTestEnv) tokenFor(t *testing.T, email string) string {
	t.Helper()
	result, err := env.authService.Login(email, testPassword)
	require.NoError(t, err)
	return result.Token
}

func postJSON(r *gin.Engine, path, token string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) string {
	t.Helper()
	var body struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	if out != nil {
		require.NoError(t, json.Unmarshal(body.Data, out))
	}
	return body.Message
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	env.registerUser(t, "a@test.com")

	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(env.authService).Login)

	w := postJSON(r, "/auth/login", "", map[string]string{
		"email":    "A@test.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.LoginResponse
	require.Equal(t, "Login successful", decodeData(t, w, &response))
	require.NotEmpty(t, response.Token)
	require.Equal(t, "a@test.com", response.User.Email)
	require.Equal(t, "user", string(response.UserType))

	actor, err := env.tokens.Parse(response.Token)
	require.NoError(t, err)
	require.Equal(t, response.User.ID, actor.AccountID)
}

func TestAuthHandler_LoginRejectsBadInput(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	env.registerUser(t, "a@test.com")

	r := gin.New()
	r.POST("/auth/login", NewAuthHandler(env.authService).Login)

	w := postJSON(r, "/auth/login", "", map[string]string{"email": "a@test.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/auth/login", "", map[string]string{"email": "a@test.com", "password": "Wrong!Pass1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Google(t *testing.T) {
	google := &fakeGoogle{identity: &auth.GoogleIdentity{Subject: "sub-1", Email: "g@test.com", GivenName: "Giulia", FamilyName: "Verdi"}}
	env := setupHandlerTestEnv(t, google)

	r := gin.New()
	r.POST("/auth/google", NewAuthHandler(env.authService).Google)

	w := postJSON(r, "/auth/google", "", map[string]string{"idToken": "valid-token"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created dto.LoginResponse
	decodeData(t, w, &created)
	require.Equal(t, "Giulia", created.User.Nome)
	require.Equal(t, "Verdi", created.User.Cognome)
	require.True(t, created.User.HasOAuth)

	w = postJSON(r, "/auth/google", "", map[string]string{"idToken": "valid-token"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/auth/google", "", map[string]string{"idToken": "nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/auth/google", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_GoogleLinksExistingAccount(t *testing.T) {
	google := &fakeGoogle{identity: &auth.GoogleIdentity{Subject: "sub-2", Email: "a@test.com"}}
	env := setupHandlerTestEnv(t, google)
	env.registerUser(t, "a@test.com")

	r := gin.New()
	r.POST("/auth/google", NewAuthHandler(env.authService).Google)

	w := postJSON(r, "/auth/google", "", map[string]string{"idToken": "valid-token"})
	require.Equal(t, http.StatusOK, w.Code)
	var response dto.LoginResponse
	decodeData(t, w, &response)
	require.True(t, response.User.HasOAuth)
	require.True(t, response.User.HasPassword)
}

func TestAuthHandler_GoogleNotConfigured(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)

	r := gin.New()
	r.POST("/auth/google", NewAuthHandler(env.authService).Google)

	w := postJSON(r, "/auth/google", "", map[string]string{"idToken": "valid-token"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	env := setupHandlerTestEnv(t, nil)
	env.registerUser(t, "a@test.com")
	token := env.tokenFor(t, "a@test.com")

	r := gin.New()
	r.POST("/auth/logout", env.requireAuth, NewAuthHandler(env.authService).Logout)

	w := postJSON(r, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(r, "/auth/logout", token, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/auth/logout", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
