package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/constants"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubAccounts struct {
	byID map[string]models.Account
	err  error
}

func newStubAccounts(accounts ...models.Account) *stubAccounts {
	s := &stubAccounts{byID: map[string]models.Account{}}
	for _, acc := range accounts {
		s.byID[acc.ID] = acc
	}
	return s
}

func (s *stubAccounts) FindByID(id string) (*models.Account, error) {
	if s.err != nil {
		return nil, s.err
	}
	acc, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &acc, nil
}

func newTestRouter(tokens *auth.TokenManager, revoker auth.Revoker, accounts AccountFinder) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(zap.NewNop()))

	whoami := func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, actor.AccountID)
	}
	authenticator := NewAuthenticator(tokens, revoker, accounts)
	r.GET("/private", authenticator.RequireAuth(), whoami)
	r.GET("/public", authenticator.OptionalAuth(), whoami)
	return r
}

func doRequest(r *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	revoker := auth.NewMemoryRevoker()
	acc := models.Account{ID: "acc-1", Kind: models.RoleUser, Email: "a@test.com"}
	r := newTestRouter(tokens, revoker, newStubAccounts(acc))

	tok, err := tokens.Issue(acc)
	require.NoError(t, err)

	w := doRequest(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)

	w = doRequest(r, "/private", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, "/private", "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "acc-1", w.Body.String())
	assert.NotEmpty(t, w.Header().Get(constants.HeaderRequestID))

	actor, err := tokens.Parse(tok)
	require.NoError(t, err)
	require.NoError(t, revoker.Revoke(context.Background(), actor.TokenID, actor.ExpiresAt))

	w = doRequest(r, "/private", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "revoked")
}

func TestRequireAuthRejectsMissingAccount(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	accounts := newStubAccounts(models.Account{ID: "acc-1", Kind: models.RoleOperatore, Email: "op@test.com"})
	r := newTestRouter(tokens, nil, accounts)

	tok, err := tokens.Issue(models.Account{ID: "acc-1", Kind: models.RoleOperatore, Email: "op@test.com"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, doRequest(r, "/private", "Bearer "+tok).Code)

	// same id, different kind
	accounts.byID["acc-1"] = models.Account{ID: "acc-1", Kind: models.RoleUser, Email: "op@test.com"}
	w := doRequest(r, "/private", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	delete(accounts.byID, "acc-1")
	w = doRequest(r, "/private", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Account no longer exists")

	w = doRequest(r, "/public", "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	accounts.err = errors.New("connection refused")
	w = doRequest(r, "/private", "Bearer "+tok)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	acc := models.Account{ID: "acc-2", Kind: models.RoleOperatore, Email: "op@test.com"}
	r := newTestRouter(tokens, nil, newStubAccounts(acc))

	w := doRequest(r, "/public", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = doRequest(r, "/public", "Bearer not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := tokens.Issue(acc)
	require.NoError(t, err)
	w = doRequest(r, "/public", "Bearer "+tok)
	assert.Equal(t, "acc-2", w.Body.String())
}

func TestRequestIDReusesInbound(t *testing.T) {
	r := newTestRouter(auth.NewTokenManager("secret", time.Hour), nil, newStubAccounts())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/public", nil)
	req.Header.Set(constants.HeaderRequestID, "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(constants.HeaderRequestID))
}
