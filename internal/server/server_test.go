package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/config"
	"github.com/yukikurage/civic-proposals-api/internal/database"
	"github.com/yukikurage/civic-proposals-api/internal/dto"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Password123!"

var dbSeq atomic.Int64

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code    string          `json:"code"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type stubGoogle struct {
	identities map[string]*auth.GoogleIdentity
}

func (s *stubGoogle) Verify(_ context.Context, token string) (*auth.GoogleIdentity, error) {
	if id, ok := s.identities[token]; ok {
		return id, nil
	}
	return nil, errors.New("bad token")
}

// APITestSuite drives the full router against a shared-cache in-memory SQLite database
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	svc    *Services
	router *gin.Engine
	google *stubGoogle
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(database.AutoMigrate(db))
	s.db = db

	cfg := &config.Config{
		JWTSecret:               "test-secret",
		JWTTTL:                  time.Hour,
		SecurityControlsEnabled: true,
		CORSOrigins:             []string{"http://localhost:3000"},
		GinMode:                 gin.TestMode,
	}
	s.google = &stubGoogle{identities: map[string]*auth.GoogleIdentity{}}
	deps := Dependencies{
		DB:      db,
		Log:     zap.NewNop(),
		Revoker: auth.NewMemoryRevoker(),
		Google:  s.google,
	}
	s.svc = NewServices(cfg, deps)
	s.router = New(cfg, deps, s.svc)
}

func (s *APITestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *APITestSuite) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
		s.NotEmpty(env.Message, "%s %s answered without a message", method, path)
	}
	return w, env
}

func (s *APITestSuite) decode(env envelope, out interface{}) {
	s.Require().NoError(json.Unmarshal(env.Data, out))
}

func (s *APITestSuite) registerUser(email string) string {
	w, env := s.do(http.MethodPost, "/user", "", gin.H{
		"nome":          "Mario",
		"cognome":       "Rossi",
		"codiceFiscale": "RSSMRA85C03H501U",
		"email":         email,
		"password":      testPassword,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var res dto.RegisterResponse
	s.decode(env, &res)
	return res.User.ID
}

func (s *APITestSuite) login(email, password string) (string, string) {
	w, env := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var res dto.LoginResponse
	s.decode(env, &res)
	s.Require().NotEmpty(res.Token)
	return res.Token, res.User.ID
}

func (s *APITestSuite) userToken(email string) (string, string) {
	s.registerUser(email)
	return s.login(email, testPassword)
}

func (s *APITestSuite) adminToken() string {
	created, err := s.svc.Accounts.BootstrapAdmin("admin@test.com", testPassword)
	s.Require().NoError(err)
	s.Require().True(created)
	token, _ := s.login("admin@test.com", testPassword)
	return token
}

func (s *APITestSuite) operatorToken() (string, string) {
	admin := s.adminToken()
	w, _ := s.do(http.MethodPost, "/operatori", admin, gin.H{
		"nome":     "Operatore",
		"email":    "op@test.com",
		"password": testPassword,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return s.login("op@test.com", testPassword)
}

func (s *APITestSuite) createProposal(token, title string) dto.ProposalDTO {
	w, env := s.do(http.MethodPost, "/proposte", token, gin.H{
		"titolo":      title,
		"descrizione": "desc",
		"categoria":   "Test",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var p dto.ProposalDTO
	s.decode(env, &p)
	return p
}

func (s *APITestSuite) catalog() dto.ProposalListResponse {
	w, env := s.do(http.MethodGet, "/proposte", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list dto.ProposalListResponse
	s.decode(env, &list)
	return list
}

func (s *APITestSuite) catalogIDs() []string {
	var ids []string
	for _, p := range s.catalog().Proposte {
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *APITestSuite) TestHealth() {
	w, _ := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *APITestSuite) TestRegisterLoginAndModerationScenario() {
	userID := s.registerUser("a@test.com")
	token, loggedID := s.login("a@test.com", testPassword)
	s.Equal(userID, loggedID)

	p := s.createProposal(token, "Test")
	s.Equal("in_approvazione", string(p.Stato.Stato))
	s.Equal("Nessun commento", p.Stato.Commento)
	s.NotContains(s.catalogIDs(), p.ID)

	opToken, _ := s.operatorToken()
	w, env := s.do(http.MethodPatch, "/proposte/"+p.ID+"/stato", opToken, gin.H{"stato": "approvata", "commento": "ok"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.ProposalDTO
	s.decode(env, &updated)
	s.Equal("approvata", string(updated.Stato.Stato))
	s.Equal("ok", updated.Stato.Commento)

	s.Contains(s.catalogIDs(), p.ID)
}

func (s *APITestSuite) TestEmailUniqueAcrossKinds() {
	s.registerUser("dup@test.com")

	w, env := s.do(http.MethodPost, "/user", "", gin.H{
		"tipo":          "ente",
		"nome":          "Comune",
		"codiceFiscale": "00000000000",
		"email":         "DUP@test.com",
		"password":      testPassword,
	})
	s.Equal(http.StatusConflict, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("CONFLICT", env.Error.Code)

	admin := s.adminToken()
	w, _ = s.do(http.MethodPost, "/operatori", admin, gin.H{"nome": "Op", "email": "dup@test.com", "password": testPassword})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *APITestSuite) TestRegisterRejectsWeakPassword() {
	w, env := s.do(http.MethodPost, "/user", "", gin.H{
		"nome":          "Mario",
		"cognome":       "Rossi",
		"codiceFiscale": "RSSMRA85C03H501U",
		"email":         "weak@test.com",
		"password":      "short",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("VALIDATION_ERROR", env.Error.Code)
	s.NotEmpty(env.Error.Details)
}

func (s *APITestSuite) TestLoginFailuresAreIndistinguishable() {
	s.registerUser("known@test.com")

	w1, env1 := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "known@test.com", "password": "Wrong123!!"})
	w2, env2 := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "nobody@test.com", "password": "Wrong123!!"})
	s.Equal(http.StatusUnauthorized, w1.Code)
	s.Equal(http.StatusUnauthorized, w2.Code)
	s.Equal(env1.Message, env2.Message)
}

func (s *APITestSuite) TestLogoutRevokesToken() {
	token, _ := s.userToken("bye@test.com")

	w, _ := s.do(http.MethodPost, "/auth/logout", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/user/me", token, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestGoogleLoginCreatesThenLinks() {
	s.google.identities["tok"] = &auth.GoogleIdentity{Subject: "g-1", Email: "g@test.com", GivenName: "Giulia"}

	w, env := s.do(http.MethodPost, "/auth/google", "", gin.H{"idToken": "tok"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var first dto.LoginResponse
	s.decode(env, &first)
	s.True(first.User.HasOAuth)
	s.False(first.User.HasPassword)

	w, env = s.do(http.MethodPost, "/auth/google", "", gin.H{"idToken": "tok"})
	s.Require().Equal(http.StatusOK, w.Code)
	var second dto.LoginResponse
	s.decode(env, &second)
	s.Equal(first.User.ID, second.User.ID)

	w, _ = s.do(http.MethodPost, "/auth/google", "", gin.H{"idToken": "forged"})
	s.Equal(http.StatusUnauthorized, w.Code)

	// no local password, so the password path stays closed
	w, _ = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "g@test.com", "password": testPassword})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestStatusCommentNeverEmpty() {
	token, _ := s.userToken("owner@test.com")
	p := s.createProposal(token, "Pista ciclabile")
	opToken, _ := s.operatorToken()

	w, env := s.do(http.MethodPatch, "/proposte/"+p.ID+"/stato", opToken, gin.H{"stato": "rifiutata", "commento": "   "})
	s.Require().Equal(http.StatusOK, w.Code)
	var updated dto.ProposalDTO
	s.decode(env, &updated)
	s.Equal("rifiutata", string(updated.Stato.Stato))
	s.Equal("Nessun commento", updated.Stato.Commento)

	w, _ = s.do(http.MethodPatch, "/proposte/"+p.ID+"/stato", opToken, gin.H{"stato": "vincitrice"})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/proposte/"+p.ID+"/stato", token, gin.H{"stato": "approvata"})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *APITestSuite) TestHyperToggleIsAnInvolution() {
	token, userID := s.userToken("hyper@test.com")
	p := s.createProposal(token, "Parco")

	w, env := s.do(http.MethodPatch, "/proposte/"+p.ID+"/hyper", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var first dto.HyperDTO
	s.decode(env, &first)
	s.True(first.Hyped)
	s.Equal([]string{userID}, first.Hyper)

	w, env = s.do(http.MethodPatch, "/proposte/"+p.ID+"/hyper", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var second dto.HyperDTO
	s.decode(env, &second)
	s.False(second.Hyped)
	s.Empty(second.Hyper)
	s.Equal(0, second.HyperCount)

	w, _ = s.do(http.MethodPatch, "/proposte/"+p.ID+"/hyper", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestConcurrentHypersBothPersist() {
	tokenA, idA := s.userToken("ha@test.com")
	tokenB, idB := s.userToken("hb@test.com")
	p := s.createProposal(tokenA, "Biblioteca")

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i, token := range []string{tokenA, tokenB} {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPatch, "/proposte/"+p.ID+"/hyper", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i, token)
	}
	wg.Wait()

	s.Equal([]int{http.StatusOK, http.StatusOK}, codes)

	w, env := s.do(http.MethodGet, "/proposte/"+p.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var got dto.ProposalDTO
	s.decode(env, &got)
	s.ElementsMatch([]string{idA, idB}, got.Hyper)
	s.Equal(2, got.HyperCount)
}

func (s *APITestSuite) TestCatalogAndSearchOnlyShowApproved() {
	token, _ := s.userToken("cat@test.com")
	pending := s.createProposal(token, "Fontana")
	rejected := s.createProposal(token, "Fontana rifiutata")
	approved := s.createProposal(token, "Fontana approvata")

	opToken, _ := s.operatorToken()
	s.do(http.MethodPatch, "/proposte/"+rejected.ID+"/stato", opToken, gin.H{"stato": "rifiutata"})
	s.do(http.MethodPatch, "/proposte/"+approved.ID+"/stato", opToken, gin.H{"stato": "approvata"})

	s.Equal([]string{approved.ID}, s.catalogIDs())

	for _, path := range []string{
		"/proposte/search?q=fontana",
		"/proposte/search?stato=in_approvazione",
		"/proposte/search?stato=rifiutata&q=Fontana",
	} {
		w, env := s.do(http.MethodGet, path, "", nil)
		s.Require().Equal(http.StatusOK, w.Code, path)
		var list dto.ProposalListResponse
		s.decode(env, &list)
		for _, p := range list.Proposte {
			s.Equal("approvata", string(p.Stato.Stato), path)
			s.NotEqual(pending.ID, p.ID)
		}
	}

	w, env := s.do(http.MethodGet, "/proposte/search?stato=vincitrice&q=fontana", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var ignored dto.ProposalListResponse
	s.decode(env, &ignored)
	s.Require().Len(ignored.Proposte, 1)
	s.Equal(approved.ID, ignored.Proposte[0].ID)

	w, env = s.do(http.MethodGet, "/proposte/mine", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var mine dto.ProposalListResponse
	s.decode(env, &mine)
	s.Equal(int64(3), mine.Pagination.Total)

	w, env = s.do(http.MethodGet, "/proposte/pending", opToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var queue dto.ProposalListResponse
	s.decode(env, &queue)
	s.Require().Len(queue.Proposte, 1)
	s.Equal(pending.ID, queue.Proposte[0].ID)

	w, _ = s.do(http.MethodGet, "/proposte/pending", token, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *APITestSuite) TestDeleteProposalPermissions() {
	owner, _ := s.userToken("own@test.com")
	other, _ := s.userToken("other@test.com")
	opToken, _ := s.operatorToken()

	p1 := s.createProposal(owner, "Uno")
	p2 := s.createProposal(owner, "Due")

	w, _ := s.do(http.MethodDelete, "/proposte/"+p1.ID, "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w, env := s.do(http.MethodDelete, "/proposte/"+p1.ID, other, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Require().NotNil(env.Error)
	s.Equal("FORBIDDEN", env.Error.Code)

	w, _ = s.do(http.MethodDelete, "/proposte/"+p1.ID, owner, nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodDelete, "/proposte/"+p2.ID, opToken, nil)
	s.Equal(http.StatusOK, w.Code)

	// absent resources yield 404 before 403
	w, _ = s.do(http.MethodDelete, "/proposte/"+p2.ID, other, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestOperatorsCannotComment() {
	token, _ := s.userToken("c@test.com")
	p := s.createProposal(token, "Piazza")
	opToken, _ := s.operatorToken()

	w, _ := s.do(http.MethodPost, "/proposte/"+p.ID+"/commenti", opToken, gin.H{"testo": "ciao"})
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPost, "/proposte/"+p.ID+"/commenti", token, gin.H{"testo": "ciao"})
	s.Equal(http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPost, "/proposte/"+p.ID+"/commenti", token, gin.H{"testo": ""})
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestRepliesAndCommentDeletion() {
	author, _ := s.userToken("author@test.com")
	other, _ := s.userToken("reader@test.com")
	p := s.createProposal(author, "Scuola")

	w, env := s.do(http.MethodPost, "/proposte/"+p.ID+"/commenti", author, gin.H{"testo": "primo"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var root dto.CommentDTO
	s.decode(env, &root)

	w, env = s.do(http.MethodPost, "/proposte/"+p.ID+"/commenti", other, gin.H{"testo": "risposta", "replyTo": root.ID})
	s.Require().Equal(http.StatusCreated, w.Code)
	var reply dto.CommentDTO
	s.decode(env, &reply)
	s.True(reply.IsReply)
	s.Require().NotNil(reply.ReplyTo)
	s.Equal(root.ID, *reply.ReplyTo)

	w, _ = s.do(http.MethodDelete, "/proposte/"+p.ID+"/commenti/"+root.ID, other, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodDelete, "/proposte/"+p.ID+"/commenti/"+root.ID, author, nil)
	s.Equal(http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/proposte/"+p.ID+"/commenti", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var comments []dto.CommentDTO
	s.decode(env, &comments)
	s.Require().Len(comments, 1)
	s.Equal(reply.ID, comments[0].ID)
}

func (s *APITestSuite) TestDeletingProposalDeletesComments() {
	token, _ := s.userToken("casc@test.com")
	p := s.createProposal(token, "Teatro")
	for _, testo := range []string{"uno", "due"} {
		w, _ := s.do(http.MethodPost, "/proposte/"+p.ID+"/commenti", token, gin.H{"testo": testo})
		s.Require().Equal(http.StatusCreated, w.Code)
	}

	w, _ := s.do(http.MethodDelete, "/proposte/"+p.ID, token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	count, err := repository.NewCommentRepository(s.db).CountByProposal(p.ID)
	s.Require().NoError(err)
	s.Zero(count)

	w, _ = s.do(http.MethodGet, "/proposte/"+p.ID+"/commenti", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) TestFollowRules() {
	tokenA, idA := s.userToken("fa@test.com")
	_, idB := s.userToken("fb@test.com")

	w, _ := s.do(http.MethodPost, "/follow/"+idA, tokenA, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPost, "/follow/"+idB, tokenA, nil)
	s.Require().Equal(http.StatusCreated, w.Code)

	w, _ = s.do(http.MethodPost, "/follow/"+idB, tokenA, nil)
	s.Equal(http.StatusConflict, w.Code)

	w, env := s.do(http.MethodGet, "/follow/status/"+idB, tokenA, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var status dto.FollowStatusDTO
	s.decode(env, &status)
	s.True(status.IsFollowing)

	s.Equal(int64(1), s.publicProfile(idB).FollowersCount)
	s.Equal(int64(1), s.publicProfile(idA).FollowingCount)

	w, env = s.do(http.MethodGet, "/follow/followers/"+idB, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var followers []dto.AccountPublicDTO
	s.decode(env, &followers)
	s.Require().Len(followers, 1)
	s.Equal(idA, followers[0].ID)

	w, _ = s.do(http.MethodDelete, "/follow/unfollow/"+idB, tokenA, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(int64(0), s.publicProfile(idB).FollowersCount)
	s.Equal(int64(0), s.publicProfile(idA).FollowingCount)

	w, _ = s.do(http.MethodDelete, "/follow/unfollow/"+idB, tokenA, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodPost, "/follow/does-not-exist", tokenA, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APITestSuite) publicProfile(id string) dto.AccountPublicDTO {
	w, env := s.do(http.MethodGet, "/user/"+id, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var acc dto.AccountPublicDTO
	s.decode(env, &acc)
	return acc
}

func (s *APITestSuite) TestProfileVisibility() {
	token, id := s.userToken("priv@test.com")

	w, env := s.do(http.MethodGet, "/user/"+id, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var public map[string]interface{}
	s.decode(env, &public)
	s.NotContains(public, "email")
	s.NotContains(public, "codiceFiscale")

	w, env = s.do(http.MethodGet, "/user/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var me dto.AccountDTO
	s.decode(env, &me)
	s.Equal("priv@test.com", me.Email)

	opToken, _ := s.operatorToken()
	w, env = s.do(http.MethodGet, "/user/"+id, opToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var full map[string]interface{}
	s.decode(env, &full)
	s.Equal("priv@test.com", full["email"])

	w, _ = s.do(http.MethodGet, "/user", token, nil)
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/user?tipo=user", opToken, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestProfileAndPasswordUpdate() {
	token, _ := s.userToken("upd@test.com")

	w, env := s.do(http.MethodPatch, "/user/profile", token, gin.H{"bio": "<b>Ciao</b> a tutti"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var acc dto.AccountDTO
	s.decode(env, &acc)
	s.Equal("Ciao a tutti", acc.Bio)
	s.Equal("Mario", acc.Nome)

	w, _ = s.do(http.MethodPatch, "/user/password", token, gin.H{"password": "abc"})
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(http.MethodPatch, "/user/password", token, gin.H{"password": "N3w!Password99"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.login("upd@test.com", "N3w!Password99")
}

func (s *APITestSuite) TestDeleteAccountCascades() {
	token, id := s.userToken("gone@test.com")
	p := s.createProposal(token, "Addio")

	w, _ := s.do(http.MethodDelete, "/user/me", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/proposte/"+p.ID, "", nil)
	s.Equal(http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodGet, "/user/"+id, "", nil)
	s.Equal(http.StatusNotFound, w.Code)

	// the email is free again
	s.registerUser("gone@test.com")
}

func (s *APITestSuite) TestTokensDieWithTheirAccount() {
	ownerToken, _ := s.userToken("owner@test.com")
	p := s.createProposal(ownerToken, "Piazza")

	admin := s.adminToken()
	w, env := s.do(http.MethodPost, "/operatori", admin, gin.H{"nome": "Op", "email": "op3@test.com", "password": testPassword})
	s.Require().Equal(http.StatusCreated, w.Code)
	var op dto.AccountDTO
	s.decode(env, &op)
	opToken, _ := s.login("op3@test.com", testPassword)

	w, _ = s.do(http.MethodDelete, "/operatori/"+op.ID, admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPatch, "/proposte/"+p.ID+"/stato", opToken, gin.H{"stato": "approvata", "commento": "ok"})
	s.Equal(http.StatusUnauthorized, w.Code)
	w, env = s.do(http.MethodGet, "/proposte/"+p.ID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var got dto.ProposalDTO
	s.decode(env, &got)
	s.Equal("in_approvazione", string(got.Stato.Stato))

	first, id := s.userToken("twice@test.com")
	second, _ := s.login("twice@test.com", testPassword)
	w, _ = s.do(http.MethodDelete, "/user/me", first, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPost, "/proposte", second, gin.H{"titolo": "Fantasma", "descrizione": "desc"})
	s.Equal(http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodPost, "/follow/"+op.ID, second, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	w, _ = s.do(http.MethodGet, "/user/"+id, second, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	var count int64
	s.Require().NoError(s.db.Table("proposte").Where("proponente_id = ?", id).Count(&count).Error)
	s.Zero(count)

	// a new account with the same email gets a fresh id, so the old token stays dead
	s.registerUser("twice@test.com")
	w, _ = s.do(http.MethodGet, "/user/me", second, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestOperatorManagementAndStats() {
	admin := s.adminToken()
	userToken, _ := s.userToken("u@test.com")
	s.createProposal(userToken, "Stat")

	w, env := s.do(http.MethodPost, "/operatori", admin, gin.H{"nome": "Op", "email": "op2@test.com", "password": testPassword})
	s.Require().Equal(http.StatusCreated, w.Code)
	var op dto.AccountDTO
	s.decode(env, &op)
	s.Equal("operatore", string(op.UserType))

	w, _ = s.do(http.MethodPost, "/operatori", userToken, gin.H{"nome": "X", "email": "x@test.com", "password": testPassword})
	s.Equal(http.StatusForbidden, w.Code)

	w, env = s.do(http.MethodGet, "/operatori", admin, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var ops []dto.AccountDTO
	s.decode(env, &ops)
	s.Len(ops, 1)

	opToken, _ := s.login("op2@test.com", testPassword)
	w, env = s.do(http.MethodGet, "/operatori/stats", opToken, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var stats dto.StatsDTO
	s.decode(env, &stats)
	s.Equal(int64(1), stats.TotaleProposte)

	w, _ = s.do(http.MethodGet, "/operatori/stats", admin, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodDelete, "/operatori/"+op.ID, admin, nil)
	s.Equal(http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, "/operatori/"+op.ID, admin, nil)
	s.Equal(http.StatusNotFound, w.Code)
}
