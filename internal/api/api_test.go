package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/controller"
	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/secrets"
	"github.com/rryowa/backoffice/internal/service"
	"github.com/rryowa/backoffice/internal/storage/memory"
	"github.com/rryowa/backoffice/internal/util"
)

const (
	testEmail    = "admin@x.com"
	testPassword = "secret123"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := zap.NewNop().Sugar()
	st := memory.NewStorage()
	valid := service.NewValidator()
	tokens := service.NewTokenService(&util.TokenConfig{
		JwtSecretKey:  []byte("test-secret"),
		Issuer:        "backoffice",
		Audience:      "backoffice-admin",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		RememberMeTTL: 30 * 24 * time.Hour,
	}, memory.NewTokenStorage())
	provider := secrets.NewStaticProvider(map[string]string{
		secrets.KeyEmailAdmin:    testEmail,
		secrets.KeyPasswordAdmin: testPassword,
	})
	apiKeys := service.NewAPIKeyService(st, service.NewWebhookService(log, ""), valid, log)

	c := controller.NewController(log, controller.Services{
		Auth:        service.NewAuthService(st, provider, tokens, valid, log),
		Application: service.NewApplicationService(st, valid, log),
		Menu:        service.NewMenuService(st, valid, log),
		APIKey:      apiKeys,
		Treasury:    service.NewTreasuryService(st, valid, log),
		Magasin:     service.NewMagasinService(st, valid, log),
	}, st, &util.CookieConfig{Secure: true})

	a := NewAPI(c, tokens, apiKeys, log, &util.ServerConfig{})
	require.NoError(t, a.Setup())
	return &testServer{t: t, handler: a.Handler()}
}

func (s *testServer) do(method, path, body string, header http.Header, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (s *testServer) signIn() (string, *http.Cookie) {
	s.t.Helper()
	rec, env := s.do(http.MethodPost, "/auth/signin",
		`{"email":"`+testEmail+`","password":"`+testPassword+`"}`, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var tok models.TokenResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &tok))
	return tok.Token, refreshCookie(s.t, rec)
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == models.RefreshTokenCookie {
			return c
		}
	}
	t.Fatal("refresh cookie not set")
	return nil
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": {"Bearer " + token}}
}

func TestSignInSetsCookie(t *testing.T) {
	s := newTestServer(t)

	token, cookie := s.signIn()
	assert.NotEmpty(t, token)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/auth", cookie.Path)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	rec, env := s.do(http.MethodPost, "/auth/signin", `{"email":"`+testEmail+`","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Email ou mot de passe incorrect", env.Message)

	rec, env = s.do(http.MethodPost, "/auth/signin", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
}

func TestRefreshRotatesCookie(t *testing.T) {
	s := newTestServer(t)
	_, cookie := s.signIn()

	rec, env := s.do(http.MethodPost, "/auth/refresh?rememberMe=true", "", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, env.Success)

	rotated := refreshCookie(t, rec)
	assert.NotEqual(t, cookie.Value, rotated.Value)
	assert.True(t, rotated.Expires.After(time.Now().Add(29*24*time.Hour)))

	rec, _ = s.do(http.MethodPost, "/auth/refresh", "", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(http.MethodPost, "/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutDenyListsAccessToken(t *testing.T) {
	s := newTestServer(t)
	token, cookie := s.signIn()

	rec, _ := s.do(http.MethodPost, "/auth/logout", "", bearer(token), cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, refreshCookie(t, rec).MaxAge)

	rec, env := s.do(http.MethodGet, "/application", "", bearer(token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgBearerRevoked, env.Message)
}

func TestAdminRoutesRequireBearer(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/application", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgBearerMissing, env.Message)

	rec, _ = s.do(http.MethodGet, "/application", "", bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMenuFlow(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signIn()
	h := bearer(token)

	rec, _ := s.do(http.MethodPost, "/application", `{"appAdminReference":"crm","name":"CRM"}`, h)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := s.do(http.MethodPost, "/application", `{"appAdminReference":"crm","name":"CRM"}`, h)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Une application avec la même référence existe déjà", env.Message)

	rec, _ = s.do(http.MethodPost, "/menu/crm", `{"reference":"home","label":"Accueil","route":"/"}`, h)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = s.do(http.MethodPatch, "/menu/inactive", `{"appAdminReference":"crm","reference":"home"}`, h)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var menu models.Menu
	require.NoError(t, json.Unmarshal(env.Data, &menu))
	assert.False(t, menu.IsActif)

	rec, env = s.do(http.MethodGet, "/menu/crm", "", h)
	require.Equal(t, http.StatusOK, rec.Code)
	var menus []models.Menu
	require.NoError(t, json.Unmarshal(env.Data, &menus))
	require.Len(t, menus, 1)
	assert.Equal(t, "admin@x.com", menus[0].CreatedBy)

	rec, _ = s.do(http.MethodGet, "/menu/unknown", "", h)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIKeyProtectedRoutes(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.signIn()
	h := bearer(token)

	rec, env := s.do(http.MethodPost, "/application", `{"appAdminReference":"shop","name":"Shop"}`, h)
	require.Equal(t, http.StatusCreated, rec.Code)
	var app models.Application
	require.NoError(t, json.Unmarshal(env.Data, &app))

	rec, env = s.do(http.MethodPost, "/apikeys", `{"applicationId":"`+app.ID.String()+`","scopes":["treasury"]}`, h)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var issued models.IssuedAPIKey
	require.NoError(t, json.Unmarshal(env.Data, &issued))

	tenantHeader := http.Header{
		models.MwAPIKeyHeader:        {issued.Key},
		models.MwApplicationIDHeader: {"app-1"},
		models.MwBoutiqueIDHeader:    {"b-1"},
	}

	rec, _ = s.do(http.MethodGet, "/api/categories", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = s.do(http.MethodGet, "/api/categories", "", http.Header{models.MwAPIKeyHeader: {issued.Key}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Message, models.MwApplicationIDHeader)

	rec, _ = s.do(http.MethodPost, "/api/categories", `{"name":"Ventes","type":"income"}`, tenantHeader)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env = s.do(http.MethodGet, "/api/categories?type=income", "", tenantHeader)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var categories []models.Category
	require.NoError(t, json.Unmarshal(env.Data, &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "apikey:"+issued.APIKey.KeyPrefix, categories[0].CreatedBy)

	rec, _ = s.do(http.MethodGet, "/api/treasury/forecast?days=400", "", tenantHeader)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/magasin/stock", "", tenantHeader)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(http.MethodPost, "/apikeys/"+issued.APIKey.ID.String()+"/revoke", `{"reason":"leaked"}`, h)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/categories", "", tenantHeader)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, env = s.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
}

func TestAuthRunsBeforeSchemaValidation(t *testing.T) {
	s := newTestServer(t)
	body := `{"appAdminReference":42,"name":true}`

	rec, env := s.do(http.MethodPost, "/application", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgBearerMissing, env.Message)

	rec, _ = s.do(http.MethodGet, "/api/treasury/forecast?days=abc", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _ := s.signIn()
	rec, env = s.do(http.MethodPost, "/application", body, bearer(token))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}
