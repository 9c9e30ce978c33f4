package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nexcharge/apiserver/internal/auth"
	"github.com/nexcharge/apiserver/internal/services"
	"github.com/nexcharge/apiserver/internal/store"
	"github.com/nexcharge/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccounts struct {
	registerErr error
	loginRes    services.LoginResult
	loginErr    error
	me          types.UserSummary
	meErr       error

	gotName, gotEmail, gotPassword string
}

func (s *stubAccounts) Register(_ context.Context, name, email, password string) (types.UserSummary, error) {
	s.gotName, s.gotEmail, s.gotPassword = name, email, password
	return types.UserSummary{ID: 1, Name: name, Email: email}, s.registerErr
}

func (s *stubAccounts) Login(_ context.Context, email, password string) (services.LoginResult, error) {
	s.gotEmail, s.gotPassword = email, password
	return s.loginRes, s.loginErr
}

func (s *stubAccounts) Me(context.Context, int) (types.UserSummary, error) {
	return s.me, s.meErr
}

func newTokens(t *testing.T, opts ...auth.TokenOption) *auth.TokenManager {
	t.Helper()
	tokens, err := auth.NewTokenManager("handler-secret", opts...)
	require.NoError(t, err)
	return tokens
}

func newAuthRouter(accounts AccountService, verifier TokenVerifier) http.Handler {
	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		AuthRouter(r, accounts, RequireAuth(verifier), nil)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestRegister(t *testing.T) {
	accounts := &stubAccounts{}
	h := newAuthRouter(accounts, newTokens(t))

	rec := doRequest(t, h, http.MethodPost, "/auth/register",
		`{"name":"A","email":"a@x.com","password":"pw12345"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"User registered successfully"}`, rec.Body.String())
	assert.Equal(t, "A", accounts.gotName)
	assert.Equal(t, "a@x.com", accounts.gotEmail)
	assert.Equal(t, "pw12345", accounts.gotPassword)
	assert.NotContains(t, rec.Body.String(), "pw12345")
}

func TestRegister_Errors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		err     error
		status  int
		message string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "invalid JSON body"},
		{"empty body", ``, nil, http.StatusBadRequest, "request body is empty"},
		{"validation", `{}`, &services.ValidationError{Message: "name, email and password are required"},
			http.StatusBadRequest, "name, email and password are required"},
		{"duplicate", `{"name":"A","email":"a@x.com","password":"p"}`, services.ErrEmailTaken,
			http.StatusBadRequest, "user already exists"},
		{"internal", `{"name":"A","email":"a@x.com","password":"p"}`, assert.AnError,
			http.StatusInternalServerError, "failed to register user"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newAuthRouter(&stubAccounts{registerErr: tc.err}, newTokens(t))
			rec := doRequest(t, h, http.MethodPost, "/auth/register", tc.body, "")
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.message, decodeError(t, rec))
		})
	}
}

func TestLogin(t *testing.T) {
	accounts := &stubAccounts{loginRes: services.LoginResult{
		Token: "tok",
		User:  types.UserSummary{ID: 3, Name: "A", Email: "a@x.com"},
	}}
	h := newAuthRouter(accounts, newTokens(t))

	rec := doRequest(t, h, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"pw"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"token":"tok","user":{"id":3,"name":"A","email":"a@x.com"}}`, rec.Body.String())
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newAuthRouter(&stubAccounts{loginErr: services.ErrInvalidCredentials}, newTokens(t))

	rec := doRequest(t, h, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"no"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid credentials", decodeError(t, rec))

	h = newAuthRouter(&stubAccounts{loginErr: assert.AnError}, newTokens(t))
	rec = doRequest(t, h, http.MethodPost, "/auth/login", `{"email":"a@x.com","password":"no"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireAuth(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tokens := newTokens(t, auth.WithClock(func() time.Time { return now }))
	valid, err := tokens.Issue(5)
	require.NoError(t, err)

	other, err := auth.NewTokenManager("other-secret", auth.WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	forged, err := other.Issue(5)
	require.NoError(t, err)

	var seen int
	protected := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		return rec
	}

	var rec *httptest.ResponseRecorder
	for _, header := range []string{"", "Bearer", "Bearer ", "Bearer    ", "bearer"} {
		rec = send(header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Equal(t, "access denied, no token", decodeError(t, rec))
	}

	for _, header := range []string{"Bearer garbage", "Token " + valid, "Token", "Bearer " + forged} {
		rec = send(header)
		assert.Equal(t, http.StatusBadRequest, rec.Code, header)
		assert.Equal(t, "invalid token", decodeError(t, rec))
	}

	rec = send("Bearer " + valid)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 5, seen)

	now = now.Add(24 * time.Hour)
	rec = send("Bearer " + valid)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	tokens := newTokens(t)
	token, err := tokens.Issue(3)
	require.NoError(t, err)

	accounts := &stubAccounts{me: types.UserSummary{ID: 3, Name: "A", Email: "a@x.com"}}
	h := newAuthRouter(accounts, tokens)

	rec := doRequest(t, h, http.MethodGet, "/auth/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3,"name":"A","email":"a@x.com"}`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	accounts.meErr = store.ErrNotFound
	rec = doRequest(t, h, http.MethodGet, "/auth/me", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUserID(context.Background(), 0))
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), 9))
	assert.True(t, ok)
	assert.Equal(t, 9, id)
}
