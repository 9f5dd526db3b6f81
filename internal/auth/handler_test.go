package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/keygate/keygate/internal/auth"
	"github.com/keygate/keygate/internal/shared"
	"github.com/keygate/keygate/internal/token"
	"github.com/keygate/keygate/internal/users"
	_ "github.com/keygate/keygate/testing"
)

type memUserRepo struct {
	nextID int64
	byID   map[int64]*users.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{nextID: 1, byID: make(map[int64]*users.User)}
}

func (m *memUserRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*users.User, error) {
	for _, user := range m.byID {
		if user.Email == email {
			return nil, shared.ErrDuplicateEmail
		}
	}
	user := &users.User{ID: m.nextID, Name: name, Email: email, PasswordHash: passwordHash}
	m.nextID++
	m.byID[user.ID] = user
	return user, nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	for _, user := range m.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *memUserRepo) FindByID(ctx context.Context, id int64) (*users.User, error) {
	user, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return user, nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type authServer struct {
	srv  *httptest.Server
	repo *memUserRepo
}

// newAuthServer assembles the auth routes the same way the app router does:
// public login/register, then logout plus a probe endpoint behind RequireAuth.
func newAuthServer(t *testing.T) *authServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newMemUserRepo()
	usersvc := users.NewService(repo)
	issuer := token.NewIssuer("test-secret", time.Hour)
	revoker := token.NewRevoker(client)

	handler := auth.NewHandler(logger, usersvc, issuer, revoker)
	mw := auth.Middleware{Logger: logger, Users: usersvc, Issuer: issuer, Revoker: revoker}

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		handler.MountRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth)
			handler.MountProtectedRoutes(r)
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth)
		r.Get("/me", func(w http.ResponseWriter, req *http.Request) {
			ident := shared.IdentityFromContext(req.Context())
			_ = json.NewEncoder(w).Encode(ident)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &authServer{srv: srv, repo: repo}
}

func (a *authServer) post(t *testing.T, path, bearer string, body any) (*http.Response, envelope) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return res, env
}

func (a *authServer) register(t *testing.T, name, email, password string) {
	t.Helper()
	res, _ := a.post(t, "/auth/register", "", map[string]any{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
}

type loginPayload struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int           `json:"expires_in"`
	User        users.Profile `json:"user"`
}

func (a *authServer) login(t *testing.T, email, password string) loginPayload {
	t.Helper()
	res, env := a.post(t, "/auth/login", "", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, res.StatusCode)
	var payload loginPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	return payload
}

func TestRegister(t *testing.T) {
	a := newAuthServer(t)

	res, env := a.post(t, "/auth/register", "", map[string]any{
		"name":                  "Jo",
		"email":                 "jo@example.com",
		"password":              "secret123",
		"password_confirmation": "secret123",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	require.True(t, env.Status)
	require.Equal(t, "User successfully registered", env.Message)

	var profile users.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	require.Equal(t, "jo@example.com", profile.Email)

	// The profile never carries password material.
	require.NotContains(t, string(env.Data), "password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	a := newAuthServer(t)
	a.register(t, "Jo", "jo@example.com", "secret123")

	res, env := a.post(t, "/auth/register", "", map[string]any{
		"name":                  "Other",
		"email":                 "jo@example.com",
		"password":              "different1",
		"password_confirmation": "different1",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.False(t, env.Status)
	require.Equal(t, "email already taken", env.Message)
}

func TestRegisterPasswordConfirmationMismatch(t *testing.T) {
	a := newAuthServer(t)

	res, env := a.post(t, "/auth/register", "", map[string]any{
		"name":                  "Jo",
		"email":                 "jo@example.com",
		"password":              "secret123",
		"password_confirmation": "secret124",
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "The password confirmation does not match", env.Message)

	// Rejected before anything is stored.
	require.Empty(t, a.repo.byID)
}

func TestLogin(t *testing.T) {
	a := newAuthServer(t)
	a.register(t, "Jo", "jo@example.com", "secret123")

	res, env := a.post(t, "/auth/login", "", map[string]any{"email": "jo@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.True(t, env.Status)
	require.Equal(t, "Logged Successfully", env.Message)

	var payload loginPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	require.NotEmpty(t, payload.AccessToken)
	require.Equal(t, "bearer", payload.TokenType)
	require.Equal(t, 3600, payload.ExpiresIn)
	require.Equal(t, "jo@example.com", payload.User.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	a := newAuthServer(t)
	a.register(t, "Jo", "jo@example.com", "secret123")

	res, env := a.post(t, "/auth/login", "", map[string]any{"email": "jo@example.com", "password": "wrong-pass"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.False(t, env.Status)
	require.Equal(t, "Unauthorized", env.Message)
}

func TestLoginUnknownAccount(t *testing.T) {
	a := newAuthServer(t)

	res, env := a.post(t, "/auth/login", "", map[string]any{"email": "nobody@example.com", "password": "secret123"})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "Unauthorized", env.Message)
}

func TestLoginValidation(t *testing.T) {
	a := newAuthServer(t)

	res, env := a.post(t, "/auth/login", "", map[string]any{"password": "secret123"})
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	require.Equal(t, "The email field is required", env.Message)

	res, env = a.post(t, "/auth/login", "", map[string]any{"email": "jo@example.com", "password": "short"})
	require.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	require.Equal(t, "The password must be at least 6 characters", env.Message)
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newAuthServer(t)
	a.register(t, "Jo", "jo@example.com", "secret123")
	payload := a.login(t, "jo@example.com", "secret123")

	// Token works before logout.
	req, err := http.NewRequest(http.MethodGet, a.srv.URL+"/me", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+payload.AccessToken)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res2, env := a.post(t, "/auth/logout", payload.AccessToken, map[string]any{})
	require.Equal(t, http.StatusOK, res2.StatusCode)
	require.Equal(t, "User successfully signed out", env.Message)

	// The same token is dead afterwards even though it has not expired.
	res3, env := a.post(t, "/auth/logout", payload.AccessToken, map[string]any{})
	require.Equal(t, http.StatusUnauthorized, res3.StatusCode)
	require.Equal(t, "Unauthorized", env.Message)
}

func TestLogoutWithoutToken(t *testing.T) {
	a := newAuthServer(t)

	res, env := a.post(t, "/auth/logout", "", map[string]any{})
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
	require.Equal(t, "Unauthorized", env.Message)
}
