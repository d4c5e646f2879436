package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/masadev/pscheduler/internal/config"
	"github.com/masadev/pscheduler/internal/domain"
	"github.com/masadev/pscheduler/internal/mocks"
	"github.com/masadev/pscheduler/internal/service/auth"
)

type authHandlerFixture struct {
	router    http.Handler
	userStore *mocks.MockUserStore
	jwt       auth.JWTService
}

func newAuthHandlerFixture(t *testing.T) *authHandlerFixture {
	t.Helper()

	userStore := mocks.NewMockUserStore()

	jwtService, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:                   "a-test-jwt-secret-that-is-long-enough-123",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 10080,
	})
	require.NoError(t, err)

	handler := NewAuthHandler(
		userStore,
		jwtService,
		auth.NewBcryptVerifier(),
		0,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	r := chi.NewRouter()
	r.Post("/auth/register", handler.Register)
	r.Post("/auth/login", handler.Login)
	r.Post("/auth/refresh", handler.RefreshToken)

	return &authHandlerFixture{
		router:    r,
		userStore: userStore,
		jwt:       jwtService,
	}
}

// addUser stores a user with a bcrypt hash of the given password.
func (f *authHandlerFixture) addUser(t *testing.T, username, password string) *domain.User {
	t.Helper()

	user, err := domain.NewUser(username, username+"@example.com", password)
	require.NoError(t, err)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user.Password = ""
	user.HashedPassword = string(hashed)

	f.userStore.AddUser(user)
	return user
}

func TestRegister_Success(t *testing.T) {
	f := newAuthHandlerFixture(t)

	rec := doJSON(t, f.router, http.MethodPost, "/auth/register", map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "alice", resp.Username)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	// The user landed in the store
	_, exists := f.userStore.Users["alice"]
	assert.True(t, exists)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	f := newAuthHandlerFixture(t)
	f.addUser(t, "alice", "password123")

	rec := doJSON(t, f.router, http.MethodPost, "/auth/register", map[string]interface{}{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Username already exists", resp["error"])
}

func TestRegister_ShortPassword(t *testing.T) {
	f := newAuthHandlerFixture(t)

	rec := doJSON(t, f.router, http.MethodPost, "/auth/register", map[string]interface{}{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "short",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthHandlerFixture(t)
	user := f.addUser(t, "alice", "password123")

	rec := doJSON(t, f.router, http.MethodPost, "/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "password123",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, user.ID, resp.UserID)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newAuthHandlerFixture(t)
	f.addUser(t, "alice", "password123")

	rec := doJSON(t, f.router, http.MethodPost, "/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	f := newAuthHandlerFixture(t)

	rec := doJSON(t, f.router, http.MethodPost, "/auth/login", map[string]interface{}{
		"username": "nobody",
		"password": "password123",
	})

	// Unknown users and bad passwords are indistinguishable to the caller
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	f := newAuthHandlerFixture(t)
	user := f.addUser(t, "alice", "password123")
	user.IsActive = false

	rec := doJSON(t, f.router, http.MethodPost, "/auth/login", map[string]interface{}{
		"username": "alice",
		"password": "password123",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken_Success(t *testing.T) {
	f := newAuthHandlerFixture(t)
	user := f.addUser(t, "alice", "password123")

	refreshToken, err := f.jwt.GenerateRefreshToken(context.Background(), user.ID, user.Username)
	require.NoError(t, err)

	rec := doJSON(t, f.router, http.MethodPost, "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp RefreshTokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
}

func TestRefreshToken_AccessTokenRejected(t *testing.T) {
	f := newAuthHandlerFixture(t)
	user := f.addUser(t, "alice", "password123")

	accessToken, err := f.jwt.GenerateToken(context.Background(), user.ID, user.Username)
	require.NoError(t, err)

	rec := doJSON(t, f.router, http.MethodPost, "/auth/refresh", map[string]interface{}{
		"refresh_token": accessToken,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken_DeactivatedAccount(t *testing.T) {
	f := newAuthHandlerFixture(t)
	user := f.addUser(t, "alice", "password123")

	refreshToken, err := f.jwt.GenerateRefreshToken(context.Background(), user.ID, user.Username)
	require.NoError(t, err)

	user.IsActive = false

	rec := doJSON(t, f.router, http.MethodPost, "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
