package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/masadev/pscheduler/internal/domain"
	"github.com/masadev/pscheduler/internal/mocks"
	"github.com/masadev/pscheduler/internal/service"
)

type userServiceFixture struct {
	service   service.UserService
	mock      sqlmock.Sqlmock
	userStore *mocks.MockUserStore
	user      *domain.User
}

func newUserServiceFixture(t *testing.T) *userServiceFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	userStore := mocks.NewMockUserStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	user, err := domain.NewUser("alice", "alice@example.com", "password123")
	require.NoError(t, err)
	userStore.AddUser(user)

	return &userServiceFixture{
		service:   service.NewUserService(userStore, db, logger),
		mock:      mock,
		userStore: userStore,
		user:      user,
	}
}

func TestGetUser(t *testing.T) {
	f := newUserServiceFixture(t)

	got, err := f.service.GetUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, got.ID)

	_, err = f.service.GetUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestGetUserByUsername(t *testing.T) {
	f := newUserServiceFixture(t)

	got, err := f.service.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, got.ID)

	_, err = f.service.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestUpdateUserEmail(t *testing.T) {
	f := newUserServiceFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	err := f.service.UpdateUserEmail(context.Background(), f.user.ID, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", f.userStore.Users["alice"].Email)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUpdateUserEmail_NotFound(t *testing.T) {
	f := newUserServiceFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	err := f.service.UpdateUserEmail(context.Background(), uuid.New(), "new@example.com")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeactivateUser(t *testing.T) {
	f := newUserServiceFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	err := f.service.DeactivateUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.False(t, f.userStore.Users["alice"].IsActive)
}

func TestDeleteUser(t *testing.T) {
	f := newUserServiceFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	err := f.service.DeleteUser(context.Background(), f.user.ID)
	require.NoError(t, err)

	_, exists := f.userStore.Users["alice"]
	assert.False(t, exists)
}

func TestDeleteUser_NotFound(t *testing.T) {
	f := newUserServiceFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	err := f.service.DeleteUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrUserNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
