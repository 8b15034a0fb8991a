package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"social-live/auth"
	"social-live/errors"
	"social-live/mocks"
	"social-live/repositories"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(slog.Default(), mockRepo, 24*time.Hour)

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		email := "test@example.com"
		password := "ComplexPass123!"

		// The repository must receive a hash, never the plain password.
		mockRepo.EXPECT().
			CreateUser(email, "Tester", gomock.Not(password)).
			Return("user-uuid", nil).
			Times(1)

		id, err := svc.Register(email, password, "Tester")

		req.NoError(err)
		req.Equal("user-uuid", id)
	})

	t.Run("should fail when password complexity is not met", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register("test@example.com", "simple-but-long", "Tester")

		req.ErrorIs(err, errors.ErrInvalidPassword)
	})

	t.Run("should fail on a malformed email", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register("not-an-email", "ComplexPass123!", "Tester")
		req.Error(err)
	})

	t.Run("should surface a duplicate user", func(t *testing.T) {
		req := require.New(t)

		mockRepo.EXPECT().
			CreateUser("duplicate@example.com", "Tester", gomock.Any()).
			Return("", errors.ErrUserAlreadyExists)

		_, err := svc.Register("duplicate@example.com", "ComplexPass123!", "Tester")
		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(slog.Default(), mockRepo, 24*time.Hour)

	email := "user@example.com"
	password := "Secret123456!"
	hashedPassword, err := auth.HashPassword(password)
	require.NoError(t, err)
	storedUser := repositories.User{ID: "uuid-123", Email: email, PasswordHash: hashedPassword}

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetByEmail(email).Return(storedUser, nil)

		token, err := svc.Login(email, password)

		req.NoError(err)
		req.NotEmpty(token)

		claims, err := auth.ValidateToken(token)
		req.NoError(err)
		req.Equal("uuid-123", claims.UserID)
		req.Equal(email, claims.Email)
	})

	t.Run("should fail with a wrong password", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetByEmail(email).Return(storedUser, nil)

		_, err := svc.Login(email, "WrongPass123!")
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})

	t.Run("should not reveal whether the email exists", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().GetByEmail("ghost@example.com").
			Return(repositories.User{}, errors.ErrNotFound)

		_, err := svc.Login("ghost@example.com", password)
		req.ErrorIs(err, errors.ErrInvalidCredentials)
	})
}
