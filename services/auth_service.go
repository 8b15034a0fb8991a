package services

import (
	"fmt"
	"log/slog"
	"time"

	"social-live/auth"
	"social-live/errors"
	"social-live/repositories"
)

type IAuthService interface {
	Register(email, password, name string) (string, error)
	Login(email, password string) (string, error)
}

// AuthService owns registration and login. Passwords are stored as
// Argon2id hashes; a successful login yields a signed session token.
type AuthService struct {
	log           *slog.Logger
	users         repositories.IUserRepository
	tokenDuration time.Duration
}

func NewAuthService(log *slog.Logger, users repositories.IUserRepository,
	tokenDuration time.Duration) *AuthService {
	return &AuthService{log: log, users: users, tokenDuration: tokenDuration}
}

// Register creates the directory entry and returns the new user id.
func (s *AuthService) Register(email, password, name string) (string, error) {
	req := auth.RegisterRequest{Email: email, Password: password, Name: name}
	if err := auth.ValidateRegister(req); err != nil {
		return "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	id, err := s.users.CreateUser(email, name, hash)
	if err != nil {
		return "", err
	}
	s.log.Info("user registered", "user_id", id)
	return id, nil
}

// Login verifies the credentials and mints a session token. Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.users.GetByEmail(email)
	if err != nil {
		return "", errors.ErrInvalidCredentials
	}

	ok, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !ok {
		return "", errors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.tokenDuration)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return token, nil
}
