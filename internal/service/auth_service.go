package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/jobtrack/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration and credential verification
type AuthService struct {
	userRepo domain.UserRepository
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo domain.UserRepository, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register creates a new user account and returns it. The plaintext password
// is bcrypt-hashed before it touches the repository and is never logged.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, domain.ErrUsernameTaken
		}
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, errors.New("failed to register user")
	}

	s.logger.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and returns the user. Unknown username and wrong
// password both return the same domain.ErrInvalidCredentials so nothing about
// which field was wrong leaks to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("failed to look up user", slog.String("error", err.Error()))
		}
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("login failed", slog.String("username", username))
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info("user logged in",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}
