package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/auth"
	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/repository"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

type AuthService struct {
	tokens *auth.TokenManager

	users repository.UserRepository
}

func NewAuthService(tokens *auth.TokenManager) *AuthService {
	return &AuthService{tokens: tokens}
}

func (s *AuthService) WithUserRepo(r repository.UserRepository) *AuthService {
	s.users = r
	return s
}

// Login never reveals whether the username or the password was wrong.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.User, *Error) {
	l := logger.FromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, NewError(ErrorCodeInvalidBody, "username and password are required")
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			l.Warn("login with unknown username", zap.String("username", username))
			return "", nil, NewError(ErrorCodeInvalidCredentials, "invalid username or password")
		}
		l.Error("failed to get user", zap.String("username", username), zap.Error(err))
		return "", nil, NewError(ErrorCodeUnspecified, "failed to log in")
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		l.Warn("login with wrong password", zap.Int64("user_id", u.ID))
		return "", nil, NewError(ErrorCodeInvalidCredentials, "invalid username or password")
	}

	token, err := s.tokens.Generate(u.ID, u.Role)
	if err != nil {
		l.Error("failed to sign token", zap.Int64("user_id", u.ID), zap.Error(err))
		return "", nil, NewError(ErrorCodeUnspecified, "failed to log in")
	}

	l.Info("user logged in", zap.Int64("user_id", u.ID), zap.String("username", username))

	return token, userToModel(u), nil
}

// Register creates a regular member account; admin accounts are created
// through user management by an existing admin.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, *Error) {
	l := logger.FromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, NewError(ErrorCodeInvalidBody, "username and password are required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return nil, NewError(ErrorCodeInvalidBody, "username must not exceed 60 characters")
	}
	if len(password) < minPasswordLen {
		return nil, NewError(ErrorCodeInvalidBody, "password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to register")
	}

	row := &repository.User{
		Username:     username,
		PasswordHash: hash,
		Role:         model.RoleMember,
	}
	if err := s.users.Create(ctx, row); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, NewError(ErrorCodeUsernameTaken, "username is already in use")
		}
		l.Error("failed to register user", zap.String("username", username), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to register")
	}

	l.Info("user registered", zap.Int64("user_id", row.ID), zap.String("username", username))

	return userToModel(row), nil
}
