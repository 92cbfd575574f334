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

const (
	minPasswordLen = 6
	maxUsernameLen = 60
)

type UserService struct {
	users repository.UserRepository
}

func NewUserService() *UserService {
	return &UserService{}
}

func (s *UserService) WithUserRepo(r repository.UserRepository) *UserService {
	s.users = r
	return s
}

func (s *UserService) Me(ctx context.Context, userID int64) (*model.User, *Error) {
	l := logger.FromContext(ctx)

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewError(ErrorCodeNotFound, "user not found")
		}
		l.Error("failed to get user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get user")
	}
	return userToModel(u), nil
}

func (s *UserService) List(ctx context.Context) ([]*model.User, *Error) {
	l := logger.FromContext(ctx)

	rows, err := s.users.List(ctx)
	if err != nil {
		l.Error("failed to list users", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list users")
	}

	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, userToModel(row))
	}
	return users, nil
}

func (s *UserService) Create(ctx context.Context, username, password, role string) (*model.User, *Error) {
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
	parsedRole, ok := model.ParseRole(role)
	if !ok {
		return nil, NewError(ErrorCodeInvalidBody, "role must be admin or member")
	}

	taken, err := s.users.UsernameTaken(ctx, username, 0)
	if err != nil {
		l.Error("failed to check username", zap.String("username", username), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create user")
	}
	if taken {
		return nil, NewError(ErrorCodeUsernameTaken, "username is already in use")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create user")
	}

	row := &repository.User{
		Username:     username,
		PasswordHash: hash,
		Role:         parsedRole,
	}
	if err := s.users.Create(ctx, row); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			// Lost the race between pre-check and insert.
			return nil, NewError(ErrorCodeUsernameTaken, "username is already in use")
		}
		l.Error("failed to create user", zap.String("username", username), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create user")
	}

	l.Info("user created",
		zap.Int64("user_id", row.ID),
		zap.String("username", username),
		zap.String("role", string(parsedRole)))

	return userToModel(row), nil
}

// Update requires username and role; password is optional and only rehashed
// when supplied.
func (s *UserService) Update(ctx context.Context, userID int64, username, role, password string) *Error {
	l := logger.FromContext(ctx)

	username = strings.TrimSpace(username)
	if username == "" || role == "" {
		return NewError(ErrorCodeInvalidBody, "username and role are required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLen {
		return NewError(ErrorCodeInvalidBody, "username must not exceed 60 characters")
	}
	parsedRole, ok := model.ParseRole(role)
	if !ok {
		return NewError(ErrorCodeInvalidBody, "role must be admin or member")
	}

	taken, err := s.users.UsernameTaken(ctx, username, userID)
	if err != nil {
		l.Error("failed to check username", zap.String("username", username), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to update user")
	}
	if taken {
		return NewError(ErrorCodeUsernameTaken, "username is already in use by another user")
	}

	patch := &repository.UserPatch{
		ID:       userID,
		Username: &username,
		Role:     &parsedRole,
	}
	if strings.TrimSpace(password) != "" {
		if len(password) < minPasswordLen {
			return NewError(ErrorCodeInvalidBody, "password must be at least 6 characters")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			l.Error("failed to hash password", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to update user")
		}
		patch.PasswordHash = &hash
	}

	if err := s.users.Patch(ctx, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "user not found")
		case errors.Is(err, repository.ErrAlreadyExists):
			return NewError(ErrorCodeUsernameTaken, "username is already in use by another user")
		}
		l.Error("failed to update user", zap.Int64("user_id", userID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to update user")
	}

	l.Info("user updated", zap.Int64("user_id", userID))
	return nil
}

// Delete refuses to remove the requesting admin's own account.
func (s *UserService) Delete(ctx context.Context, actorID, userID int64) *Error {
	l := logger.FromContext(ctx)

	if actorID == userID {
		l.Warn("admin attempted self-deletion", zap.Int64("user_id", userID))
		return NewError(ErrorCodeSelfDelete, "administrators cannot delete their own account")
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "user not found")
		}
		l.Error("failed to delete user", zap.Int64("user_id", userID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete user")
	}

	l.Info("user deleted", zap.Int64("user_id", userID), zap.Int64("deleted_by", actorID))
	return nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) *Error {
	l := logger.FromContext(ctx)

	if currentPassword == "" || newPassword == "" {
		return NewError(ErrorCodeInvalidBody, "current and new passwords are required")
	}
	if len(newPassword) < minPasswordLen {
		return NewError(ErrorCodeInvalidBody, "password must be at least 6 characters")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "user not found")
		}
		l.Error("failed to get user", zap.Int64("user_id", userID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to change password")
	}

	if !auth.CheckPassword(u.PasswordHash, currentPassword) {
		l.Warn("wrong current password on change attempt", zap.Int64("user_id", userID))
		return NewError(ErrorCodeInvalidBody, "current password is incorrect")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		l.Error("failed to hash password", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to change password")
	}

	if err := s.users.Patch(ctx, &repository.UserPatch{ID: userID, PasswordHash: &hash}); err != nil {
		l.Error("failed to store new password", zap.Int64("user_id", userID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to change password")
	}

	l.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

func userToModel(u *repository.User) *model.User {
	return &model.User{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
