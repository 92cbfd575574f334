package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gabrielvss/ecclesia/internal/auth"
	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/repository"
)

func TestUserService_Create(t *testing.T) {
	tests := []struct {
		name          string
		username      string
		password      string
		role          string
		setupMocks    func(*MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:     "success",
			username: "pastor",
			password: "secret123",
			role:     "admin",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("UsernameTaken", mock.Anything, "pastor", int64(0)).Return(false, nil)
				ur.On("Create", mock.Anything, mock.MatchedBy(func(u *repository.User) bool {
					return u.Username == "pastor" && u.Role == model.RoleAdmin && u.PasswordHash != "secret123"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*repository.User).ID = 2
				}).Return(nil)
			},
			expectedError: false,
		},
		{
			name:          "missing credentials",
			username:      "",
			password:      "secret123",
			role:          "member",
			setupMocks:    func(ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:          "short password",
			username:      "pastor",
			password:      "abc",
			role:          "member",
			setupMocks:    func(ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			// Longer than the column; rejected before it reaches the driver.
			name:          "username too long",
			username:      strings.Repeat("a", 61),
			password:      "secret123",
			role:          "member",
			setupMocks:    func(ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:          "unknown role",
			username:      "pastor",
			password:      "secret123",
			role:          "superuser",
			setupMocks:    func(ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:     "username taken",
			username: "pastor",
			password: "secret123",
			role:     "member",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("UsernameTaken", mock.Anything, "pastor", int64(0)).Return(true, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeUsernameTaken,
		},
		{
			name:     "lost insert race",
			username: "pastor",
			password: "secret123",
			role:     "member",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("UsernameTaken", mock.Anything, "pastor", int64(0)).Return(false, nil)
				ur.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeUsernameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)

			tt.setupMocks(mockUserRepo)

			service := NewUserService().
				WithUserRepo(mockUserRepo)

			got, err := service.Create(context.Background(), tt.username, tt.password, tt.role)

			if tt.expectedError {
				assert.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.NotNil(t, got)
			}

			mockUserRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Delete(t *testing.T) {
	tests := []struct {
		name          string
		actorID       int64
		userID        int64
		setupMocks    func(*MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:    "success",
			actorID: 1,
			userID:  2,
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Delete", mock.Anything, int64(2)).Return(nil)
			},
			expectedError: false,
		},
		{
			name:          "self deletion refused",
			actorID:       1,
			userID:        1,
			setupMocks:    func(ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeSelfDelete,
		},
		{
			name:    "user not found",
			actorID: 1,
			userID:  404,
			setupMocks: func(ur *MockUserRepository) {
				ur.On("Delete", mock.Anything, int64(404)).Return(repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)

			tt.setupMocks(mockUserRepo)

			service := NewUserService().
				WithUserRepo(mockUserRepo)

			err := service.Delete(context.Background(), tt.actorID, tt.userID)

			if tt.expectedError {
				assert.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockUserRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	hash, hashErr := auth.HashPassword("oldsecret")
	assert.NoError(t, hashErr)

	tests := []struct {
		name          string
		current       string
		newPassword   string
		setupMocks    func(*MockUserRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:        "success",
			current:     "oldsecret",
			newPassword: "newsecret",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByID", mock.Anything, int64(2)).Return(&repository.User{ID: 2, PasswordHash: hash}, nil)
				ur.On("Patch", mock.Anything, mock.MatchedBy(func(p *repository.UserPatch) bool {
					return p.ID == 2 && p.PasswordHash != nil
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			name:        "wrong current password",
			current:     "not-the-one",
			newPassword: "newsecret",
			setupMocks: func(ur *MockUserRepository) {
				ur.On("GetByID", mock.Anything, int64(2)).Return(&repository.User{ID: 2, PasswordHash: hash}, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:          "short new password",
			current:       "oldsecret",
			newPassword:   "abc",
			setupMocks:    func(ur *MockUserRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)

			tt.setupMocks(mockUserRepo)

			service := NewUserService().
				WithUserRepo(mockUserRepo)

			err := service.ChangePassword(context.Background(), 2, tt.current, tt.newPassword)

			if tt.expectedError {
				assert.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockUserRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Update(t *testing.T) {
	mockUserRepo := new(MockUserRepository)

	mockUserRepo.On("UsernameTaken", mock.Anything, "deacon", int64(2)).Return(false, nil)
	mockUserRepo.On("Patch", mock.Anything, mock.MatchedBy(func(p *repository.UserPatch) bool {
		return p.ID == 2 &&
			p.Username != nil && *p.Username == "deacon" &&
			p.Role != nil && *p.Role == model.RoleMember &&
			p.PasswordHash == nil
	})).Return(nil)

	service := NewUserService().
		WithUserRepo(mockUserRepo)

	err := service.Update(context.Background(), 2, "deacon", "member", "")

	assert.Nil(t, err)
	mockUserRepo.AssertExpectations(t)
}
