package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gabrielvss/ecclesia/internal/repository"
)

func TestDepartmentService_Create(t *testing.T) {
	tests := []struct {
		name           string
		departmentName string
		setupMocks     func(*MockDepartmentRepository)
		expectedError  bool
		errorCode      ErrorCode
	}{
		{
			name:           "success",
			departmentName: "Worship",
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Create", mock.Anything, mock.MatchedBy(func(d *repository.Department) bool {
					return d.Name == "Worship"
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*repository.Department).ID = 3
				}).Return(nil)
			},
			expectedError: false,
		},
		{
			name:           "trims whitespace",
			departmentName: "  Worship  ",
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Create", mock.Anything, mock.MatchedBy(func(d *repository.Department) bool {
					return d.Name == "Worship"
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			// Limits count characters, not bytes: 15 accented runes fit.
			name:           "accented name at the limit",
			departmentName: strings.Repeat("é", 15),
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Create", mock.Anything, mock.MatchedBy(func(d *repository.Department) bool {
					return d.Name == strings.Repeat("é", 15)
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			name:           "empty name",
			departmentName: "   ",
			setupMocks:     func(dr *MockDepartmentRepository) {},
			expectedError:  true,
			errorCode:      ErrorCodeInvalidBody,
		},
		{
			name:           "name too long",
			departmentName: "Department Name Too Long",
			setupMocks:     func(dr *MockDepartmentRepository) {},
			expectedError:  true,
			errorCode:      ErrorCodeInvalidBody,
		},
		{
			name:           "duplicate name",
			departmentName: "Worship",
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeNameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockDeptRepo := new(MockDepartmentRepository)

			tt.setupMocks(mockDeptRepo)

			service := NewDepartmentService(mockTx).
				WithDepartmentRepo(mockDeptRepo)

			got, err := service.Create(context.Background(), tt.departmentName)

			if tt.expectedError {
				assert.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.NotNil(t, got)
			}

			mockDeptRepo.AssertExpectations(t)
		})
	}
}

func TestDepartmentService_Rename(t *testing.T) {
	tests := []struct {
		name          string
		departmentID  int64
		newName       string
		setupMocks    func(*MockDepartmentRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:         "success",
			departmentID: 3,
			newName:      "Media",
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Rename", mock.Anything, int64(3), "Media").Return(nil)
			},
			expectedError: false,
		},
		{
			name:         "department not found",
			departmentID: 404,
			newName:      "Media",
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Rename", mock.Anything, int64(404), "Media").Return(repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:         "name already in use",
			departmentID: 3,
			newName:      "Worship",
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Rename", mock.Anything, int64(3), "Worship").Return(repository.ErrAlreadyExists)
			},
			expectedError: true,
			errorCode:     ErrorCodeNameTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockDeptRepo := new(MockDepartmentRepository)

			tt.setupMocks(mockDeptRepo)

			service := NewDepartmentService(mockTx).
				WithDepartmentRepo(mockDeptRepo)

			err := service.Rename(context.Background(), tt.departmentID, tt.newName)

			if tt.expectedError {
				assert.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockDeptRepo.AssertExpectations(t)
		})
	}
}

func TestDepartmentService_Members(t *testing.T) {
	mockTx := new(MockTransactor)
	mockDeptRepo := new(MockDepartmentRepository)
	mockMemberRepo := new(MockMemberRepository)

	mockDeptRepo.On("Exists", mock.Anything, int64(3)).Return(true, nil)
	mockMemberRepo.On("ListBrief", mock.Anything).Return([]*repository.MemberBrief{
		{ID: 1, FullName: "Ana Souza"},
		{ID: 2, FullName: "Bruno Costa"},
		{ID: 3, FullName: "Clara Dias"},
	}, nil)
	mockDeptRepo.On("MemberIDs", mock.Anything, int64(3)).Return([]int64{2}, nil)

	service := NewDepartmentService(mockTx).
		WithDepartmentRepo(mockDeptRepo).
		WithMemberRepo(mockMemberRepo)

	got, err := service.Members(context.Background(), 3)

	assert.Nil(t, err)
	assert.Len(t, got, 3)
	assert.False(t, got[0].Belongs)
	assert.True(t, got[1].Belongs)
	assert.False(t, got[2].Belongs)

	mockDeptRepo.AssertExpectations(t)
	mockMemberRepo.AssertExpectations(t)
}

func TestDepartmentService_Members_NotFound(t *testing.T) {
	mockTx := new(MockTransactor)
	mockDeptRepo := new(MockDepartmentRepository)

	mockDeptRepo.On("Exists", mock.Anything, int64(404)).Return(false, nil)

	service := NewDepartmentService(mockTx).
		WithDepartmentRepo(mockDeptRepo)

	got, err := service.Members(context.Background(), 404)

	assert.NotNil(t, err)
	assert.Equal(t, ErrorCodeNotFound, err.Code)
	assert.Nil(t, got)
}

func TestDepartmentService_SyncMembers(t *testing.T) {
	tests := []struct {
		name          string
		departmentID  int64
		memberIDs     []int64
		setupMocks    func(*MockDepartmentRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:         "replaces the whole set",
			departmentID: 3,
			memberIDs:    []int64{1, 2, 2, 3},
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Exists", mock.Anything, int64(3)).Return(true, nil)
				dr.On("ClearMembers", mock.Anything, int64(3)).Return(nil)
				dr.On("AssignMembers", mock.Anything, int64(3), []int64{1, 2, 3}).Return(nil)
			},
			expectedError: false,
		},
		{
			name:         "empty set clears everything",
			departmentID: 3,
			memberIDs:    []int64{},
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Exists", mock.Anything, int64(3)).Return(true, nil)
				dr.On("ClearMembers", mock.Anything, int64(3)).Return(nil)
				dr.On("AssignMembers", mock.Anything, int64(3), []int64(nil)).Return(nil)
			},
			expectedError: false,
		},
		{
			name:         "department not found",
			departmentID: 404,
			memberIDs:    []int64{1},
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Exists", mock.Anything, int64(404)).Return(false, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
		{
			name:         "missing member rolls back",
			departmentID: 3,
			memberIDs:    []int64{1, 999},
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Exists", mock.Anything, int64(3)).Return(true, nil)
				dr.On("ClearMembers", mock.Anything, int64(3)).Return(nil)
				dr.On("AssignMembers", mock.Anything, int64(3), []int64{1, 999}).Return(repository.ErrReferenceNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeBadReference,
		},
		{
			name:         "clear failure",
			departmentID: 3,
			memberIDs:    []int64{1},
			setupMocks: func(dr *MockDepartmentRepository) {
				dr.On("Exists", mock.Anything, int64(3)).Return(true, nil)
				dr.On("ClearMembers", mock.Anything, int64(3)).Return(errors.New("db error"))
			},
			expectedError: true,
			errorCode:     ErrorCodeUnspecified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockTx := new(MockTransactor)
			mockDeptRepo := new(MockDepartmentRepository)

			tt.setupMocks(mockDeptRepo)

			service := NewDepartmentService(mockTx).
				WithDepartmentRepo(mockDeptRepo)

			err := service.SyncMembers(context.Background(), tt.departmentID, tt.memberIDs)

			if tt.expectedError {
				assert.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockDeptRepo.AssertExpectations(t)
		})
	}
}
