package service

import (
	"context"
	"testing"

	"github.com/aarondl/opt/omitnull"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gabrielvss/ecclesia/internal/repository"
)

func TestCellService_Create(t *testing.T) {
	tests := []struct {
		name          string
		input         *CellCreate
		setupMocks    func(*MockCellRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:  "success without leader",
			input: &CellCreate{Name: "North Cell"},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("NameTaken", mock.Anything, "North Cell", int64(0)).Return(false, nil)
				cr.On("Create", mock.Anything, mock.MatchedBy(func(c *repository.Cell) bool {
					return c.Name == "North Cell" && c.LeaderID == nil
				})).Run(func(args mock.Arguments) {
					args.Get(1).(*repository.Cell).ID = 5
				}).Return(nil)
			},
			expectedError: false,
		},
		{
			name:  "success with leader",
			input: &CellCreate{Name: "North Cell", LeaderID: int64Ptr(9)},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("LeaderOfAnotherCell", mock.Anything, int64(9), int64(0)).Return(false, nil)
				cr.On("NameTaken", mock.Anything, "North Cell", int64(0)).Return(false, nil)
				cr.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			expectedError: false,
		},
		{
			name:          "empty name",
			input:         &CellCreate{Name: "   "},
			setupMocks:    func(cr *MockCellRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:  "leader already leads another cell",
			input: &CellCreate{Name: "North Cell", LeaderID: int64Ptr(9)},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("LeaderOfAnotherCell", mock.Anything, int64(9), int64(0)).Return(true, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeLeaderTaken,
		},
		{
			name:  "name already in use",
			input: &CellCreate{Name: "North Cell"},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("NameTaken", mock.Anything, "North Cell", int64(0)).Return(true, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeNameTaken,
		},
		{
			name:  "leader does not exist",
			input: &CellCreate{Name: "North Cell", LeaderID: int64Ptr(999)},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("LeaderOfAnotherCell", mock.Anything, int64(999), int64(0)).Return(false, nil)
				cr.On("NameTaken", mock.Anything, "North Cell", int64(0)).Return(false, nil)
				cr.On("Create", mock.Anything, mock.Anything).Return(repository.ErrReferenceNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeBadReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCellRepo := new(MockCellRepository)

			tt.setupMocks(mockCellRepo)

			service := NewCellService().
				WithCellRepo(mockCellRepo)

			got, err := service.Create(context.Background(), tt.input)

			if tt.expectedError {
				assert.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
				assert.Nil(t, got)
			} else {
				assert.Nil(t, err)
				assert.NotNil(t, got)
			}

			mockCellRepo.AssertExpectations(t)
		})
	}
}

func TestCellService_Update(t *testing.T) {
	tests := []struct {
		name          string
		cellID        int64
		input         *CellUpdate
		setupMocks    func(*MockCellRepository)
		expectedError bool
		errorCode     ErrorCode
	}{
		{
			name:   "rename",
			cellID: 5,
			input:  &CellUpdate{Name: strPtr("South Cell")},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("NameTaken", mock.Anything, "South Cell", int64(5)).Return(false, nil)
				cr.On("Patch", mock.Anything, mock.MatchedBy(func(p *repository.CellPatch) bool {
					return p.ID == 5 && p.Name != nil && *p.Name == "South Cell"
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			name:   "clear leader",
			cellID: 5,
			input:  &CellUpdate{LeaderID: omitnull.FromPtr[int64](nil)},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("Patch", mock.Anything, mock.MatchedBy(func(p *repository.CellPatch) bool {
					return p.ID == 5 && p.LeaderID.IsNull()
				})).Return(nil)
			},
			expectedError: false,
		},
		{
			name:   "leader already leads another cell",
			cellID: 5,
			input:  &CellUpdate{LeaderID: omitnull.From[int64](9)},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("LeaderOfAnotherCell", mock.Anything, int64(9), int64(5)).Return(true, nil)
			},
			expectedError: true,
			errorCode:     ErrorCodeLeaderTaken,
		},
		{
			name:          "nothing to update",
			cellID:        5,
			input:         &CellUpdate{},
			setupMocks:    func(cr *MockCellRepository) {},
			expectedError: true,
			errorCode:     ErrorCodeInvalidBody,
		},
		{
			name:   "cell not found",
			cellID: 404,
			input:  &CellUpdate{Name: strPtr("South Cell")},
			setupMocks: func(cr *MockCellRepository) {
				cr.On("NameTaken", mock.Anything, "South Cell", int64(404)).Return(false, nil)
				cr.On("Patch", mock.Anything, mock.Anything).Return(repository.ErrNotFound)
			},
			expectedError: true,
			errorCode:     ErrorCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCellRepo := new(MockCellRepository)

			tt.setupMocks(mockCellRepo)

			service := NewCellService().
				WithCellRepo(mockCellRepo)

			err := service.Update(context.Background(), tt.cellID, tt.input)

			if tt.expectedError {
				assert.NotNil(t, err)
				assert.Equal(t, tt.errorCode, err.Code)
			} else {
				assert.Nil(t, err)
			}

			mockCellRepo.AssertExpectations(t)
		})
	}
}

func TestCellService_Delete(t *testing.T) {
	mockCellRepo := new(MockCellRepository)
	mockCellRepo.On("Delete", mock.Anything, int64(5)).Return(nil)

	service := NewCellService().
		WithCellRepo(mockCellRepo)

	assert.Nil(t, service.Delete(context.Background(), 5))
	mockCellRepo.AssertExpectations(t)
}

func TestCellService_Delete_NotFound(t *testing.T) {
	mockCellRepo := new(MockCellRepository)
	mockCellRepo.On("Delete", mock.Anything, int64(404)).Return(repository.ErrNotFound)

	service := NewCellService().
		WithCellRepo(mockCellRepo)

	err := service.Delete(context.Background(), 404)
	assert.NotNil(t, err)
	assert.Equal(t, ErrorCodeNotFound, err.Code)
}
