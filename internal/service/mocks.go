package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/gabrielvss/ecclesia/internal/repository"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Create(ctx context.Context, member *repository.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) Patch(ctx context.Context, patch *repository.MemberPatch) error {
	args := m.Called(ctx, patch)
	return args.Error(0)
}

func (m *MockMemberRepository) Exists(ctx context.Context, memberID int64) (bool, error) {
	args := m.Called(ctx, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMemberRepository) Delete(ctx context.Context, memberID int64) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

func (m *MockMemberRepository) List(ctx context.Context, filter *repository.MemberFilter) ([]*repository.Member, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberRepository) Count(ctx context.Context, filter *repository.MemberFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMemberRepository) ListAll(ctx context.Context) ([]*repository.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Member), args.Error(1)
}

func (m *MockMemberRepository) ListBrief(ctx context.Context) ([]*repository.MemberBrief, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.MemberBrief), args.Error(1)
}

func (m *MockMemberRepository) ClearDepartments(ctx context.Context, memberID int64) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

func (m *MockMemberRepository) AssignDepartments(ctx context.Context, memberID int64, departmentIDs []int64) error {
	args := m.Called(ctx, memberID, departmentIDs)
	return args.Error(0)
}

func (m *MockMemberRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) ListWithCounts(ctx context.Context) ([]*repository.Department, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Department), args.Error(1)
}

func (m *MockDepartmentRepository) Create(ctx context.Context, d *repository.Department) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDepartmentRepository) Rename(ctx context.Context, departmentID int64, name string) error {
	args := m.Called(ctx, departmentID, name)
	return args.Error(0)
}

func (m *MockDepartmentRepository) Delete(ctx context.Context, departmentID int64) error {
	args := m.Called(ctx, departmentID)
	return args.Error(0)
}

func (m *MockDepartmentRepository) Exists(ctx context.Context, departmentID int64) (bool, error) {
	args := m.Called(ctx, departmentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDepartmentRepository) MemberIDs(ctx context.Context, departmentID int64) ([]int64, error) {
	args := m.Called(ctx, departmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockDepartmentRepository) ClearMembers(ctx context.Context, departmentID int64) error {
	args := m.Called(ctx, departmentID)
	return args.Error(0)
}

func (m *MockDepartmentRepository) AssignMembers(ctx context.Context, departmentID int64, memberIDs []int64) error {
	args := m.Called(ctx, departmentID, memberIDs)
	return args.Error(0)
}

func (m *MockDepartmentRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockCellRepository struct {
	mock.Mock
}

func (m *MockCellRepository) ListWithStats(ctx context.Context) ([]*repository.Cell, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.Cell), args.Error(1)
}

func (m *MockCellRepository) Create(ctx context.Context, c *repository.Cell) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCellRepository) Patch(ctx context.Context, patch *repository.CellPatch) error {
	args := m.Called(ctx, patch)
	return args.Error(0)
}

func (m *MockCellRepository) Delete(ctx context.Context, cellID int64) error {
	args := m.Called(ctx, cellID)
	return args.Error(0)
}

func (m *MockCellRepository) LeaderOfAnotherCell(ctx context.Context, memberID, excludeCellID int64) (bool, error) {
	args := m.Called(ctx, memberID, excludeCellID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCellRepository) NameTaken(ctx context.Context, name string, excludeCellID int64) (bool, error) {
	args := m.Called(ctx, name, excludeCellID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCellRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*repository.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*repository.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]*repository.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u *repository.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Patch(ctx context.Context, patch *repository.UserPatch) error {
	args := m.Called(ctx, patch)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) UsernameTaken(ctx context.Context, username string, excludeUserID int64) (bool, error) {
	args := m.Called(ctx, username, excludeUserID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
