package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/repository"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

type SummaryService struct {
	members     repository.MemberRepository
	departments repository.DepartmentRepository
	cells       repository.CellRepository
	users       repository.UserRepository
}

func NewSummaryService() *SummaryService {
	return &SummaryService{}
}

func (s *SummaryService) WithMemberRepo(r repository.MemberRepository) *SummaryService {
	s.members = r
	return s
}

func (s *SummaryService) WithDepartmentRepo(r repository.DepartmentRepository) *SummaryService {
	s.departments = r
	return s
}

func (s *SummaryService) WithCellRepo(r repository.CellRepository) *SummaryService {
	s.cells = r
	return s
}

func (s *SummaryService) WithUserRepo(r repository.UserRepository) *SummaryService {
	s.users = r
	return s
}

func (s *SummaryService) Summary(ctx context.Context) (*model.Summary, *Error) {
	l := logger.FromContext(ctx)

	members, err := s.members.CountAll(ctx)
	if err != nil {
		l.Error("failed to count members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to build summary")
	}
	departments, err := s.departments.CountAll(ctx)
	if err != nil {
		l.Error("failed to count departments", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to build summary")
	}
	cells, err := s.cells.CountAll(ctx)
	if err != nil {
		l.Error("failed to count cells", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to build summary")
	}
	users, err := s.users.CountAll(ctx)
	if err != nil {
		l.Error("failed to count users", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to build summary")
	}

	return &model.Summary{
		TotalMembers:     members,
		TotalDepartments: departments,
		TotalCells:       cells,
		TotalUsers:       users,
	}, nil
}
