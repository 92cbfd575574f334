package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/db"
	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/repository"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

const maxDepartmentNameLen = 15

type DepartmentService struct {
	tx db.Transactor

	departments repository.DepartmentRepository
	members     repository.MemberRepository
}

func NewDepartmentService(tx db.Transactor) *DepartmentService {
	return &DepartmentService{tx: tx}
}

func (s *DepartmentService) WithDepartmentRepo(r repository.DepartmentRepository) *DepartmentService {
	s.departments = r
	return s
}

func (s *DepartmentService) WithMemberRepo(r repository.MemberRepository) *DepartmentService {
	s.members = r
	return s
}

func (s *DepartmentService) List(ctx context.Context) ([]*model.Department, *Error) {
	l := logger.FromContext(ctx)

	rows, err := s.departments.ListWithCounts(ctx)
	if err != nil {
		l.Error("failed to list departments", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list departments")
	}

	departments := make([]*model.Department, 0, len(rows))
	for _, row := range rows {
		departments = append(departments, &model.Department{
			ID:           row.ID,
			Name:         row.Name,
			CreatedAt:    row.CreatedAt,
			TotalMembers: row.TotalMembers,
		})
	}
	return departments, nil
}

func (s *DepartmentService) Create(ctx context.Context, name string) (*model.Department, *Error) {
	l := logger.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrorCodeInvalidBody, "name is required")
	}
	if utf8.RuneCountInString(name) > maxDepartmentNameLen {
		return nil, NewError(ErrorCodeInvalidBody, "name must not exceed 15 characters")
	}

	row := &repository.Department{Name: name}
	if err := s.departments.Create(ctx, row); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("department name taken", zap.String("name", name))
			return nil, NewError(ErrorCodeNameTaken, "a department with this name already exists")
		}
		l.Error("failed to create department", zap.String("name", name), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create department")
	}

	l.Info("department created", zap.Int64("department_id", row.ID), zap.String("name", name))

	return &model.Department{
		ID:        row.ID,
		Name:      row.Name,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *DepartmentService) Rename(ctx context.Context, departmentID int64, name string) *Error {
	l := logger.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return NewError(ErrorCodeInvalidBody, "name is required")
	}
	if utf8.RuneCountInString(name) > maxDepartmentNameLen {
		return NewError(ErrorCodeInvalidBody, "name must not exceed 15 characters")
	}

	if err := s.departments.Rename(ctx, departmentID, name); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "department not found")
		case errors.Is(err, repository.ErrAlreadyExists):
			return NewError(ErrorCodeNameTaken, "another department with this name already exists")
		}
		l.Error("failed to rename department", zap.Int64("department_id", departmentID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to rename department")
	}

	l.Info("department renamed", zap.Int64("department_id", departmentID), zap.String("name", name))
	return nil
}

func (s *DepartmentService) Delete(ctx context.Context, departmentID int64) *Error {
	l := logger.FromContext(ctx)

	// Join rows go with it via the DB-level cascade.
	if err := s.departments.Delete(ctx, departmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "department not found")
		}
		l.Error("failed to delete department", zap.Int64("department_id", departmentID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete department")
	}

	l.Info("department deleted", zap.Int64("department_id", departmentID))
	return nil
}

// Members returns the complete member roster with a per-member flag telling
// whether it currently belongs to the department.
func (s *DepartmentService) Members(ctx context.Context, departmentID int64) ([]*model.DepartmentMember, *Error) {
	l := logger.FromContext(ctx)

	exists, err := s.departments.Exists(ctx, departmentID)
	if err != nil {
		l.Error("failed to check department", zap.Int64("department_id", departmentID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list department members")
	}
	if !exists {
		return nil, NewError(ErrorCodeNotFound, "department not found")
	}

	all, err := s.members.ListBrief(ctx)
	if err != nil {
		l.Error("failed to list members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list department members")
	}

	linkedIDs, err := s.departments.MemberIDs(ctx, departmentID)
	if err != nil {
		l.Error("failed to list linked members", zap.Int64("department_id", departmentID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list department members")
	}

	linked := make(map[int64]struct{}, len(linkedIDs))
	for _, id := range linkedIDs {
		linked[id] = struct{}{}
	}

	roster := make([]*model.DepartmentMember, 0, len(all))
	for _, m := range all {
		_, belongs := linked[m.ID]
		roster = append(roster, &model.DepartmentMember{
			ID:       m.ID,
			FullName: m.FullName,
			Phone:    m.Phone,
			Belongs:  belongs,
		})
	}
	return roster, nil
}

// SyncMembers makes the department's member set exactly equal to memberIDs:
// all existing links are removed and the surviving set re-inserted in one
// transaction. A nonexistent member ID rolls the whole operation back.
func (s *DepartmentService) SyncMembers(ctx context.Context, departmentID int64, memberIDs []int64) *Error {
	l := logger.FromContext(ctx)

	exists, err := s.departments.Exists(ctx, departmentID)
	if err != nil {
		l.Error("failed to check department", zap.Int64("department_id", departmentID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to sync department members")
	}
	if !exists {
		return NewError(ErrorCodeNotFound, "department not found")
	}

	ids := dedupeIDs(memberIDs)

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.departments.ClearMembers(txCtx, departmentID); err != nil {
			l.Error("failed to clear department members", zap.Int64("department_id", departmentID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to sync department members")
		}
		if err := s.departments.AssignMembers(txCtx, departmentID, ids); err != nil {
			if errors.Is(err, repository.ErrReferenceNotFound) {
				l.Warn("sync references missing member", zap.Int64("department_id", departmentID))
				return NewError(ErrorCodeBadReference, "one or more member ids do not exist")
			}
			l.Error("failed to assign department members", zap.Int64("department_id", departmentID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to sync department members")
		}
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	l.Info("department members synced",
		zap.Int64("department_id", departmentID),
		zap.Int("member_count", len(ids)))
	return nil
}
