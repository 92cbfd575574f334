package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aarondl/opt/omitnull"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/db"
	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/repository"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

const (
	maxFullNameLen = 30
	maxPhoneLen    = 20
	birthDateFmt   = "2006-01-02"

	defaultPageSize = 10
	maxPageSize     = 100
)

type MemberService struct {
	tx db.Transactor

	members repository.MemberRepository
}

func NewMemberService(tx db.Transactor) *MemberService {
	return &MemberService{tx: tx}
}

func (s *MemberService) WithMemberRepo(r repository.MemberRepository) *MemberService {
	s.members = r
	return s
}

type MemberCreate struct {
	FullName      string
	BirthDate     *string
	Phone         *string
	CellID        *int64
	DepartmentIDs []int64
}

// MemberUpdate is a tri-state patch: unset fields are untouched, null fields
// are cleared, set fields are overwritten. A nil DepartmentIDs leaves the
// associations alone; an empty slice removes them all.
type MemberUpdate struct {
	FullName      *string
	BirthDate     omitnull.Val[string]
	Phone         omitnull.Val[string]
	CellID        omitnull.Val[int64]
	DepartmentIDs *[]int64
}

func (s *MemberService) Create(ctx context.Context, in *MemberCreate) (*model.Member, *Error) {
	l := logger.FromContext(ctx)

	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return nil, NewError(ErrorCodeInvalidBody, "full_name is required")
	}
	if utf8.RuneCountInString(fullName) > maxFullNameLen {
		return nil, NewError(ErrorCodeInvalidBody, "full_name must not exceed 30 characters")
	}

	phone, svcErr := normalizePhone(in.Phone)
	if svcErr != nil {
		return nil, svcErr
	}

	birthDate, svcErr := parseBirthDate(in.BirthDate)
	if svcErr != nil {
		return nil, svcErr
	}

	deptIDs := dedupeIDs(in.DepartmentIDs)

	row := &repository.Member{
		FullName:  fullName,
		BirthDate: birthDate,
		Phone:     phone,
		CellID:    in.CellID,
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.members.Create(txCtx, row); err != nil {
			if errors.Is(err, repository.ErrReferenceNotFound) {
				l.Warn("member create references missing cell or department", zap.String("full_name", fullName))
				return NewError(ErrorCodeBadReference, "referenced cell or department does not exist")
			}
			l.Error("failed to create member", zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create member")
		}

		if err := s.members.AssignDepartments(txCtx, row.ID, deptIDs); err != nil {
			if errors.Is(err, repository.ErrReferenceNotFound) {
				l.Warn("member create references missing department", zap.Int64("member_id", row.ID))
				return NewError(ErrorCodeBadReference, "referenced cell or department does not exist")
			}
			l.Error("failed to assign departments", zap.Int64("member_id", row.ID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to assign departments")
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	l.Info("member created", zap.Int64("member_id", row.ID), zap.String("full_name", fullName))

	m := memberToModel(row)
	m.DepartmentIDs = deptIDs
	return m, nil
}

func (s *MemberService) Update(ctx context.Context, memberID int64, in *MemberUpdate) *Error {
	l := logger.FromContext(ctx)

	patch := &repository.MemberPatch{ID: memberID}

	if in.FullName != nil {
		fullName := strings.TrimSpace(*in.FullName)
		if fullName == "" {
			return NewError(ErrorCodeInvalidBody, "full_name must not be empty when supplied")
		}
		if utf8.RuneCountInString(fullName) > maxFullNameLen {
			return NewError(ErrorCodeInvalidBody, "full_name must not exceed 30 characters")
		}
		patch.FullName = &fullName
	}

	if !in.Phone.IsUnset() {
		if in.Phone.IsNull() {
			patch.Phone.Null()
		} else {
			phone := strings.TrimSpace(in.Phone.MustGet())
			if phone == "" {
				patch.Phone.Null()
			} else {
				if utf8.RuneCountInString(phone) > maxPhoneLen {
					return NewError(ErrorCodeInvalidBody, "phone must not exceed 20 characters")
				}
				patch.Phone.Set(phone)
			}
		}
	}

	if !in.BirthDate.IsUnset() {
		if in.BirthDate.IsNull() || strings.TrimSpace(in.BirthDate.MustGet()) == "" {
			patch.BirthDate.Null()
		} else {
			parsed, err := time.Parse(birthDateFmt, strings.TrimSpace(in.BirthDate.MustGet()))
			if err != nil {
				return NewError(ErrorCodeInvalidBody, "birth_date must be a valid YYYY-MM-DD date")
			}
			patch.BirthDate.Set(parsed)
		}
	}

	if !in.CellID.IsUnset() {
		if in.CellID.IsNull() {
			patch.CellID.Null()
		} else {
			patch.CellID.Set(in.CellID.MustGet())
		}
	}

	if patch.Empty() && in.DepartmentIDs == nil {
		return NewError(ErrorCodeInvalidBody, "no fields supplied for update")
	}

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if !patch.Empty() {
			if err := s.members.Patch(txCtx, patch); err != nil {
				switch {
				case errors.Is(err, repository.ErrNotFound):
					return NewError(ErrorCodeNotFound, "member not found")
				case errors.Is(err, repository.ErrReferenceNotFound):
					return NewError(ErrorCodeBadReference, "referenced cell does not exist")
				}
				l.Error("failed to update member", zap.Int64("member_id", memberID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to update member")
			}
		} else {
			exists, err := s.members.Exists(txCtx, memberID)
			if err != nil {
				l.Error("failed to check member", zap.Int64("member_id", memberID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to update member")
			}
			if !exists {
				return NewError(ErrorCodeNotFound, "member not found")
			}
		}

		if in.DepartmentIDs != nil {
			deptIDs := dedupeIDs(*in.DepartmentIDs)
			if err := s.members.ClearDepartments(txCtx, memberID); err != nil {
				l.Error("failed to clear departments", zap.Int64("member_id", memberID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to update departments")
			}
			if err := s.members.AssignDepartments(txCtx, memberID, deptIDs); err != nil {
				if errors.Is(err, repository.ErrReferenceNotFound) {
					return NewError(ErrorCodeBadReference, "one or more department ids do not exist")
				}
				l.Error("failed to assign departments", zap.Int64("member_id", memberID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to update departments")
			}
		}
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	l.Info("member updated", zap.Int64("member_id", memberID))
	return nil
}

func (s *MemberService) Delete(ctx context.Context, memberID int64) *Error {
	l := logger.FromContext(ctx)

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		// Department links go first; the join table has no cascade on the
		// member side.
		if err := s.members.ClearDepartments(txCtx, memberID); err != nil {
			l.Error("failed to clear departments", zap.Int64("member_id", memberID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to delete member")
		}
		if err := s.members.Delete(txCtx, memberID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewError(ErrorCodeNotFound, "member not found")
			}
			l.Error("failed to delete member", zap.Int64("member_id", memberID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to delete member")
		}
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	l.Info("member deleted", zap.Int64("member_id", memberID))
	return nil
}

func (s *MemberService) List(ctx context.Context, filter *model.MemberFilter) (*model.MemberPage, *Error) {
	l := logger.FromContext(ctx)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	repoFilter := &repository.MemberFilter{
		Name:         strings.TrimSpace(filter.Name),
		DepartmentID: filter.DepartmentID,
		CellID:       filter.CellID,
		Limit:        limit,
		Offset:       (page - 1) * limit,
	}

	total, err := s.members.Count(ctx, repoFilter)
	if err != nil {
		l.Error("failed to count members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	rows, err := s.members.List(ctx, repoFilter)
	if err != nil {
		l.Error("failed to list members", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list members")
	}

	members := make([]*model.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, memberToModel(row))
	}

	return &model.MemberPage{
		Members:     members,
		TotalItems:  total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

func memberToModel(row *repository.Member) *model.Member {
	m := &model.Member{
		ID:            row.ID,
		FullName:      row.FullName,
		Phone:         row.Phone,
		CellID:        row.CellID,
		CellName:      row.CellName,
		DepartmentIDs: row.DeptIDs,
		Departments:   row.DeptNames,
	}
	if m.DepartmentIDs == nil {
		m.DepartmentIDs = []int64{}
	}
	if row.BirthDate != nil {
		formatted := row.BirthDate.Format(birthDateFmt)
		m.BirthDate = &formatted
	}
	return m
}

func normalizePhone(phone *string) (*string, *Error) {
	if phone == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*phone)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxPhoneLen {
		return nil, NewError(ErrorCodeInvalidBody, "phone must not exceed 20 characters")
	}
	return &trimmed, nil
}

func parseBirthDate(birthDate *string) (*time.Time, *Error) {
	if birthDate == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*birthDate)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(birthDateFmt, trimmed)
	if err != nil {
		return nil, NewError(ErrorCodeInvalidBody, "birth_date must be a valid YYYY-MM-DD date")
	}
	return &parsed, nil
}

// dedupeIDs keeps first occurrences in order, so the persisted set is exactly
// the deduplicated request.
func dedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func asServiceError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return NewError(ErrorCodeUnspecified, "unexpected error")
}
