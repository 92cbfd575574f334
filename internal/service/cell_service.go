package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/aarondl/opt/omitnull"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gabrielvss/ecclesia/internal/model"
	"github.com/gabrielvss/ecclesia/internal/repository"
	"github.com/gabrielvss/ecclesia/pkg/logger"
)

const (
	maxCellNameLen    = 100
	maxCellAddressLen = 100
)

type CellService struct {
	cells repository.CellRepository
}

func NewCellService() *CellService {
	return &CellService{}
}

func (s *CellService) WithCellRepo(r repository.CellRepository) *CellService {
	s.cells = r
	return s
}

type CellCreate struct {
	Name         string
	LeaderID     *int64
	Neighborhood *string
	Street       *string
}

type CellUpdate struct {
	Name         *string
	LeaderID     omitnull.Val[int64]
	Neighborhood omitnull.Val[string]
	Street       omitnull.Val[string]
}

func (s *CellService) List(ctx context.Context) ([]*model.Cell, *Error) {
	l := logger.FromContext(ctx)

	rows, err := s.cells.ListWithStats(ctx)
	if err != nil {
		l.Error("failed to list cells", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list cells")
	}

	cells := make([]*model.Cell, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, &model.Cell{
			ID:           row.ID,
			Name:         row.Name,
			LeaderID:     row.LeaderID,
			LeaderName:   row.LeaderName,
			Neighborhood: row.Neighborhood,
			Street:       row.Street,
			TotalMembers: row.TotalMembers,
		})
	}
	return cells, nil
}

func (s *CellService) Create(ctx context.Context, in *CellCreate) (*model.Cell, *Error) {
	l := logger.FromContext(ctx)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewError(ErrorCodeInvalidBody, "name is required")
	}
	if utf8.RuneCountInString(name) > maxCellNameLen {
		return nil, NewError(ErrorCodeInvalidBody, "name must not exceed 100 characters")
	}

	neighborhood, svcErr := normalizeAddress(in.Neighborhood, "neighborhood")
	if svcErr != nil {
		return nil, svcErr
	}
	street, svcErr := normalizeAddress(in.Street, "street")
	if svcErr != nil {
		return nil, svcErr
	}

	// Leader uniqueness is a service pre-check, not a DB constraint.
	if in.LeaderID != nil {
		taken, err := s.cells.LeaderOfAnotherCell(ctx, *in.LeaderID, 0)
		if err != nil {
			l.Error("failed to check leader", zap.Int64p("leader_id", in.LeaderID), zap.Error(err))
			return nil, NewError(ErrorCodeUnspecified, "failed to create cell")
		}
		if taken {
			return nil, NewError(ErrorCodeLeaderTaken, "this member already leads another cell")
		}
	}

	taken, err := s.cells.NameTaken(ctx, name, 0)
	if err != nil {
		l.Error("failed to check cell name", zap.String("name", name), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create cell")
	}
	if taken {
		return nil, NewError(ErrorCodeNameTaken, "a cell with this name already exists")
	}

	row := &repository.Cell{
		Name:         name,
		LeaderID:     in.LeaderID,
		Neighborhood: neighborhood,
		Street:       street,
	}
	if err := s.cells.Create(ctx, row); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			// Lost the race between pre-check and insert.
			return nil, NewError(ErrorCodeNameTaken, "a cell with this name already exists")
		case errors.Is(err, repository.ErrReferenceNotFound):
			return nil, NewError(ErrorCodeBadReference, "the selected leader does not exist")
		}
		l.Error("failed to create cell", zap.String("name", name), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create cell")
	}

	l.Info("cell created", zap.Int64("cell_id", row.ID), zap.String("name", name))

	return &model.Cell{
		ID:           row.ID,
		Name:         row.Name,
		LeaderID:     row.LeaderID,
		Neighborhood: row.Neighborhood,
		Street:       row.Street,
	}, nil
}

func (s *CellService) Update(ctx context.Context, cellID int64, in *CellUpdate) *Error {
	l := logger.FromContext(ctx)

	patch := &repository.CellPatch{ID: cellID}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return NewError(ErrorCodeInvalidBody, "name must not be empty when supplied")
		}
		if utf8.RuneCountInString(name) > maxCellNameLen {
			return NewError(ErrorCodeInvalidBody, "name must not exceed 100 characters")
		}
		patch.Name = &name
	}

	if !in.LeaderID.IsUnset() {
		if in.LeaderID.IsNull() {
			patch.LeaderID.Null()
		} else {
			patch.LeaderID.Set(in.LeaderID.MustGet())
		}
	}

	if svcErr := normalizeAddressPatch(in.Neighborhood, &patch.Neighborhood, "neighborhood"); svcErr != nil {
		return svcErr
	}
	if svcErr := normalizeAddressPatch(in.Street, &patch.Street, "street"); svcErr != nil {
		return svcErr
	}

	if patch.Empty() {
		return NewError(ErrorCodeInvalidBody, "no fields supplied for update")
	}

	if patch.LeaderID.IsValue() {
		taken, err := s.cells.LeaderOfAnotherCell(ctx, patch.LeaderID.MustGet(), cellID)
		if err != nil {
			l.Error("failed to check leader", zap.Int64("cell_id", cellID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to update cell")
		}
		if taken {
			return NewError(ErrorCodeLeaderTaken, "this member already leads another cell")
		}
	}

	if patch.Name != nil {
		taken, err := s.cells.NameTaken(ctx, *patch.Name, cellID)
		if err != nil {
			l.Error("failed to check cell name", zap.Int64("cell_id", cellID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to update cell")
		}
		if taken {
			return NewError(ErrorCodeNameTaken, "another cell with this name already exists")
		}
	}

	if err := s.cells.Patch(ctx, patch); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return NewError(ErrorCodeNotFound, "cell not found")
		case errors.Is(err, repository.ErrAlreadyExists):
			return NewError(ErrorCodeNameTaken, "another cell with this name already exists")
		case errors.Is(err, repository.ErrReferenceNotFound):
			return NewError(ErrorCodeBadReference, "the selected leader does not exist")
		}
		l.Error("failed to update cell", zap.Int64("cell_id", cellID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to update cell")
	}

	l.Info("cell updated", zap.Int64("cell_id", cellID))
	return nil
}

func (s *CellService) Delete(ctx context.Context, cellID int64) *Error {
	l := logger.FromContext(ctx)

	// members.cell_id is ON DELETE SET NULL, so referencing members are
	// detached, never dangling.
	if err := s.cells.Delete(ctx, cellID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "cell not found")
		}
		l.Error("failed to delete cell", zap.Int64("cell_id", cellID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete cell")
	}

	l.Info("cell deleted", zap.Int64("cell_id", cellID))
	return nil
}

func normalizeAddress(value *string, field string) (*string, *Error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxCellAddressLen {
		return nil, NewError(ErrorCodeInvalidBody, field+" must not exceed 100 characters")
	}
	return &trimmed, nil
}

func normalizeAddressPatch(in omitnull.Val[string], out *omitnull.Val[string], field string) *Error {
	if in.IsUnset() {
		return nil
	}
	if in.IsNull() {
		out.Null()
		return nil
	}
	trimmed := strings.TrimSpace(in.MustGet())
	if trimmed == "" {
		out.Null()
		return nil
	}
	if utf8.RuneCountInString(trimmed) > maxCellAddressLen {
		return NewError(ErrorCodeInvalidBody, field+" must not exceed 100 characters")
	}
	out.Set(trimmed)
	return nil
}
