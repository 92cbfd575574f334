package repository

import (
	"context"

	"github.com/aarondl/opt/omitnull"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/gabrielvss/ecclesia/internal/db"
)

type Cell struct {
	ID           int64   `db:"id"`
	Name         string  `db:"name"`
	LeaderID     *int64  `db:"leader_id"`
	Neighborhood *string `db:"neighborhood"`
	Street       *string `db:"street"`

	// Aggregates from the listing query.
	LeaderName   *string
	TotalMembers int64
}

type CellPatch struct {
	ID           int64
	Name         *string
	LeaderID     omitnull.Val[int64]
	Neighborhood omitnull.Val[string]
	Street       omitnull.Val[string]
}

func (p *CellPatch) Empty() bool {
	return p.Name == nil && p.LeaderID.IsUnset() && p.Neighborhood.IsUnset() && p.Street.IsUnset()
}

type CellRepository interface {
	ListWithStats(ctx context.Context) ([]*Cell, error)
	Create(ctx context.Context, c *Cell) error
	Patch(ctx context.Context, patch *CellPatch) error
	Delete(ctx context.Context, cellID int64) error
	// LeaderOfAnotherCell reports whether memberID already leads a cell other
	// than excludeCellID (0 to exclude nothing).
	LeaderOfAnotherCell(ctx context.Context, memberID, excludeCellID int64) (bool, error)
	NameTaken(ctx context.Context, name string, excludeCellID int64) (bool, error)
	CountAll(ctx context.Context) (int64, error)
}

type pgxCellRepository struct {
	pool *pgxpool.Pool
}

func NewPgxCellRepository(pool *pgxpool.Pool) CellRepository {
	return &pgxCellRepository{pool: pool}
}

func (p *pgxCellRepository) ListWithStats(ctx context.Context) ([]*Cell, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(
			"cells.id",
			"cells.name",
			"cells.leader_id",
			psql.Raw("leaders.full_name AS leader_name"),
			"cells.neighborhood",
			"cells.street",
			psql.Raw("COUNT(DISTINCT members.id) AS total_members"),
		),
		sm.From("cells"),
		sm.LeftJoin("members").As("leaders").On(psql.Quote("cells", "leader_id").EQ(psql.Quote("leaders", "id"))),
		sm.LeftJoin("members").On(psql.Quote("members", "cell_id").EQ(psql.Quote("cells", "id"))),
		sm.GroupBy("cells.id"),
		sm.GroupBy("leaders.full_name"),
		sm.OrderBy("cells.name").Asc(),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Cell, error) {
		c := &Cell{}
		if err = row.Scan(&c.ID, &c.Name, &c.LeaderID, &c.LeaderName, &c.Neighborhood, &c.Street, &c.TotalMembers); err != nil {
			return nil, err
		}
		return c, nil
	})
}

func (p *pgxCellRepository) Create(ctx context.Context, c *Cell) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("cells", "name", "leader_id", "neighborhood", "street"),
		im.Values(psql.Arg(c.Name), psql.Arg(c.LeaderID), psql.Arg(c.Neighborhood), psql.Arg(c.Street)),
		im.Returning("id"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&c.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrAlreadyExists
		case "23503":
			return ErrReferenceNotFound
		}
	}
	return err
}

func (p *pgxCellRepository) Patch(ctx context.Context, patch *CellPatch) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 4)

	if patch.Name != nil {
		sets = append(sets, um.SetCol("name").ToArg(*patch.Name))
	}
	if !patch.LeaderID.IsUnset() {
		sets = append(sets, um.SetCol("leader_id").ToArg(patch.LeaderID.MustPtr()))
	}
	if !patch.Neighborhood.IsUnset() {
		sets = append(sets, um.SetCol("neighborhood").ToArg(patch.Neighborhood.MustPtr()))
	}
	if !patch.Street.IsUnset() {
		sets = append(sets, um.SetCol("street").ToArg(patch.Street.MustPtr()))
	}

	q := psql.Update(
		um.Table("cells"),
		um.Where(psql.Quote("id").EQ(psql.Arg(patch.ID))),
		um.Returning("id"),
	)

	q.Apply(sets...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	var id int64
	if err = e.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrAlreadyExists
			case "23503":
				return ErrReferenceNotFound
			}
		}
		return err
	}
	return nil
}

func (p *pgxCellRepository) Delete(ctx context.Context, cellID int64) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("cells"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(cellID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	commandTag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgxCellRepository) LeaderOfAnotherCell(ctx context.Context, memberID, excludeCellID int64) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id"),
		sm.From("cells"),
		sm.Where(psql.Quote("leader_id").EQ(psql.Arg(memberID))),
	)
	if excludeCellID > 0 {
		q.Apply(sm.Where(psql.Quote("id").NE(psql.Arg(excludeCellID))))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return false, err
	}

	var id int64
	if err = e.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *pgxCellRepository) NameTaken(ctx context.Context, name string, excludeCellID int64) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id"),
		sm.From("cells"),
		sm.Where(psql.Quote("name").EQ(psql.Arg(name))),
	)
	if excludeCellID > 0 {
		q.Apply(sm.Where(psql.Quote("id").NE(psql.Arg(excludeCellID))))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return false, err
	}

	var id int64
	if err = e.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *pgxCellRepository) CountAll(ctx context.Context) (int64, error) {
	return countTable(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "cells")
}
