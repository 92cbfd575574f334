package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dm"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"

	"github.com/gabrielvss/ecclesia/internal/db"
)

type Department struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	CreatedAt    time.Time `db:"created_at"`
	TotalMembers int64
}

type DepartmentRepository interface {
	ListWithCounts(ctx context.Context) ([]*Department, error)
	Create(ctx context.Context, d *Department) error
	Rename(ctx context.Context, departmentID int64, name string) error
	Delete(ctx context.Context, departmentID int64) error
	Exists(ctx context.Context, departmentID int64) (bool, error)
	MemberIDs(ctx context.Context, departmentID int64) ([]int64, error)
	ClearMembers(ctx context.Context, departmentID int64) error
	AssignMembers(ctx context.Context, departmentID int64, memberIDs []int64) error
	CountAll(ctx context.Context) (int64, error)
}

type pgxDepartmentRepository struct {
	pool *pgxpool.Pool
}

func NewPgxDepartmentRepository(pool *pgxpool.Pool) DepartmentRepository {
	return &pgxDepartmentRepository{pool: pool}
}

func (p *pgxDepartmentRepository) ListWithCounts(ctx context.Context) ([]*Department, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(
			"departments.id",
			"departments.name",
			"departments.created_at",
			psql.Raw("COUNT(member_departments.member_id) AS total_members"),
		),
		sm.From("departments"),
		sm.LeftJoin("member_departments").On(psql.Quote("departments", "id").EQ(psql.Quote("member_departments", "department_id"))),
		sm.GroupBy("departments.id"),
		sm.OrderBy("departments.name").Asc(),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Department, error) {
		d := &Department{}
		if err = row.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.TotalMembers); err != nil {
			return nil, err
		}
		return d, nil
	})
}

func (p *pgxDepartmentRepository) Create(ctx context.Context, d *Department) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("departments", "name"),
		im.Values(psql.Arg(d.Name)),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&d.ID, &d.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}

func (p *pgxDepartmentRepository) Rename(ctx context.Context, departmentID int64, name string) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Update(
		um.Table("departments"),
		um.SetCol("name").ToArg(name),
		um.Where(psql.Quote("id").EQ(psql.Arg(departmentID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	commandTag, err := e.Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	if commandTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *pgxDepartmentRepository) Delete(ctx context.Context, departmentID int64) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("departments"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(departmentID))),
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

func (p *pgxDepartmentRepository) Exists(ctx context.Context, departmentID int64) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id"),
		sm.From("departments"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(departmentID))),
	)

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

func (p *pgxDepartmentRepository) MemberIDs(ctx context.Context, departmentID int64) ([]int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("member_id"),
		sm.From("member_departments"),
		sm.Where(psql.Quote("department_id").EQ(psql.Arg(departmentID))),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (int64, error) {
		var id int64
		err = row.Scan(&id)
		return id, err
	})
}

func (p *pgxDepartmentRepository) ClearMembers(ctx context.Context, departmentID int64) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("member_departments"),
		dm.Where(psql.Quote("department_id").EQ(psql.Arg(departmentID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxDepartmentRepository) AssignMembers(ctx context.Context, departmentID int64, memberIDs []int64) error {
	if len(memberIDs) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("member_departments", "member_id", "department_id"),
	)

	for _, memberID := range memberIDs {
		q.Apply(im.Values(psql.Arg(memberID), psql.Arg(departmentID)))
	}

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrReferenceNotFound
	}
	return err
}

func (p *pgxDepartmentRepository) CountAll(ctx context.Context) (int64, error) {
	return countTable(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "departments")
}
