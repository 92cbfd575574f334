package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

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

type Member struct {
	ID        int64      `db:"id"`
	FullName  string     `db:"full_name"`
	BirthDate *time.Time `db:"birth_date"`
	Phone     *string    `db:"phone"`
	CellID    *int64     `db:"cell_id"`

	// Aggregates from the listing query.
	CellName  *string
	DeptIDs   []int64
	DeptNames *string
}

// MemberPatch distinguishes three states per nullable column: unset (keep),
// null (clear) and set (overwrite).
type MemberPatch struct {
	ID        int64
	FullName  *string
	BirthDate omitnull.Val[time.Time]
	Phone     omitnull.Val[string]
	CellID    omitnull.Val[int64]
}

func (p *MemberPatch) Empty() bool {
	return p.FullName == nil && p.BirthDate.IsUnset() && p.Phone.IsUnset() && p.CellID.IsUnset()
}

// MemberFilter predicates combine with AND; zero values are ignored.
type MemberFilter struct {
	Name         string
	DepartmentID int64
	CellID       int64
	Limit        int64
	Offset       int64
}

type MemberBrief struct {
	ID       int64
	FullName string
	Phone    *string
}

type MemberRepository interface {
	Create(ctx context.Context, m *Member) error
	Patch(ctx context.Context, patch *MemberPatch) error
	Exists(ctx context.Context, memberID int64) (bool, error)
	Delete(ctx context.Context, memberID int64) error
	List(ctx context.Context, filter *MemberFilter) ([]*Member, error)
	Count(ctx context.Context, filter *MemberFilter) (int64, error)
	ListAll(ctx context.Context) ([]*Member, error)
	ListBrief(ctx context.Context) ([]*MemberBrief, error)
	ClearDepartments(ctx context.Context, memberID int64) error
	AssignDepartments(ctx context.Context, memberID int64, departmentIDs []int64) error
	CountAll(ctx context.Context) (int64, error)
}

type pgxMemberRepository struct {
	pool *pgxpool.Pool
}

func NewPgxMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &pgxMemberRepository{pool: pool}
}

func (p *pgxMemberRepository) Create(ctx context.Context, m *Member) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("members", "full_name", "birth_date", "phone", "cell_id"),
		im.Values(psql.Arg(m.FullName), psql.Arg(m.BirthDate), psql.Arg(m.Phone), psql.Arg(m.CellID)),
		im.Returning("id"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&m.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrReferenceNotFound
	}
	return err
}

func (p *pgxMemberRepository) Patch(ctx context.Context, patch *MemberPatch) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 4)

	if patch.FullName != nil {
		sets = append(sets, um.SetCol("full_name").ToArg(*patch.FullName))
	}
	if !patch.BirthDate.IsUnset() {
		sets = append(sets, um.SetCol("birth_date").ToArg(patch.BirthDate.MustPtr()))
	}
	if !patch.Phone.IsUnset() {
		sets = append(sets, um.SetCol("phone").ToArg(patch.Phone.MustPtr()))
	}
	if !patch.CellID.IsUnset() {
		sets = append(sets, um.SetCol("cell_id").ToArg(patch.CellID.MustPtr()))
	}

	q := psql.Update(
		um.Table("members"),
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
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrReferenceNotFound
		}
		return err
	}
	return nil
}

func (p *pgxMemberRepository) Exists(ctx context.Context, memberID int64) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id"),
		sm.From("members"),
		sm.Where(psql.Quote("id").EQ(psql.Arg(memberID))),
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

func (p *pgxMemberRepository) Delete(ctx context.Context, memberID int64) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("members"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(memberID))),
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

// filterMods builds the joins and predicates shared by List and Count so the
// page and its total can never disagree.
func memberFilterMods(filter *MemberFilter) []bob.Mod[*dialect.SelectQuery] {
	mods := []bob.Mod[*dialect.SelectQuery]{
		sm.From("members"),
		sm.LeftJoin("cells").On(psql.Quote("members", "cell_id").EQ(psql.Quote("cells", "id"))),
		sm.LeftJoin("member_departments").On(psql.Quote("members", "id").EQ(psql.Quote("member_departments", "member_id"))),
		sm.LeftJoin("departments").On(psql.Quote("member_departments", "department_id").EQ(psql.Quote("departments", "id"))),
	}

	if filter == nil {
		return mods
	}
	if filter.Name != "" {
		mods = append(mods, sm.Where(psql.Raw("members.full_name ILIKE ?", "%"+filter.Name+"%")))
	}
	if filter.DepartmentID > 0 {
		mods = append(mods, sm.Where(psql.Quote("member_departments", "department_id").EQ(psql.Arg(filter.DepartmentID))))
	}
	if filter.CellID > 0 {
		mods = append(mods, sm.Where(psql.Quote("members", "cell_id").EQ(psql.Arg(filter.CellID))))
	}
	return mods
}

// memberListQuery builds the page query. The join yields each department link
// at most once per member, so the aggregates need no DISTINCT and can order
// ids numerically and names alphabetically.
func memberListQuery(filter *MemberFilter, paginate bool) bob.BaseQuery[*dialect.SelectQuery] {
	q := psql.Select(
		sm.Columns(
			"members.id",
			"members.full_name",
			"members.birth_date",
			"members.phone",
			"members.cell_id",
			psql.Raw("cells.name AS cell_name"),
			psql.Raw("string_agg(departments.id::text, ',' ORDER BY departments.id) AS department_ids"),
			psql.Raw("string_agg(departments.name, ', ' ORDER BY departments.name) AS department_names"),
		),
	)
	q.Apply(memberFilterMods(filter)...)
	q.Apply(
		sm.GroupBy("members.id"),
		sm.GroupBy("cells.name"),
		sm.OrderBy("members.full_name").Asc(),
	)
	if paginate && filter != nil && filter.Limit > 0 {
		q.Apply(
			sm.Limit(filter.Limit),
			sm.Offset(filter.Offset),
		)
	}
	return q
}

func (p *pgxMemberRepository) list(ctx context.Context, filter *MemberFilter, paginate bool) ([]*Member, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := memberListQuery(filter, paginate)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := e.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Member, error) {
		m := &Member{}
		var deptIDs *string
		if err = row.Scan(&m.ID, &m.FullName, &m.BirthDate, &m.Phone, &m.CellID, &m.CellName, &deptIDs, &m.DeptNames); err != nil {
			return nil, err
		}
		m.DeptIDs = splitIDList(deptIDs)
		return m, nil
	})
}

func (p *pgxMemberRepository) List(ctx context.Context, filter *MemberFilter) ([]*Member, error) {
	return p.list(ctx, filter, true)
}

func (p *pgxMemberRepository) ListAll(ctx context.Context) ([]*Member, error) {
	return p.list(ctx, nil, false)
}

func (p *pgxMemberRepository) Count(ctx context.Context, filter *MemberFilter) (int64, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns(psql.Raw("COUNT(DISTINCT members.id)")),
	)
	q.Apply(memberFilterMods(filter)...)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	if err = e.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (p *pgxMemberRepository) ListBrief(ctx context.Context) ([]*MemberBrief, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "full_name", "phone"),
		sm.From("members"),
		sm.OrderBy("full_name").Asc(),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*MemberBrief, error) {
		b := &MemberBrief{}
		if err = row.Scan(&b.ID, &b.FullName, &b.Phone); err != nil {
			return nil, err
		}
		return b, nil
	})
}

func (p *pgxMemberRepository) ClearDepartments(ctx context.Context, memberID int64) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("member_departments"),
		dm.Where(psql.Quote("member_id").EQ(psql.Arg(memberID))),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	_, err = e.Exec(ctx, sql, args...)
	return err
}

func (p *pgxMemberRepository) AssignDepartments(ctx context.Context, memberID int64, departmentIDs []int64) error {
	if len(departmentIDs) == 0 {
		return nil
	}

	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("member_departments", "member_id", "department_id"),
	)

	for _, deptID := range departmentIDs {
		q.Apply(im.Values(psql.Arg(memberID), psql.Arg(deptID)))
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

func (p *pgxMemberRepository) CountAll(ctx context.Context) (int64, error) {
	return countTable(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "members")
}

// splitIDList turns the aggregated "1,2,3" column back into integers.
func splitIDList(s *string) []int64 {
	if s == nil || *s == "" {
		return []int64{}
	}
	parts := strings.Split(*s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func countTable(ctx context.Context, e db.Executor, table string) (int64, error) {
	q := psql.Select(
		sm.Columns(psql.Raw("COUNT(*)")),
		sm.From(table),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	if err = e.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
