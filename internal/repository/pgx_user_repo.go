package repository

import (
	"context"
	"time"

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
	"github.com/gabrielvss/ecclesia/internal/model"
)

// User carries the password hash; it never leaves this layer unmapped.
type User struct {
	ID           int64      `db:"id"`
	Username     string     `db:"username"`
	PasswordHash string     `db:"password_hash"`
	Role         model.Role `db:"role"`
	CreatedAt    time.Time  `db:"created_at"`
}

type UserPatch struct {
	ID           int64
	Username     *string
	Role         *model.Role
	PasswordHash *string
}

type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, u *User) error
	Patch(ctx context.Context, patch *UserPatch) error
	Delete(ctx context.Context, userID int64) error
	UsernameTaken(ctx context.Context, username string, excludeUserID int64) (bool, error)
	CountAll(ctx context.Context) (int64, error)
}

type pgxUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgxUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgxUserRepository{pool: pool}
}

func (p *pgxUserRepository) GetByID(ctx context.Context, userID int64) (*User, error) {
	return p.get(ctx, psql.Quote("id").EQ(psql.Arg(userID)))
}

func (p *pgxUserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return p.get(ctx, psql.Quote("username").EQ(psql.Arg(username)))
}

func (p *pgxUserRepository) get(ctx context.Context, where bob.Expression) (*User, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "username", "password_hash", "role", "created_at"),
		sm.From("users"),
		sm.Where(where),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return nil, err
	}

	u := &User{}
	if err = e.QueryRow(ctx, sql, args...).Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (p *pgxUserRepository) List(ctx context.Context) ([]*User, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id", "username", "password_hash", "role", "created_at"),
		sm.From("users"),
		sm.OrderBy("id").Asc(),
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

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*User, error) {
		u := &User{}
		if err = row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		return u, nil
	})
}

func (p *pgxUserRepository) Create(ctx context.Context, u *User) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Insert(
		im.Into("users", "username", "password_hash", "role"),
		im.Values(psql.Arg(u.Username), psql.Arg(u.PasswordHash), psql.Arg(u.Role)),
		im.Returning("id", "created_at"),
	)

	sql, args, err := q.Build(ctx)
	if err != nil {
		return err
	}

	err = e.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExists
	}
	return err
}

func (p *pgxUserRepository) Patch(ctx context.Context, patch *UserPatch) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	sets := make([]bob.Mod[*dialect.UpdateQuery], 0, 3)

	if patch.Username != nil {
		sets = append(sets, um.SetCol("username").ToArg(*patch.Username))
	}
	if patch.Role != nil {
		sets = append(sets, um.SetCol("role").ToArg(*patch.Role))
	}
	if patch.PasswordHash != nil {
		sets = append(sets, um.SetCol("password_hash").ToArg(*patch.PasswordHash))
	}

	q := psql.Update(
		um.Table("users"),
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
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (p *pgxUserRepository) Delete(ctx context.Context, userID int64) error {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Delete(
		dm.From("users"),
		dm.Where(psql.Quote("id").EQ(psql.Arg(userID))),
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

func (p *pgxUserRepository) UsernameTaken(ctx context.Context, username string, excludeUserID int64) (bool, error) {
	e := db.GetPgxExecutorFromContext(ctx, p.pool)

	q := psql.Select(
		sm.Columns("id"),
		sm.From("users"),
		sm.Where(psql.Quote("username").EQ(psql.Arg(username))),
	)
	if excludeUserID > 0 {
		q.Apply(sm.Where(psql.Quote("id").NE(psql.Arg(excludeUserID))))
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

func (p *pgxUserRepository) CountAll(ctx context.Context) (int64, error) {
	return countTable(ctx, db.GetPgxExecutorFromContext(ctx, p.pool), "users")
}
