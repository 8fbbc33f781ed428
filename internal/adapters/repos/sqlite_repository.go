package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/georgysavva/scany/v2/sqlscan"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const sqliteCreateUsersTable = `CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	date_of_birth TEXT NOT NULL,
	gender        INTEGER NOT NULL
)`

// SQLiteRepository stores users in an SQLite database. Dates are kept as
// ISO calendar strings so that range predicates compare correctly as text.
type SQLiteRepository struct {
	db         *sql.DB
	translator *ExprTranslator
	logger     logger.Logger
	closed     atomic.Bool
}

func NewSQLiteRepository(db *sql.DB, log logger.Logger) *SQLiteRepository {
	return &SQLiteRepository{
		db:         db,
		translator: NewExprTranslator(SQLiteDialect, log),
		logger:     log,
	}
}

// Bootstrap creates the users table when missing and inserts seed users
// whose IDs are not stored yet.
func (r *SQLiteRepository) Bootstrap(ctx context.Context, seed []model.User) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	if _, err := r.db.ExecContext(ctx, sqliteCreateUsersTable); err != nil {
		return fmt.Errorf("%w: creating users table: %v", model.ErrDatabaseQuery, err)
	}

	if len(seed) == 0 {
		return nil
	}

	builder := r.translator.StatementBuilder().Insert(usersTable).Columns(userColumns...)
	for _, u := range seed {
		builder = builder.Values(sqliteValues(u)...)
	}

	query, args, err := builder.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build seed query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: seeding users: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, spec model.UserSpecification) ([]model.User, error) {
	return r.Find(ctx, model.ForSpec(spec))
}

func (r *SQLiteRepository) Find(ctx context.Context, criteria model.Criteria) ([]model.User, error) {
	if r.closed.Load() {
		return nil, model.ErrStoreClosed
	}

	builder, err := r.translator.ApplyToSelect(
		r.translator.StatementBuilder().Select(userColumns...).From(usersTable),
		criteria,
	)
	if err != nil {
		return nil, err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	r.logger.Debug().Str("query", query).Int("args", len(args)).Msg("finding users")

	var rows []sqliteUserRow
	if err := sqlscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return toUsers(rows)
}

func (r *SQLiteRepository) Get(ctx context.Context, id model.UserID) (model.User, error) {
	if r.closed.Load() {
		return model.User{}, model.ErrStoreClosed
	}

	query, args, err := r.translator.StatementBuilder().
		Select(userColumns...).
		From(usersTable).
		Where(sq.Eq{"id": id.String()}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.User{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var row sqliteUserRow
	if err := sqlscan.Get(ctx, r.db, &row, query, args...); err != nil {
		if sqlscan.NotFound(err) {
			return model.User{}, model.ErrUserNotFound
		}

		return model.User{}, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	user, err := row.toUser()
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return user, nil
}

func (r *SQLiteRepository) Add(ctx context.Context, user model.User) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	query, args, err := r.translator.StatementBuilder().
		Insert(usersTable).
		Columns(userColumns...).
		Values(sqliteValues(user)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isSQLiteConstraintError(err) {
			return model.ErrDuplicateUser
		}

		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

// Update upserts user in one statement.
func (r *SQLiteRepository) Update(ctx context.Context, user model.User) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	query, args, err := r.translator.StatementBuilder().
		Insert(usersTable).
		Columns(userColumns...).
		Values(sqliteValues(user)...).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, user model.User) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	query, args, err := r.translator.StatementBuilder().
		Delete(usersTable).
		Where(sq.Eq{"id": user.ID.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	if affected == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	return r.db.PingContext(ctx)
}

// Close closes the database. Closing twice is a no-op.
func (r *SQLiteRepository) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}

	return r.db.Close()
}

func sqliteValues(u model.User) []any {
	return []any{u.ID.String(), u.Name, u.DateOfBirth.Format(time.DateOnly), int64(u.Gender)}
}

func isSQLiteConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
