package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/pkg/circuitbreaker"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode = "23505"

	upsertSuffix = "ON CONFLICT (id) DO UPDATE SET " +
		"name = EXCLUDED.name, date_of_birth = EXCLUDED.date_of_birth, gender = EXCLUDED.gender"

	pgCreateUsersTable = `CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	date_of_birth DATE NOT NULL,
	gender        SMALLINT NOT NULL
)`
)

type (
	// PoolOps defines the interface for database operations.
	// This allows injecting mock implementations for testing.
	PoolOps interface {
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		Ping(ctx context.Context) error
		Close()
	}

	// PostgresRepository stores users in PostgreSQL and pushes specifications
	// down as WHERE clauses.
	PostgresRepository struct {
		pool       PoolOps
		scanner    Scanner
		translator *ExprTranslator
		breaker    *circuitbreaker.CircuitBreaker[[]model.User]
		logger     logger.Logger
		closed     atomic.Bool
	}
)

// NewPostgresRepository creates a PostgresRepository. A nil breaker runs
// reads directly.
func NewPostgresRepository(
	pool PoolOps,
	scanner Scanner,
	breaker *circuitbreaker.CircuitBreaker[[]model.User],
	log logger.Logger,
) *PostgresRepository {
	return &PostgresRepository{
		pool:       pool,
		scanner:    scanner,
		translator: NewExprTranslator(PostgresDialect, log),
		breaker:    breaker,
		logger:     log,
	}
}

// Bootstrap creates the users table when missing and inserts seed users
// whose IDs are not stored yet.
func (r *PostgresRepository) Bootstrap(ctx context.Context, seed []model.User) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	if _, err := r.pool.Exec(ctx, pgCreateUsersTable); err != nil {
		return fmt.Errorf("%w: creating users table: %v", model.ErrDatabaseQuery, err)
	}

	if len(seed) == 0 {
		return nil
	}

	builder := r.translator.StatementBuilder().Insert(usersTable).Columns(userColumns...)
	for _, u := range seed {
		builder = builder.Values(pgValues(u)...)
	}

	query, args, err := builder.Suffix("ON CONFLICT (id) DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build seed query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: seeding users: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context, spec model.UserSpecification) ([]model.User, error) {
	return r.Find(ctx, model.ForSpec(spec))
}

func (r *PostgresRepository) Find(ctx context.Context, criteria model.Criteria) ([]model.User, error) {
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

	return circuitbreaker.Execute(r.breaker, func() ([]model.User, error) {
		return r.queryUsers(ctx, query, args)
	})
}

func (r *PostgresRepository) Get(ctx context.Context, id model.UserID) (model.User, error) {
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

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var row pgUserRow
	if err := r.scanner.ScanOne(&row, rows); err != nil {
		if r.scanner.IsNotFound(err) {
			return model.User{}, model.ErrUserNotFound
		}

		return model.User{}, fmt.Errorf("user with ID %s: %w", id, err)
	}

	user, err := row.toUser()
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return user, nil
}

func (r *PostgresRepository) Add(ctx context.Context, user model.User) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	query, args, err := r.translator.StatementBuilder().
		Insert(usersTable).
		Columns(userColumns...).
		Values(pgValues(user)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		if isDuplicateKeyError(err) {
			return model.ErrDuplicateUser
		}

		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

// Update upserts user in one statement.
func (r *PostgresRepository) Update(ctx context.Context, user model.User) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	query, args, err := r.translator.StatementBuilder().
		Insert(usersTable).
		Columns(userColumns...).
		Values(pgValues(user)...).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, user model.User) error {
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

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	if result.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

func (r *PostgresRepository) Ping(ctx context.Context) error {
	if r.closed.Load() {
		return model.ErrStoreClosed
	}

	return r.pool.Ping(ctx)
}

// Close releases the pool. Closing twice is a no-op.
func (r *PostgresRepository) Close() error {
	if r.closed.CompareAndSwap(false, true) {
		r.pool.Close()
	}

	return nil
}

func (r *PostgresRepository) queryUsers(ctx context.Context, query string, args []any) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var userRows []pgUserRow
	if err := r.scanner.ScanAll(&userRows, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return toUsers(userRows)
}

func pgValues(u model.User) []any {
	return []any{u.ID.String(), u.Name, u.DateOfBirth, int16(u.Gender)}
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	msg := err.Error()

	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
