package repos_test

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/architeacher/specifications/internal/adapters/repos"
	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/pkg/circuitbreaker"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/architeacher/specifications/pkg/specification"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

const (
	pgInsertUser = `INSERT INTO users (id,name,date_of_birth,gender) VALUES ($1,$2,$3,$4)`
	pgSelectUser = `SELECT id, name, date_of_birth, gender FROM users WHERE id = $1 LIMIT 1`
	pgDeleteUser = `DELETE FROM users WHERE id = $1`
)

var userRowColumns = []string{"id", "name", "date_of_birth", "gender"}

func runPostgresTest(
	t *testing.T,
	setupMock func(pgxmock.PgxPoolIface),
	testFn func(*testing.T, *repos.PostgresRepository),
) {
	runPostgresTestWithLogger(t, nil, setupMock, func(t *testing.T, repo *repos.PostgresRepository, _ *bytes.Buffer) {
		testFn(t, repo)
	})
}

func runPostgresTestWithLogger(
	t *testing.T,
	breaker *circuitbreaker.CircuitBreaker[[]model.User],
	setupMock func(pgxmock.PgxPoolIface),
	testFn func(*testing.T, *repos.PostgresRepository, *bytes.Buffer),
) {
	t.Helper()
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	setupMock(mock)

	logBuffer := &bytes.Buffer{}
	repo := repos.NewPostgresRepository(mock, repos.NewPgxScanner(), breaker, logger.NewBufferedTestLogger(logBuffer))
	testFn(t, repo, logBuffer)

	require.NoError(t, mock.ExpectationsWereMet())
}

func newTestUser(name string, gender model.Gender) model.User {
	return model.MustNewUser(model.NewUserID(), name, time.Date(1990, 3, 4, 0, 0, 0, 0, time.UTC), gender)
}

func TestPostgresRepository_Add(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		user        model.User
		execErr     error
		expectedErr error
	}{
		{
			name: "successfully add user",
			user: newTestUser("Hellfire", model.GenderMale),
		},
		{
			name:        "unique violation code returns ErrDuplicateUser",
			user:        newTestUser("Duplicate", model.GenderFemale),
			execErr:     &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"},
			expectedErr: model.ErrDuplicateUser,
		},
		{
			name:        "duplicate key message returns ErrDuplicateUser",
			user:        newTestUser("Duplicate", model.GenderFemale),
			execErr:     errors.New("duplicate key value violates unique constraint \"users_pkey\""),
			expectedErr: model.ErrDuplicateUser,
		},
		{
			name:        "database error returns wrapped ErrDatabaseQuery",
			user:        newTestUser("Broken", model.GenderMale),
			execErr:     errors.New("connection refused"),
			expectedErr: model.ErrDatabaseQuery,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runPostgresTest(t, func(mock pgxmock.PgxPoolIface) {
				exec := mock.ExpectExec(regexp.QuoteMeta(pgInsertUser)).
					WithArgs(tc.user.ID.String(), tc.user.Name, tc.user.DateOfBirth, int16(tc.user.Gender))

				if tc.execErr != nil {
					exec.WillReturnError(tc.execErr)

					return
				}

				exec.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}, func(t *testing.T, repo *repos.PostgresRepository) {
				err := repo.Add(t.Context(), tc.user)

				if tc.expectedErr != nil {
					require.ErrorIs(t, err, tc.expectedErr)

					return
				}

				require.NoError(t, err)
			})
		})
	}
}

func TestPostgresRepository_Get(t *testing.T) {
	t.Parallel()

	id := model.NewUserID()
	dob := time.Date(1975, 11, 11, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		setupMock    func(mock pgxmock.PgxPoolIface)
		expectedErr  error
		expectedUser model.User
	}{
		{
			name: "successfully get user",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(pgSelectUser)).
					WithArgs(id.String()).
					WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(id.String(), "LittleLady", dob, int16(2)))
			},
			expectedUser: model.MustNewUser(id, "LittleLady", dob, model.GenderFemale),
		},
		{
			name: "missing row returns ErrUserNotFound",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(pgSelectUser)).
					WithArgs(id.String()).
					WillReturnRows(pgxmock.NewRows(userRowColumns))
			},
			expectedErr: model.ErrUserNotFound,
		},
		{
			name: "out of range gender is rejected",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(pgSelectUser)).
					WithArgs(id.String()).
					WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(id.String(), "Odd", dob, int16(9)))
			},
			expectedErr: model.ErrDatabaseQuery,
		},
		{
			name: "query error returns wrapped ErrDatabaseQuery",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(pgSelectUser)).
					WithArgs(id.String()).
					WillReturnError(errors.New("connection reset"))
			},
			expectedErr: model.ErrDatabaseQuery,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runPostgresTest(t, tc.setupMock, func(t *testing.T, repo *repos.PostgresRepository) {
				user, err := repo.Get(t.Context(), id)

				if tc.expectedErr != nil {
					require.ErrorIs(t, err, tc.expectedErr)

					return
				}

				require.NoError(t, err)
				require.Equal(t, tc.expectedUser, user)
			})
		})
	}
}

func TestPostgresRepository_List(t *testing.T) {
	t.Parallel()

	cutoff := time.Date(2007, 10, 16, 0, 0, 0, 0, time.UTC)
	adult := model.NewUserIsAgeOfMajority(cutoff)
	hellfire := model.MustNewUser(model.NewUserID(), "Hellfire", time.Date(1974, 10, 16, 0, 0, 0, 0, time.UTC), model.GenderMale)
	shyGuy := model.MustNewUser(model.NewUserID(), "ShyGuy", time.Date(2007, 10, 15, 0, 0, 0, 0, time.UTC), model.GenderMale)

	rowsOf := func(users ...model.User) *pgxmock.Rows {
		rows := pgxmock.NewRows(userRowColumns)
		for _, u := range users {
			rows.AddRow(u.ID.String(), u.Name, u.DateOfBirth, int16(u.Gender))
		}

		return rows
	}

	cases := []struct {
		name          string
		spec          model.UserSpecification
		expectedQuery string
		expectedArgs  []any
		rows          *pgxmock.Rows
		expectedUsers []model.User
	}{
		{
			name:          "no spec selects everyone",
			expectedQuery: `SELECT id, name, date_of_birth, gender FROM users ORDER BY name ASC, id ASC`,
			rows:          rowsOf(hellfire, shyGuy),
			expectedUsers: []model.User{hellfire, shyGuy},
		},
		{
			name:          "adult males",
			spec:          adult.And(model.NewUserHasGender(model.GenderMale)),
			expectedQuery: `SELECT id, name, date_of_birth, gender FROM users WHERE (date_of_birth <= $1 AND ($2 & gender) <> $3) ORDER BY name ASC, id ASC`,
			expectedArgs:  []any{cutoff, int64(1), int64(0)},
			rows:          rowsOf(hellfire, shyGuy),
			expectedUsers: []model.User{hellfire, shyGuy},
		},
		{
			name:          "minors",
			spec:          adult.Not(),
			expectedQuery: `SELECT id, name, date_of_birth, gender FROM users WHERE NOT (date_of_birth <= $1) ORDER BY name ASC, id ASC`,
			expectedArgs:  []any{cutoff},
			rows:          rowsOf(),
			expectedUsers: []model.User{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runPostgresTestWithLogger(t, nil, func(mock pgxmock.PgxPoolIface) {
				query := mock.ExpectQuery(regexp.QuoteMeta(tc.expectedQuery))
				if len(tc.expectedArgs) > 0 {
					query = query.WithArgs(tc.expectedArgs...)
				}

				query.WillReturnRows(tc.rows)
			}, func(t *testing.T, repo *repos.PostgresRepository, logs *bytes.Buffer) {
				users, err := repo.List(t.Context(), tc.spec)
				require.NoError(t, err)
				require.Equal(t, tc.expectedUsers, users)
				require.Contains(t, logs.String(), "finding users")
			})
		})
	}
}

func TestPostgresRepository_FindWithPaging(t *testing.T) {
	runPostgresTest(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT id, name, date_of_birth, gender FROM users WHERE ($1 & gender) <> $2 ORDER BY date_of_birth DESC LIMIT 2 OFFSET 2`,
		)).
			WithArgs(int64(2), int64(0)).
			WillReturnRows(pgxmock.NewRows(userRowColumns))
	}, func(t *testing.T, repo *repos.PostgresRepository) {
		criteria := model.NewCriteria().
			Where(model.NewUserHasGender(model.GenderFemale)).
			OrderBy("-" + model.FieldDateOfBirth).
			Paginate(2, 2).
			Build()

		users, err := repo.Find(t.Context(), criteria)
		require.NoError(t, err)
		require.Empty(t, users)
	})
}

func TestPostgresRepository_UntranslatableSpecNeverHitsTheDatabase(t *testing.T) {
	runPostgresTest(t, func(pgxmock.PgxPoolIface) {}, func(t *testing.T, repo *repos.PostgresRepository) {
		spec := userSpec("email", func(u *specification.Param) specification.Expr {
			return specification.Eq(u.Field("email"), specification.Const("x@example.com"))
		})

		_, err := repo.List(t.Context(), spec)
		require.ErrorIs(t, err, model.ErrUnsupportedExpression)
	})
}

func TestPostgresRepository_Update(t *testing.T) {
	user := newTestUser("Laforge", model.GenderMale)

	runPostgresTest(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectExec(regexp.QuoteMeta(
			pgInsertUser + ` ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, date_of_birth = EXCLUDED.date_of_birth, gender = EXCLUDED.gender`,
		)).
			WithArgs(user.ID.String(), user.Name, user.DateOfBirth, int16(user.Gender)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}, func(t *testing.T, repo *repos.PostgresRepository) {
		require.NoError(t, repo.Update(t.Context(), user))
	})
}

func TestPostgresRepository_Delete(t *testing.T) {
	t.Parallel()

	user := newTestUser("Pipsqueak", model.GenderFemale)

	cases := []struct {
		name        string
		affected    int64
		execErr     error
		expectedErr error
	}{
		{
			name:     "successfully delete user",
			affected: 1,
		},
		{
			name:        "no affected rows returns ErrUserNotFound",
			affected:    0,
			expectedErr: model.ErrUserNotFound,
		},
		{
			name:        "database error returns wrapped ErrDatabaseQuery",
			execErr:     errors.New("connection refused"),
			expectedErr: model.ErrDatabaseQuery,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runPostgresTest(t, func(mock pgxmock.PgxPoolIface) {
				exec := mock.ExpectExec(regexp.QuoteMeta(pgDeleteUser)).WithArgs(user.ID.String())

				if tc.execErr != nil {
					exec.WillReturnError(tc.execErr)

					return
				}

				exec.WillReturnResult(pgxmock.NewResult("DELETE", tc.affected))
			}, func(t *testing.T, repo *repos.PostgresRepository) {
				err := repo.Delete(t.Context(), user)

				if tc.expectedErr != nil {
					require.ErrorIs(t, err, tc.expectedErr)

					return
				}

				require.NoError(t, err)
			})
		})
	}
}

func TestPostgresRepository_Bootstrap(t *testing.T) {
	first := newTestUser("Hellfire", model.GenderMale)
	second := newTestUser("LittleLady", model.GenderFemale)

	runPostgresTest(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).
			WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
		mock.ExpectExec(regexp.QuoteMeta(
			`INSERT INTO users (id,name,date_of_birth,gender) VALUES ($1,$2,$3,$4),($5,$6,$7,$8) ON CONFLICT (id) DO NOTHING`,
		)).
			WithArgs(
				first.ID.String(), first.Name, first.DateOfBirth, int16(first.Gender),
				second.ID.String(), second.Name, second.DateOfBirth, int16(second.Gender),
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 2))
	}, func(t *testing.T, repo *repos.PostgresRepository) {
		require.NoError(t, repo.Bootstrap(t.Context(), []model.User{first, second}))
	})
}

func TestPostgresRepository_BreakerOpensAfterFailures(t *testing.T) {
	breaker := circuitbreaker.New[[]model.User](circuitbreaker.Config{
		Name:             "users-store",
		Enabled:          true,
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: 1,
	})

	runPostgresTestWithLogger(t, breaker, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, date_of_birth, gender FROM users`)).
			WillReturnError(errors.New("connection refused"))
	}, func(t *testing.T, repo *repos.PostgresRepository, _ *bytes.Buffer) {
		_, err := repo.List(t.Context(), nil)
		require.ErrorIs(t, err, model.ErrDatabaseQuery)

		_, err = repo.List(t.Context(), nil)
		require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
		require.Equal(t, "open", breaker.State())
	})
}

func TestPostgresRepository_Closed(t *testing.T) {
	user := newTestUser("Hellfire", model.GenderMale)

	runPostgresTest(t, func(mock pgxmock.PgxPoolIface) {
		mock.ExpectPing()
	}, func(t *testing.T, repo *repos.PostgresRepository) {
		require.NoError(t, repo.Ping(t.Context()))

		require.NoError(t, repo.Close())
		require.NoError(t, repo.Close())

		_, err := repo.List(t.Context(), nil)
		require.ErrorIs(t, err, model.ErrStoreClosed)

		_, err = repo.Get(t.Context(), user.ID)
		require.ErrorIs(t, err, model.ErrStoreClosed)

		require.ErrorIs(t, repo.Add(t.Context(), user), model.ErrStoreClosed)
		require.ErrorIs(t, repo.Update(t.Context(), user), model.ErrStoreClosed)
		require.ErrorIs(t, repo.Delete(t.Context(), user), model.ErrStoreClosed)
		require.ErrorIs(t, repo.Ping(t.Context()), model.ErrStoreClosed)
	})
}
