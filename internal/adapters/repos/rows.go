package repos

import (
	"fmt"
	"time"

	"github.com/architeacher/specifications/internal/domain/model"
)

const usersTable = "users"

var userColumns = []string{"id", "name", "date_of_birth", "gender"}

type (
	pgUserRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		DateOfBirth time.Time `db:"date_of_birth"`
		Gender      int16     `db:"gender"`
	}

	sqliteUserRow struct {
		ID          string `db:"id"`
		Name        string `db:"name"`
		DateOfBirth string `db:"date_of_birth"`
		Gender      int64  `db:"gender"`
	}
)

func (r pgUserRow) toUser() (model.User, error) {
	return rowToUser(r.ID, r.Name, r.DateOfBirth, int64(r.Gender))
}

func (r sqliteUserRow) toUser() (model.User, error) {
	dob, err := time.Parse(time.DateOnly, r.DateOfBirth)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse date of birth %q: %w", r.DateOfBirth, err)
	}

	return rowToUser(r.ID, r.Name, dob, r.Gender)
}

func rowToUser(rawID, name string, dob time.Time, gender int64) (model.User, error) {
	id, err := model.ParseUserID(rawID)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to parse user ID: %w", err)
	}

	if gender < 0 || gender > int64(model.GenderAny) {
		return model.User{}, fmt.Errorf("%w: stored value %d", model.ErrInvalidGender, gender)
	}

	return model.NewUser(id, name, dob, model.Gender(gender))
}

func toUsers[R interface{ toUser() (model.User, error) }](rows []R) ([]model.User, error) {
	users := make([]model.User, 0, len(rows))

	for index := range rows {
		user, err := rows[index].toUser()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}

		users = append(users, user)
	}

	return users, nil
}
