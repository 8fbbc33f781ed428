package model

import (
	"fmt"
	"time"

	"github.com/architeacher/specifications/pkg/specification"
)

const DefaultAgeOfMajority = 18

// UserIsAgeOfMajority holds for users born on or before Cutoff.
type UserIsAgeOfMajority struct {
	*specification.Spec[User]
	cutoff time.Time
}

func NewUserIsAgeOfMajority(cutoff time.Time) *UserIsAgeOfMajority {
	cutoff = Date(cutoff)

	return &UserIsAgeOfMajority{
		Spec: specification.New("userIsAgeOfMajority", UserSchema, specification.Lambda("user", func(user *specification.Param) specification.Expr {
			return specification.Lte(user.Field(FieldDateOfBirth), specification.Const(cutoff))
		})),
		cutoff: cutoff,
	}
}

// NewUserIsAgeOfMajorityForAge derives the cutoff as age years before the UTC
// calendar date of now.
func NewUserIsAgeOfMajorityForAge(age int, now time.Time) (*UserIsAgeOfMajority, error) {
	if age < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAgeOfMajority, age)
	}

	return NewUserIsAgeOfMajority(YearsBefore(now, age)), nil
}

func (s *UserIsAgeOfMajority) Cutoff() time.Time { return s.cutoff }

// YearsBefore subtracts years from the UTC date of t. February 29 maps to
// February 28 when the target year is not a leap year.
func YearsBefore(t time.Time, years int) time.Time {
	y, m, d := t.UTC().Date()
	year := y - years

	if last := daysIn(year, m); d > last {
		d = last
	}

	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
