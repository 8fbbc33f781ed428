package model

import (
	"time"

	"github.com/architeacher/specifications/pkg/specification"
	"github.com/google/uuid"
)

const (
	FieldID          = "id"
	FieldName        = "name"
	FieldDateOfBirth = "dateOfBirth"
	FieldGender      = "gender"
)

type UserID struct {
	uuid.UUID
}

func NewUserID() UserID {
	return UserID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}

	return UserID{UUID: id}, nil
}

func (u UserID) String() string {
	return u.UUID.String()
}

func (u UserID) IsZero() bool {
	return u.UUID == uuid.Nil
}

// User is an immutable record; stores hold and return copies.
type User struct {
	ID          UserID
	Name        string
	DateOfBirth time.Time
	Gender      Gender
}

// NewUser validates its inputs and truncates dateOfBirth to a UTC calendar
// date.
func NewUser(id UserID, name string, dateOfBirth time.Time, gender Gender) (User, error) {
	if id.IsZero() {
		return User{}, ErrInvalidUserID
	}

	if name == "" {
		return User{}, ErrInvalidUserName
	}

	if !gender.IsValid() {
		return User{}, ErrInvalidGender
	}

	return User{
		ID:          id,
		Name:        name,
		DateOfBirth: Date(dateOfBirth),
		Gender:      gender,
	}, nil
}

// MustNewUser is NewUser for fixtures; it panics on invalid input.
func MustNewUser(id UserID, name string, dateOfBirth time.Time, gender Gender) User {
	u, err := NewUser(id, name, dateOfBirth, gender)
	if err != nil {
		panic(err)
	}

	return u
}

// Date returns midnight UTC of t's calendar day in UTC.
func Date(t time.Time) time.Time {
	return specification.DateOf(t)
}

// UserSchema lists the user fields specifications may reference.
var UserSchema = specification.NewSchema("user",
	specification.StringField(FieldID, func(u User) string { return u.ID.String() }),
	specification.StringField(FieldName, func(u User) string { return u.Name }),
	specification.DateField(FieldDateOfBirth, func(u User) time.Time { return u.DateOfBirth }),
	specification.IntField(FieldGender, func(u User) Gender { return u.Gender }),
)

// UserSpecification is a specification over users.
type UserSpecification = specification.Specification[User]
