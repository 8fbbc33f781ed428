package model

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrDuplicateUser         = errors.New("user already exists")
	ErrInvalidUserID         = errors.New("invalid user ID")
	ErrInvalidUserName       = errors.New("user name must not be empty")
	ErrInvalidGender         = errors.New("invalid gender")
	ErrInvalidAgeOfMajority  = errors.New("age of majority must not be negative")
	ErrStoreClosed           = errors.New("store is closed")
	ErrDatabaseQuery         = errors.New("database query error")
	ErrUnsupportedExpression = errors.New("expression cannot be translated")
)
