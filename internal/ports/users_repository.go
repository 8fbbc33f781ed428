package ports

import (
	"context"

	"github.com/architeacher/specifications/internal/domain/model"
)

type (
	Lister interface {
		// List returns every user satisfying spec; a nil spec returns all users.
		List(ctx context.Context, spec model.UserSpecification) ([]model.User, error)
	}

	Finder interface {
		// Find returns the users matching criteria, ordered and paged.
		Find(ctx context.Context, criteria model.Criteria) ([]model.User, error)
	}

	Fetcher interface {
		// Get retrieves a user by its ID.
		Get(ctx context.Context, id model.UserID) (model.User, error)
	}

	Saver interface {
		// Add stores a new user; an existing ID yields ErrDuplicateUser.
		Add(ctx context.Context, user model.User) error
	}

	Updater interface {
		// Update replaces the user with the same ID, inserting it when absent.
		Update(ctx context.Context, user model.User) error
	}

	Deleter interface {
		// Delete removes the user with user's ID.
		Delete(ctx context.Context, user model.User) error
	}

	// UsersRepository is the record store contract shared by every backend.
	UsersRepository interface {
		Lister
		Finder
		Fetcher
		Saver
		Updater
		Deleter

		Close() error
	}
)
