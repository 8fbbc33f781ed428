package repos

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/architeacher/specifications/pkg/logger"
	"github.com/architeacher/specifications/pkg/specification"
)

// MemoryRepository keeps users in a map and evaluates specifications in
// process. Reads share the lock; every write is a single critical section.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[model.UserID]model.User
	closed bool
	logger logger.Logger
}

// NewMemoryRepository returns a store holding seed. Later duplicates of an
// ID replace earlier ones.
func NewMemoryRepository(log logger.Logger, seed ...model.User) *MemoryRepository {
	users := make(map[model.UserID]model.User, len(seed))
	for _, u := range seed {
		users[u.ID] = u
	}

	return &MemoryRepository{users: users, logger: log}
}

func (r *MemoryRepository) List(ctx context.Context, spec model.UserSpecification) ([]model.User, error) {
	return r.Find(ctx, model.ForSpec(spec))
}

func (r *MemoryRepository) Find(ctx context.Context, criteria model.Criteria) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var matches specification.Evaluator[model.User]

	if criteria.HasSpec() {
		fn, err := criteria.Spec().Evaluator()
		if err != nil {
			return nil, err
		}

		matches = fn
	}

	r.mu.RLock()

	if r.closed {
		r.mu.RUnlock()

		return nil, model.ErrStoreClosed
	}

	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		if matches == nil || matches(u) {
			users = append(users, u)
		}
	}

	r.mu.RUnlock()

	r.sort(users, criteria.Sorting())

	return paginate(users, criteria), nil
}

func (r *MemoryRepository) Get(ctx context.Context, id model.UserID) (model.User, error) {
	if err := ctx.Err(); err != nil {
		return model.User{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return model.User{}, model.ErrStoreClosed
	}

	u, ok := r.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}

	return u, nil
}

func (r *MemoryRepository) Add(ctx context.Context, user model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return model.ErrStoreClosed
	}

	if _, exists := r.users[user.ID]; exists {
		return model.ErrDuplicateUser
	}

	r.users[user.ID] = user

	return nil
}

// Update replaces or inserts user under a single write lock, so concurrent
// readers see either the old record or the new one.
func (r *MemoryRepository) Update(ctx context.Context, user model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return model.ErrStoreClosed
	}

	r.users[user.ID] = user

	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, user model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return model.ErrStoreClosed
	}

	if _, exists := r.users[user.ID]; !exists {
		return model.ErrUserNotFound
	}

	delete(r.users, user.ID)

	return nil
}

// Close drops the stored users; later calls fail with ErrStoreClosed.
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.users = nil

	return nil
}

func (r *MemoryRepository) sort(users []model.User, sorting []model.SortField) {
	keys := make([]model.SortField, 0, len(sorting))

	for _, s := range sorting {
		if _, ok := model.UserSchema.Field(s.Field); !ok {
			r.logger.Warn().
				Str("field", s.Field).
				Str("fallback", model.FieldName).
				Msg("unknown sort field requested, falling back to default")

			s.Field = model.FieldName
		}

		keys = append(keys, s)
	}

	slices.SortStableFunc(users, func(a, b model.User) int {
		for _, k := range keys {
			av, _ := model.UserSchema.Value(a, k.Field)
			bv, _ := model.UserSchema.Value(b, k.Field)

			c := compareValues(av, bv)
			if k.Direction == model.SortDesc {
				c = -c
			}

			if c != 0 {
				return c
			}
		}

		return 0
	})
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		return cmp.Compare(av, b.(string))
	case int64:
		return cmp.Compare(av, b.(int64))
	case float64:
		return cmp.Compare(av, b.(float64))
	case time.Time:
		return av.Compare(b.(time.Time))
	case bool:
		bb := b.(bool)
		if av == bb {
			return 0
		}

		if !av {
			return -1
		}

		return 1
	}

	return 0
}

func paginate(users []model.User, criteria model.Criteria) []model.User {
	if !criteria.HasPagination() {
		return users
	}

	offset := int(criteria.Offset())
	if offset >= len(users) {
		return []model.User{}
	}

	end := min(offset+int(criteria.Size()), len(users))

	return users[offset:end]
}
