// Package memory is an in-process credential store with the same uniqueness
// guarantees as the Mongo repository. It backs STORE_DRIVER=memory and the
// service and API tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/99minutos/identity-service/internal/core/domain"
)

type UserRepository struct {
	mu        sync.RWMutex
	byID      map[string]*domain.User
	emails    map[string]string
	usernames map[string]string
	apiKeys   map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:      make(map[string]*domain.User),
		emails:    make(map[string]string),
		usernames: make(map[string]string),
		apiKeys:   make(map[string]string),
	}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

// taken reports the first unique field of u owned by a different user.
func (r *UserRepository) taken(u *domain.User) string {
	if id, ok := r.emails[u.Email]; ok && id != u.ID {
		return domain.FieldEmail
	}
	if id, ok := r.usernames[u.Username]; ok && id != u.ID {
		return domain.FieldUsername
	}
	if id, ok := r.apiKeys[u.APIKeySecret]; ok && id != u.ID {
		return domain.FieldAPIKey
	}
	return ""
}

func (r *UserRepository) index(u *domain.User) {
	r.emails[u.Email] = u.ID
	r.usernames[u.Username] = u.ID
	r.apiKeys[u.APIKeySecret] = u.ID
}

func (r *UserRepository) unindex(u *domain.User) {
	delete(r.emails, u.Email)
	delete(r.usernames, u.Username)
	delete(r.apiKeys, u.APIKeySecret)
}

// replace swaps the stored row for next, keeping indexes consistent.
func (r *UserRepository) replace(prev, next *domain.User) error {
	if field := r.taken(next); field != "" {
		return &domain.ConflictError{Field: field}
	}
	r.unindex(prev)
	next.UpdatedAt = time.Now().UTC()
	r.byID[next.ID] = next
	r.index(next)
	return nil
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[user.ID]; exists {
		return &domain.ConflictError{Field: "id"}
	}
	if field := r.taken(user); field != "" {
		return &domain.ConflictError{Field: field}
	}
	stored := cloneUser(user)
	r.byID[stored.ID] = stored
	r.index(stored)
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) FindViewByID(ctx context.Context, id string) (*domain.UserView, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Redacted(), nil
}

func (r *UserRepository) lookup(index map[string]string, key string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.lookup(r.emails, email)
}

func (r *UserRepository) FindByAPIKeySecret(_ context.Context, secret string) (*domain.User, error) {
	return r.lookup(r.apiKeys, secret)
}

func (r *UserRepository) FindConflict(_ context.Context, email, username string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.emails[email]; ok {
		return domain.FieldEmail, nil
	}
	if _, ok := r.usernames[username]; ok {
		return domain.FieldUsername, nil
	}
	return "", nil
}

func (r *UserRepository) mutate(id string, fn func(u *domain.User)) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	next := cloneUser(prev)
	fn(next)
	if err := r.replace(prev, next); err != nil {
		return nil, err
	}
	return cloneUser(next), nil
}

func (r *UserRepository) Update(_ context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	return r.mutate(id, func(u *domain.User) {
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.Username != nil {
			u.Username = *patch.Username
		}
	})
}

func (r *UserRepository) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	return r.mutate(id, func(u *domain.User) { u.Role = role })
}

func (r *UserRepository) UpdatePasswordHash(_ context.Context, id, hash string) error {
	_, err := r.mutate(id, func(u *domain.User) { u.PasswordHash = hash })
	return err
}

func (r *UserRepository) UpdateAPIKeySecret(_ context.Context, id, secret string) error {
	_, err := r.mutate(id, func(u *domain.User) { u.APIKeySecret = secret })
	return err
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	r.unindex(u)
	delete(r.byID, id)
	return nil
}

// List orders by creation time, then id, matching the Mongo repository.
func (r *UserRepository) List(_ context.Context, req domain.PageRequest) ([]*domain.UserView, int64, error) {
	r.mu.RLock()
	all := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		all = append(all, u)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := int64(len(all))
	start := req.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := total
	if req.PerPage > 0 && int64(req.PerPage) < total-start {
		end = start + int64(req.PerPage)
	}

	views := make([]*domain.UserView, 0, end-start)
	for _, u := range all[start:end] {
		views = append(views, u.Redacted())
	}
	return views, total, nil
}
