// Package testutil содержит хранилища в памяти для тестов сервисов и HTTP.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"tourbook_backend/internal/models"
	"tourbook_backend/internal/repositories"
)

// Users - хранилище аккаунтов в памяти, реализует UserRepository.
// Всегда отдает копии, чтобы вызывающий код не мог изменить сохраненное состояние.
type Users struct {
	mu    sync.Mutex
	users map[string]*models.User

	// UpdateResetErr, если задан, возвращается из UpdateResetToken
	UpdateResetErr error
}

var _ repositories.UserRepository = (*Users)(nil)

func NewUsers() *Users {
	return &Users{users: make(map[string]*models.User)}
}

// Put сохраняет аккаунт как есть (с дефолтами) и возвращает его
func (s *Users) Put(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.PrepareCreate()
	cp := *u
	s.users[u.ID] = &cp
	return u
}

// Stored возвращает сохраненную запись вместе с хешем, включая неактивные
func (s *Users) Stored(id string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := *u
	return &cp
}

// Mutate меняет сохраненную запись напрямую
func (s *Users) Mutate(id string, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (s *Users) find(match func(u *models.User) bool, withPassword bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Active && match(u) {
			cp := *u
			if !withPassword {
				cp.PasswordHash = ""
			}
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (s *Users) FindByID(_ context.Context, id string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id }, false)
}

func (s *Users) FindByIDWithPassword(_ context.Context, id string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id }, true)
}

func (s *Users) FindByIDUnscoped(_ context.Context, id string) (*models.User, error) {
	if u := s.Stored(id); u != nil {
		u.PasswordHash = ""
		return u, nil
	}
	return nil, repositories.ErrUserNotFound
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return s.find(func(u *models.User) bool { return u.Email == email }, false)
}

func (s *Users) FindByEmailWithPassword(_ context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	return s.find(func(u *models.User) bool { return u.Email == email }, true)
}

func (s *Users) FindByResetToken(_ context.Context, hash string, now time.Time) (*models.User, error) {
	if hash == "" {
		return nil, repositories.ErrUserNotFound
	}
	return s.find(func(u *models.User) bool {
		return u.HasResetToken() && *u.PasswordResetToken == hash && u.PasswordResetExpires.After(now)
	}, false)
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	if user.PasswordHash == "" {
		return repositories.ErrEmptyPasswordHash
	}
	user.PrepareCreate()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repositories.ErrUserAlreadyExists
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Users) updateActive(id string, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || !u.Active {
		return repositories.ErrUserNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (s *Users) UpdatePassword(_ context.Context, user *models.User) error {
	if user.PasswordHash == "" {
		return repositories.ErrEmptyPasswordHash
	}
	return s.updateActive(user.ID, func(u *models.User) {
		u.PasswordHash = user.PasswordHash
		u.PasswordChangedAt = user.PasswordChangedAt
		u.PasswordResetToken = user.PasswordResetToken
		u.PasswordResetExpires = user.PasswordResetExpires
	})
}

func (s *Users) ConsumeResetToken(_ context.Context, user *models.User, hash string, now time.Time) error {
	if user.PasswordHash == "" {
		return repositories.ErrEmptyPasswordHash
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[user.ID]
	if !ok || !u.Active || hash == "" || !u.HasResetToken() ||
		*u.PasswordResetToken != hash || !u.PasswordResetExpires.After(now) {
		return repositories.ErrUserNotFound
	}
	u.PasswordHash = user.PasswordHash
	u.PasswordChangedAt = user.PasswordChangedAt
	u.ClearResetToken()
	u.UpdatedAt = time.Now()
	user.ClearResetToken()
	return nil
}

func (s *Users) UpdateResetToken(_ context.Context, user *models.User) error {
	if s.UpdateResetErr != nil {
		return s.UpdateResetErr
	}
	return s.updateActive(user.ID, func(u *models.User) {
		u.PasswordResetToken = user.PasswordResetToken
		u.PasswordResetExpires = user.PasswordResetExpires
	})
}

func (s *Users) Deactivate(_ context.Context, id string) error {
	return s.updateActive(id, func(u *models.User) { u.Active = false })
}

func (s *Users) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.PasswordResetExpires != nil && !u.PasswordResetExpires.After(now) {
			u.ClearResetToken()
			n++
		}
	}
	return n, nil
}

// Resources - вид того же хранилища как ResourceStore[models.User]
func (s *Users) Resources() repositories.ResourceStore[models.User] {
	return &userResources{s: s}
}

type userResources struct {
	s *Users
}

// List поддерживает только фильтры на равенство по role и email и
// сортировку по created_at (по убыванию), этого хватает HTTP-тестам.
func (r *userResources) List(_ context.Context, opts repositories.QueryOptions) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if !u.Active || !matchesFilters(u, opts.Filters) {
			continue
		}
		cp := *u
		out = append(out, *cp.Sanitize())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if opts.Limit > 0 {
		start := 0
		if opts.Page > 1 {
			start = (opts.Page - 1) * opts.Limit
		}
		if start > len(out) {
			start = len(out)
		}
		end := start + opts.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

func matchesFilters(u *models.User, filters []repositories.Filter) bool {
	for _, f := range filters {
		switch f.Field {
		case "role":
			if string(u.Role) != f.Value {
				return false
			}
		case "email":
			if u.Email != f.Value {
				return false
			}
		}
	}
	return true
}

func (r *userResources) Get(ctx context.Context, id string, _ ...string) (*models.User, error) {
	u, err := r.s.FindByID(ctx, id)
	if err != nil {
		return nil, repositories.ErrRecordNotFound
	}
	return u.Sanitize(), nil
}

func (r *userResources) Create(ctx context.Context, item *models.User) error {
	err := r.s.Create(ctx, item)
	if errors.Is(err, repositories.ErrUserAlreadyExists) {
		return repositories.ErrDuplicateRecord
	}
	return err
}

func (r *userResources) Update(ctx context.Context, id string, changes map[string]interface{}) (*models.User, error) {
	if err := (models.User{}).ValidateChanges(changes); err != nil {
		return nil, fmt.Errorf("%w: %w", repositories.ErrInvalidValue, err)
	}
	err := r.s.updateActive(id, func(u *models.User) {
		if v, ok := changes["name"].(string); ok {
			u.Name = v
		}
		if v, ok := changes["email"].(string); ok {
			u.Email = v
		}
		if v, ok := changes["photo"].(string); ok {
			u.Photo = v
		}
		if v, ok := changes["role"].(string); ok {
			u.Role = models.UserRole(v)
		}
	})
	if err != nil {
		return nil, repositories.ErrRecordNotFound
	}
	return r.Get(ctx, id)
}

func (r *userResources) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || !u.Active {
		return repositories.ErrRecordNotFound
	}
	delete(r.s.users, id)
	return nil
}
