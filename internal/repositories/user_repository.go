package repositories

import (
	"context"
	"errors"
	"time"

	"tourbook_backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrEmptyPasswordHash = errors.New("password hash must not be empty")
)

// Колонки, которые читаются по умолчанию. password_hash в выборку не входит
// и запрашивается только методами *WithPassword.
var userDefaultColumns = append(models.User{}.Selectable(),
	"password_reset_token", "password_reset_expires", "active")

var userColumnsWithPassword = append(append([]string{}, userDefaultColumns...), "password_hash")

// UserRepository - хранилище учетных данных. Все чтения исключают
// деактивированные аккаунты, если не используется FindByIDUnscoped.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDWithPassword(ctx context.Context, id string) (*models.User, error)
	FindByIDUnscoped(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByEmailWithPassword(ctx context.Context, email string) (*models.User, error)
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)

	Create(ctx context.Context, user *models.User) error
	// UpdatePassword пишет хеш, password_changed_at и поля сброса одной операцией
	UpdatePassword(ctx context.Context, user *models.User) error
	// ConsumeResetToken пишет новый пароль и гасит токен сброса одним UPDATE
	// с условием на хеш токена и срок. Второй вызов с тем же токеном
	// получает ErrUserNotFound.
	ConsumeResetToken(ctx context.Context, user *models.User, tokenHash string, now time.Time) error
	// UpdateResetToken пишет только пару полей сброса, без валидации остальных
	UpdateResetToken(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
	// ClearExpiredResetTokens обнуляет пары полей сброса с истекшим сроком
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

var _ ResourceStore[models.User] = (*ResourceRepository[models.User])(nil)

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) active(ctx context.Context, columns []string) *gorm.DB {
	return models.User{}.DefaultScope(r.db.WithContext(ctx).Select(columns))
}

func (r *UserRepositoryImpl) first(q *gorm.DB, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := q.Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(r.active(ctx, userDefaultColumns), "id = ?", id)
}

func (r *UserRepositoryImpl) FindByIDWithPassword(ctx context.Context, id string) (*models.User, error) {
	return r.first(r.active(ctx, userColumnsWithPassword), "id = ?", id)
}

func (r *UserRepositoryImpl) FindByIDUnscoped(ctx context.Context, id string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Select(userDefaultColumns), "id = ?", id)
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(r.active(ctx, userDefaultColumns), "email = ?", models.NormalizeEmail(email))
}

func (r *UserRepositoryImpl) FindByEmailWithPassword(ctx context.Context, email string) (*models.User, error) {
	return r.first(r.active(ctx, userColumnsWithPassword), "email = ?", models.NormalizeEmail(email))
}

// FindByResetToken находит аккаунт по хешу токена сброса, срок которого не истек
func (r *UserRepositoryImpl) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	if tokenHash == "" {
		return nil, ErrUserNotFound
	}
	return r.first(r.active(ctx, userDefaultColumns),
		"password_reset_token = ? AND password_reset_expires > ?", tokenHash, now)
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	if user.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	user.PrepareCreate()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) UpdatePassword(ctx context.Context, user *models.User) error {
	if user.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	return r.updateColumns(ctx, user.ID, map[string]interface{}{
		"password_hash":          user.PasswordHash,
		"password_changed_at":    user.PasswordChangedAt,
		"password_reset_token":   user.PasswordResetToken,
		"password_reset_expires": user.PasswordResetExpires,
		"updated_at":             time.Now(),
	})
}

func (r *UserRepositoryImpl) ConsumeResetToken(ctx context.Context, user *models.User, tokenHash string, now time.Time) error {
	if user.PasswordHash == "" {
		return ErrEmptyPasswordHash
	}
	if tokenHash == "" {
		return ErrUserNotFound
	}

	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND active = ? AND password_reset_token = ? AND password_reset_expires > ?",
			user.ID, true, tokenHash, now).
		Updates(map[string]interface{}{
			"password_hash":          user.PasswordHash,
			"password_changed_at":    user.PasswordChangedAt,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	user.ClearResetToken()
	return nil
}

func (r *UserRepositoryImpl) UpdateResetToken(ctx context.Context, user *models.User) error {
	return r.updateColumns(ctx, user.ID, map[string]interface{}{
		"password_reset_token":   user.PasswordResetToken,
		"password_reset_expires": user.PasswordResetExpires,
		"updated_at":             time.Now(),
	})
}

func (r *UserRepositoryImpl) Deactivate(ctx context.Context, id string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"active":     false,
		"updated_at": time.Now(),
	})
}

func (r *UserRepositoryImpl) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("password_reset_expires IS NOT NULL AND password_reset_expires <= ?", now).
		Updates(map[string]interface{}{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	return result.RowsAffected, result.Error
}

func (r *UserRepositoryImpl) updateColumns(ctx context.Context, id string, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND active = ?", id, true).
		Updates(values)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
