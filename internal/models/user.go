package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultPhoto = "default.jpg"

var ErrInvalidRole = errors.New("invalid role")

// User - аккаунт. Хеш пароля и состояние сброса никогда не попадают в JSON.
type User struct {
	BaseModel
	Name                 string     `gorm:"not null" json:"name"`
	Email                string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Photo                string     `gorm:"default:'default.jpg'" json:"photo"`
	Role                 UserRole   `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	PasswordHash         string     `gorm:"not null" json:"-"`
	PasswordChangedAt    *time.Time `json:"password_changed_at,omitempty"`
	PasswordResetToken   *string    `gorm:"type:varchar(64);index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
	Active               bool       `gorm:"not null;default:true" json:"-"`
}

// NormalizeEmail приводит email к каноничному виду (unique индекс по нему)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PrepareCreate выставляет ID и значения по умолчанию перед первой записью
func (u *User) PrepareCreate() {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Photo == "" {
		u.Photo = DefaultPhoto
	}
	if u.Role == "" {
		u.Role = UserRoleUser
	}
	u.Active = true
}

// SetResetToken сохраняет хеш токена сброса вместе со сроком действия
func (u *User) SetResetToken(hash string, expires time.Time) {
	u.PasswordResetToken = &hash
	u.PasswordResetExpires = &expires
}

// ClearResetToken удаляет хеш и срок одновременно
func (u *User) ClearResetToken() {
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
}

func (u *User) HasResetToken() bool {
	return u.PasswordResetToken != nil && u.PasswordResetExpires != nil
}

// Sanitize убирает чувствительные поля перед отдачей клиенту
func (u *User) Sanitize() *User {
	u.PasswordHash = ""
	u.ClearResetToken()
	return u
}

// --- Дескриптор ресурса для generic-репозитория ---

func (User) TableName() string {
	return "users"
}

// DefaultScope - мягко удаленные (active=false) аккаунты исключаются из чтения
func (User) DefaultScope(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

// ValidateChanges проверяет значения частичного обновления, которые
// нельзя выразить ограничением колонки
func (User) ValidateChanges(changes map[string]interface{}) error {
	if raw, ok := changes["role"]; ok {
		var role UserRole
		switch v := raw.(type) {
		case string:
			role = UserRole(v)
		case UserRole:
			role = v
		}
		if !role.IsValid() {
			return fmt.Errorf("%w: %v", ErrInvalidRole, raw)
		}
	}
	return nil
}

func (User) Filterable() []string {
	return []string{"name", "email", "role", "photo", "created_at"}
}

func (User) Sortable() []string {
	return []string{"name", "email", "role", "created_at", "updated_at"}
}

// Selectable - колонки, доступные для проекции. password_hash и поля
// сброса сюда не входят, их можно получить только явным запросом.
func (User) Selectable() []string {
	return []string{"id", "name", "email", "photo", "role", "password_changed_at", "created_at", "updated_at"}
}
