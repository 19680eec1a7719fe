package dto

import (
	"time"

	"tourbook_backend/internal/models"
)

// RegisterRequest - запрос регистрации. Роль при регистрации не принимается.
type RegisterRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

// LoginRequest - пустые поля проверяет сервис, чтобы вернуть
// "Email or password is empty"
type LoginRequest struct {
	Email    string `json:"email" validate:"max=255"`
	Password string `json:"password" validate:"max=72"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"max=255"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
}

type UpdatePasswordRequest struct {
	CurrentPassword    string `json:"current_password" validate:"required"`
	NewPassword        string `json:"new_password" validate:"required,min=8,max=72"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

// AuthResult - выпущенная сессия
type AuthResult struct {
	Token         string
	CookieExpires time.Time
	CookieMaxAge  int // в секундах
	User          *models.User
}

// AuthResponse - тело успешного ответа с токеном
type AuthResponse struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	Data   UserData `json:"data"`
}

type UserData struct {
	User *models.User `json:"user"`
}
