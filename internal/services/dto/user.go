package dto

import "tourbook_backend/internal/models"

// CreateUserRequest - создание аккаунта модератором/админом
type CreateUserRequest struct {
	Name            string          `json:"name" validate:"required,max=100"`
	Email           string          `json:"email" validate:"required,email"`
	Photo           string          `json:"photo" validate:"omitempty,max=255"`
	Role            models.UserRole `json:"role" validate:"omitempty,is-user-role"`
	Password        string          `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string          `json:"password_confirm" validate:"required"`
}

// UpdateUserRequest - частичное обновление. Поля пароля принимаются только
// для того, чтобы явно отклонить запрос. omitnil пропускает только
// отсутствующие поля, переданное значение проверяется всегда.
type UpdateUserRequest struct {
	Name            *string          `json:"name" validate:"omitnil,min=1,max=100"`
	Email           *string          `json:"email" validate:"omitnil,email"`
	Photo           *string          `json:"photo" validate:"omitnil,max=255"`
	Role            *models.UserRole `json:"role" validate:"omitnil,is-user-role"`
	Password        *string          `json:"password"`
	PasswordConfirm *string          `json:"password_confirm"`
}

func (r *UpdateUserRequest) TouchesPassword() bool {
	return r.Password != nil || r.PasswordConfirm != nil
}

// Changes возвращает изменения в виде колонка -> значение
func (r *UpdateUserRequest) Changes() map[string]interface{} {
	changes := make(map[string]interface{})
	if r.Name != nil {
		changes["name"] = *r.Name
	}
	if r.Email != nil {
		changes["email"] = models.NormalizeEmail(*r.Email)
	}
	if r.Photo != nil {
		changes["photo"] = *r.Photo
	}
	if r.Role != nil {
		changes["role"] = string(*r.Role)
	}
	return changes
}
