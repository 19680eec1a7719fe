package auth

import "tourbook_backend/internal/models"

// Authorize - проверка принадлежности роли к разрешенному набору. Без I/O.
func Authorize(identity *Identity, allowed ...models.UserRole) error {
	if identity == nil {
		return ErrForbidden
	}
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return ErrForbidden
}

// StaffRoles - роли, которым доступно управление аккаунтами
var StaffRoles = []models.UserRole{models.UserRoleModerator, models.UserRoleAdmin}
