package models

// UserRole - фиксированный набор ролей аккаунта
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleGuide     UserRole = "guide"
	UserRoleLeadGuide UserRole = "lead-guide"
	UserRoleModerator UserRole = "moderator"
	UserRoleAdmin     UserRole = "admin"
)

// AllUserRoles возвращает все допустимые роли
func AllUserRoles() []UserRole {
	return []UserRole{UserRoleUser, UserRoleGuide, UserRoleLeadGuide, UserRoleModerator, UserRoleAdmin}
}

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleGuide, UserRoleLeadGuide, UserRoleModerator, UserRoleAdmin:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}
