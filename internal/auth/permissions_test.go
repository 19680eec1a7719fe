package auth

import (
	"testing"

	"tourbook_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	user := &Identity{AccountID: "a", Role: models.UserRoleUser}
	admin := &Identity{AccountID: "b", Role: models.UserRoleAdmin}

	assert.ErrorIs(t, Authorize(user, models.UserRoleModerator, models.UserRoleAdmin), ErrForbidden)
	assert.NoError(t, Authorize(admin, models.UserRoleModerator, models.UserRoleAdmin))
	assert.NoError(t, Authorize(user, models.UserRoleUser))
	assert.ErrorIs(t, Authorize(user), ErrForbidden)
	assert.ErrorIs(t, Authorize(nil, models.UserRoleUser), ErrForbidden)
}

func TestStaffRoles(t *testing.T) {
	assert.NoError(t, Authorize(&Identity{Role: models.UserRoleModerator}, StaffRoles...))
	assert.NoError(t, Authorize(&Identity{Role: models.UserRoleAdmin}, StaffRoles...))
	assert.ErrorIs(t, Authorize(&Identity{Role: models.UserRoleLeadGuide}, StaffRoles...), ErrForbidden)
}
