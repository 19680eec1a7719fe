package middleware

import (
	"context"
	"strings"

	"tourbook_backend/internal/auth"
	"tourbook_backend/internal/logger"
	"tourbook_backend/internal/models"
	"tourbook_backend/pkg/apperrors"
	"tourbook_backend/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// Authenticator проверяет токен сессии и возвращает актуальный аккаунт
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, *models.User, error)
}

// Protect - ворота аутентификации. Токен берется только из заголовка
// "Authorization: Bearer <token>".
func Protect(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		identity, user, err := a.Authenticate(ctx, bearerToken(c))
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		c.Set(contextkeys.IdentityKey, identity)
		c.Set(contextkeys.CurrentUserKey, user)
		c.Request = c.Request.WithContext(logger.WithAccountID(ctx, identity.AccountID))
		c.Next()
	}
}

// RequireRoles пропускает только перечисленные роли. Должен стоять после Protect.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if err := auth.Authorize(identity, roles...); err != nil {
			logger.CtxWarn(c.Request.Context(), "Access denied",
				"path", c.Request.URL.Path,
				"required_roles", roles,
			)
			apperrors.HandleError(c, apperrors.ErrNoPermission())
			return
		}
		c.Next()
	}
}

// GetIdentity извлекает проверенную личность из контекста
func GetIdentity(c *gin.Context) *auth.Identity {
	val, exists := c.Get(contextkeys.IdentityKey)
	if !exists {
		return nil
	}
	identity, _ := val.(*auth.Identity)
	return identity
}

// GetCurrentUser возвращает аккаунт, загруженный в Protect
func GetCurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(contextkeys.CurrentUserKey)
	if !exists {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
