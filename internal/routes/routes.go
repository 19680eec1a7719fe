package routes

import (
	"tourbook_backend/internal/auth"
	"tourbook_backend/internal/handlers"
	"tourbook_backend/internal/logger"
	"tourbook_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все HTTP маршруты.
// Порядок групп: публичные, затем за Protect, затем за Protect и проверкой ролей.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	authenticator middleware.Authenticator,
) {
	users := ginRouter.Group("/api/v1/users")
	{
		appHandlers.AuthHandler.RegisterPublicRoutes(users)
	}

	protected := users.Group("", middleware.Protect(authenticator))
	{
		appHandlers.UserHandler.RegisterProtectedRoutes(protected)
		appHandlers.AuthHandler.RegisterProtectedRoutes(protected)
	}

	admin := protected.Group("", middleware.RequireRoles(auth.StaffRoles...))
	{
		appHandlers.UserHandler.RegisterAdminRoutes(admin)
	}

	ginRouter.NoRoute(middleware.NotFoundHandler())
	logger.Info("HTTP routes registered", "prefix", "/api/v1/users")
}
