package apperrors

import (
	"sync/atomic"

	"tourbook_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - стандартный ответ об ошибке
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

var debug atomic.Bool

func init() {
	debug.Store(true)
}

// Configure включает вывод стека для всех окружений, кроме production
func Configure(env string) {
	debug.Store(env != "production")
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

// HandleGinError - единая точка рендеринга ошибок
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	ctx := c.Request.Context()
	if appErr.HTTPCode >= 500 {
		logger.CtxError(ctx, "server error", "error", appErr.Error(), "path", c.Request.URL.Path)
	} else {
		logger.CtxDebug(ctx, "client error", "error", appErr.Error(), "path", c.Request.URL.Path)
	}

	resp := ErrorResponse{
		Status:  appErr.Status(),
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if h.Debug {
		resp.Stack = appErr.Stack()
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, resp)
}

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: debug.Load()}
	handler.HandleGinError(c, err)
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
