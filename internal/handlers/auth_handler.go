package handlers

import (
	"net/http"

	"tourbook_backend/internal/auth"
	"tourbook_backend/internal/services"
	"tourbook_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	*BaseHandler
	authService   services.AuthService
	secureCookies bool
	publicURL     string
}

type AuthHandlerOption func(*AuthHandler)

// WithPublicURL фиксирует адрес для ссылок сброса пароля. Без него адрес
// собирается из Host и X-Forwarded-Proto запроса.
func WithPublicURL(baseURL string) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.publicURL = baseURL
	}
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService, secureCookies bool, opts ...AuthHandlerOption) *AuthHandler {
	h := &AuthHandler{
		BaseHandler:   base,
		authService:   authService,
		secureCookies: secureCookies,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterPublicRoutes - маршруты без аутентификации
func (h *AuthHandler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
	rg.POST("/register", h.Register)
	rg.POST("/forgot-password", h.ForgotPassword)
	rg.POST("/reset-password/:token", h.ResetPassword)
}

// RegisterProtectedRoutes - маршруты за Protect
func (h *AuthHandler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/update-password", h.UpdatePassword)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.sendSession(c, http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.authService.SignIn(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.sendSession(c, http.StatusOK, res)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	baseURL := h.publicURL
	if baseURL == "" {
		baseURL = requestBaseURL(c)
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), &req, baseURL); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Token sent to email!",
	})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.authService.ResetPassword(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.sendSession(c, http.StatusOK, res)
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdatePasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.authService.UpdatePassword(c.Request.Context(), identity.AccountID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.sendSession(c, http.StatusOK, res)
}

// sendSession дублирует токен в http-only cookie и отдает его в теле
func (h *AuthHandler) sendSession(c *gin.Context, status int, res *dto.AuthResult) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, res.Token, res.CookieMaxAge, "/", "", h.secureCookies, true)

	c.JSON(status, dto.AuthResponse{
		Status: "success",
		Token:  res.Token,
		Data:   dto.UserData{User: res.User},
	})
}
