package handlers

import (
	"net/http"

	"tourbook_backend/internal/repositories"
	"tourbook_backend/internal/services"
	"tourbook_backend/internal/services/dto"
	"tourbook_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

// RegisterProtectedRoutes - маршруты для любого вошедшего пользователя
func (h *UserHandler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.GetMe)
	rg.POST("/deactivate", h.Deactivate)
}

// RegisterAdminRoutes - CRUD аккаунтов, группа уже ограничена по ролям
func (h *UserHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.GetAll)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetOne)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}

func (h *UserHandler) GetAll(c *gin.Context) {
	opts, err := repositories.ParseQueryOptions(c.Request.URL.Query())
	if err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	users, err := h.userService.List(c.Request.Context(), opts)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(users),
		"data":    gin.H{"doc": users},
	})
}

func (h *UserHandler) GetOne(c *gin.Context) {
	h.sendOne(c, c.Param("id"))
}

// GetMe - GetOne для текущего пользователя
func (h *UserHandler) GetMe(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}
	h.sendOne(c, identity.AccountID)
}

func (h *UserHandler) sendOne(c *gin.Context, id string) {
	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"doc": user},
	})
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data":   gin.H{"doc": user},
	})
}

func (h *UserHandler) Update(c *gin.Context) {
	var req dto.UpdateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"doc": user},
	})
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.userService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Deactivate(c *gin.Context) {
	identity, ok := h.GetIdentity(c)
	if !ok {
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), identity.AccountID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
