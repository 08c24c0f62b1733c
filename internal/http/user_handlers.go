package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/common/middleware"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/service"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.list)
		users.POST("/connect", h.connectWallet)
		users.GET("/:id", h.get)
		users.PATCH("/:id", h.update)
		users.DELETE("/:id", h.delete)
		users.POST("/:id/tasks", h.completeTask)
	}
}

func (h *UserHandler) list(c *gin.Context) {
	var f models.UserFilter
	if raw := c.Query("connected"); raw != "" {
		connected := raw == "true" || raw == "1"
		f.Connected = &connected
	}
	f.MinPoints = intQuery(c, "min_points")
	f.Limit = intQuery(c, "limit")
	f.Offset = intQuery(c, "offset")

	users, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) connectWallet(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	u, err := h.service.ConnectWallet(c.Request.Context(), req.WalletAddress)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) get(c *gin.Context) {
	u, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) update(c *gin.Context) {
	var patch models.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	u, err := h.service.Update(c.Request.Context(), actorID(c), c.Param("id"), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) completeTask(c *gin.Context) {
	var req struct {
		AirdropID string `json:"airdrop_id" binding:"required"`
		TaskID    string `json:"task_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	u, err := h.service.CompleteTask(c.Request.Context(), c.Param("id"), req.AirdropID, req.TaskID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
