package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/common/middleware"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/service"
)

type WithdrawalHandler struct {
	service service.WithdrawalService
}

func NewWithdrawalHandler(service service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{service: service}
}

func (h *WithdrawalHandler) RegisterRoutes(router *gin.RouterGroup) {
	withdrawals := router.Group("/withdrawals")
	{
		withdrawals.GET("", h.list)
		withdrawals.POST("", h.request)
		withdrawals.GET("/:id", h.get)
		withdrawals.POST("/:id/complete", h.complete)
		withdrawals.POST("/:id/fail", h.fail)
		withdrawals.DELETE("/:id", h.delete)
	}
}

func (h *WithdrawalHandler) list(c *gin.Context) {
	var f models.WithdrawalFilter
	f.UserID = c.Query("user_id")
	f.Status = models.WithdrawalStatus(c.Query("status"))
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			middleware.SendError(c, apperrors.NewValidationError("since", "must be RFC 3339"))
			return
		}
		f.Since = since
	}
	f.Limit = intQuery(c, "limit")
	f.Offset = intQuery(c, "offset")

	withdrawals, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

func (h *WithdrawalHandler) request(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
		Amount int    `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	w, err := h.service.Request(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WithdrawalHandler) get(c *gin.Context) {
	w, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WithdrawalHandler) complete(c *gin.Context) {
	var req struct {
		TxHash string `json:"tx_hash"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	w, err := h.service.Complete(c.Request.Context(), actorID(c), c.Param("id"), req.TxHash)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WithdrawalHandler) fail(c *gin.Context) {
	w, err := h.service.Fail(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WithdrawalHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
