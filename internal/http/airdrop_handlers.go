package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/common/middleware"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/service"
)

type AirdropHandler struct {
	service service.AirdropService
}

func NewAirdropHandler(service service.AirdropService) *AirdropHandler {
	return &AirdropHandler{service: service}
}

func (h *AirdropHandler) RegisterRoutes(router *gin.RouterGroup) {
	airdrops := router.Group("/airdrops")
	{
		airdrops.GET("", h.list)
		airdrops.POST("", h.create)
		airdrops.GET("/:id", h.get)
		airdrops.PATCH("/:id", h.update)
		airdrops.DELETE("/:id", h.delete)
	}
}

func (h *AirdropHandler) list(c *gin.Context) {
	var f models.AirdropFilter
	f.Status = models.AirdropStatus(c.Query("status"))
	f.Category = c.Query("category")
	f.Blockchain = c.Query("blockchain")
	f.Limit = intQuery(c, "limit")
	f.Offset = intQuery(c, "offset")

	airdrops, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"airdrops": airdrops})
}

func (h *AirdropHandler) create(c *gin.Context) {
	var a models.Airdrop
	if err := c.ShouldBindJSON(&a); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	created, err := h.service.Create(c.Request.Context(), actorID(c), &a)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *AirdropHandler) get(c *gin.Context) {
	a, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AirdropHandler) update(c *gin.Context) {
	var patch models.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	a, err := h.service.Update(c.Request.Context(), actorID(c), c.Param("id"), patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AirdropHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
