package http

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/common/middleware"
	"airdrophub-backend/internal/service"
)

// AdminHandler bundles the operator surface: analytics, the audit trail,
// platform settings and SQL export/import.
type AdminHandler struct {
	analytics service.AnalyticsService
	audit     service.AuditService
	settings  service.SettingService
	export    service.ExportService
}

func NewAdminHandler(analytics service.AnalyticsService, audit service.AuditService,
	settings service.SettingService, export service.ExportService) *AdminHandler {
	return &AdminHandler{
		analytics: analytics,
		audit:     audit,
		settings:  settings,
		export:    export,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/analytics", h.getAnalytics)
	router.GET("/leaderboard", h.getLeaderboard)
	router.GET("/audit", h.getAuditLog)

	settings := router.Group("/settings")
	{
		settings.GET("", h.listSettings)
		settings.GET("/:key", h.getSetting)
		settings.PUT("/:key", h.setSetting)
	}

	router.GET("/export", h.exportSQL)
	router.POST("/import", h.importSQL)
}

func (h *AdminHandler) getAnalytics(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AdminHandler) getLeaderboard(c *gin.Context) {
	limit := intQuery(c, "limit")
	if limit == 0 {
		limit = 10
	}
	entries, err := h.analytics.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (h *AdminHandler) getAuditLog(c *gin.Context) {
	limit := intQuery(c, "limit")
	if limit == 0 {
		limit = 100
	}
	entries, err := h.audit.Log(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *AdminHandler) listSettings(c *gin.Context) {
	settings, err := h.settings.All(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

func (h *AdminHandler) getSetting(c *gin.Context) {
	key := c.Param("key")
	value, err := h.settings.Get(c.Request.Context(), key)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func (h *AdminHandler) setSetting(c *gin.Context) {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Invalid request body"))
		return
	}
	key := c.Param("key")
	if err := h.settings.Set(c.Request.Context(), actorID(c), key, req.Value); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

func (h *AdminHandler) exportSQL(c *gin.Context) {
	dump, err := h.export.ExportSQL(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	filename := fmt.Sprintf("airdrop_database_%s.sql", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/sql", []byte(dump))
}

func (h *AdminHandler) importSQL(c *gin.Context) {
	dump, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 32<<20))
	if err != nil {
		middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "Body too large or unreadable"))
		return
	}
	if err := h.export.ImportSQL(c.Request.Context(), string(dump)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": true})
}
