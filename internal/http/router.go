package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"airdrophub-backend/internal/common/config"
	"airdrophub-backend/internal/common/middleware"
	"airdrophub-backend/internal/service"
	"airdrophub-backend/internal/storage"
)

type Services struct {
	Airdrops    service.AirdropService
	Users       service.UserService
	Withdrawals service.WithdrawalService
	Analytics   service.AnalyticsService
	Audit       service.AuditService
	Settings    service.SettingService
	Export      service.ExportService
}

// NewRouter assembles the gin engine with the shared middleware stack and
// every API route under /api/v1.
func NewRouter(cfg *config.Config, store storage.Store, svcs Services) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept", "X-Actor-ID", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if _, err := store.Settings(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	v1 := router.Group("/api/v1")
	NewAirdropHandler(svcs.Airdrops).RegisterRoutes(v1)
	NewUserHandler(svcs.Users).RegisterRoutes(v1)
	NewWithdrawalHandler(svcs.Withdrawals).RegisterRoutes(v1)
	NewAdminHandler(svcs.Analytics, svcs.Audit, svcs.Settings, svcs.Export).RegisterRoutes(v1)

	return router
}
