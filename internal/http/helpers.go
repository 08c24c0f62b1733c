package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/common/middleware"
	"airdrophub-backend/internal/models"
)

// actorID resolves who performed the request for the audit trail. There is
// no authentication layer; callers may identify themselves with the
// X-Actor-ID header and everyone else is the guest actor.
func actorID(c *gin.Context) string {
	if id := c.GetHeader("X-Actor-ID"); id != "" {
		return id
	}
	return models.GuestUserID
}

func intQuery(c *gin.Context, name string) int {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func abortWithError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		middleware.SendError(c, appErr)
		return
	}
	middleware.SendError(c, apperrors.Wrap(err, apperrors.ErrCodeInternal, "Unexpected error"))
}
