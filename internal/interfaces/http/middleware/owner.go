package middleware

import (
	"net/http"

	"github.com/crmportal/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OwnerIDKey is the gin context key for the owner ID
const OwnerIDKey = "owner_id"

// defaultOwnerID is used when no owner header is present, for local
// development against a single portal user
var defaultOwnerID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// OwnerScope resolves the portal user owning the request from the
// X-Owner-ID header. Every transfer job is scoped to its owner.
func OwnerScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		ownerID := defaultOwnerID

		if raw := c.GetHeader("X-Owner-ID"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "ERR_BAD_REQUEST",
						"message": "X-Owner-ID must be a valid UUID",
					},
				})
				return
			}
			ownerID = parsed
		}

		c.Set(OwnerIDKey, ownerID)

		ctx, _ := logger.WithOwnerID(c.Request.Context(), logger.FromContext(c.Request.Context()), ownerID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetOwnerID returns the owner ID set by the OwnerScope middleware
func GetOwnerID(c *gin.Context) uuid.UUID {
	if v, exists := c.Get(OwnerIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return defaultOwnerID
}
