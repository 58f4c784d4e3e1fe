package handler

import (
	"net/http"

	"caseflow/internal/core/ports"
	"caseflow/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorKey = "actor"

// ActorMiddleware resolves the X-User-ID header into a user record.
// Authentication itself is handled upstream; the engine only needs to know
// who is acting.
func ActorMiddleware(users ports.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
			return
		}
		actor, err := users.GetByID(c.Request.Context(), id)
		if err != nil || !actor.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown or inactive user"})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func actorFrom(c *gin.Context) *domain.User {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*domain.User)
	return actor
}

func forbid(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "action not allowed for your department"})
}
