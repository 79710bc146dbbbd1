package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/member-console/internal/models"
)

const (
	// ActorHeader names the console user performing the request. Authentication
	// happens upstream; the console only records who acted.
	ActorHeader = "X-Actor-ID"
	// ContextActorKey exposes the actor id on the gin context.
	ContextActorKey = "actor_id"
)

// Actor copies the acting console user into the gin and request contexts.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := strings.TrimSpace(c.GetHeader(ActorHeader))
		if actor != "" {
			c.Set(ContextActorKey, actor)
			c.Request = c.Request.WithContext(models.ContextWithActor(c.Request.Context(), actor))
		}
		c.Next()
	}
}
