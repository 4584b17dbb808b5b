package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
)

const (
	// Identity headers set by the authenticating gateway. The gateway has
	// already verified them; this API only consumes the result.
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	ContextActor = "actor"
)

// ActorContext extracts the verified caller identity into the request
// context. Requests without a valid identity are rejected before any
// handler runs.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.GetHeader(HeaderUserID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": http.StatusUnauthorized, "message": "missing or invalid user identity"},
			})
			return
		}

		role := model.Role(c.GetHeader(HeaderUserRole))
		switch role {
		case model.RoleMedic, model.RoleDoctor, model.RoleAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": http.StatusUnauthorized, "message": "missing or invalid user role"},
			})
			return
		}

		c.Set(ContextActor, model.Actor{ID: userID, Role: role})
		c.Next()
	}
}

// ActorFrom returns the actor placed in the context by ActorContext.
func ActorFrom(c *gin.Context) model.Actor {
	if v, ok := c.Get(ContextActor); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{}
}
