package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/constants"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
)

// RequireAuth checks if the person is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		personID := session.Get(constants.ContextKeyPersonID)

		if personID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store person ID in context for easy access in handlers
		c.Set(constants.ContextKeyPersonID, personID)
		c.Next()
	}
}

// GetPersonID retrieves the current person ID from context
func GetPersonID(c *gin.Context) (uint64, bool) {
	personID, exists := c.Get(constants.ContextKeyPersonID)
	if !exists {
		return 0, false
	}

	switch v := personID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
