package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/services"
)

// GuestResolver builds an actor from the link in the request path.
type GuestResolver func(c *gin.Context) (*services.Actor, error)

// RequireGuestAccess resolves the link with resolve and stores the actor.
func RequireGuestAccess(resolve GuestResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := resolve(c)
		if err != nil {
			respondAccessError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyActor, actor)
		c.Set(constants.ContextKeyEvent, actor.Event)
		c.Next()
	}
}

// memberParam reads the optional ?as= member selection for household links.
func memberParam(c *gin.Context) (uint64, bool) {
	raw := c.Query("as")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	return id, err == nil
}

// InvitationToken resolves /rsvp/:token.
func InvitationToken(access *services.AccessService) GuestResolver {
	return func(c *gin.Context) (*services.Actor, error) {
		memberID, ok := memberParam(c)
		if !ok {
			return nil, services.ErrCannotActForOther
		}
		return access.FromInvitationToken(c.Param("token"), memberID)
	}
}

// InvitationShortToken resolves /i/:short.
func InvitationShortToken(access *services.AccessService) GuestResolver {
	return func(c *gin.Context) (*services.Actor, error) {
		memberID, ok := memberParam(c)
		if !ok {
			return nil, services.ErrCannotActForOther
		}
		return access.FromInvitationShortToken(c.Param("short"), memberID)
	}
}

// PersonLink resolves /p/:short.
func PersonLink(access *services.AccessService) GuestResolver {
	return func(c *gin.Context) (*services.Actor, error) {
		return access.FromPersonLink(c.Param("short"))
	}
}

// ReferralToken resolves /friend/:token.
func ReferralToken(access *services.AccessService) GuestResolver {
	return func(c *gin.Context) (*services.Actor, error) {
		return access.FromReferralToken(c.Param("token"))
	}
}

// ReferralShortToken resolves /f/:short.
func ReferralShortToken(access *services.AccessService) GuestResolver {
	return func(c *gin.Context) (*services.Actor, error) {
		return access.FromReferralShortToken(c.Param("short"))
	}
}
