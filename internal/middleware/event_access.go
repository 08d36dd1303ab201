package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/constants"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/services"
)

// RequireEventAccess resolves the session person's actor for the event in
// the :id parameter. Drafts are reported as not found to non-admins.
func RequireEventAccess(access *services.AccessService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid event ID")
			c.Abort()
			return
		}

		personID, exists := GetPersonID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		actor, err := access.FromSession(eventID, personID)
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

// RequireEventAdmin must run after an access middleware.
func RequireEventAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			apierrors.Forbidden(c, "Event access required")
			c.Abort()
			return
		}

		if !actor.IsAdmin {
			apierrors.Forbidden(c, "Only event admins can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetActor retrieves the actor set by an access middleware
func GetActor(c *gin.Context) (*services.Actor, bool) {
	value, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return nil, false
	}
	actor, ok := value.(*services.Actor)
	return actor, ok && actor != nil
}

func respondAccessError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInvitationToken),
		errors.Is(err, services.ErrInvalidReferralToken),
		errors.Is(err, services.ErrPersonLinkNotFound):
		apierrors.InvalidToken(c, "")
	case errors.Is(err, services.ErrInvitationExpired),
		errors.Is(err, services.ErrReferralExpired):
		apierrors.TokenExpired(c, "")
	case errors.Is(err, services.ErrCannotActForOther):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrActorRequired):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrPersonNotFound):
		// 404 rather than 403 so drafts do not leak
		apierrors.NotFound(c, "Event not found")
	default:
		apierrors.InternalError(c, "")
	}
}
