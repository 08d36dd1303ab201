package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/party-planner-api/internal/constants"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/services"
)

// respondServiceError maps service sentinels to API errors. Anything it does
// not recognize is a 500 with a generic message.
func respondServiceError(c *gin.Context, err error) {
	switch {
	// validation
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrEventTitleRequired),
		errors.Is(err, services.ErrEventDateRequired),
		errors.Is(err, services.ErrAdminTargetRequired),
		errors.Is(err, services.ErrNoRSVPUpdates),
		errors.Is(err, services.ErrFriendNameRequired),
		errors.Is(err, services.ErrItemNameRequired),
		errors.Is(err, services.ErrEmptyMessage):
		apierrors.Respond(c, http.StatusBadRequest, apierrors.ErrCodeMissingField, err.Error())
	case errors.Is(err, services.ErrInvalidFriendEmail),
		errors.Is(err, services.ErrInvalidChannel),
		errors.Is(err, services.ErrInvalidEventStatus),
		errors.Is(err, models.ErrInvalidRSVPStatus):
		apierrors.Respond(c, http.StatusBadRequest, apierrors.ErrCodeInvalidFormat, err.Error())
	case errors.Is(err, services.ErrInvalidPersonInput),
		errors.Is(err, services.ErrInvalidHouseholdName),
		errors.Is(err, services.ErrInvalidTagName),
		errors.Is(err, services.ErrInvalidSchedule),
		errors.Is(err, services.ErrInvalidContributors),
		errors.Is(err, services.ErrMessageTooLong):
		apierrors.BadRequest(c, err.Error())

	// authentication
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Respond(c, http.StatusUnauthorized, apierrors.ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, services.ErrActorRequired):
		apierrors.Unauthorized(c, err.Error())
	case errors.Is(err, services.ErrInvalidAuthToken),
		errors.Is(err, services.ErrInvalidInvitationToken),
		errors.Is(err, services.ErrInvalidReferralToken):
		apierrors.InvalidToken(c, err.Error())
	case errors.Is(err, services.ErrAuthTokenExpired),
		errors.Is(err, services.ErrInvitationExpired),
		errors.Is(err, services.ErrReferralExpired):
		apierrors.TokenExpired(c, err.Error())
	case errors.Is(err, services.ErrTooManyRequests):
		apierrors.TooManyRequests(c, err.Error())

	// authorization
	case errors.Is(err, services.ErrAdminRequired),
		errors.Is(err, services.ErrItemPermissionDenied),
		errors.Is(err, services.ErrCannotRemoveReferral):
		apierrors.Respond(c, http.StatusForbidden, apierrors.ErrCodeInsufficientPermissions, err.Error())
	case errors.Is(err, services.ErrCannotActForOther),
		errors.Is(err, services.ErrCannotInviteFriends):
		apierrors.Forbidden(c, err.Error())

	// not found
	case errors.Is(err, services.ErrPersonNotFound),
		errors.Is(err, services.ErrHouseholdNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrAdminNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrPersonLinkNotFound),
		errors.Is(err, services.ErrRSVPNotFound),
		errors.Is(err, services.ErrRSVPNotInEvent),
		errors.Is(err, services.ErrReferralNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrClaimNotFound),
		errors.Is(err, services.ErrTagNotAssigned),
		errors.Is(err, services.ErrNotMember):
		apierrors.NotFound(c, err.Error())

	// conflict
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrAlreadyAdmin),
		errors.Is(err, services.ErrAlreadyInvited),
		errors.Is(err, services.ErrTagAlreadyOnUser):
		apierrors.AlreadyExists(c, err.Error())
	case errors.Is(err, services.ErrEventReadOnly):
		apierrors.ReadOnly(c, err.Error())
	case errors.Is(err, services.ErrRSVPDeadlinePassed):
		apierrors.Respond(c, http.StatusConflict, apierrors.ErrCodeDeadlinePassed, err.Error())
	case errors.Is(err, services.ErrCannotRemoveLastAdmin),
		errors.Is(err, services.ErrSameHousehold):
		apierrors.Respond(c, http.StatusConflict, apierrors.ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrHouseholdNotInvited),
		errors.Is(err, services.ErrFriendInvitesDisabled),
		errors.Is(err, services.ErrPotluckDisabled):
		apierrors.Respond(c, http.StatusConflict, apierrors.ErrCodeInvalidOperation, err.Error())

	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, err.Error())
	case errors.Is(err, services.ErrAINoItemsGenerated):
		apierrors.Respond(c, http.StatusUnprocessableEntity, apierrors.ErrCodeOperationFailed, err.Error())
	default:
		apierrors.InternalError(c, "")
	}
}

// respondBindError lists the failing fields when binding tripped a validation
// tag, so clients can highlight them.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	apierrors.BadRequestWithDetails(c, "Invalid request body", fields)
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func parseUintQuery(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func parseChannels(raw []string) ([]models.Channel, error) {
	channels := make([]models.Channel, 0, len(raw))
	for _, r := range raw {
		channel := models.Channel(r)
		if !channel.IsValid() {
			return nil, services.ErrInvalidChannel
		}
		channels = append(channels, channel)
	}
	return channels, nil
}
