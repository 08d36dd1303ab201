package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/dto"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/middleware"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/services"
)

// InvitationHandler serves the admin guest-list pages of an event.
type InvitationHandler struct {
	invitationService *services.InvitationService
	rsvpService       *services.RSVPService
	eventService      *services.EventService
}

func NewInvitationHandler(invitationService *services.InvitationService, rsvpService *services.RSVPService, eventService *services.EventService) *InvitationHandler {
	return &InvitationHandler{
		invitationService: invitationService,
		rsvpService:       rsvpService,
		eventService:      eventService,
	}
}

// InvitationDTO adds the shareable link to an invitation
type InvitationDTO struct {
	*models.EventInvitation
	URL string `json:"url"`
}

func (h *InvitationHandler) toDTO(invitation *models.EventInvitation) InvitationDTO {
	return InvitationDTO{EventInvitation: invitation, URL: h.invitationService.HouseholdURL(invitation)}
}

// loadInvitation finds the :invitation_id of the actor's event.
func (h *InvitationHandler) loadInvitation(c *gin.Context, actor *services.Actor) (*models.EventInvitation, bool) {
	invitationID, ok := parseIDParam(c, "invitation_id")
	if !ok {
		return nil, false
	}
	invitation, err := h.invitationService.GetInvitation(invitationID)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	if invitation.EventID != actor.Event.ID {
		apierrors.NotFound(c, "Invitation not found")
		return nil, false
	}
	return invitation, true
}

func (h *InvitationHandler) ListInvitations(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	invitations, err := h.invitationService.ListForEvent(actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]InvitationDTO, len(invitations))
	for i := range invitations {
		out[i] = h.toDTO(&invitations[i])
	}
	c.JSON(http.StatusOK, gin.H{"invitations": out})
}

// CreateInvitations invites one or more households. Re-inviting is a no-op.
func (h *InvitationHandler) CreateInvitations(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	type CreateRequest struct {
		HouseholdIDs []uint64 `json:"household_ids" binding:"required,min=1"`
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if len(req.HouseholdIDs) == 1 {
		invitation, created, err := h.invitationService.CreateInvitation(actor.Event.ID, req.HouseholdIDs[0])
		if err != nil {
			respondServiceError(c, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		c.JSON(status, h.toDTO(invitation))
		return
	}

	invitations, err := h.invitationService.CreateInvitationsBulk(actor.Event.ID, req.HouseholdIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]InvitationDTO, len(invitations))
	for i := range invitations {
		out[i] = h.toDTO(&invitations[i])
	}
	c.JSON(http.StatusOK, gin.H{"invitations": out})
}

// CopyGuestList invites every household of another event the caller administers
func (h *InvitationHandler) CopyGuestList(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	type CopyRequest struct {
		SourceEventID uint64 `json:"source_event_id" binding:"required"`
	}
	var req CopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	isSourceAdmin, err := h.eventService.IsAdmin(req.SourceEventID, actor.PersonID())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if !isSourceAdmin {
		apierrors.NotFound(c, "Source event not found")
		return
	}

	created, err := h.invitationService.CopyGuestList(req.SourceEventID, actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (h *InvitationHandler) Stats(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	stats, err := h.invitationService.Stats(actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type sendRequest struct {
	Mode         string   `json:"mode"`
	HouseholdIDs []uint64 `json:"household_ids"`
	Channels     []string `json:"channels"`
}

// Send dispatches invitations. Mode "pending" (default) sends only unsent
// invitations, "selected" the given households, "all" every invitation.
func (h *InvitationHandler) Send(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	channels, err := parseChannels(req.Channels)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	ctx := c.Request.Context()
	var summary services.SendSummary
	switch req.Mode {
	case "", "pending":
		summary, err = h.invitationService.SendPending(ctx, actor.Event.ID, channels...)
	case "selected":
		if len(req.HouseholdIDs) == 0 {
			apierrors.BadRequest(c, "household_ids is required for selected sends")
			return
		}
		summary, err = h.invitationService.SendSelected(ctx, actor.Event.ID, req.HouseholdIDs, channels...)
	case "all":
		summary, err = h.invitationService.SendAll(ctx, actor.Event.ID, channels...)
	default:
		apierrors.BadRequest(c, "mode must be pending, selected or all")
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SendOne sends one invitation, optionally to a single member.
func (h *InvitationHandler) SendOne(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	invitation, ok := h.loadInvitation(c, actor)
	if !ok {
		return
	}

	type SendOneRequest struct {
		PersonID uint64   `json:"person_id"`
		Channels []string `json:"channels"`
	}
	var req SendOneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	channels, err := parseChannels(req.Channels)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var sent bool
	if req.PersonID != 0 {
		sent, err = h.invitationService.SendToPerson(c.Request.Context(), invitation.ID, req.PersonID, channels...)
		if err != nil {
			respondServiceError(c, err)
			return
		}
	} else {
		sent = h.invitationService.SendInvitation(c.Request.Context(), invitation, channels...)
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func (h *InvitationHandler) RegenerateToken(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	invitation, ok := h.loadInvitation(c, actor)
	if !ok {
		return
	}

	updated, err := h.invitationService.RegenerateToken(invitation.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.toDTO(updated))
}

// PersonLink returns the personal link of one member, creating it on first use
func (h *InvitationHandler) PersonLink(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	invitation, ok := h.loadInvitation(c, actor)
	if !ok {
		return
	}
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	link, err := h.invitationService.GetOrCreatePersonLink(invitation.ID, personID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"person_id": link.PersonID,
		"url":       h.invitationService.PersonURL(link),
	})
}

// QRCode renders the household link as a PNG for printed invitations
func (h *InvitationHandler) QRCode(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	invitation, ok := h.loadInvitation(c, actor)
	if !ok {
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	if size < 64 || size > 1024 {
		size = 256
	}

	png, err := h.invitationService.QRCode(invitation.ID, size)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// HouseholdRSVPs lists the answers of one invited household
func (h *InvitationHandler) HouseholdRSVPs(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	invitation, ok := h.loadInvitation(c, actor)
	if !ok {
		return
	}
	rsvps, err := h.rsvpService.ListForHousehold(actor.Event.ID, invitation.HouseholdID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rsvps": dto.ToRSVPDTOs(rsvps)})
}
