package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/dto"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/middleware"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/services"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

// EventHandler serves the organizer's event pages. Routes run behind
// RequireAuth and, for :id routes, RequireEventAccess.
type EventHandler struct {
	eventService        *services.EventService
	rsvpService         *services.RSVPService
	referralService     *services.ReferralService
	notificationService *services.NotificationService
}

func NewEventHandler(eventService *services.EventService, rsvpService *services.RSVPService, referralService *services.ReferralService, notificationService *services.NotificationService) *EventHandler {
	return &EventHandler{
		eventService:        eventService,
		rsvpService:         rsvpService,
		referralService:     referralService,
		notificationService: notificationService,
	}
}

type eventRequest struct {
	Title              string     `json:"title" binding:"required,max=255"`
	Description        string     `json:"description"`
	EventDate          time.Time  `json:"event_date" binding:"required"`
	EndTime            *time.Time `json:"end_time"`
	RSVPDeadline       *time.Time `json:"rsvp_deadline"`
	VenueName          string     `json:"venue_name"`
	VenueAddress       string     `json:"venue_address"`
	PotluckEnabled     *bool      `json:"potluck_enabled"`
	AllowFriendInvites *bool      `json:"allow_friend_invites"`
}

func (r eventRequest) input() services.EventInput {
	input := services.EventInput{
		Title:              r.Title,
		Description:        r.Description,
		EventDate:          r.EventDate,
		EndTime:            r.EndTime,
		RSVPDeadline:       r.RSVPDeadline,
		VenueName:          r.VenueName,
		VenueAddress:       r.VenueAddress,
		PotluckEnabled:     true,
		AllowFriendInvites: true,
	}
	if r.PotluckEnabled != nil {
		input.PotluckEnabled = *r.PotluckEnabled
	}
	if r.AllowFriendInvites != nil {
		input.AllowFriendInvites = *r.AllowFriendInvites
	}
	return input
}

// CreateEvent creates a draft event owned by the current person
func (h *EventHandler) CreateEvent(c *gin.Context) {
	personID, exists := middleware.GetPersonID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.eventService.CreateEvent(personID, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// ListEvents returns the events the current person administers
func (h *EventHandler) ListEvents(c *gin.Context) {
	personID, exists := middleware.GetPersonID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	events, err := h.eventService.ListForAdmin(personID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetEvent returns the event with the caller's role
func (h *EventHandler) GetEvent(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.InternalError(c, "Event not found in context")
		return
	}

	canInvite, err := h.referralService.CanInviteFriends(actor.Event, actor.PersonID())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":              actor.Event,
		"is_admin":           actor.IsAdmin,
		"household_id":       actor.HouseholdID,
		"can_invite_friends": canInvite,
	})
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.eventService.UpdateEvent(actor, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// SetStatus publishes, archives or reverts the event to draft
func (h *EventHandler) SetStatus(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	type StatusRequest struct {
		Status models.EventStatus `json:"status" binding:"required"`
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	event, err := h.eventService.SetStatus(actor, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Stats(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	stats, err := h.eventService.Stats(actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *EventHandler) DietarySummary(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	summary, err := h.eventService.DietarySummary(actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *EventHandler) ListAdmins(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	admins, err := h.eventService.ListAdmins(actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

func (h *EventHandler) AddAdmin(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	type AddAdminRequest struct {
		PersonID    *uint64          `json:"person_id"`
		HouseholdID *uint64          `json:"household_id"`
		Role        models.AdminRole `json:"role"`
	}
	var req AddAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	admin, err := h.eventService.AddAdmin(actor, services.AddAdminInput{
		PersonID:    req.PersonID,
		HouseholdID: req.HouseholdID,
		Role:        req.Role,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, admin)
}

func (h *EventHandler) RemoveAdmin(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	adminID, ok := parseIDParam(c, "admin_id")
	if !ok {
		return
	}

	if err := h.eventService.RemoveAdmin(actor, adminID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Admin removed"})
}

// ListRSVPs returns every RSVP of the event, households and brought friends
func (h *EventHandler) ListRSVPs(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	rsvps, err := h.rsvpService.ListForEvent(actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rsvps": dto.ToRSVPDTOs(rsvps)})
}

// OverrideRSVP lets an admin set any guest's answer, deadline or not
func (h *EventHandler) OverrideRSVP(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	rsvpID, ok := parseIDParam(c, "rsvp_id")
	if !ok {
		return
	}

	type OverrideRequest struct {
		Status string  `json:"status" binding:"required"`
		Notes  *string `json:"notes"`
	}
	var req OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	status, err := models.ParseRSVPStatus(req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	rsvp, err := h.rsvpService.UpdateRSVPByHost(actor, rsvpID, status, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToRSVPDTO(*rsvp))
}

func (h *EventHandler) HouseholdsWithoutResponse(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	households, err := h.rsvpService.HouseholdsWithoutResponse(actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]dto.HouseholdDTO, len(households))
	for i, household := range households {
		out[i] = dto.ToHouseholdDTO(household)
	}
	c.JSON(http.StatusOK, gin.H{"households": out})
}

func (h *EventHandler) ListReferrals(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	referrals, err := h.referralService.ListForEvent(actor.Event.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": dto.ToReferralDTOs(referrals)})
}

func (h *EventHandler) ResendReferral(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	referralID, ok := parseIDParam(c, "referral_id")
	if !ok {
		return
	}
	referral, err := h.referralService.GetReferral(referralID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if referral.EventID != actor.Event.ID {
		apierrors.NotFound(c, "Referral not found")
		return
	}

	sent, err := h.referralService.ResendEmail(c.Request.Context(), referralID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"email_sent": sent})
}

// ListNotifications returns the dispatch audit log of the event
func (h *EventHandler) ListNotifications(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationService.ListForEvent(actor.Event.ID, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"pagination": params.Response(total),
	})
}
