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
)

// GuestHandler serves the pages a guest reaches through a link or a session:
// the RSVP form and bringing friends. Every route expects an actor in the
// context.
type GuestHandler struct {
	rsvpService      *services.RSVPService
	referralService  *services.ReferralService
	directoryService *services.DirectoryService
}

func NewGuestHandler(rsvpService *services.RSVPService, referralService *services.ReferralService, directoryService *services.DirectoryService) *GuestHandler {
	return &GuestHandler{
		rsvpService:      rsvpService,
		referralService:  referralService,
		directoryService: directoryService,
	}
}

func guestActor(c *gin.Context) (*services.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return nil, false
	}
	return actor, true
}

// View returns the event and the answers the actor may change
func (h *GuestHandler) View(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}

	view := dto.GuestViewDTO{
		Event:          actor.Event,
		HouseholdID:    actor.HouseholdID,
		Members:        dto.ToPersonDTOs(actor.Members),
		IsAdmin:        actor.IsAdmin,
		DeadlinePassed: actor.Event.IsRSVPDeadlinePassed(time.Now()),
		RSVPs:          []dto.RSVPDTO{},
	}
	if actor.Person != nil {
		person := dto.ToPersonDTO(*actor.Person)
		view.Person = &person
	}

	var rsvps []models.RSVP
	var err error
	if actor.HouseholdID != nil {
		rsvps, err = h.rsvpService.ListForHousehold(actor.Event.ID, *actor.HouseholdID)
	} else if actor.Person != nil {
		rsvps, err = h.ownRSVP(actor)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	view.RSVPs = append(view.RSVPs, dto.ToRSVPDTOs(rsvps)...)

	if view.CanInviteFriends, err = h.referralService.CanInviteFriends(actor.Event, actor.PersonID()); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *GuestHandler) ownRSVP(actor *services.Actor) ([]models.RSVP, error) {
	rsvp, err := h.rsvpService.GetForPerson(actor.Event.ID, actor.PersonID())
	if err != nil || rsvp == nil {
		return nil, err
	}
	rsvp.Person = *actor.Person
	return []models.RSVP{*rsvp}, nil
}

// attachPerson fills the RSVP's person from what the actor already holds.
func attachPerson(actor *services.Actor, rsvp *models.RSVP) {
	if actor.Person != nil && actor.Person.ID == rsvp.PersonID {
		rsvp.Person = *actor.Person
		return
	}
	for _, m := range actor.Members {
		if m.ID == rsvp.PersonID {
			rsvp.Person = m
			return
		}
	}
}

type rsvpResponse struct {
	PersonID uint64  `json:"person_id" binding:"required"`
	Status   string  `json:"status" binding:"required"`
	Notes    *string `json:"notes"`
}

// UpdateHouseholdRSVPs submits the whole household form at once. Optional
// contact fields fill in what the acting person has not given yet.
func (h *GuestHandler) UpdateHouseholdRSVPs(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	if actor.HouseholdID == nil {
		apierrors.Forbidden(c, "This link does not cover a household")
		return
	}

	type HouseholdRequest struct {
		Responses []rsvpResponse `json:"responses" binding:"required,min=1,dive"`
		Email     string         `json:"email"`
		Phone     string         `json:"phone"`
	}
	var req HouseholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	updates := make(map[uint64]services.RSVPUpdate, len(req.Responses))
	for _, r := range req.Responses {
		status, err := models.ParseRSVPStatus(r.Status)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		updates[r.PersonID] = services.RSVPUpdate{Status: status, Notes: r.Notes}
	}

	result, err := h.rsvpService.UpdateHouseholdRSVPs(c.Request.Context(), actor, *actor.HouseholdID, updates)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if actor.Person != nil && (req.Email != "" || req.Phone != "") {
		if _, err := h.directoryService.FillContactInfo(actor.Person.ID, req.Email, req.Phone); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"rsvps":              dto.ToRSVPDTOs(result.RSVPs),
		"changed":            result.Changed,
		"notifications_sent": result.NotificationsSent,
	})
}

// UpdateRSVP changes one answer, by default the acting person's own
func (h *GuestHandler) UpdateRSVP(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}

	type SingleRequest struct {
		PersonID uint64  `json:"person_id"`
		Status   string  `json:"status" binding:"required"`
		Notes    *string `json:"notes"`
	}
	var req SingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	status, err := models.ParseRSVPStatus(req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	rsvp, changed, err := h.rsvpService.UpdateRSVP(c.Request.Context(), actor, req.PersonID, services.RSVPUpdate{Status: status, Notes: req.Notes})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	attachPerson(actor, rsvp)
	c.JSON(http.StatusOK, gin.H{"rsvp": dto.ToRSVPDTO(*rsvp), "changed": changed})
}

// InviteFriend brings a friend to the event as the acting person
func (h *GuestHandler) InviteFriend(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}

	type FriendRequest struct {
		FirstName string `json:"first_name" binding:"required,max=100"`
		LastName  string `json:"last_name" binding:"max=100"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}
	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.referralService.InviteFriend(c.Request.Context(), actor, services.InviteFriendInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"referral":   dto.ToReferralDTO(*result.Referral),
		"person":     dto.ToPersonDTO(*result.Person),
		"email_sent": result.EmailSent,
		"url":        h.referralService.ReferralURL(result.Referral),
	})
}

// ListFriends returns the friends the acting person brought
func (h *GuestHandler) ListFriends(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	if actor.Person == nil {
		c.JSON(http.StatusOK, gin.H{"referrals": []dto.ReferralDTO{}})
		return
	}

	referrals, err := h.referralService.ListByReferrer(actor.Event.ID, actor.Person.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": dto.ToReferralDTOs(referrals)})
}

func (h *GuestHandler) RemoveFriend(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	referralID, ok := parseIDParam(c, "referral_id")
	if !ok {
		return
	}

	if err := h.referralService.RemoveFriend(actor, referralID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Friend removed"})
}
