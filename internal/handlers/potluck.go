package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/dto"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/services"
)

// PotluckHandler serves the potluck board for guests and admins alike; the
// service decides what each actor may change.
type PotluckHandler struct {
	potluckService *services.PotluckService
}

func NewPotluckHandler(potluckService *services.PotluckService) *PotluckHandler {
	return &PotluckHandler{potluckService: potluckService}
}

type itemRequest struct {
	Name           string   `json:"name" binding:"required,max=255"`
	Category       string   `json:"category" binding:"max=50"`
	Description    string   `json:"description"`
	QuantityNeeded *int     `json:"quantity_needed"`
	DietaryTags    []string `json:"dietary_tags"`
	PersonID       uint64   `json:"person_id"`
	ContributorIDs []uint64 `json:"contributor_ids"`
	Suggested      bool     `json:"suggested"`
}

func (r itemRequest) input() services.ItemInput {
	return services.ItemInput{
		Name:           r.Name,
		Category:       r.Category,
		Description:    r.Description,
		QuantityNeeded: r.QuantityNeeded,
		DietaryTags:    r.DietaryTags,
	}
}

// ListItems returns the board. ?group=category groups it; ?unclaimed=true
// keeps only items that still need someone.
func (h *PotluckHandler) ListItems(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}

	if c.Query("group") == "category" {
		groups, err := h.potluckService.ItemsByCategory(actor.Event.ID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		out := make([]dto.CategoryDTO, len(groups))
		for i, g := range groups {
			out[i] = dto.CategoryDTO{Category: g.Category, Items: dto.ToPotluckItemDTOs(g.Items)}
		}
		c.JSON(http.StatusOK, gin.H{"categories": out})
		return
	}

	var (
		items []dto.PotluckItemDTO
		err   error
	)
	if c.Query("unclaimed") == "true" {
		open, listErr := h.potluckService.UnclaimedItems(actor.Event.ID)
		items, err = dto.ToPotluckItemDTOs(open), listErr
	} else {
		all, listErr := h.potluckService.ListItems(repository.PotluckFilter{EventID: actor.Event.ID})
		items, err = dto.ToPotluckItemDTOs(all), listErr
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Mine lists what the acting person claimed and contributes
func (h *PotluckHandler) Mine(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	if actor.Person == nil {
		apierrors.Unauthorized(c, "Choose who you are first")
		return
	}

	claimed, err := h.potluckService.PersonClaims(actor.Event.ID, actor.Person.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	contributing, err := h.potluckService.PersonContributions(actor.Event.ID, actor.Person.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"claimed":      dto.ToPotluckItemDTOs(claimed),
		"contributing": dto.ToPotluckItemDTOs(contributing),
	})
}

// CreateItem adds a freeform item, or a suggestion when an admin asks for one
func (h *PotluckHandler) CreateItem(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var err error
	if req.Suggested {
		item, createErr := h.potluckService.CreateSuggestedItem(actor, req.input())
		if err = createErr; err == nil {
			c.JSON(http.StatusCreated, dto.ToPotluckItemDTO(*item))
			return
		}
	} else {
		item, createErr := h.potluckService.CreateFreeformItem(actor, req.PersonID, req.input(), req.ContributorIDs)
		if err = createErr; err == nil {
			c.JSON(http.StatusCreated, dto.ToPotluckItemDTO(*item))
			return
		}
	}
	respondServiceError(c, err)
}

func (h *PotluckHandler) UpdateItem(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.potluckService.UpdateItem(actor, itemID, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPotluckItemDTO(*item))
}

// SetContributors replaces who is bringing a freeform item
func (h *PotluckHandler) SetContributors(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	type ContributorsRequest struct {
		PersonIDs []uint64 `json:"person_ids"`
	}
	var req ContributorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.potluckService.SetContributors(actor, itemID, req.PersonIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPotluckItemDTO(*item))
}

func (h *PotluckHandler) DeleteItem(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	if err := h.potluckService.DeleteItem(actor, itemID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}

type claimRequest struct {
	PersonID    uint64   `json:"person_id"`
	Notes       string   `json:"notes"`
	DietaryTags []string `json:"dietary_tags"`
}

// Claim answers 201 on a new claim and 200 with the outcome otherwise
func (h *PotluckHandler) Claim(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.potluckService.ClaimItem(actor, itemID, req.PersonID, req.Notes, req.DietaryTags)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusOK
	if result.Outcome == services.ClaimCreated {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"outcome": result.Outcome, "claim": result.Claim})
}

func (h *PotluckHandler) UpdateClaim(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}

	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	claim, err := h.potluckService.UpdateClaim(actor, itemID, req.PersonID, req.Notes, req.DietaryTags)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

// Unclaim removes the acting person's claim; ?person_id= picks a household member
func (h *PotluckHandler) Unclaim(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "item_id")
	if !ok {
		return
	}
	var personID uint64
	if raw := c.Query("person_id"); raw != "" {
		if personID, ok = parseUintQuery(c, "person_id"); !ok {
			return
		}
	}

	if err := h.potluckService.UnclaimItem(actor, itemID, personID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Claim removed"})
}

// GenerateSuggestions asks the AI service for suggested items
func (h *PotluckHandler) GenerateSuggestions(c *gin.Context) {
	actor, ok := guestActor(c)
	if !ok {
		return
	}

	type GenerateRequest struct {
		Guidance string `json:"guidance" binding:"max=2000"`
	}
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	items, err := h.potluckService.GenerateSuggestions(c.Request.Context(), actor, req.Guidance)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"items": dto.ToPotluckItemDTOs(items)})
}
