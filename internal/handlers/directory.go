package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/party-planner-api/internal/dto"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/services"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

// DirectoryHandler manages the people and households organizers invite.
type DirectoryHandler struct {
	directoryService *services.DirectoryService
	tagService       *services.TagService
}

func NewDirectoryHandler(directoryService *services.DirectoryService, tagService *services.TagService) *DirectoryHandler {
	return &DirectoryHandler{
		directoryService: directoryService,
		tagService:       tagService,
	}
}

type personRequest struct {
	FirstName         string                   `json:"first_name" binding:"required"`
	LastName          string                   `json:"last_name"`
	Email             string                   `json:"email"`
	Phone             string                   `json:"phone"`
	Role              models.PersonRole        `json:"role"`
	ContactPreference models.ContactPreference `json:"contact_preference"`
	SMSOptIn          bool                     `json:"sms_opt_in"`
}

func (r personRequest) input() services.PersonInput {
	return services.PersonInput{
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		Phone:             r.Phone,
		Role:              r.Role,
		ContactPreference: r.ContactPreference,
		SMSOptIn:          r.SMSOptIn,
	}
}

func (h *DirectoryHandler) ListPersons(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	persons, total, err := h.directoryService.ListPersons(c.Query("q"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"persons": dto.ToPersonDetailDTOs(persons),
		"pagination": params.Response(total),
	})
}

func (h *DirectoryHandler) CreatePerson(c *gin.Context) {
	var req personRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	person, err := h.directoryService.CreatePerson(req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.ToPersonDetailDTO(*person))
}

// GetPerson returns the person with tags and primary household
func (h *DirectoryHandler) GetPerson(c *gin.Context) {
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	person, err := h.directoryService.GetPerson(personID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tags, err := h.tagService.TagsForPerson(personID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	household, err := h.directoryService.PrimaryHousehold(personID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"person":            dto.ToPersonDetailDTO(*person),
		"tags":              tags,
		"primary_household": household,
	})
}

func (h *DirectoryHandler) UpdatePerson(c *gin.Context) {
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	var req personRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	person, err := h.directoryService.UpdatePerson(personID, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToPersonDetailDTO(*person))
}

type householdRequest struct {
	Name      string   `json:"name" binding:"required,max=255"`
	Address   string   `json:"address"`
	Notes     string   `json:"notes"`
	MemberIDs []uint64 `json:"member_ids"`
}

func (h *DirectoryHandler) ListHouseholds(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	households, total, err := h.directoryService.ListHouseholds(params)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	out := make([]dto.HouseholdDTO, len(households))
	for i, household := range households {
		out[i] = dto.ToHouseholdDTO(household)
	}
	c.JSON(http.StatusOK, gin.H{
		"households": out,
		"pagination": params.Response(total),
	})
}

// CreateHousehold creates the household; the first member is its primary contact
func (h *DirectoryHandler) CreateHousehold(c *gin.Context) {
	var req householdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	household, err := h.directoryService.CreateHousehold(services.HouseholdInput{
		Name:    req.Name,
		Address: req.Address,
		Notes:   req.Notes,
	}, req.MemberIDs)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, household)
}

func (h *DirectoryHandler) GetHousehold(c *gin.Context) {
	householdID, ok := parseIDParam(c, "household_id")
	if !ok {
		return
	}

	household, err := h.directoryService.GetHousehold(householdID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	members, err := h.directoryService.ActiveMembers(householdID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"household": household,
		"members":   dto.ToPersonDetailDTOs(members),
	})
}

func (h *DirectoryHandler) UpdateHousehold(c *gin.Context) {
	householdID, ok := parseIDParam(c, "household_id")
	if !ok {
		return
	}

	var req householdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	household, err := h.directoryService.UpdateHousehold(householdID, services.HouseholdInput{
		Name:    req.Name,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, household)
}

func (h *DirectoryHandler) DeleteHousehold(c *gin.Context) {
	householdID, ok := parseIDParam(c, "household_id")
	if !ok {
		return
	}

	if err := h.directoryService.DeleteHousehold(householdID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Household deleted"})
}

func (h *DirectoryHandler) AddMember(c *gin.Context) {
	householdID, ok := parseIDParam(c, "household_id")
	if !ok {
		return
	}

	type MemberRequest struct {
		PersonID uint64               `json:"person_id" binding:"required"`
		Role     models.HouseholdRole `json:"role"`
	}
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	membership, err := h.directoryService.AddMember(householdID, req.PersonID, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, membership)
}

func (h *DirectoryHandler) RemoveMember(c *gin.Context) {
	householdID, ok := parseIDParam(c, "household_id")
	if !ok {
		return
	}
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	if err := h.directoryService.LeaveHousehold(householdID, personID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// MovePerson moves a person between households, keeping the old membership as history
func (h *DirectoryHandler) MovePerson(c *gin.Context) {
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	type MoveRequest struct {
		FromHouseholdID uint64 `json:"from_household_id" binding:"required"`
		ToHouseholdID   uint64 `json:"to_household_id" binding:"required"`
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	membership, err := h.directoryService.MovePerson(personID, req.FromHouseholdID, req.ToHouseholdID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, membership)
}

func (h *DirectoryHandler) AddTag(c *gin.Context) {
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	type TagRequest struct {
		Name string `json:"name" binding:"required,max=50"`
	}
	var req TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	tag, err := h.tagService.AddTag(personID, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *DirectoryHandler) RemoveTag(c *gin.Context) {
	personID, ok := parseIDParam(c, "person_id")
	if !ok {
		return
	}

	if err := h.tagService.RemoveTag(personID, c.Param("tag")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tag removed"})
}

// SearchTags returns prefix matches for ?q=, or the most used tags without it
func (h *DirectoryHandler) SearchTags(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 || limit > 50 {
		limit = 10
	}

	var tags []models.Tag
	if q := c.Query("q"); q != "" {
		tags, err = h.tagService.Search(q, limit)
	} else {
		tags, err = h.tagService.Popular(limit)
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
