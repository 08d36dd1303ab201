package dto

import (
	"time"

	"github.com/yukikurage/party-planner-api/internal/models"
)

// ClaimDTO is one claim on an item, live or carried over from the single
// claim columns.
type ClaimDTO struct {
	Person      PersonDTO  `json:"person"`
	Notes       *string    `json:"notes,omitempty"`
	DietaryTags []string   `json:"dietary_tags,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
}

// PotluckItemDTO represents a potluck item in API responses
type PotluckItemDTO struct {
	ID                uint64      `json:"id"`
	Name              string      `json:"name"`
	Category          *string     `json:"category"`
	Description       *string     `json:"description"`
	QuantityNeeded    *int        `json:"quantity_needed"`
	RemainingQuantity *int        `json:"remaining_quantity"`
	IsSuggested       bool        `json:"is_suggested"`
	DietaryTags       []string    `json:"dietary_tags"`
	CreatedByID       *uint64     `json:"created_by_id"`
	ClaimCount        int         `json:"claim_count"`
	IsFullyClaimed    bool        `json:"is_fully_claimed"`
	Claims            []ClaimDTO  `json:"claims"`
	Contributors      []PersonDTO `json:"contributors"`
	CreatedAt         time.Time   `json:"created_at"`
}

// CategoryDTO groups items under a category heading
type CategoryDTO struct {
	Category string           `json:"category"`
	Items    []PotluckItemDTO `json:"items"`
}

func toClaimDTO(claim models.Claim) ClaimDTO {
	dto := ClaimDTO{Notes: claim.ClaimNotes()}
	if person := claim.Claimant(); person != nil && person.ID != 0 {
		dto.Person = ToPersonDTO(*person)
	} else {
		dto.Person = PersonDTO{ID: claim.ClaimantID()}
	}
	switch c := claim.(type) {
	case models.LiveClaim:
		dto.DietaryTags = c.DietaryTags
		claimedAt := c.ClaimedAt
		dto.ClaimedAt = &claimedAt
	case models.LegacyClaim:
		dto.DietaryTags = c.DietaryTags
		dto.ClaimedAt = c.ClaimedAt
	}
	return dto
}

// ToPotluckItemDTO expects claims, contributors and their people preloaded.
func ToPotluckItemDTO(item models.PotluckItem) PotluckItemDTO {
	claims := item.AllClaims()
	claimDTOs := make([]ClaimDTO, len(claims))
	for i, c := range claims {
		claimDTOs[i] = toClaimDTO(c)
	}
	contributors := make([]PersonDTO, len(item.Contributors))
	for i, c := range item.Contributors {
		contributors[i] = ToPersonDTO(c.Person)
	}

	return PotluckItemDTO{
		ID:                item.ID,
		Name:              item.Name,
		Category:          item.Category,
		Description:       item.Description,
		QuantityNeeded:    item.QuantityNeeded,
		RemainingQuantity: item.RemainingQuantity(),
		IsSuggested:       item.IsSuggested,
		DietaryTags:       item.DietaryTags,
		CreatedByID:       item.CreatedByID,
		ClaimCount:        len(claims),
		IsFullyClaimed:    item.IsFullyClaimed(),
		Claims:            claimDTOs,
		Contributors:      contributors,
		CreatedAt:         item.CreatedAt,
	}
}

func ToPotluckItemDTOs(items []models.PotluckItem) []PotluckItemDTO {
	out := make([]PotluckItemDTO, len(items))
	for i, item := range items {
		out[i] = ToPotluckItemDTO(item)
	}
	return out
}
