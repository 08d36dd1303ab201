package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
)

var (
	ErrPotluckDisabled        = errors.New("potluck is not enabled for this event")
	ErrItemNotFound           = errors.New("potluck item not found")
	ErrItemNameRequired       = errors.New("item name is required")
	ErrItemPermissionDenied   = errors.New("you do not have permission to modify this item")
	ErrClaimNotFound          = errors.New("claim not found")
	ErrInvalidContributors    = errors.New("one or more contributors do not exist")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoItemsGenerated     = errors.New("AI did not suggest any items")
)

// ClaimOutcome is the result of a claim attempt that did not error.
type ClaimOutcome string

const (
	ClaimCreated        ClaimOutcome = "claimed"
	ClaimAlreadyClaimed ClaimOutcome = "already_claimed"
	ClaimFull           ClaimOutcome = "fully_claimed"
)

// ClaimResult carries the new claim when Outcome is ClaimCreated.
type ClaimResult struct {
	Outcome ClaimOutcome
	Claim   *models.PotluckClaim
}

// PotluckService runs the potluck board: freeform items with contributor
// sets and suggested items with per-person claims.
type PotluckService struct {
	repos     *repository.Repositories
	aiService *AIService
	logger    zerolog.Logger
	now       func() time.Time
}

func NewPotluckService(repos *repository.Repositories, aiService *AIService, logger zerolog.Logger) *PotluckService {
	return &PotluckService{
		repos:     repos,
		aiService: aiService,
		logger:    logger,
		now:       time.Now,
	}
}

// ItemInput holds the editable fields of a potluck item.
type ItemInput struct {
	Name           string
	Category       string
	Description    string
	QuantityNeeded *int
	DietaryTags    []string
}

func (in ItemInput) apply(item *models.PotluckItem) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrItemNameRequired
	}
	item.Name = in.Name
	item.Category = models.StringPtr(in.Category)
	item.Description = models.StringPtr(in.Description)
	item.QuantityNeeded = in.QuantityNeeded
	item.DietaryTags = in.DietaryTags
	return nil
}

func (s *PotluckService) checkWritable(actor *Actor) error {
	if actor == nil || actor.Event == nil {
		return ErrActorRequired
	}
	if !actor.Event.PotluckEnabled {
		return ErrPotluckDisabled
	}
	if actor.Event.IsReadOnly() {
		return ErrEventReadOnly
	}
	return nil
}

// loadItem finds an item of the actor's event with claims and contributors.
func (s *PotluckService) loadItem(actor *Actor, itemID uint64) (*models.PotluckItem, error) {
	item, err := s.repos.Potluck.FindItem(itemID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	if item.EventID != actor.Event.ID {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (s *PotluckService) GetItem(actor *Actor, itemID uint64) (*models.PotluckItem, error) {
	if actor == nil || actor.Event == nil {
		return nil, ErrActorRequired
	}
	return s.loadItem(actor, itemID)
}

func (s *PotluckService) ListItems(filter repository.PotluckFilter) ([]models.PotluckItem, error) {
	items, err := s.repos.Potluck.ListItems(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list potluck items: %w", err)
	}
	return items, nil
}

// CategoryGroup is the items of one category, in board order.
type CategoryGroup struct {
	Category string               `json:"category"`
	Items    []models.PotluckItem `json:"items"`
}

// ItemsByCategory groups the event's items; uncategorized items come last
// under "other".
func (s *PotluckService) ItemsByCategory(eventID uint64) ([]CategoryGroup, error) {
	items, err := s.ListItems(repository.PotluckFilter{EventID: eventID})
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var groups []CategoryGroup
	for _, item := range items {
		category := strings.ToLower(models.Deref(item.Category))
		if category == "" {
			category = "other"
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, CategoryGroup{Category: category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Category == "other" || groups[j].Category == "other" {
			return groups[j].Category == "other" && groups[i].Category != "other"
		}
		return groups[i].Category < groups[j].Category
	})
	return groups, nil
}

// UnclaimedItems lists suggested items nobody claimed and freeform items
// that still have room.
func (s *PotluckService) UnclaimedItems(eventID uint64) ([]models.PotluckItem, error) {
	items, err := s.ListItems(repository.PotluckFilter{EventID: eventID})
	if err != nil {
		return nil, err
	}
	var open []models.PotluckItem
	for _, item := range items {
		if item.IsSuggested && !item.IsClaimed() {
			open = append(open, item)
		} else if !item.IsSuggested && !item.IsFullyClaimed() {
			open = append(open, item)
		}
	}
	return open, nil
}

func (s *PotluckService) PersonClaims(eventID, personID uint64) ([]models.PotluckItem, error) {
	return s.ListItems(repository.PotluckFilter{EventID: eventID, ClaimedBy: &personID})
}

func (s *PotluckService) PersonContributions(eventID, personID uint64) ([]models.PotluckItem, error) {
	return s.ListItems(repository.PotluckFilter{EventID: eventID, ContributedBy: &personID})
}

// validateContributors defaults an empty set to the acting person and checks
// every id exists.
func (s *PotluckService) validateContributors(tx *repository.Repositories, actingID uint64, ids []uint64) ([]uint64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []uint64{actingID}, nil
	}
	persons, err := tx.Persons.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find contributors: %w", err)
	}
	if len(persons) != len(ids) {
		return nil, ErrInvalidContributors
	}
	return ids, nil
}

// CreateFreeformItem adds a guest-created item. Contributors default to the
// acting person.
func (s *PotluckService) CreateFreeformItem(actor *Actor, actingPersonID uint64, input ItemInput, contributorIDs []uint64) (*models.PotluckItem, error) {
	if err := s.checkWritable(actor); err != nil {
		return nil, err
	}
	actingID, err := actor.ActingPersonID(actingPersonID)
	if err != nil {
		return nil, err
	}

	item := &models.PotluckItem{EventID: actor.Event.ID, CreatedByID: &actingID}
	if err := input.apply(item); err != nil {
		return nil, err
	}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		contributors, err := s.validateContributors(tx, actingID, contributorIDs)
		if err != nil {
			return err
		}
		if err := tx.Potluck.CreateItem(item); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		return tx.Potluck.ReplaceContributors(item.ID, contributors)
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Potluck.FindItem(item.ID)
}

// canEditFreeform: creator, contributors, people the actor answers for, or admins.
func canEditFreeform(actor *Actor, item *models.PotluckItem) bool {
	if actor.IsAdmin {
		return true
	}
	if item.CreatedByID != nil && actor.CanActAs(*item.CreatedByID) {
		return true
	}
	for _, c := range item.Contributors {
		if actor.CanActAs(c.PersonID) {
			return true
		}
	}
	return false
}

func (s *PotluckService) UpdateItem(actor *Actor, itemID uint64, input ItemInput) (*models.PotluckItem, error) {
	if err := s.checkWritable(actor); err != nil {
		return nil, err
	}
	item, err := s.loadItem(actor, itemID)
	if err != nil {
		return nil, err
	}
	if item.IsSuggested && !actor.IsAdmin {
		return nil, ErrItemPermissionDenied
	}
	if !item.IsSuggested && !canEditFreeform(actor, item) {
		return nil, ErrItemPermissionDenied
	}

	if err := input.apply(item); err != nil {
		return nil, err
	}
	if err := s.repos.Potluck.UpdateItem(item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return s.repos.Potluck.FindItem(item.ID)
}

// SetContributors replaces the whole contributor set of a freeform item.
func (s *PotluckService) SetContributors(actor *Actor, itemID uint64, contributorIDs []uint64) (*models.PotluckItem, error) {
	if err := s.checkWritable(actor); err != nil {
		return nil, err
	}
	item, err := s.loadItem(actor, itemID)
	if err != nil {
		return nil, err
	}
	if item.IsSuggested || !canEditFreeform(actor, item) {
		return nil, ErrItemPermissionDenied
	}
	actingID := actor.PersonID()
	if actingID == 0 && item.CreatedByID != nil {
		actingID = *item.CreatedByID
	}

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		contributors, err := s.validateContributors(tx, actingID, contributorIDs)
		if err != nil {
			return err
		}
		return tx.Potluck.ReplaceContributors(item.ID, contributors)
	})
	if err != nil {
		return nil, err
	}
	return s.repos.Potluck.FindItem(item.ID)
}

func (s *PotluckService) DeleteItem(actor *Actor, itemID uint64) error {
	if err := s.checkWritable(actor); err != nil {
		return err
	}
	item, err := s.loadItem(actor, itemID)
	if err != nil {
		return err
	}
	if item.IsSuggested && !actor.IsAdmin {
		return ErrItemPermissionDenied
	}
	if !item.IsSuggested && !canEditFreeform(actor, item) {
		return ErrItemPermissionDenied
	}
	if err := s.repos.Potluck.DeleteItem(item.ID); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// CreateSuggestedItem adds an organizer suggestion. Suggestions have no
// claim ceiling.
func (s *PotluckService) CreateSuggestedItem(actor *Actor, input ItemInput) (*models.PotluckItem, error) {
	if err := s.checkWritable(actor); err != nil {
		return nil, err
	}
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}

	item := &models.PotluckItem{
		EventID:     actor.Event.ID,
		IsSuggested: true,
		CreatedByID: actor.personIDPtr(),
	}
	if err := input.apply(item); err != nil {
		return nil, err
	}
	if err := s.repos.Potluck.CreateItem(item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

// ClaimItem records a claim for the acting person. A second claim by the same
// person and a claim on a full freeform item are outcomes, not errors.
func (s *PotluckService) ClaimItem(actor *Actor, itemID, personID uint64, notes string, dietaryTags []string) (*ClaimResult, error) {
	if err := s.checkWritable(actor); err != nil {
		return nil, err
	}
	claimantID, err := actor.ActingPersonID(personID)
	if err != nil {
		return nil, err
	}
	item, err := s.loadItem(actor, itemID)
	if err != nil {
		return nil, err
	}

	result := &ClaimResult{}
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		// Claimers of one item queue on its row, so capacity is checked
		// against committed claims only.
		if err := tx.Potluck.LockItem(item.ID); err != nil {
			return fmt.Errorf("failed to lock item: %w", err)
		}
		current, err := tx.Potluck.FindItem(item.ID)
		if err != nil {
			return fmt.Errorf("failed to find item: %w", err)
		}
		if current.HasClaimBy(claimantID) {
			result.Outcome = ClaimAlreadyClaimed
			return nil
		}
		if current.IsFullyClaimed() {
			result.Outcome = ClaimFull
			return nil
		}

		claim := &models.PotluckClaim{
			ItemID:      item.ID,
			PersonID:    claimantID,
			Notes:       models.StringPtr(notes),
			DietaryTags: dietaryTags,
			ClaimedAt:   s.now(),
		}
		if err := tx.Potluck.CreateClaim(claim); err != nil {
			return err
		}
		result.Outcome = ClaimCreated
		result.Claim = claim
		return nil
	})
	if repository.IsDuplicate(err) {
		return &ClaimResult{Outcome: ClaimAlreadyClaimed}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}
	return result, nil
}

// UnclaimItem removes the acting person's own claim, live or legacy. Claims
// of people the actor cannot act for are never touched.
func (s *PotluckService) UnclaimItem(actor *Actor, itemID, personID uint64) error {
	if err := s.checkWritable(actor); err != nil {
		return err
	}
	claimantID, err := actor.ActingPersonID(personID)
	if err != nil {
		return err
	}
	item, err := s.loadItem(actor, itemID)
	if err != nil {
		return err
	}

	for _, c := range item.AllClaims() {
		if c.ClaimantID() != claimantID {
			continue
		}
		switch claim := c.(type) {
		case models.LiveClaim:
			shadowed := item.ClaimedByPersonID != nil && *item.ClaimedByPersonID == claimantID
			err := s.repos.Transaction(func(tx *repository.Repositories) error {
				if err := tx.Potluck.DeleteClaim(claim.ID); err != nil {
					return err
				}
				if shadowed {
					return tx.Potluck.ClearLegacyClaim(item.ID)
				}
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to delete claim: %w", err)
			}
		case models.LegacyClaim:
			if err := s.repos.Potluck.ClearLegacyClaim(item.ID); err != nil {
				return fmt.Errorf("failed to clear legacy claim: %w", err)
			}
		}
		return nil
	}
	return ErrClaimNotFound
}

// UpdateClaim edits the acting person's claim details. A legacy claim is
// moved into the claims table on its first edit.
func (s *PotluckService) UpdateClaim(actor *Actor, itemID, personID uint64, notes string, dietaryTags []string) (*models.PotluckClaim, error) {
	if err := s.checkWritable(actor); err != nil {
		return nil, err
	}
	claimantID, err := actor.ActingPersonID(personID)
	if err != nil {
		return nil, err
	}
	item, err := s.loadItem(actor, itemID)
	if err != nil {
		return nil, err
	}

	for _, c := range item.AllClaims() {
		if c.ClaimantID() != claimantID {
			continue
		}
		switch claim := c.(type) {
		case models.LiveClaim:
			updated := claim.PotluckClaim
			updated.Notes = models.StringPtr(notes)
			updated.DietaryTags = dietaryTags
			if err := s.repos.Potluck.UpdateClaim(&updated); err != nil {
				return nil, fmt.Errorf("failed to update claim: %w", err)
			}
			return &updated, nil
		case models.LegacyClaim:
			claimedAt := s.now()
			if claim.ClaimedAt != nil {
				claimedAt = *claim.ClaimedAt
			}
			migrated := &models.PotluckClaim{
				ItemID:      item.ID,
				PersonID:    claimantID,
				Notes:       models.StringPtr(notes),
				DietaryTags: dietaryTags,
				ClaimedAt:   claimedAt,
			}
			err := s.repos.Transaction(func(tx *repository.Repositories) error {
				if err := tx.Potluck.CreateClaim(migrated); err != nil {
					return err
				}
				return tx.Potluck.ClearLegacyClaim(item.ID)
			})
			if err != nil {
				return nil, fmt.Errorf("failed to update claim: %w", err)
			}
			return migrated, nil
		}
	}
	return nil, ErrClaimNotFound
}

// GenerateSuggestions asks the AI service for items and stores them as
// suggestions, capped at constants.MaxAIGeneratedItems.
func (s *PotluckService) GenerateSuggestions(ctx context.Context, actor *Actor, guidance string) ([]models.PotluckItem, error) {
	if err := s.checkWritable(actor); err != nil {
		return nil, err
	}
	if err := actor.requireAdmin(); err != nil {
		return nil, err
	}
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}

	attending, err := s.repos.RSVPs.CountByStatus(actor.Event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count guests: %w", err)
	}
	existing, err := s.ListItems(repository.PotluckFilter{EventID: actor.Event.ID})
	if err != nil {
		return nil, err
	}
	existingNames := make([]string, 0, len(existing))
	for _, item := range existing {
		existingNames = append(existingNames, item.Name)
	}

	generated, err := s.aiService.SuggestPotluckItems(ctx, SuggestionRequest{
		EventTitle:    actor.Event.Title,
		GuestCount:    int(attending[models.RSVPAttending] + attending[models.RSVPMaybe]),
		ExistingItems: existingNames,
		Guidance:      guidance,
	})
	if err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return nil, ErrAINoItemsGenerated
	}
	if len(generated) > constants.MaxAIGeneratedItems {
		generated = generated[:constants.MaxAIGeneratedItems]
	}

	var created []models.PotluckItem
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		for _, g := range generated {
			if strings.TrimSpace(g.Name) == "" {
				continue
			}
			item := models.PotluckItem{
				EventID:        actor.Event.ID,
				Name:           g.Name,
				Category:       models.StringPtr(g.Category),
				Description:    models.StringPtr(g.Description),
				QuantityNeeded: g.Servings,
				IsSuggested:    true,
				DietaryTags:    g.DietaryTags,
				CreatedByID:    actor.personIDPtr(),
			}
			if err := tx.Potluck.CreateItem(&item); err != nil {
				return fmt.Errorf("failed to create suggested item: %w", err)
			}
			created = append(created, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Uint64("event_id", actor.Event.ID).Int("count", len(created)).Msg("generated potluck suggestions")
	return created, nil
}
