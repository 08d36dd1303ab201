package repository

import (
	"github.com/yukikurage/party-planner-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPotluckRepository is a GORM implementation of PotluckRepository
type GormPotluckRepository struct {
	db *gorm.DB
}

// NewPotluckRepository creates a new PotluckRepository
func NewPotluckRepository(db *gorm.DB) PotluckRepository {
	return &GormPotluckRepository{db: db}
}

func (r *GormPotluckRepository) CreateItem(item *models.PotluckItem) error {
	return r.db.Omit(clause.Associations).Create(item).Error
}

func (r *GormPotluckRepository) UpdateItem(item *models.PotluckItem) error {
	return r.db.Omit(clause.Associations).Save(item).Error
}

// DeleteItem removes the item and its dependent rows in one transaction
func (r *GormPotluckRepository) DeleteItem(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", id).Delete(&models.PotluckClaim{}).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", id).Delete(&models.PotluckItemContributor{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PotluckItem{}, id).Error
	})
}

func (r *GormPotluckRepository) preloaded() *gorm.DB {
	return r.db.
		Preload("CreatedBy").
		Preload("ClaimedBy").
		Preload("Claims", func(db *gorm.DB) *gorm.DB { return db.Order("claimed_at, id") }).
		Preload("Claims.Person").
		Preload("Contributors", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Contributors.Person")
}

func (r *GormPotluckRepository) FindItem(id uint64) (*models.PotluckItem, error) {
	var item models.PotluckItem
	if err := r.preloaded().First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems retrieves potluck items with filtering
func (r *GormPotluckRepository) ListItems(filter PotluckFilter) ([]models.PotluckItem, error) {
	query := r.preloaded().Model(&models.PotluckItem{}).Where("potluck_items.event_id = ?", filter.EventID)

	if filter.IsSuggested != nil {
		query = query.Where("potluck_items.is_suggested = ?", *filter.IsSuggested)
	}
	if filter.Category != nil {
		query = query.Where("potluck_items.category = ?", *filter.Category)
	}
	if filter.ClaimedBy != nil {
		claimSubQuery := r.db.Model(&models.PotluckClaim{}).
			Select("1").
			Where("potluck_claims.item_id = potluck_items.id").
			Where("potluck_claims.person_id = ?", *filter.ClaimedBy)
		query = query.Where("(EXISTS (?) OR potluck_items.claimed_by_person_id = ?)", claimSubQuery, *filter.ClaimedBy)
	}
	if filter.ContributedBy != nil {
		contributorSubQuery := r.db.Model(&models.PotluckItemContributor{}).
			Select("1").
			Where("potluck_item_contributors.item_id = potluck_items.id").
			Where("potluck_item_contributors.person_id = ?", *filter.ContributedBy)
		query = query.Where("EXISTS (?)", contributorSubQuery)
	}

	var items []models.PotluckItem
	if err := query.
		Order("potluck_items.is_suggested DESC, potluck_items.category, potluck_items.created_at").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LockItem issues a no-op update, which every supported dialect serializes
// on the row.
func (r *GormPotluckRepository) LockItem(id uint64) error {
	return r.db.Exec("UPDATE potluck_items SET id = id WHERE id = ?", id).Error
}

func (r *GormPotluckRepository) CreateClaim(claim *models.PotluckClaim) error {
	return translate(r.db.Omit(clause.Associations).Create(claim).Error)
}

func (r *GormPotluckRepository) UpdateClaim(claim *models.PotluckClaim) error {
	return r.db.Omit(clause.Associations).Save(claim).Error
}

func (r *GormPotluckRepository) DeleteClaim(id uint64) error {
	return r.db.Delete(&models.PotluckClaim{}, id).Error
}

func (r *GormPotluckRepository) FindClaim(itemID, personID uint64) (*models.PotluckClaim, error) {
	var claim models.PotluckClaim
	if err := r.db.Where("item_id = ? AND person_id = ?", itemID, personID).
		First(&claim).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *GormPotluckRepository) ClearLegacyClaim(itemID uint64) error {
	return r.db.Model(&models.PotluckItem{}).
		Where("id = ?", itemID).
		Updates(map[string]interface{}{
			"claimed_by_person_id": nil,
			"claimer_notes":        nil,
			"claimer_dietary_tags": nil,
			"claimed_at":           nil,
		}).Error
}

// ReplaceContributors deletes then inserts; contributor sets are small.
func (r *GormPotluckRepository) ReplaceContributors(itemID uint64, personIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("item_id = ?", itemID).Delete(&models.PotluckItemContributor{}).Error; err != nil {
			return err
		}
		if len(personIDs) == 0 {
			return nil
		}

		contributors := make([]models.PotluckItemContributor, 0, len(personIDs))
		seen := make(map[uint64]struct{}, len(personIDs))
		for _, id := range personIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			contributors = append(contributors, models.PotluckItemContributor{ItemID: itemID, PersonID: id})
		}
		return tx.Omit(clause.Associations).Create(&contributors).Error
	})
}
