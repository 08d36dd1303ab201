package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/party-planner-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// ActiveMemberships restricts household_memberships to open intervals.
func ActiveMemberships(db *gorm.DB) *gorm.DB {
	return db.Where("household_memberships.left_at IS NULL")
}

// ActiveAdmins restricts event_admins to rows that have not been removed.
func ActiveAdmins(db *gorm.DB) *gorm.DB {
	return db.Where("event_admins.removed_at IS NULL")
}
