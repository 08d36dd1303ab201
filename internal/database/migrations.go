package database

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AddIndexes adds composite indexes used by the hot read paths that the
// struct tags do not already declare.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// RSVP stats and attendee lists
		{"rsvps", "idx_rsvps_event_status", "event_id, status"},
		{"rsvps", "idx_rsvps_event_household", "event_id, household_id"},

		// Active membership lookups
		{"household_memberships", "idx_memberships_household_active", "household_id, left_at"},

		// Admin checks
		{"event_admins", "idx_event_admins_event_active", "event_id, removed_at"},

		// Potluck board
		{"potluck_items", "idx_potluck_items_event_suggested", "event_id, is_suggested"},

		// Message wall, newest first
		{"message_wall_posts", "idx_wall_posts_event_posted", "event_id, posted_at"},

		// Auth token rate limiting
		{"auth_tokens", "idx_auth_tokens_person_created", "person_id, type, created_at"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Debug().Str("index", idx.name).Str("table", idx.table).Msg("created index")
	}

	return nil
}
