package models

import "time"

type HouseholdRole string

const (
	HouseholdRolePrimary HouseholdRole = "primary"
	HouseholdRoleMember  HouseholdRole = "member"
)

// HouseholdMembership is an interval during which a person belonged to a
// household. Rows are closed by setting LeftAt and are never reopened.
type HouseholdMembership struct {
	ID          uint64        `gorm:"primarykey" json:"id"`
	HouseholdID uint64        `gorm:"not null;index" json:"household_id"`
	PersonID    uint64        `gorm:"not null;index" json:"person_id"`
	Role        HouseholdRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	JoinedAt    time.Time     `gorm:"not null" json:"joined_at"`
	LeftAt      *time.Time    `gorm:"index" json:"left_at"`

	// Relations
	Household Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`
	Person    Person    `gorm:"foreignKey:PersonID" json:"person,omitempty"`
}

func (m *HouseholdMembership) IsActive() bool {
	return m.LeftAt == nil
}
