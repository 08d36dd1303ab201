package models

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&Person{},
		&Household{},
		&HouseholdMembership{},
		&Tag{},
		&PersonTag{},
		&Event{},
		&EventAdmin{},
		&EventInvitation{},
		&PersonInvitationLink{},
		&GuestReferral{},
		&RSVP{},
		&PotluckItem{},
		&PotluckClaim{},
		&PotluckItemContributor{},
		&Notification{},
		&AuthToken{},
		&MessageWallPost{},
	}
}
