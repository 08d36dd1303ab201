package dto

import (
	"time"

	"github.com/yukikurage/party-planner-api/internal/models"
)

// RSVPDTO represents an RSVP in API responses
type RSVPDTO struct {
	ID            uint64            `json:"id"`
	Person        PersonDTO         `json:"person"`
	HouseholdID   *uint64           `json:"household_id"`
	Status        models.RSVPStatus `json:"status"`
	Notes         *string           `json:"notes"`
	RespondedAt   *time.Time        `json:"responded_at"`
	UpdatedByHost bool              `json:"updated_by_host"`
}

// WallPostDTO represents a message wall post
type WallPostDTO struct {
	ID              uint64    `json:"id"`
	Person          PersonDTO `json:"person"`
	Message         string    `json:"message"`
	IsOrganizerPost bool      `json:"is_organizer_post"`
	PostedAt        time.Time `json:"posted_at"`
}

// ReferralDTO represents a brought friend
type ReferralDTO struct {
	ID             uint64     `json:"id"`
	ReferredPerson PersonDTO  `json:"referred_person"`
	ReferredByID   uint64     `json:"referred_by_id"`
	EmailSentCount int        `json:"email_sent_count"`
	EmailSentAt    *time.Time `json:"email_sent_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// GuestViewDTO is what a guest sees after opening a link
type GuestViewDTO struct {
	Event            *models.Event `json:"event"`
	Person           *PersonDTO    `json:"person,omitempty"`
	HouseholdID      *uint64       `json:"household_id,omitempty"`
	Members          []PersonDTO   `json:"members,omitempty"`
	RSVPs            []RSVPDTO     `json:"rsvps"`
	IsAdmin          bool          `json:"is_admin"`
	CanInviteFriends bool          `json:"can_invite_friends"`
	DeadlinePassed   bool          `json:"deadline_passed"`
}

func ToRSVPDTO(rsvp models.RSVP) RSVPDTO {
	return RSVPDTO{
		ID:            rsvp.ID,
		Person:        ToPersonDTO(rsvp.Person),
		HouseholdID:   rsvp.HouseholdID,
		Status:        rsvp.Status,
		Notes:         rsvp.Notes,
		RespondedAt:   rsvp.RespondedAt,
		UpdatedByHost: rsvp.UpdatedByHost,
	}
}

func ToRSVPDTOs(rsvps []models.RSVP) []RSVPDTO {
	out := make([]RSVPDTO, len(rsvps))
	for i, r := range rsvps {
		out[i] = ToRSVPDTO(r)
	}
	return out
}

func ToWallPostDTOs(posts []models.MessageWallPost) []WallPostDTO {
	out := make([]WallPostDTO, len(posts))
	for i, p := range posts {
		out[i] = WallPostDTO{
			ID:              p.ID,
			Person:          ToPersonDTO(p.Person),
			Message:         p.Message,
			IsOrganizerPost: p.IsOrganizerPost,
			PostedAt:        p.PostedAt,
		}
	}
	return out
}

func ToReferralDTO(referral models.GuestReferral) ReferralDTO {
	return ReferralDTO{
		ID:             referral.ID,
		ReferredPerson: ToPersonDTO(referral.ReferredPerson),
		ReferredByID:   referral.ReferredByPersonID,
		EmailSentCount: referral.EmailSentCount,
		EmailSentAt:    referral.EmailSentAt,
		CreatedAt:      referral.CreatedAt,
	}
}

func ToReferralDTOs(referrals []models.GuestReferral) []ReferralDTO {
	out := make([]ReferralDTO, len(referrals))
	for i, r := range referrals {
		out[i] = ToReferralDTO(r)
	}
	return out
}
