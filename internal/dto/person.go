package dto

import (
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/phone"
)

// PersonDTO is the public view of a person shown to other guests.
type PersonDTO struct {
	ID        uint64            `json:"id"`
	FirstName string            `json:"first_name"`
	LastName  *string           `json:"last_name,omitempty"`
	FullName  string            `json:"full_name"`
	Role      models.PersonRole `json:"role"`
}

// PersonDetailDTO adds contact details for admins and the person themself.
type PersonDetailDTO struct {
	PersonDTO
	Email             *string                  `json:"email"`
	Phone             *string                  `json:"phone"`
	PhoneDisplay      string                   `json:"phone_display,omitempty"`
	ContactPreference models.ContactPreference `json:"contact_preference"`
	SMSOptIn          bool                     `json:"sms_opt_in"`
	HasPassword       bool                     `json:"has_password"`
}

// HouseholdDTO is a household with its active members.
type HouseholdDTO struct {
	ID      uint64      `json:"id"`
	Name    string      `json:"name"`
	Members []PersonDTO `json:"members"`
}

func ToPersonDTO(person models.Person) PersonDTO {
	return PersonDTO{
		ID:        person.ID,
		FirstName: person.FirstName,
		LastName:  person.LastName,
		FullName:  person.FullName(),
		Role:      person.Role,
	}
}

func ToPersonDTOs(persons []models.Person) []PersonDTO {
	out := make([]PersonDTO, len(persons))
	for i, p := range persons {
		out[i] = ToPersonDTO(p)
	}
	return out
}

func ToPersonDetailDTO(person models.Person) PersonDetailDTO {
	dto := PersonDetailDTO{
		PersonDTO:         ToPersonDTO(person),
		Email:             person.Email,
		Phone:             person.Phone,
		ContactPreference: person.ContactPreference,
		SMSOptIn:          person.SMSOptIn,
		HasPassword:       person.PasswordHash != nil,
	}
	if person.Phone != nil {
		dto.PhoneDisplay = phone.Display(*person.Phone)
	}
	return dto
}

func ToPersonDetailDTOs(persons []models.Person) []PersonDetailDTO {
	out := make([]PersonDetailDTO, len(persons))
	for i, p := range persons {
		out[i] = ToPersonDetailDTO(p)
	}
	return out
}

// ToHouseholdDTO uses the preloaded active memberships of the household.
func ToHouseholdDTO(household models.Household) HouseholdDTO {
	members := make([]PersonDTO, 0, len(household.Memberships))
	for _, m := range household.Memberships {
		if !m.IsActive() {
			continue
		}
		members = append(members, ToPersonDTO(m.Person))
	}
	return HouseholdDTO{
		ID:      household.ID,
		Name:    household.Name,
		Members: members,
	}
}
