package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

var (
	ErrPersonNotFound       = errors.New("person not found")
	ErrHouseholdNotFound    = errors.New("household not found")
	ErrInvalidPersonInput   = errors.New("invalid person")
	ErrInvalidHouseholdName = errors.New("household name cannot be empty")
	ErrEmailTaken           = errors.New("email is already in use")
	ErrAlreadyMember        = errors.New("person is already a member of this household")
	ErrNotMember            = errors.New("person is not a member of this household")
	ErrSameHousehold        = errors.New("person is already in that household")
)

// DirectoryService manages people, households and memberships.
type DirectoryService struct {
	repos    *repository.Repositories
	validate *validator.Validate
}

func NewDirectoryService(repos *repository.Repositories) *DirectoryService {
	return &DirectoryService{
		repos:    repos,
		validate: validator.New(),
	}
}

// PersonInput holds the editable fields of a person.
type PersonInput struct {
	FirstName         string                   `validate:"required,max=100"`
	LastName          string                   `validate:"max=100"`
	Email             string                   `validate:"omitempty,email,max=255"`
	Phone             string                   `validate:"omitempty,max=32"`
	Role              models.PersonRole        `validate:"omitempty,oneof=adult child"`
	ContactPreference models.ContactPreference `validate:"omitempty,oneof=email sms both"`
	SMSOptIn          bool
}

func (s *DirectoryService) validatePerson(input *PersonInput) error {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPersonInput, err)
	}
	return nil
}

// ValidEmail reports whether raw is a syntactically valid address.
func (s *DirectoryService) ValidEmail(raw string) bool {
	return s.validate.Var(strings.TrimSpace(raw), "required,email") == nil
}

func (s *DirectoryService) CreatePerson(input PersonInput) (*models.Person, error) {
	if err := s.validatePerson(&input); err != nil {
		return nil, err
	}

	person := &models.Person{
		FirstName:         input.FirstName,
		LastName:          models.StringPtr(input.LastName),
		Email:             models.StringPtr(input.Email),
		Phone:             models.StringPtr(input.Phone),
		Role:              input.Role,
		ContactPreference: input.ContactPreference,
		SMSOptIn:          input.SMSOptIn,
	}
	if err := s.repos.Persons.Create(person); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create person: %w", err)
	}
	return person, nil
}

func (s *DirectoryService) UpdatePerson(id uint64, input PersonInput) (*models.Person, error) {
	if err := s.validatePerson(&input); err != nil {
		return nil, err
	}
	person, err := s.GetPerson(id)
	if err != nil {
		return nil, err
	}

	person.FirstName = input.FirstName
	person.LastName = models.StringPtr(input.LastName)
	person.Email = models.StringPtr(input.Email)
	person.Phone = models.StringPtr(input.Phone)
	if input.Role != "" {
		person.Role = input.Role
	}
	if input.ContactPreference != "" {
		person.ContactPreference = input.ContactPreference
	}
	person.SMSOptIn = input.SMSOptIn

	if err := s.repos.Persons.Update(person); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update person: %w", err)
	}
	return person, nil
}

func (s *DirectoryService) GetPerson(id uint64) (*models.Person, error) {
	person, err := s.repos.Persons.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to find person: %w", err)
	}
	return person, nil
}

func (s *DirectoryService) ListPersons(search string, params utils.PaginationParams) ([]models.Person, int64, error) {
	persons, total, err := s.repos.Persons.List(search, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list persons: %w", err)
	}
	return persons, total, nil
}

// FillContactInfo stores an email or phone given on an RSVP form only where
// the person has none yet. An email already used by someone else is ignored.
func (s *DirectoryService) FillContactInfo(personID uint64, email, phoneNumber string) (*models.Person, error) {
	person, err := s.GetPerson(personID)
	if err != nil {
		return nil, err
	}

	changed := false
	if !person.HasEmail() && s.ValidEmail(email) {
		person.Email = models.StringPtr(email)
		changed = true
	}
	if person.Phone == nil && strings.TrimSpace(phoneNumber) != "" {
		person.Phone = models.StringPtr(phoneNumber)
		changed = true
	}
	if !changed {
		return person, nil
	}

	if err := s.repos.Persons.Update(person); err != nil {
		if repository.IsDuplicate(err) {
			return s.GetPerson(personID)
		}
		return nil, fmt.Errorf("failed to update contact info: %w", err)
	}
	return person, nil
}

// HouseholdInput holds the editable fields of a household.
type HouseholdInput struct {
	Name    string
	Address string
	Notes   string
}

// CreateHousehold creates the household and opens a membership for each
// member; the first becomes the primary contact.
func (s *DirectoryService) CreateHousehold(input HouseholdInput, memberIDs []uint64) (*models.Household, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidHouseholdName
	}

	household := &models.Household{
		Name:    input.Name,
		Address: models.StringPtr(input.Address),
		Notes:   models.StringPtr(input.Notes),
	}

	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.Households.Create(household); err != nil {
			return fmt.Errorf("failed to create household: %w", err)
		}
		members, err := tx.Persons.FindByIDs(memberIDs)
		if err != nil {
			return fmt.Errorf("failed to find members: %w", err)
		}
		if len(members) != len(uniqueIDs(memberIDs)) {
			return ErrPersonNotFound
		}

		now := time.Now()
		for i, id := range uniqueIDs(memberIDs) {
			role := models.HouseholdRoleMember
			if i == 0 {
				role = models.HouseholdRolePrimary
			}
			if err := tx.Households.AddMembership(&models.HouseholdMembership{
				HouseholdID: household.ID,
				PersonID:    id,
				Role:        role,
				JoinedAt:    now,
			}); err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return household, nil
}

func (s *DirectoryService) UpdateHousehold(id uint64, input HouseholdInput) (*models.Household, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidHouseholdName
	}
	household, err := s.GetHousehold(id)
	if err != nil {
		return nil, err
	}

	household.Name = input.Name
	household.Address = models.StringPtr(input.Address)
	household.Notes = models.StringPtr(input.Notes)
	if err := s.repos.Households.Update(household); err != nil {
		return nil, fmt.Errorf("failed to update household: %w", err)
	}
	return household, nil
}

func (s *DirectoryService) DeleteHousehold(id uint64) error {
	if _, err := s.GetHousehold(id); err != nil {
		return err
	}
	if err := s.repos.Households.Delete(id); err != nil {
		return fmt.Errorf("failed to delete household: %w", err)
	}
	return nil
}

func (s *DirectoryService) GetHousehold(id uint64) (*models.Household, error) {
	household, err := s.repos.Households.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrHouseholdNotFound
		}
		return nil, fmt.Errorf("failed to find household: %w", err)
	}
	return household, nil
}

func (s *DirectoryService) ListHouseholds(params utils.PaginationParams) ([]models.Household, int64, error) {
	households, total, err := s.repos.Households.List(params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list households: %w", err)
	}
	return households, total, nil
}

func (s *DirectoryService) ActiveMembers(householdID uint64) ([]models.Person, error) {
	members, err := s.repos.Households.ActiveMembers(householdID)
	if err != nil {
		return nil, fmt.Errorf("failed to list household members: %w", err)
	}
	return members, nil
}

func (s *DirectoryService) AddMember(householdID, personID uint64, role models.HouseholdRole) (*models.HouseholdMembership, error) {
	if role == "" {
		role = models.HouseholdRoleMember
	}
	if _, err := s.GetHousehold(householdID); err != nil {
		return nil, err
	}
	if _, err := s.GetPerson(personID); err != nil {
		return nil, err
	}

	if _, err := s.repos.Households.FindActiveMembership(householdID, personID); err == nil {
		return nil, ErrAlreadyMember
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	membership := &models.HouseholdMembership{
		HouseholdID: householdID,
		PersonID:    personID,
		Role:        role,
		JoinedAt:    time.Now(),
	}
	if err := s.repos.Households.AddMembership(membership); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return membership, nil
}

// LeaveHousehold closes the person's open membership.
func (s *DirectoryService) LeaveHousehold(householdID, personID uint64) error {
	membership, err := s.repos.Households.FindActiveMembership(householdID, personID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotMember
		}
		return fmt.Errorf("failed to find membership: %w", err)
	}
	if err := s.repos.Households.CloseMembership(membership, time.Now()); err != nil {
		return fmt.Errorf("failed to close membership: %w", err)
	}
	return nil
}

// MovePerson closes the membership in one household and opens a new one in
// another. The old row is kept as history.
func (s *DirectoryService) MovePerson(personID, fromHouseholdID, toHouseholdID uint64) (*models.HouseholdMembership, error) {
	if fromHouseholdID == toHouseholdID {
		return nil, ErrSameHousehold
	}
	if _, err := s.GetHousehold(toHouseholdID); err != nil {
		return nil, err
	}

	var opened *models.HouseholdMembership
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		current, err := tx.Households.FindActiveMembership(fromHouseholdID, personID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrNotMember
			}
			return fmt.Errorf("failed to find membership: %w", err)
		}
		if _, err := tx.Households.FindActiveMembership(toHouseholdID, personID); err == nil {
			return ErrAlreadyMember
		} else if !repository.IsNotFound(err) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		now := time.Now()
		if err := tx.Households.CloseMembership(current, now); err != nil {
			return fmt.Errorf("failed to close membership: %w", err)
		}
		opened = &models.HouseholdMembership{
			HouseholdID: toHouseholdID,
			PersonID:    personID,
			Role:        models.HouseholdRoleMember,
			JoinedAt:    now,
		}
		if err := tx.Households.AddMembership(opened); err != nil {
			return fmt.Errorf("failed to open membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return opened, nil
}

// PrimaryHousehold returns the household where the person is primary
// contact, else their earliest active household, else nil.
func (s *DirectoryService) PrimaryHousehold(personID uint64) (*models.Household, error) {
	memberships, err := s.repos.Households.ActiveMembershipsForPerson(personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	if len(memberships) == 0 {
		return nil, nil
	}
	household := memberships[0].Household
	return &household, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
