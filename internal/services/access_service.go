package services

import (
	"fmt"

	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
)

// AccessService turns each access mechanism into an Actor. It is the only
// place tokens, links and sessions are interpreted.
type AccessService struct {
	repos       *repository.Repositories
	events      *EventService
	invitations *InvitationService
	referrals   *ReferralService
}

func NewAccessService(repos *repository.Repositories, events *EventService, invitations *InvitationService, referrals *ReferralService) *AccessService {
	return &AccessService{
		repos:       repos,
		events:      events,
		invitations: invitations,
		referrals:   referrals,
	}
}

// FromSession builds the actor of a logged-in person for one event. When the
// person belongs to an invited household the actor covers that household.
func (s *AccessService) FromSession(eventID, personID uint64) (*Actor, error) {
	if personID == 0 {
		return nil, ErrActorRequired
	}
	person, err := s.findPerson(personID)
	if err != nil {
		return nil, err
	}
	event, isAdmin, err := s.events.GetVisibleEvent(eventID, personID)
	if err != nil {
		return nil, err
	}

	actor := &Actor{
		Mechanism: MechanismSession,
		Person:    person,
		Event:     event,
		IsAdmin:   isAdmin,
	}

	memberships, err := s.repos.Households.ActiveMembershipsForPerson(personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	for _, m := range memberships {
		invitation, err := s.repos.Invitations.FindByEventAndHousehold(eventID, m.HouseholdID)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("failed to find invitation: %w", err)
		}
		if err := s.attachHousehold(actor, invitation); err != nil {
			return nil, err
		}
		break
	}
	return actor, nil
}

// FromInvitationToken resolves a household token. memberID optionally picks
// the member acting; zero leaves the actor household-scoped.
func (s *AccessService) FromInvitationToken(raw string, memberID uint64) (*Actor, error) {
	invitation, err := s.invitations.VerifyToken(raw)
	if err != nil {
		return nil, err
	}
	return s.fromInvitation(invitation, memberID)
}

// FromInvitationShortToken is FromInvitationToken for the short link form.
func (s *AccessService) FromInvitationShortToken(short string, memberID uint64) (*Actor, error) {
	invitation, err := s.invitations.ResolveShortToken(short)
	if err != nil {
		return nil, err
	}
	return s.fromInvitation(invitation, memberID)
}

func (s *AccessService) fromInvitation(invitation *models.EventInvitation, memberID uint64) (*Actor, error) {
	event, err := s.events.GetEvent(invitation.EventID)
	if err != nil {
		return nil, err
	}
	actor := &Actor{Mechanism: MechanismInvitationToken, Event: event}
	if err := s.attachHousehold(actor, invitation); err != nil {
		return nil, err
	}

	if memberID != 0 {
		if !actor.CanActAs(memberID) {
			return nil, ErrCannotActForOther
		}
		for i := range actor.Members {
			if actor.Members[i].ID == memberID {
				actor.Person = &actor.Members[i]
				break
			}
		}
		if actor.IsAdmin, err = s.events.IsAdmin(event.ID, memberID); err != nil {
			return nil, err
		}
	}
	if !event.VisibleTo(actor.IsAdmin) {
		return nil, ErrEventNotFound
	}
	return actor, nil
}

// FromPersonLink resolves a personal short link. The actor is the linked
// person and still covers the household.
func (s *AccessService) FromPersonLink(short string) (*Actor, error) {
	link, err := s.invitations.ResolvePersonLink(short)
	if err != nil {
		return nil, err
	}
	event, err := s.events.GetEvent(link.Invitation.EventID)
	if err != nil {
		return nil, err
	}
	isAdmin, err := s.events.IsAdmin(event.ID, link.PersonID)
	if err != nil {
		return nil, err
	}
	if !event.VisibleTo(isAdmin) {
		return nil, ErrEventNotFound
	}

	person := link.Person
	actor := &Actor{
		Mechanism: MechanismPersonLink,
		Person:    &person,
		Event:     event,
		IsAdmin:   isAdmin,
	}
	if err := s.attachHousehold(actor, &link.Invitation); err != nil {
		return nil, err
	}
	return actor, nil
}

// FromReferralToken resolves a long referral token. The actor is the referred
// person only; referrals never cover a household.
func (s *AccessService) FromReferralToken(raw string) (*Actor, error) {
	referral, err := s.referrals.ResolveToken(raw)
	if err != nil {
		return nil, err
	}
	return s.fromReferral(referral)
}

func (s *AccessService) FromReferralShortToken(short string) (*Actor, error) {
	referral, err := s.referrals.ResolveShortToken(short)
	if err != nil {
		return nil, err
	}
	return s.fromReferral(referral)
}

func (s *AccessService) fromReferral(referral *models.GuestReferral) (*Actor, error) {
	event, err := s.events.GetEvent(referral.EventID)
	if err != nil {
		return nil, err
	}
	if !event.VisibleTo(false) {
		return nil, ErrEventNotFound
	}
	person := referral.ReferredPerson
	return &Actor{
		Mechanism: MechanismReferralToken,
		Person:    &person,
		Event:     event,
		Referral:  referral,
	}, nil
}

func (s *AccessService) attachHousehold(actor *Actor, invitation *models.EventInvitation) error {
	members, err := s.repos.Households.ActiveMembers(invitation.HouseholdID)
	if err != nil {
		return fmt.Errorf("failed to list household members: %w", err)
	}
	householdID := invitation.HouseholdID
	actor.HouseholdID = &householdID
	actor.Invitation = invitation
	actor.Members = members
	return nil
}

func (s *AccessService) findPerson(id uint64) (*models.Person, error) {
	person, err := s.repos.Persons.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to find person: %w", err)
	}
	return person, nil
}
