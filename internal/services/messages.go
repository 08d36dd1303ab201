package services

import (
	"fmt"
	"strings"

	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/notify"
	"github.com/yukikurage/party-planner-api/internal/phone"
)

const eventDateLayout = "Monday, January 2 at 3:04 PM"

func eventWhenWhere(event *models.Event) string {
	var b strings.Builder
	b.WriteString(event.EventDate.Format(eventDateLayout))
	if event.VenueName != nil {
		b.WriteString(" at ")
		b.WriteString(*event.VenueName)
	}
	if event.VenueAddress != nil {
		b.WriteString(" (")
		b.WriteString(*event.VenueAddress)
		b.WriteString(")")
	}
	return b.String()
}

func invitationMessage(s Settings, channel models.Channel, event *models.Event, household *models.Household, person *models.Person, link string) notify.Message {
	if channel == models.ChannelSMS {
		return notify.Message{
			Body: fmt.Sprintf("%s, you're invited to %s on %s. RSVP: %s",
				person.FirstName, event.Title, event.EventDate.Format("Jan 2"), link),
		}
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", person.FirstName)
	fmt.Fprintf(&body, "The %s household is invited to %s.\n\n", household.Name, event.Title)
	fmt.Fprintf(&body, "When: %s\n", eventWhenWhere(event))
	if event.RSVPDeadline != nil {
		fmt.Fprintf(&body, "Please reply by %s.\n", event.RSVPDeadline.Format("January 2"))
	}
	fmt.Fprintf(&body, "\nRSVP for everyone in your household here:\n%s\n", link)
	fmt.Fprintf(&body, "\n%s\n", s.AppName)

	return notify.Message{
		Subject: fmt.Sprintf("You're invited: %s", event.Title),
		Body:    body.String(),
	}
}

func rsvpConfirmationMessage(s Settings, event *models.Event, person *models.Person, rsvp *models.RSVP) notify.Message {
	var answer string
	switch rsvp.Status {
	case models.RSVPAttending:
		answer = "you're attending"
	case models.RSVPNotAttending:
		answer = "you can't make it"
	case models.RSVPMaybe:
		answer = "you might attend"
	default:
		answer = "you haven't decided yet"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", person.FirstName)
	fmt.Fprintf(&body, "We've recorded that %s for %s.\n", answer, event.Title)
	fmt.Fprintf(&body, "When: %s\n", eventWhenWhere(event))
	if rsvp.Notes != nil {
		fmt.Fprintf(&body, "Your note: %s\n", *rsvp.Notes)
	}
	fmt.Fprintf(&body, "\n%s\n", s.AppName)

	return notify.Message{
		Subject: fmt.Sprintf("RSVP updated: %s", event.Title),
		Body:    body.String(),
	}
}

func referralMessage(s Settings, event *models.Event, friend, referrer *models.Person, link string) notify.Message {
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\n\n", friend.FirstName)
	fmt.Fprintf(&body, "%s would like you to join them at %s.\n\n", referrer.FullName(), event.Title)
	fmt.Fprintf(&body, "When: %s\n", eventWhenWhere(event))
	fmt.Fprintf(&body, "\nLet us know if you can come:\n%s\n", link)
	if contact := contactLine(referrer); contact != "" {
		fmt.Fprintf(&body, "\nQuestions? Reach %s at %s.\n", referrer.FirstName, contact)
	}
	fmt.Fprintf(&body, "\n%s\n", s.AppName)

	return notify.Message{
		Subject: fmt.Sprintf("%s invited you to %s", referrer.FirstName, event.Title),
		Body:    body.String(),
	}
}

func authTokenMessage(s Settings, tokenType models.AuthTokenType, person *models.Person, link string, minutes int) notify.Message {
	if tokenType == models.AuthTokenPasswordReset {
		return notify.Message{
			Subject: fmt.Sprintf("Reset your %s password", s.AppName),
			Body: fmt.Sprintf("Hi %s,\n\nUse this link within %d minutes to choose a new password:\n%s\n\nIf you didn't ask for this, ignore this email.\n",
				person.FirstName, minutes, link),
		}
	}
	return notify.Message{
		Subject: fmt.Sprintf("Your %s sign-in link", s.AppName),
		Body: fmt.Sprintf("Hi %s,\n\nSign in with this link within %d minutes:\n%s\n",
			person.FirstName, minutes, link),
	}
}

// contactLine renders a person's reachable addresses for admin views.
func contactLine(person *models.Person) string {
	var parts []string
	if person.Email != nil {
		parts = append(parts, *person.Email)
	}
	if person.Phone != nil {
		parts = append(parts, phone.Display(*person.Phone))
	}
	return strings.Join(parts, ", ")
}
