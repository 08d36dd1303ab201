package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

var (
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrMessageTooLong = errors.New("message is too long")
)

const maxWallMessageLength = 2000

// MessageWallService handles the per-event message wall.
type MessageWallService struct {
	repos *repository.Repositories
	now   func() time.Time
}

func NewMessageWallService(repos *repository.Repositories) *MessageWallService {
	return &MessageWallService{repos: repos, now: time.Now}
}

// Post adds a message as the acting person. Posts by admins are flagged as
// organizer posts.
func (s *MessageWallService) Post(actor *Actor, personID uint64, message string) (*models.MessageWallPost, error) {
	if actor == nil || actor.Event == nil {
		return nil, ErrActorRequired
	}
	if actor.Event.IsReadOnly() {
		return nil, ErrEventReadOnly
	}
	posterID, err := actor.ActingPersonID(personID)
	if err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(message)) > maxWallMessageLength {
		return nil, ErrMessageTooLong
	}

	post := &models.MessageWallPost{
		EventID:         actor.Event.ID,
		PersonID:        posterID,
		Message:         message,
		IsOrganizerPost: actor.IsAdmin,
		PostedAt:        s.now(),
	}
	if err := s.repos.Wall.Create(post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	if person, err := s.repos.Persons.FindByID(posterID); err == nil {
		post.Person = *person
	}
	return post, nil
}

// List returns posts newest first.
func (s *MessageWallService) List(eventID uint64, params utils.PaginationParams) ([]models.MessageWallPost, int64, error) {
	posts, total, err := s.repos.Wall.ListByEvent(eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}
