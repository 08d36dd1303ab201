package services

import (
	"errors"
	"fmt"

	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/repository"
)

var (
	ErrInvalidTagName   = errors.New("tag name cannot be empty")
	ErrTagNotAssigned   = errors.New("tag is not assigned to this person")
	ErrTagAlreadyOnUser = errors.New("person already has this tag")
)

const maxTagLength = 64

// TagService keeps person tags and the shared tag vocabulary in step.
type TagService struct {
	repos *repository.Repositories
}

func NewTagService(repos *repository.Repositories) *TagService {
	return &TagService{repos: repos}
}

// getOrCreateTag works on whichever repository it is handed, including a
// transaction-bound one.
func getOrCreateTag(tags repository.TagRepository, name string) (*models.Tag, error) {
	normalized := models.NormalizeTagName(name)
	if normalized == "" || len(normalized) > maxTagLength {
		return nil, ErrInvalidTagName
	}

	tag, err := tags.FindByName(normalized)
	if err == nil {
		return tag, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to find tag: %w", err)
	}

	tag = &models.Tag{Name: normalized}
	if err := tags.Create(tag); err != nil {
		if repository.IsDuplicate(err) {
			return tags.FindByName(normalized)
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

func (s *TagService) GetOrCreate(name string) (*models.Tag, error) {
	return getOrCreateTag(s.repos.Tags, name)
}

// AddTag links the tag to the person and bumps its usage counter in one
// transaction.
func (s *TagService) AddTag(personID uint64, name string) (*models.Tag, error) {
	if _, err := s.repos.Persons.FindByID(personID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to find person: %w", err)
	}

	var tag *models.Tag
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		var err error
		tag, err = getOrCreateTag(tx.Tags, name)
		if err != nil {
			return err
		}
		if err := tx.Tags.AddPersonTag(&models.PersonTag{PersonID: personID, TagID: tag.ID}); err != nil {
			if repository.IsDuplicate(err) {
				return ErrTagAlreadyOnUser
			}
			return fmt.Errorf("failed to tag person: %w", err)
		}
		return tx.Tags.AdjustUsage(tag.ID, 1)
	})
	if err != nil {
		return nil, err
	}
	tag.UsageCount++
	return tag, nil
}

// RemoveTag unlinks the tag and decrements its counter in one transaction.
func (s *TagService) RemoveTag(personID uint64, name string) error {
	return s.repos.Transaction(func(tx *repository.Repositories) error {
		tag, err := tx.Tags.FindByName(name)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrTagNotAssigned
			}
			return fmt.Errorf("failed to find tag: %w", err)
		}
		personTag, err := tx.Tags.FindPersonTag(personID, tag.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return ErrTagNotAssigned
			}
			return fmt.Errorf("failed to find person tag: %w", err)
		}
		if err := tx.Tags.DeletePersonTag(personTag.ID); err != nil {
			return fmt.Errorf("failed to untag person: %w", err)
		}
		return tx.Tags.AdjustUsage(tag.ID, -1)
	})
}

func (s *TagService) TagsForPerson(personID uint64) ([]models.Tag, error) {
	return s.repos.Tags.ListForPerson(personID)
}

func (s *TagService) Popular(limit int) ([]models.Tag, error) {
	return s.repos.Tags.Popular(limit)
}

func (s *TagService) Search(prefix string, limit int) ([]models.Tag, error) {
	if models.NormalizeTagName(prefix) == "" {
		return []models.Tag{}, nil
	}
	return s.repos.Tags.Search(prefix, limit)
}
