package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/notify"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrInvalidAuthToken     = errors.New("invalid or unknown token")
	ErrAuthTokenExpired     = errors.New("token has expired or was already used")
	ErrTooManyRequests      = errors.New("too many requests, try again later")
)

// AuthService handles organizer accounts: password login, magic links and
// password resets.
type AuthService struct {
	repos         *repository.Repositories
	notifications *NotificationService
	limiter       RateLimiter
	settings      Settings
	logger        zerolog.Logger
	now           func() time.Time
}

// NewAuthService creates a new AuthService. A nil limiter counts tokens in
// the database.
func NewAuthService(repos *repository.Repositories, notifications *NotificationService, limiter RateLimiter, settings Settings, logger zerolog.Logger) *AuthService {
	if limiter == nil {
		limiter = NewDBRateLimiter(repos.AuthTokens, settings.AuthTokenRateLimit)
	}
	return &AuthService{
		repos:         repos,
		notifications: notifications,
		limiter:       limiter,
		settings:      settings,
		logger:        logger,
		now:           time.Now,
	}
}

// SignupInput represents the required information to create an organizer.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Signup creates an organizer account.
func (s *AuthService) Signup(input SignupInput) (*models.Person, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if strings.TrimSpace(input.FirstName) == "" || email == "" {
		return nil, ErrInvalidPersonInput
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.repos.Persons.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	person := &models.Person{
		FirstName:    input.FirstName,
		LastName:     models.StringPtr(input.LastName),
		Email:        &email,
		PasswordHash: models.StringPtr(string(hashedPassword)),
	}
	if err := s.repos.Persons.Create(person); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create person: %w", err)
	}
	return person, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated person. Guests
// without a password can never log in this way.
func (s *AuthService) Login(input LoginInput) (*models.Person, error) {
	person, err := s.repos.Persons.FindByEmail(input.Email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find person: %w", err)
	}
	if person.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*person.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return person, nil
}

// GetPerson retrieves a person by ID.
func (s *AuthService) GetPerson(id uint64) (*models.Person, error) {
	person, err := s.repos.Persons.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to find person: %w", err)
	}
	return person, nil
}

// RequestMagicLink issues a sign-in link. An unknown email returns (nil, nil)
// so callers cannot probe which addresses exist.
func (s *AuthService) RequestMagicLink(ctx context.Context, email string) (*models.AuthToken, error) {
	return s.issue(ctx, email, models.AuthTokenMagicLink)
}

// RequestPasswordReset issues a reset link, with the same unknown-email
// behavior as RequestMagicLink.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*models.AuthToken, error) {
	return s.issue(ctx, email, models.AuthTokenPasswordReset)
}

func (s *AuthService) ttl(tokenType models.AuthTokenType) time.Duration {
	if tokenType == models.AuthTokenPasswordReset {
		return s.settings.PasswordResetTTL
	}
	return s.settings.MagicLinkTTL
}

func authLinkPath(tokenType models.AuthTokenType, token string) string {
	if tokenType == models.AuthTokenPasswordReset {
		return "/auth/reset/" + token
	}
	return "/auth/magic/" + token
}

func notificationTypeFor(tokenType models.AuthTokenType) models.NotificationType {
	if tokenType == models.AuthTokenPasswordReset {
		return models.NotificationPasswordReset
	}
	return models.NotificationMagicLink
}

// issue invalidates earlier unused tokens of the type, stores a new one and
// emails it. Delivery failure is logged, not returned.
func (s *AuthService) issue(ctx context.Context, email string, tokenType models.AuthTokenType) (*models.AuthToken, error) {
	person, err := s.repos.Persons.FindByEmail(email)
	if err != nil {
		if repository.IsNotFound(err) {
			s.logger.Info().Str("type", string(tokenType)).Msg("auth token requested for unknown email")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find person: %w", err)
	}

	allowed, err := s.limiter.Allow(ctx, person.ID, tokenType)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrTooManyRequests
	}

	raw, err := utils.GenerateHexToken(constants.AuthTokenBytes)
	if err != nil {
		return nil, err
	}
	now := s.now()
	token := &models.AuthToken{
		PersonID:  person.ID,
		Type:      tokenType,
		Token:     raw,
		ExpiresAt: now.Add(s.ttl(tokenType)),
	}
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		if err := tx.AuthTokens.InvalidateUnused(person.ID, tokenType, now); err != nil {
			return err
		}
		return tx.AuthTokens.Create(token)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store auth token: %w", err)
	}

	if s.notifications != nil {
		minutes := int(s.ttl(tokenType) / time.Minute)
		msg := authTokenMessage(s.settings, tokenType, person, s.settings.url(authLinkPath(tokenType, raw)), minutes)
		corr := notify.Correlation{PersonID: &person.ID, Type: notificationTypeFor(tokenType)}
		if !s.notifications.DeliverToPerson(ctx, models.ChannelEmail, person, msg, corr) {
			s.logger.Warn().Uint64("person_id", person.ID).Str("type", string(tokenType)).Msg("auth token email not delivered")
		}
	}
	return token, nil
}

// consume marks a usable token of the type as used and returns it with its
// person loaded.
func (s *AuthService) consume(tx *repository.Repositories, raw string, tokenType models.AuthTokenType) (*models.AuthToken, error) {
	token, err := tx.AuthTokens.FindByToken(strings.TrimSpace(raw))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidAuthToken
		}
		return nil, fmt.Errorf("failed to find auth token: %w", err)
	}
	if token.Type != tokenType {
		return nil, ErrInvalidAuthToken
	}
	now := s.now()
	if !token.IsUsable(now) {
		return nil, ErrAuthTokenExpired
	}
	token.UsedAt = &now
	if err := tx.AuthTokens.Update(token); err != nil {
		return nil, fmt.Errorf("failed to mark auth token used: %w", err)
	}
	return token, nil
}

// VerifyMagicLink consumes a magic link token and returns its person.
func (s *AuthService) VerifyMagicLink(raw string) (*models.Person, error) {
	var person models.Person
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		token, err := s.consume(tx, raw, models.AuthTokenMagicLink)
		if err != nil {
			return err
		}
		person = token.Person
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(raw, newPassword string) (*models.Person, error) {
	if len(newPassword) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	var person models.Person
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		token, err := s.consume(tx, raw, models.AuthTokenPasswordReset)
		if err != nil {
			return err
		}
		person = token.Person
		person.PasswordHash = models.StringPtr(string(hashedPassword))
		if err := tx.Persons.Update(&person); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		// Reset also burns outstanding magic links.
		return tx.AuthTokens.InvalidateUnused(person.ID, models.AuthTokenMagicLink, s.now())
	})
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// CleanupExpired deletes tokens past their expiry.
func (s *AuthService) CleanupExpired() (int64, error) {
	deleted, err := s.repos.AuthTokens.DeleteExpired(s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired auth tokens: %w", err)
	}
	return deleted, nil
}
