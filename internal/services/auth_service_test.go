package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/testutil"
)

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)

	person, err := env.auth.Signup(SignupInput{FirstName: "Olivia", Email: " Olivia@Example.com ", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, "olivia@example.com", *person.Email)
	assert.True(t, person.IsOrganizer())

	_, err = env.auth.Signup(SignupInput{FirstName: "Again", Email: "olivia@example.com", Password: "supersecret"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = env.auth.Signup(SignupInput{FirstName: "Short", Email: "short@example.com", Password: "abc"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	loggedIn, err := env.auth.Login(LoginInput{Email: "OLIVIA@example.com", Password: "supersecret"})
	require.NoError(t, err)
	assert.Equal(t, person.ID, loggedIn.ID)

	_, err = env.auth.Login(LoginInput{Email: "olivia@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_GuestWithoutPasswordRejected(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreatePerson(t, env.db, "Guest", testutil.WithEmail("guest@example.com"))

	_, err := env.auth.Login(LoginInput{Email: "guest@example.com", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMagicLink_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	guest := testutil.CreatePerson(t, env.db, "Guest", testutil.WithEmail("guest@example.com"))

	token, err := env.auth.RequestMagicLink(context.Background(), "guest@example.com")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Len(t, token.Token, 64)

	messages := env.dispatcher.SentTo("guest@example.com")
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0].Message.Body, "/auth/magic/"+token.Token)
	assert.Equal(t, models.NotificationMagicLink, messages[0].Correlation.Type)

	person, err := env.auth.VerifyMagicLink(token.Token)
	require.NoError(t, err)
	assert.Equal(t, guest.ID, person.ID)

	_, err = env.auth.VerifyMagicLink(token.Token)
	assert.ErrorIs(t, err, ErrAuthTokenExpired)

	_, err = env.auth.VerifyMagicLink("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidAuthToken)
}

func TestMagicLink_NewRequestRetiresOlderLinks(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreatePerson(t, env.db, "Guest", testutil.WithEmail("guest@example.com"))
	ctx := context.Background()

	first, err := env.auth.RequestMagicLink(ctx, "guest@example.com")
	require.NoError(t, err)
	second, err := env.auth.RequestMagicLink(ctx, "guest@example.com")
	require.NoError(t, err)

	_, err = env.auth.VerifyMagicLink(first.Token)
	assert.ErrorIs(t, err, ErrAuthTokenExpired)
	_, err = env.auth.VerifyMagicLink(second.Token)
	assert.NoError(t, err)
}

func TestRequestMagicLink_UnknownEmailIsSilent(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.auth.RequestMagicLink(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, token)
	assert.Zero(t, env.dispatcher.Count())
}

func TestRequestMagicLink_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreatePerson(t, env.db, "Guest", testutil.WithEmail("guest@example.com"))
	ctx := context.Background()

	for i := 0; i < DefaultSettings().AuthTokenRateLimit; i++ {
		_, err := env.auth.RequestMagicLink(ctx, "guest@example.com")
		require.NoError(t, err)
	}
	_, err := env.auth.RequestMagicLink(ctx, "guest@example.com")
	assert.ErrorIs(t, err, ErrTooManyRequests)

	// Each token type has its own budget.
	_, err = env.auth.RequestPasswordReset(ctx, "guest@example.com")
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreatePerson(t, env.db, "Olivia", testutil.WithEmail("olivia@example.com"), testutil.WithPassword("old-password"))
	ctx := context.Background()

	magic, err := env.auth.RequestMagicLink(ctx, "olivia@example.com")
	require.NoError(t, err)
	reset, err := env.auth.RequestPasswordReset(ctx, "olivia@example.com")
	require.NoError(t, err)

	_, err = env.auth.ResetPassword(reset.Token, "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	// A magic link token cannot be used as a reset token.
	_, err = env.auth.ResetPassword(magic.Token, "new-password")
	assert.ErrorIs(t, err, ErrInvalidAuthToken)

	_, err = env.auth.ResetPassword(reset.Token, "new-password")
	require.NoError(t, err)

	_, err = env.auth.Login(LoginInput{Email: "olivia@example.com", Password: "new-password"})
	assert.NoError(t, err)
	_, err = env.auth.VerifyMagicLink(magic.Token)
	assert.ErrorIs(t, err, ErrAuthTokenExpired)
}

func TestCleanupExpired(t *testing.T) {
	env := newTestEnv(t)
	guest := testutil.CreatePerson(t, env.db, "Guest", testutil.WithEmail("guest@example.com"))
	require.NoError(t, env.repos.AuthTokens.Create(&models.AuthToken{
		PersonID:  guest.ID,
		Type:      models.AuthTokenMagicLink,
		Token:     strings.Repeat("a", 64),
		ExpiresAt: time.Now().Add(-time.Hour),
	}))
	_, err := env.auth.RequestMagicLink(context.Background(), "guest@example.com")
	require.NoError(t, err)

	deleted, err := env.auth.CleanupExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.EqualValues(t, 1, testutil.CountRows(t, env.db, &models.AuthToken{}, ""))
}

func TestFallbackRateLimiter_UsesSecondaryWhenRedisIsDown(t *testing.T) {
	env := newTestEnv(t)
	guest := testutil.CreatePerson(t, env.db, "Guest", testutil.WithEmail("guest@example.com"))

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	limiter := FallbackRateLimiter{
		Primary:   NewRedisRateLimiter(client, 1),
		Secondary: NewDBRateLimiter(env.repos.AuthTokens, 1),
	}
	allowed, err := limiter.Allow(context.Background(), guest.ID, models.AuthTokenMagicLink)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, env.repos.AuthTokens.Create(&models.AuthToken{
		PersonID:  guest.ID,
		Type:      models.AuthTokenMagicLink,
		Token:     strings.Repeat("b", 64),
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	allowed, err = limiter.Allow(context.Background(), guest.ID, models.AuthTokenMagicLink)
	require.NoError(t, err)
	assert.False(t, allowed)
}
