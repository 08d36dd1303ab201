package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/utils"
)

func TestWallPost(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	guest := env.householdActor(t, p, p.alice.ID)

	_, err := env.wall.Post(guest, 0, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = env.wall.Post(guest, 0, strings.Repeat("é", 2001))
	assert.ErrorIs(t, err, ErrMessageTooLong)
	_, err = env.wall.Post(guest, p.organizer.ID, "hi")
	assert.ErrorIs(t, err, ErrCannotActForOther)

	post, err := env.wall.Post(guest, 0, strings.Repeat("é", 2000))
	require.NoError(t, err)
	assert.False(t, post.IsOrganizerPost)
	assert.Equal(t, "Alice", post.Person.FirstName)

	// A household actor may post as another member.
	post, err = env.wall.Post(guest, p.bob.ID, " Can't wait! ")
	require.NoError(t, err)
	assert.Equal(t, p.bob.ID, post.PersonID)
	assert.Equal(t, "Can't wait!", post.Message)

	host := env.sessionActor(t, p.event.ID, p.organizer.ID)
	post, err = env.wall.Post(host, 0, "Parking is around the back")
	require.NoError(t, err)
	assert.True(t, post.IsOrganizerPost)

	posts, total, err := env.wall.List(p.event.ID, utils.PaginationParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, posts, 2)
	assert.Equal(t, "Parking is around the back", posts[0].Message)
}

func TestWallPost_ArchivedEventIsReadOnly(t *testing.T) {
	env := newTestEnv(t)
	p := env.newParty(t)
	require.NoError(t, env.db.Model(p.event).Update("status", models.EventStatusArchived).Error)

	guest := env.householdActor(t, p, p.alice.ID)
	_, err := env.wall.Post(guest, 0, "hello")
	assert.ErrorIs(t, err, ErrEventReadOnly)

	_, err = env.wall.Post(nil, 0, "hello")
	assert.ErrorIs(t, err, ErrActorRequired)
}
