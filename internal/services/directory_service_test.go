package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/models"
	"github.com/yukikurage/party-planner-api/internal/testutil"
)

func TestCreatePerson_ValidatesAndNormalizes(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.directory.CreatePerson(PersonInput{FirstName: "  "})
	assert.ErrorIs(t, err, ErrInvalidPersonInput)
	_, err = env.directory.CreatePerson(PersonInput{FirstName: "Ann", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrInvalidPersonInput)

	person, err := env.directory.CreatePerson(PersonInput{FirstName: "Ann", Email: " Ann@Example.COM "})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", *person.Email)

	_, err = env.directory.CreatePerson(PersonInput{FirstName: "Other Ann", Email: "ann@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateHousehold_FirstMemberIsPrimary(t *testing.T) {
	env := newTestEnv(t)
	ann := testutil.CreatePerson(t, env.db, "Ann")
	ben := testutil.CreatePerson(t, env.db, "Ben")

	_, err := env.directory.CreateHousehold(HouseholdInput{Name: " "}, nil)
	assert.ErrorIs(t, err, ErrInvalidHouseholdName)
	_, err = env.directory.CreateHousehold(HouseholdInput{Name: "Ghosts"}, []uint64{ann.ID, 9999})
	assert.ErrorIs(t, err, ErrPersonNotFound)
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, &models.Household{}, ""))

	household, err := env.directory.CreateHousehold(HouseholdInput{Name: "Annbens"}, []uint64{ann.ID, ben.ID, ann.ID})
	require.NoError(t, err)

	members, err := env.directory.ActiveMembers(household.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	primary, err := env.directory.PrimaryHousehold(ann.ID)
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, household.ID, primary.ID)
	assert.Equal(t, int64(1), testutil.CountRows(t, env.db, &models.HouseholdMembership{},
		"household_id = ? AND role = ?", household.ID, models.HouseholdRolePrimary))
}

func TestAddMemberAndLeave(t *testing.T) {
	env := newTestEnv(t)
	ann := testutil.CreatePerson(t, env.db, "Ann")
	household := testutil.CreateHousehold(t, env.db, "Anns", ann)
	cleo := testutil.CreatePerson(t, env.db, "Cleo", testutil.AsChild())

	_, err := env.directory.AddMember(household.ID, cleo.ID, "")
	require.NoError(t, err)
	_, err = env.directory.AddMember(household.ID, cleo.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyMember)
	_, err = env.directory.AddMember(9999, cleo.ID, "")
	assert.ErrorIs(t, err, ErrHouseholdNotFound)

	require.NoError(t, env.directory.LeaveHousehold(household.ID, cleo.ID))
	assert.ErrorIs(t, env.directory.LeaveHousehold(household.ID, cleo.ID), ErrNotMember)

	primary, err := env.directory.PrimaryHousehold(cleo.ID)
	require.NoError(t, err)
	assert.Nil(t, primary)

	// Rejoining opens a fresh membership next to the closed one.
	_, err = env.directory.AddMember(household.ID, cleo.ID, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), testutil.CountRows(t, env.db, &models.HouseholdMembership{}, "person_id = ?", cleo.ID))
}

func TestMovePerson_KeepsHistory(t *testing.T) {
	env := newTestEnv(t)
	ann := testutil.CreatePerson(t, env.db, "Ann")
	from := testutil.CreateHousehold(t, env.db, "Old Place", ann)
	to := testutil.CreateHousehold(t, env.db, "New Place")

	_, err := env.directory.MovePerson(ann.ID, from.ID, from.ID)
	assert.ErrorIs(t, err, ErrSameHousehold)
	_, err = env.directory.MovePerson(ann.ID, to.ID, from.ID)
	assert.ErrorIs(t, err, ErrNotMember)
	_, err = env.directory.MovePerson(ann.ID, from.ID, 9999)
	assert.ErrorIs(t, err, ErrHouseholdNotFound)

	opened, err := env.directory.MovePerson(ann.ID, from.ID, to.ID)
	require.NoError(t, err)
	assert.Equal(t, models.HouseholdRoleMember, opened.Role)

	assert.Equal(t, int64(1), testutil.CountRows(t, env.db, &models.HouseholdMembership{},
		"person_id = ? AND household_id = ? AND left_at IS NOT NULL", ann.ID, from.ID))
	primary, err := env.directory.PrimaryHousehold(ann.ID)
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, to.ID, primary.ID)

	again := testutil.CreateHousehold(t, env.db, "Third Place", ann)
	_, err = env.directory.MovePerson(ann.ID, again.ID, to.ID)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestDeleteHousehold_ClosesMemberships(t *testing.T) {
	env := newTestEnv(t)
	ann := testutil.CreatePerson(t, env.db, "Ann")
	household := testutil.CreateHousehold(t, env.db, "Anns", ann)

	require.NoError(t, env.directory.DeleteHousehold(household.ID))
	assert.ErrorIs(t, env.directory.DeleteHousehold(household.ID), ErrHouseholdNotFound)
	assert.Equal(t, int64(0), testutil.CountRows(t, env.db, &models.HouseholdMembership{}, "left_at IS NULL"))

	_, err := env.directory.GetPerson(ann.ID)
	assert.NoError(t, err)
}

func TestTags_UsageCounters(t *testing.T) {
	env := newTestEnv(t)
	ann := testutil.CreatePerson(t, env.db, "Ann")
	ben := testutil.CreatePerson(t, env.db, "Ben")

	_, err := env.tags.AddTag(ann.ID, "   ")
	assert.ErrorIs(t, err, ErrInvalidTagName)
	_, err = env.tags.AddTag(9999, "vegan")
	assert.ErrorIs(t, err, ErrPersonNotFound)

	tag, err := env.tags.AddTag(ann.ID, " Vegan ")
	require.NoError(t, err)
	assert.Equal(t, "vegan", tag.Name)
	assert.Equal(t, 1, tag.UsageCount)

	_, err = env.tags.AddTag(ann.ID, "VEGAN")
	assert.ErrorIs(t, err, ErrTagAlreadyOnUser)

	tag, err = env.tags.AddTag(ben.ID, "vegan")
	require.NoError(t, err)
	assert.Equal(t, 2, tag.UsageCount)
	_, err = env.tags.AddTag(ben.ID, "vegetarian")
	require.NoError(t, err)

	popular, err := env.tags.Popular(10)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, "vegan", popular[0].Name)

	found, err := env.tags.Search("VEG", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)
	found, err = env.tags.Search("  ", 10)
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, env.tags.RemoveTag(ben.ID, "Vegetarian"))
	assert.ErrorIs(t, env.tags.RemoveTag(ben.ID, "vegetarian"), ErrTagNotAssigned)
	assert.ErrorIs(t, env.tags.RemoveTag(ben.ID, "gluten-free"), ErrTagNotAssigned)

	popular, err = env.tags.Popular(10)
	require.NoError(t, err)
	require.Len(t, popular, 1)
	assert.Equal(t, 2, popular[0].UsageCount)

	tags, err := env.tags.TagsForPerson(ben.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "vegan", tags[0].Name)
}
