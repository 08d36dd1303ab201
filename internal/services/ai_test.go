package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeneratedItems(t *testing.T) {
	content := "```json\n[{\"name\":\"Fruit salad\",\"category\":\"desserts\",\"servings\":8,\"dietary_tags\":[\"vegan\"]}]\n```"

	items, err := parseGeneratedItems(content)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Fruit salad", items[0].Name)
	require.NotNil(t, items[0].Servings)
	assert.Equal(t, 8, *items[0].Servings)
	assert.Equal(t, []string{"vegan"}, items[0].DietaryTags)

	_, err = parseGeneratedItems("sorry, I can't help with that")
	assert.Error(t, err)
}

func TestNewAIService_NilWithoutKey(t *testing.T) {
	assert.Nil(t, NewAIService("", "gpt-4o"))
	assert.NotNil(t, NewAIService("sk-test", "gpt-4o"))
}
