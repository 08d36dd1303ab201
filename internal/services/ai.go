package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
	model  string
}

// GeneratedItem is one potluck suggestion returned by the model.
type GeneratedItem struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Servings    *int     `json:"servings"`
	DietaryTags []string `json:"dietary_tags"`
}

// SuggestionRequest describes the event the suggestions are for.
type SuggestionRequest struct {
	EventTitle    string
	GuestCount    int
	ExistingItems []string
	Guidance      string
}

// NewAIService returns nil when no API key is configured.
func NewAIService(apiKey, model string) *AIService {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// SuggestPotluckItems asks the model for a balanced list of dishes that are
// not already on the board.
func (s *AIService) SuggestPotluckItems(ctx context.Context, req SuggestionRequest) ([]GeneratedItem, error) {
	if s == nil || s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	existing := "none"
	if len(req.ExistingItems) > 0 {
		existing = strings.Join(req.ExistingItems, ", ")
	}
	prompt := fmt.Sprintf(`You are helping plan a potluck.

Event: %s
Expected guests: %d
Already on the list: %s
Host notes: %s

Suggest dishes and supplies that round out the list. Return a JSON array:
[
  {
    "name": "short item name",
    "category": "one of: main, side, salad, dessert, drink, appetizer, supplies",
    "description": "one sentence",
    "servings": number of servings or null,
    "dietary_tags": ["vegetarian", "gluten-free", ...]
  }
]

Rules:
- Do not repeat anything already on the list
- Return [] when nothing is missing
- Return only the JSON, no prose`, req.EventTitle, req.GuestCount, existing, req.Guidance)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedItems(resp.Choices[0].Message.Content)
}

// parseGeneratedItems tolerates a markdown code fence around the JSON.
func parseGeneratedItems(content string) ([]GeneratedItem, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var items []GeneratedItem
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &items); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	return items, nil
}
