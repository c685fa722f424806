package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"propchat/internal/model"
	"propchat/internal/utils"
)

// intentPromptTemplate asks the chat model for a fixed-schema JSON
// classification of the query.
const intentPromptTemplate = `Analyze this property search query and extract user intent as JSON.

Query: %s

Extract:
{
  "intent_type": "search|comparison|information",
  "location_interest": ["cities/areas mentioned"],
  "property_type_interest": ["apartment|villa|penthouse|townhouse"],
  "price_range": {"min": null, "max": null},
  "bedrooms": null,
  "key_requirements": ["specific requirements"],
  "buying_signals": ["for_sale|for_rent|both"]
}

Respond ONLY with valid JSON.`

// IntentExtractor classifies queries with the hosted chat model
type IntentExtractor struct {
	ai AIClient
}

// NewIntentExtractor creates a new intent extractor
func NewIntentExtractor(ai AIClient) *IntentExtractor {
	return &IntentExtractor{ai: ai}
}

// Extract asks the chat model to classify the query. Best effort: returns
// nil on any call, parse, or validation failure, and the caller proceeds
// without an intent.
func (e *IntentExtractor) Extract(ctx context.Context, query string) *model.IntentResult {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	if e.ai == nil || !e.ai.IsEnabled() {
		log.Printf("AI client is not enabled, skipping intent classification")
		return nil
	}

	result, err := e.extract(ctx, query)
	if err != nil {
		log.Printf("Intent extraction failed: %v", err)
		return nil
	}
	return result
}

func (e *IntentExtractor) extract(ctx context.Context, query string) (*model.IntentResult, error) {
	req := ChatCompletionRequest{
		Messages: []ChatMessage{
			{Role: "user", Content: fmt.Sprintf(intentPromptTemplate, query)},
		},
		Temperature:    0.3,
		MaxTokens:      500,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	resp, err := e.ai.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	content := resp.Content()
	if content == "" {
		return nil, fmt.Errorf("no response from chat model")
	}

	var result model.IntentResult
	if err := utils.ParseAIJSON(content, &result); err != nil {
		return nil, fmt.Errorf("failed to parse intent response: %w", err)
	}

	if err := validateIntent(&result); err != nil {
		return nil, fmt.Errorf("intent validation failed: %w", err)
	}
	return &result, nil
}

// validateIntent rejects classifications that are structurally valid JSON
// but semantically impossible
func validateIntent(intent *model.IntentResult) error {
	if pr := intent.PriceRange; pr != nil && pr.Min != nil && pr.Max != nil {
		if *pr.Min > *pr.Max {
			return fmt.Errorf("price_range min (%d) greater than max (%d)", *pr.Min, *pr.Max)
		}
	}
	if intent.Bedrooms != nil && (*intent.Bedrooms < 0 || *intent.Bedrooms > 20) {
		return fmt.Errorf("bedrooms out of range: %d", *intent.Bedrooms)
	}
	return nil
}
