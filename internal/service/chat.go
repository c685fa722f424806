package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"propchat/internal/model"
)

const (
	// contextResultLimit caps how many results ground the generated answer
	contextResultLimit = 5
	// historyTurnLimit caps how many prior turns are replayed to the model
	historyTurnLimit = 5
	// displayResultLimit caps how many results are returned in the response body
	displayResultLimit = 3
)

const chatSystemPrompt = `You are a knowledgeable real estate assistant helping users find properties.

Your role:
- Provide helpful, accurate information based on search results
- Be conversational and friendly
- Highlight key features that match user needs
- Always include property URLs when discussing specific properties
- If no suitable properties found, acknowledge this and offer alternatives

Base responses on the actual property data provided.`

const fallbackResponse = "I apologize, but I'm having trouble generating a response right now. Please try again."

// SearchIndex is the vector index surface the orchestrator needs
type SearchIndex interface {
	SearchHybrid(ctx context.Context, embedding []float32, filters *model.QueryFilters, topK int) ([]model.SearchResult, error)
	CountListings(ctx context.Context) (int, error)
}

// IntentStore persists classified intents for offline analysis
type IntentStore interface {
	SaveIntent(ctx context.Context, record *model.IntentRecord) error
}

// ChatService orchestrates a query: intent classification, filter
// extraction and merging, hybrid retrieval, and grounded answer
// composition.
type ChatService struct {
	index   SearchIndex
	ai      AIClient
	intents *IntentExtractor
	store   IntentStore // optional, may be nil
	topK    int
}

// NewChatService creates a new chat service
func NewChatService(index SearchIndex, ai AIClient, intents *IntentExtractor, store IntentStore, topK int) *ChatService {
	return &ChatService{
		index:   index,
		ai:      ai,
		intents: intents,
		store:   store,
		topK:    topK,
	}
}

// Answer processes one chat request end to end
func (s *ChatService) Answer(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = "anonymous"
	}

	log.Printf("Processing query from user %s: %s", userID, req.Query)

	// Classify intent; absent on failure
	intent := s.intents.Extract(ctx, req.Query)

	// Side channel: persist the classification. Non-fatal.
	if intent != nil && s.store != nil {
		record := &model.IntentRecord{
			UserID:    userID,
			Timestamp: time.Now().UTC(),
			Query:     req.Query,
			Intent:    intent,
		}
		if err := s.store.SaveIntent(ctx, record); err != nil {
			log.Printf("Failed to save intent record: %v", err)
		}
	}

	// Aggregate queries skip retrieval entirely
	if IsCountQuery(req.Query) {
		total, err := s.index.CountListings(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count listings: %w", err)
		}

		return &model.ChatResponse{
			Response: fmt.Sprintf("We have a total of %d properties in our Dubai real estate database. "+
				"Would you like to search for specific properties based on your preferences?", total),
			PropertiesFound: total,
			Intent:          intent,
			FiltersApplied:  &model.QueryFilters{},
			Properties:      []model.SearchResult{},
			IsCountQuery:    true,
		}, nil
	}

	// Auto-extracted filters, overridden by anything the caller supplied
	autoFilters := ExtractFilters(req.Query, intent)
	filters := autoFilters.Merge(req.Filters)

	results := s.searchProperties(ctx, req.Query, filters)

	responseText := s.generateResponse(ctx, req.Query, results, req.ConversationHistory)

	display := results
	if len(display) > displayResultLimit {
		display = display[:displayResultLimit]
	}

	return &model.ChatResponse{
		Response:        responseText,
		PropertiesFound: len(results),
		Intent:          intent,
		FiltersApplied:  filters,
		Properties:      display,
	}, nil
}

// searchProperties embeds the query and runs the hybrid search. Fails
// soft: any remote error yields zero results, never an error.
func (s *ChatService) searchProperties(ctx context.Context, query string, filters *model.QueryFilters) []model.SearchResult {
	embedding, err := s.ai.CreateEmbedding(ctx, query)
	if err != nil {
		log.Printf("Embedding error: %v", err)
		return nil
	}

	results, err := s.index.SearchHybrid(ctx, embedding, filters, s.topK)
	if err != nil {
		log.Printf("Search error: %v", err)
		return nil
	}
	return results
}

// generateResponse composes a grounded answer from the top results and
// the recent conversation. Falls back to a fixed apology on failure.
func (s *ChatService) generateResponse(ctx context.Context, query string, results []model.SearchResult, history []model.ChatMessage) string {
	grounding := results
	if len(grounding) > contextResultLimit {
		grounding = grounding[:contextResultLimit]
	}

	var contextParts []string
	for i, result := range grounding {
		contextParts = append(contextParts, formatPropertySummary(i+1, &result.Listing))
	}
	propertyContext := strings.Join(contextParts, "\n\n")

	if len(history) > historyTurnLimit {
		history = history[len(history)-historyTurnLimit:]
	}

	messages := make([]ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, ChatMessage{
		Role: "user",
		Content: fmt.Sprintf("Based on these property search results:\n\n%s\n\nUser query: %s\n\n"+
			"Please provide a helpful response about these properties.", propertyContext, query),
	})

	req := ChatCompletionRequest{
		Messages: append([]ChatMessage{{Role: "system", Content: chatSystemPrompt}}, messages...),
	}

	resp, err := s.ai.ChatCompletion(ctx, req)
	if err != nil {
		log.Printf("Response generation error: %v", err)
		return fallbackResponse
	}

	content := resp.Content()
	if content == "" {
		log.Printf("Response generation returned no choices")
		return fallbackResponse
	}
	return content
}

// formatPropertySummary renders one listing as a structured block for the
// grounding context
func formatPropertySummary(position int, l *model.Listing) string {
	status := strings.TrimSpace(strings.Join([]string{
		ifStr(l.ForSale, "For Sale"),
		ifStr(l.ForRent, "For Rent"),
	}, " "))

	return fmt.Sprintf(`Property %d:
- Name: %s
- Type: %s
- Location: %s, %s
- Bedrooms: %s
- Area: %s sqm
- Price: %s %s
- Status: %s
- URL: %s`,
		position,
		orNA(l.PropertyName),
		orNA(l.PropertyType),
		orNA(l.CommunityName), orNA(l.CityName),
		orNAInt(l.Bedrooms),
		orNAFloat(l.TotalAreaSqm),
		l.AskingPriceCurrency, orNAInt(l.AskingPrice),
		status,
		orNA(l.ListingURL),
	)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNAInt(v *int) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *v)
}

func orNAFloat(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *v)
}

func ifStr(cond bool, s string) string {
	if cond {
		return s
	}
	return ""
}
