package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"propchat/internal/model"
)

// fakeAI is an AIClient double. Requests with a JSON response format are
// treated as intent classification; the rest as answer generation.
type fakeAI struct {
	enabled       bool
	intentContent string
	intentErr     error
	chatContent   string
	chatErr       error
	embedding     []float32
	embedErr      error

	embedCalls int
	chatCalls  int
}

func (f *fakeAI) ChatCompletion(_ context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	f.chatCalls++
	content := f.chatContent
	err := f.chatErr
	if req.ResponseFormat != nil && req.ResponseFormat.Type == "json_object" {
		content = f.intentContent
		err = f.intentErr
	}
	if err != nil {
		return nil, err
	}
	resp := &ChatCompletionResponse{}
	resp.Choices = append(resp.Choices, struct {
		Index        int         `json:"index"`
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	}{Message: ChatMessage{Role: "assistant", Content: content}})
	return resp, nil
}

func (f *fakeAI) CreateEmbedding(_ context.Context, _ string) ([]float32, error) {
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return f.embedding, nil
}

func (f *fakeAI) IsEnabled() bool { return f.enabled }

type fakeIndex struct {
	results     []model.SearchResult
	searchErr   error
	total       int
	countErr    error
	searchCalls int
	lastFilters *model.QueryFilters
}

func (f *fakeIndex) SearchHybrid(_ context.Context, _ []float32, filters *model.QueryFilters, _ int) ([]model.SearchResult, error) {
	f.searchCalls++
	f.lastFilters = filters
	return f.results, f.searchErr
}

func (f *fakeIndex) CountListings(_ context.Context) (int, error) {
	return f.total, f.countErr
}

type fakeIntentStore struct {
	saved []*model.IntentRecord
	err   error
}

func (f *fakeIntentStore) SaveIntent(_ context.Context, record *model.IntentRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, record)
	return nil
}

func listingResult(id string, score float64) model.SearchResult {
	return model.SearchResult{
		Listing:        model.Listing{ListingID: id, PropertyName: "Listing " + id},
		RelevanceScore: score,
	}
}

func newTestService(ai *fakeAI, index *fakeIndex, store IntentStore) *ChatService {
	return NewChatService(index, ai, NewIntentExtractor(ai), store, 5)
}

func TestChatService_Answer(t *testing.T) {
	ai := &fakeAI{
		enabled:       true,
		intentContent: `{"intent_type": "search", "bedrooms": 2}`,
		chatContent:   "Here are some great options.",
		embedding:     []float32{0.1, 0.2},
	}
	index := &fakeIndex{results: []model.SearchResult{
		listingResult("L1", 0.9),
		listingResult("L2", 0.8),
		listingResult("L3", 0.7),
		listingResult("L4", 0.6),
		listingResult("L5", 0.5),
	}}
	store := &fakeIntentStore{}

	svc := newTestService(ai, index, store)
	resp, err := svc.Answer(context.Background(), &model.ChatRequest{
		UserID: "u1",
		Query:  "2 bedroom apartment for rent in Dubai",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if resp.Response != "Here are some great options." {
		t.Errorf("Response = %q", resp.Response)
	}
	if resp.PropertiesFound != 5 {
		t.Errorf("PropertiesFound = %d, want 5", resp.PropertiesFound)
	}
	if len(resp.Properties) != 3 {
		t.Errorf("Properties length = %d, want 3 (display cap)", len(resp.Properties))
	}
	if resp.IsCountQuery {
		t.Error("Expected IsCountQuery = false")
	}

	// Auto-extracted filters applied
	f := resp.FiltersApplied
	if f.Bedrooms == nil || *f.Bedrooms != 2 {
		t.Errorf("Bedrooms = %v, want 2", f.Bedrooms)
	}
	if f.ForRent == nil || !*f.ForRent {
		t.Error("Expected ForRent = true")
	}
	if f.ForSale == nil || *f.ForSale {
		t.Error("Expected ForSale = false")
	}
	if f.PropertyType == nil || *f.PropertyType != "Apartment" {
		t.Errorf("PropertyType = %v, want Apartment", f.PropertyType)
	}
	if f.CityName == nil || *f.CityName != "Dubai" {
		t.Errorf("CityName = %v, want Dubai", f.CityName)
	}

	// Intent persisted to the side channel
	if len(store.saved) != 1 {
		t.Fatalf("Intent records saved = %d, want 1", len(store.saved))
	}
	if store.saved[0].UserID != "u1" || store.saved[0].Query != "2 bedroom apartment for rent in Dubai" {
		t.Errorf("Unexpected intent record: %+v", store.saved[0])
	}
}

func TestChatService_CallerFiltersWin(t *testing.T) {
	ai := &fakeAI{enabled: true, intentContent: `{"intent_type":"search"}`, chatContent: "ok", embedding: []float32{0.1}}
	index := &fakeIndex{}

	svc := newTestService(ai, index, nil)
	three := 3
	resp, err := svc.Answer(context.Background(), &model.ChatRequest{
		Query:   "2 bedroom apartment",
		Filters: &model.QueryFilters{Bedrooms: &three},
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if resp.FiltersApplied.Bedrooms == nil || *resp.FiltersApplied.Bedrooms != 3 {
		t.Errorf("Bedrooms = %v, want 3 (caller wins over auto)", resp.FiltersApplied.Bedrooms)
	}
	if index.lastFilters.Bedrooms == nil || *index.lastFilters.Bedrooms != 3 {
		t.Error("Search did not receive the merged filters")
	}
}

func TestChatService_CountQueryBypassesSearch(t *testing.T) {
	ai := &fakeAI{enabled: true, intentContent: `{"intent_type":"information"}`, chatContent: "unused", embedding: []float32{0.1}}
	index := &fakeIndex{total: 42}

	svc := newTestService(ai, index, nil)
	resp, err := svc.Answer(context.Background(), &model.ChatRequest{
		Query: "how many total properties do you have",
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if !resp.IsCountQuery {
		t.Error("Expected IsCountQuery = true")
	}
	if resp.PropertiesFound != 42 {
		t.Errorf("PropertiesFound = %d, want 42", resp.PropertiesFound)
	}
	if !strings.Contains(resp.Response, "42") {
		t.Errorf("Expected count in response, got %q", resp.Response)
	}
	if index.searchCalls != 0 {
		t.Errorf("Search called %d times, want 0", index.searchCalls)
	}
	if ai.embedCalls != 0 {
		t.Errorf("Embedding called %d times, want 0", ai.embedCalls)
	}
	if len(resp.Properties) != 0 {
		t.Errorf("Properties length = %d, want 0", len(resp.Properties))
	}
}

func TestChatService_EmbeddingFailureFailsSoft(t *testing.T) {
	ai := &fakeAI{
		enabled:   true,
		intentErr: fmt.Errorf("model unavailable"),
		chatErr:   fmt.Errorf("model unavailable"),
		embedErr:  fmt.Errorf("embedding unavailable"),
	}
	index := &fakeIndex{}

	svc := newTestService(ai, index, nil)
	resp, err := svc.Answer(context.Background(), &model.ChatRequest{Query: "2 bedroom apartment"})
	if err != nil {
		t.Fatalf("Answer should fail soft, got error: %v", err)
	}

	if resp.PropertiesFound != 0 {
		t.Errorf("PropertiesFound = %d, want 0", resp.PropertiesFound)
	}
	if index.searchCalls != 0 {
		t.Errorf("Search called %d times after embedding failure, want 0", index.searchCalls)
	}
	if resp.Response != fallbackResponse {
		t.Errorf("Response = %q, want apology fallback", resp.Response)
	}
}

func TestChatService_SearchFailureFailsSoft(t *testing.T) {
	ai := &fakeAI{enabled: true, intentContent: `{"intent_type":"search"}`, chatContent: "no matches, sorry", embedding: []float32{0.1}}
	index := &fakeIndex{searchErr: fmt.Errorf("index unavailable")}

	svc := newTestService(ai, index, nil)
	resp, err := svc.Answer(context.Background(), &model.ChatRequest{Query: "villa in dubai"})
	if err != nil {
		t.Fatalf("Answer should fail soft, got error: %v", err)
	}
	if resp.PropertiesFound != 0 {
		t.Errorf("PropertiesFound = %d, want 0", resp.PropertiesFound)
	}
	if resp.Response != "no matches, sorry" {
		t.Errorf("Response = %q", resp.Response)
	}
}

func TestChatService_IntentStoreFailureIsNonFatal(t *testing.T) {
	ai := &fakeAI{enabled: true, intentContent: `{"intent_type":"search"}`, chatContent: "ok", embedding: []float32{0.1}}
	index := &fakeIndex{}
	store := &fakeIntentStore{err: fmt.Errorf("bucket gone")}

	svc := newTestService(ai, index, store)
	if _, err := svc.Answer(context.Background(), &model.ChatRequest{Query: "villa"}); err != nil {
		t.Fatalf("Answer failed on intent store error: %v", err)
	}
}

func TestChatService_GroundingContextCapped(t *testing.T) {
	var results []model.SearchResult
	for i := 0; i < 8; i++ {
		results = append(results, listingResult(fmt.Sprintf("L%d", i), 1.0-float64(i)*0.1))
	}
	ai := &fakeAI{enabled: true, intentContent: `{"intent_type":"search"}`, chatContent: "ok", embedding: []float32{0.1}}
	index := &fakeIndex{results: results}

	svc := NewChatService(index, ai, NewIntentExtractor(ai), nil, 10)
	resp, err := svc.Answer(context.Background(), &model.ChatRequest{Query: "villa"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if resp.PropertiesFound != 8 {
		t.Errorf("PropertiesFound = %d, want 8", resp.PropertiesFound)
	}
	if len(resp.Properties) != 3 {
		t.Errorf("Properties length = %d, want 3", len(resp.Properties))
	}
}
