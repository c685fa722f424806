package model

import "time"

// IntentResult is the chat model's classification of a query.
// Best effort: a nil IntentResult means classification failed and the
// query pipeline continues without it.
type IntentResult struct {
	IntentType           string      `json:"intent_type,omitempty"`
	LocationInterest     []string    `json:"location_interest,omitempty"`
	PropertyTypeInterest []string    `json:"property_type_interest,omitempty"`
	PriceRange           *PriceRange `json:"price_range,omitempty"`
	Bedrooms             *int        `json:"bedrooms,omitempty"`
	KeyRequirements      []string    `json:"key_requirements,omitempty"`
	BuyingSignals        []string    `json:"buying_signals,omitempty"`
}

// PriceRange is the price interval mentioned in a query, either bound optional
type PriceRange struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

// IntentRecord is the timestamped side-channel record persisted per
// successfully classified query
type IntentRecord struct {
	UserID    string        `json:"user_id"`
	Timestamp time.Time     `json:"timestamp"`
	Query     string        `json:"query"`
	Intent    *IntentResult `json:"intent"`
}
