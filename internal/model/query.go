package model

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	UserID              string        `json:"user_id"`
	Query               string        `json:"query"`
	ConversationHistory []ChatMessage `json:"conversation_history,omitempty"`
	Filters             *QueryFilters `json:"filters,omitempty"`
}

// ChatMessage is a single turn of prior conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the body returned by POST /api/v1/chat
type ChatResponse struct {
	Response        string         `json:"response"`
	PropertiesFound int            `json:"properties_found"`
	Intent          *IntentResult  `json:"intent"`
	FiltersApplied  *QueryFilters  `json:"filters_applied"`
	Properties      []SearchResult `json:"properties"`
	IsCountQuery    bool           `json:"is_count_query,omitempty"`
}

// QueryFilters is a sparse set of structured search constraints.
// Nil fields are not applied.
type QueryFilters struct {
	MinPrice     *int    `json:"min_price,omitempty"`
	MaxPrice     *int    `json:"max_price,omitempty"`
	Bedrooms     *int    `json:"bedrooms,omitempty"`
	ForSale      *bool   `json:"for_sale,omitempty"`
	ForRent      *bool   `json:"for_rent,omitempty"`
	PropertyType *string `json:"property_type,omitempty"`
	Furnished    *bool   `json:"furnished,omitempty"`
	CityName     *string `json:"city_name,omitempty"`
}

// IsEmpty reports whether no filter is set
func (f *QueryFilters) IsEmpty() bool {
	if f == nil {
		return true
	}
	return f.MinPrice == nil && f.MaxPrice == nil && f.Bedrooms == nil &&
		f.ForSale == nil && f.ForRent == nil && f.PropertyType == nil &&
		f.Furnished == nil && f.CityName == nil
}

// Merge overlays other on top of f: any filter set in other wins.
// Both inputs are left untouched.
func (f *QueryFilters) Merge(other *QueryFilters) *QueryFilters {
	merged := &QueryFilters{}
	if f != nil {
		*merged = *f
	}
	if other == nil {
		return merged
	}
	if other.MinPrice != nil {
		merged.MinPrice = other.MinPrice
	}
	if other.MaxPrice != nil {
		merged.MaxPrice = other.MaxPrice
	}
	if other.Bedrooms != nil {
		merged.Bedrooms = other.Bedrooms
	}
	if other.ForSale != nil {
		merged.ForSale = other.ForSale
	}
	if other.ForRent != nil {
		merged.ForRent = other.ForRent
	}
	if other.PropertyType != nil {
		merged.PropertyType = other.PropertyType
	}
	if other.Furnished != nil {
		merged.Furnished = other.Furnished
	}
	if other.CityName != nil {
		merged.CityName = other.CityName
	}
	return merged
}

// IngestRequest is the body of POST /api/v1/ingest, mirroring the
// object-created notification payload
type IngestRequest struct {
	Bucket string `json:"bucket" binding:"required"`
	Key    string `json:"key" binding:"required"`
}

// IngestSummary reports the outcome of one ingestion run
type IngestSummary struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}
