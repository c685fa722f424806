package model

import (
	"time"
)

// Listing is a canonical property document ready for indexing.
// Numeric fields are pointers: a nil value means the source row had no
// usable value for that column, which is distinct from zero.
type Listing struct {
	ListingID           string    `json:"listing_id" db:"listing_id"`
	PropertyName        string    `json:"property_name,omitempty" db:"property_name"`
	PropertyType        string    `json:"property_type,omitempty" db:"property_type"`
	CityName            string    `json:"city_name,omitempty" db:"city_name"`
	CommunityName       string    `json:"community_name,omitempty" db:"community_name"`
	AreaName            string    `json:"area_name_en,omitempty" db:"area_name_en"`
	AskingPrice         *int      `json:"asking_price,omitempty" db:"asking_price"`
	AskingPriceCurrency string    `json:"asking_price_currency,omitempty" db:"asking_price_currency"`
	Bedrooms            *int      `json:"number_of_bedrooms,omitempty" db:"number_of_bedrooms"`
	Bathrooms           *int      `json:"bathrooms_total,omitempty" db:"bathrooms_total"`
	TotalAreaSqm        *float64  `json:"total_area_sqm,omitempty" db:"total_area_sqm"`
	Description         string    `json:"description,omitempty" db:"description"`
	ForSale             bool      `json:"for_sale" db:"for_sale"`
	ForRent             bool      `json:"for_rent" db:"for_rent"`
	Furnished           bool      `json:"furnished_yn" db:"furnished_yn"`
	ListingURL          string    `json:"listing_url,omitempty" db:"listing_url"`
	AgentName           string    `json:"list_agent_full_name,omitempty" db:"list_agent_full_name"`
	CombinedText        string    `json:"combined_text,omitempty" db:"combined_text"`
	CreatedAt           time.Time `json:"created_at,omitempty" db:"created_at"`
}

// SearchResult is a listing plus its similarity score, ordered descending
// by relevance.
type SearchResult struct {
	Listing
	RelevanceScore float64 `json:"relevance_score" db:"relevance_score"`
}
