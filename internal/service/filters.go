package service

import (
	"regexp"
	"strconv"
	"strings"

	"propchat/internal/model"
)

// Rule patterns for price and bedroom extraction. Numbers may carry
// thousands separators, which are stripped before parsing.
var (
	maxPricePattern = regexp.MustCompile(`(?:under|below|less than|max|maximum)\s*(\d[\d,]*)`)
	minPricePattern = regexp.MustCompile(`(?:above|over|more than|min|minimum)\s*(\d[\d,]*)`)
	betweenPattern  = regexp.MustCompile(`between\s*(\d[\d,]*)\s*and\s*(\d[\d,]*)`)
	bedroomPattern  = regexp.MustCompile(`(\d+)\s*(?:bed|bedroom)`)
)

var rentPhrases = []string{"for rent", "to rent", "rental", "renting", "lease"}
var salePhrases = []string{"for sale", "to buy", "purchase", "buying"}

// propertyTypes is checked in priority order; the first hit wins
var propertyTypes = []struct {
	tokens    []string
	canonical string
}{
	{[]string{"apartment", "apt"}, "Apartment"},
	{[]string{"villa"}, "Villa"},
	{[]string{"penthouse"}, "Penthouse"},
	{[]string{"townhouse"}, "Townhouse"},
}

// knownCities is the location gazetteer, checked in order
var knownCities = []string{"Dubai", "Abu Dhabi", "Sharjah"}

// countPhrases mark queries asking for the total document count rather
// than a search
var countPhrases = []string{
	"how many total",
	"total number of",
	"all properties",
	"total properties",
	"how many properties are there",
	"how many properties do you have",
	"number of properties in database",
	"property count",
	"total count",
}

// ExtractFilters derives structured filters from the query text with
// fixed-precedence rules, falling back to the intent classification for
// bedrooms and price bounds the rules did not set. Pure and idempotent.
func ExtractFilters(query string, intent *model.IntentResult) *model.QueryFilters {
	filters := &model.QueryFilters{}
	queryLower := strings.ToLower(query)

	// Price bounds; "between X and Y" overrides single-sided matches
	if m := maxPricePattern.FindStringSubmatch(queryLower); m != nil {
		filters.MaxPrice = parsePrice(m[1])
	}
	if m := minPricePattern.FindStringSubmatch(queryLower); m != nil {
		filters.MinPrice = parsePrice(m[1])
	}
	if m := betweenPattern.FindStringSubmatch(queryLower); m != nil {
		filters.MinPrice = parsePrice(m[1])
		filters.MaxPrice = parsePrice(m[2])
	}

	// Bedroom count
	if m := bedroomPattern.FindStringSubmatch(queryLower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			filters.Bedrooms = &n
		}
	}

	// Rent vs sale. Rental phrases are checked first and win when both
	// families appear; this mirrors the source system's evaluation order
	// and may be incidental rather than a deliberate rule.
	if containsAny(queryLower, rentPhrases) {
		filters.ForRent = boolPtr(true)
		filters.ForSale = boolPtr(false)
	} else if containsAny(queryLower, salePhrases) {
		filters.ForSale = boolPtr(true)
		filters.ForRent = boolPtr(false)
	}

	// Property type
	for _, pt := range propertyTypes {
		if containsAny(queryLower, pt.tokens) {
			canonical := pt.canonical
			filters.PropertyType = &canonical
			break
		}
	}

	// Furnished status; "unfurnished" anywhere trumps "furnished"
	if strings.Contains(queryLower, "unfurnished") {
		filters.Furnished = boolPtr(false)
	} else if strings.Contains(queryLower, "furnished") {
		filters.Furnished = boolPtr(true)
	}

	// Location
	for _, city := range knownCities {
		if strings.Contains(queryLower, strings.ToLower(city)) {
			c := city
			filters.CityName = &c
			break
		}
	}

	// Fall back to the intent classification for fields the rules missed
	if intent != nil {
		if filters.Bedrooms == nil && intent.Bedrooms != nil {
			filters.Bedrooms = intent.Bedrooms
		}
		if pr := intent.PriceRange; pr != nil {
			if filters.MinPrice == nil && pr.Min != nil {
				filters.MinPrice = pr.Min
			}
			if filters.MaxPrice == nil && pr.Max != nil {
				filters.MaxPrice = pr.Max
			}
		}
	}

	return filters
}

// IsCountQuery reports whether the query asks for the total property
// count instead of a search
func IsCountQuery(query string) bool {
	return containsAny(strings.ToLower(query), countPhrases)
}

func parsePrice(raw string) *int {
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

func containsAny(s string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}

func boolPtr(v bool) *bool {
	return &v
}
