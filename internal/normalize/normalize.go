// Package normalize converts raw tabular listing rows into canonical
// documents and the combined text used for embedding.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"propchat/internal/model"
)

// maxDescriptionChars caps the description part of the combined text
const maxDescriptionChars = 500

// Source column names. The bedroom column keeps the odd spacing and
// casing of the upstream export.
const (
	colListingID     = "listing_id"
	colPropertyName  = "property_name"
	colPropertyType  = "property_type"
	colCityName      = "city_name"
	colCommunityName = "community_name"
	colAreaName      = "area_name_en"
	colPrice         = "asking_price"
	colPriceCurrency = "asking_price_currency"
	colBedrooms      = "Number of Bedrooms"
	colBathrooms     = "bathrooms_total"
	colAreaSqm       = "total_area_sqm"
	colDescription   = "description"
	colForSale       = "for_sale"
	colForRent       = "for_rent"
	colFurnished     = "furnished_yn"
	colListingURL    = "listing_url"
	colAgentName     = "list_agent_full_name"
)

// ParseRow converts one raw CSV row into a canonical listing.
// Returns nil when the row has no listing_id; identity is checked first
// so rejected rows never reach the embedding service.
func ParseRow(row map[string]string) *model.Listing {
	if strings.TrimSpace(row[colListingID]) == "" {
		return nil
	}

	return &model.Listing{
		ListingID:           row[colListingID],
		PropertyName:        row[colPropertyName],
		PropertyType:        row[colPropertyType],
		CityName:            row[colCityName],
		CommunityName:       row[colCommunityName],
		AreaName:            row[colAreaName],
		AskingPrice:         safeInt(row[colPrice]),
		AskingPriceCurrency: row[colPriceCurrency],
		Bedrooms:            safeInt(row[colBedrooms]),
		Bathrooms:           safeInt(row[colBathrooms]),
		TotalAreaSqm:        safeFloat(row[colAreaSqm]),
		Description:         row[colDescription],
		ForSale:             strings.ToLower(row[colForSale]) == "true",
		ForRent:             strings.ToLower(row[colForRent]) == "true",
		Furnished:           strings.ToLower(row[colFurnished]) == "true",
		ListingURL:          row[colListingURL],
		AgentName:           row[colAgentName],
	}
}

// CombinedText builds the pipe-delimited text summary from the raw row.
// Part order is fixed and significant: it is the text the embedding sees.
func CombinedText(row map[string]string) string {
	var parts []string

	if v := row[colPropertyName]; v != "" {
		parts = append(parts, fmt.Sprintf("Property: %s", v))
	}
	if v := row[colPropertyType]; v != "" {
		parts = append(parts, fmt.Sprintf("Type: %s", v))
	}

	var locationParts []string
	for _, field := range []string{colCommunityName, colAreaName, colCityName} {
		if v := row[field]; v != "" {
			locationParts = append(locationParts, v)
		}
	}
	if len(locationParts) > 0 {
		parts = append(parts, fmt.Sprintf("Location: %s", strings.Join(locationParts, ", ")))
	}

	if v := row[colBedrooms]; v != "" {
		parts = append(parts, fmt.Sprintf("%s bedrooms", v))
	}
	if v := row[colPrice]; v != "" {
		parts = append(parts, fmt.Sprintf("Price: %s %s", row[colPriceCurrency], v))
	}
	if v := row[colDescription]; v != "" {
		if r := []rune(v); len(r) > maxDescriptionChars {
			v = string(r[:maxDescriptionChars])
		}
		parts = append(parts, fmt.Sprintf("Description: %s", v))
	}

	return strings.Join(parts, " | ")
}

// safeInt parses an integer, returning nil on empty, whitespace-only or
// unparseable input. Never errors and never substitutes zero.
func safeInt(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}

// safeFloat is the float counterpart of safeInt
func safeFloat(value string) *float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
