package normalize

import (
	"strings"
	"testing"
)

func fullRow() map[string]string {
	return map[string]string{
		"listing_id":            "L-1001",
		"property_name":         "Marina Heights",
		"property_type":         "Apartment",
		"city_name":             "Dubai",
		"community_name":        "Dubai Marina",
		"area_name_en":          "Marina Walk",
		"asking_price":          "1500000",
		"asking_price_currency": "AED",
		"Number of Bedrooms":    "2",
		"bathrooms_total":       "3",
		"total_area_sqm":        "120.5",
		"description":           "Spacious waterfront apartment with balcony.",
		"for_sale":              "true",
		"for_rent":              "false",
		"furnished_yn":          "true",
		"listing_url":           "https://example.com/l/1001",
		"list_agent_full_name":  "A. Agent",
	}
}

func TestParseRow(t *testing.T) {
	doc := ParseRow(fullRow())
	if doc == nil {
		t.Fatal("Expected document for row with listing_id")
	}

	if doc.ListingID != "L-1001" {
		t.Errorf("ListingID = %q, want %q", doc.ListingID, "L-1001")
	}
	if doc.AskingPrice == nil || *doc.AskingPrice != 1500000 {
		t.Errorf("AskingPrice = %v, want 1500000", doc.AskingPrice)
	}
	if doc.Bedrooms == nil || *doc.Bedrooms != 2 {
		t.Errorf("Bedrooms = %v, want 2", doc.Bedrooms)
	}
	if doc.TotalAreaSqm == nil || *doc.TotalAreaSqm != 120.5 {
		t.Errorf("TotalAreaSqm = %v, want 120.5", doc.TotalAreaSqm)
	}
	if !doc.ForSale || doc.ForRent {
		t.Errorf("ForSale=%t ForRent=%t, want true/false", doc.ForSale, doc.ForRent)
	}
	if !doc.Furnished {
		t.Error("Expected Furnished to be true")
	}
}

func TestParseRow_MissingIdentifier(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"whitespace", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fullRow()
			row["listing_id"] = tt.id
			if doc := ParseRow(row); doc != nil {
				t.Errorf("Expected nil document for listing_id %q, got %+v", tt.id, doc)
			}
		})
	}
}

func TestParseRow_SafeNumericConversion(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"empty price", "asking_price", ""},
		{"whitespace price", "asking_price", "  "},
		{"garbage price", "asking_price", "POA"},
		{"garbage bedrooms", "Number of Bedrooms", "studio"},
		{"garbage area", "total_area_sqm", "n/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fullRow()
			row[tt.key] = tt.value
			doc := ParseRow(row)
			if doc == nil {
				t.Fatal("Expected document, got nil")
			}

			switch tt.key {
			case "asking_price":
				if doc.AskingPrice != nil {
					t.Errorf("AskingPrice = %v, want nil", *doc.AskingPrice)
				}
			case "Number of Bedrooms":
				if doc.Bedrooms != nil {
					t.Errorf("Bedrooms = %v, want nil", *doc.Bedrooms)
				}
			case "total_area_sqm":
				if doc.TotalAreaSqm != nil {
					t.Errorf("TotalAreaSqm = %v, want nil", *doc.TotalAreaSqm)
				}
			}
		})
	}
}

func TestParseRow_BooleanStrictness(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{"True", true},
		{"false", false},
		{"yes", false},
		{"1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("value_"+tt.value, func(t *testing.T) {
			row := fullRow()
			row["for_sale"] = tt.value
			doc := ParseRow(row)
			if doc.ForSale != tt.want {
				t.Errorf("ForSale for %q = %t, want %t", tt.value, doc.ForSale, tt.want)
			}
		})
	}
}

func TestCombinedText_PartOrder(t *testing.T) {
	text := CombinedText(fullRow())
	want := "Property: Marina Heights | " +
		"Type: Apartment | " +
		"Location: Dubai Marina, Marina Walk, Dubai | " +
		"2 bedrooms | " +
		"Price: AED 1500000 | " +
		"Description: Spacious waterfront apartment with balcony."
	if text != want {
		t.Errorf("CombinedText = %q, want %q", text, want)
	}
}

func TestCombinedText_SkipsAbsentParts(t *testing.T) {
	row := fullRow()
	row["property_type"] = ""
	row["asking_price"] = ""
	text := CombinedText(row)

	if strings.Contains(text, "Type:") {
		t.Error("Expected Type part to be skipped")
	}
	if strings.Contains(text, "Price:") {
		t.Error("Expected Price part to be skipped")
	}
	if strings.Contains(text, "| |") || strings.HasPrefix(text, "|") {
		t.Errorf("Found empty placeholder in %q", text)
	}
}

func TestCombinedText_LocationRequiresOnePart(t *testing.T) {
	row := fullRow()
	row["community_name"] = ""
	row["area_name_en"] = ""
	row["city_name"] = ""
	if text := CombinedText(row); strings.Contains(text, "Location:") {
		t.Errorf("Expected no Location part, got %q", text)
	}

	row["city_name"] = "Dubai"
	if text := CombinedText(row); !strings.Contains(text, "Location: Dubai") {
		t.Errorf("Expected Location from city alone, got %q", text)
	}
}

func TestCombinedText_TruncatesDescription(t *testing.T) {
	row := fullRow()
	row["description"] = strings.Repeat("x", 700)
	text := CombinedText(row)

	idx := strings.Index(text, "Description: ")
	if idx < 0 {
		t.Fatal("Expected Description part")
	}
	desc := text[idx+len("Description: "):]
	if len(desc) != 500 {
		t.Errorf("Description length = %d, want 500", len(desc))
	}
}
