package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseAIJSON extracts and parses a JSON object from chat-model output,
// which may be pure JSON, JSON inside a markdown code fence, or JSON with
// surrounding prose. The decode is strict once a candidate is found: the
// target type defines the accepted schema.
func ParseAIJSON(input string, target interface{}) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("empty input")
	}

	// Most common case: the model obeyed and returned plain JSON
	if err := json.Unmarshal([]byte(input), target); err == nil {
		return nil
	}

	if extracted := extractFromMarkdown(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
	}

	if extracted := extractJSONFromText(input); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), target); err == nil {
			return nil
		}
		// Last resort: strip trailing commas, a frequent model slip
		if err := json.Unmarshal([]byte(stripTrailingCommas(extracted)), target); err == nil {
			return nil
		}
	}

	return fmt.Errorf("failed to parse JSON from input: %s", truncateString(input, 100))
}

var (
	markdownJSONFence = regexp.MustCompile("(?s)```json\\s*(.+?)\\s*```")
	markdownAnyFence  = regexp.MustCompile("(?s)```\\s*(.+?)\\s*```")
	trailingComma     = regexp.MustCompile(`,\s*([}\]])`)
)

// extractFromMarkdown pulls the body out of a ```json or bare ``` fence
func extractFromMarkdown(input string) string {
	if matches := markdownJSONFence.FindStringSubmatch(input); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	if matches := markdownAnyFence.FindStringSubmatch(input); len(matches) > 1 {
		content := strings.TrimSpace(matches[1])
		if strings.HasPrefix(content, "{") {
			return content
		}
	}
	return ""
}

// extractJSONFromText finds the first balanced JSON object in free text
func extractJSONFromText(input string) string {
	start := strings.Index(input, "{")
	if start < 0 {
		return ""
	}
	return extractBalancedBraces(input[start:])
}

// extractBalancedBraces returns the prefix of input forming one balanced
// object, respecting string literals and escapes
func extractBalancedBraces(input string) string {
	depth := 0
	inString := false
	escape := false

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}
		switch {
		case ch == '\\':
			escape = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return input[:i+1]
			}
		}
	}
	return ""
}

func stripTrailingCommas(input string) string {
	return trailingComma.ReplaceAllString(input, "$1")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
