package cpbrules

import (
	"encoding/json"
	"strings"
)

const codeFence = "```"

// StripCodeFence removes a markdown code fence wrapping s. When the trimmed
// response starts and ends with a fence marker, its first and last lines are
// dropped; otherwise s is returned trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, codeFence) || !strings.HasSuffix(s, codeFence) {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= 2 {
		return ""
	}
	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}

// DecodeGuideline turns a raw model response into a validated Guideline.
//
// The model's title and insurance_name are replaced by the supplied values
// and the root rule_text by RootRuleText before validation. Returns
// EMALFORMED if the response is not a JSON object and ESCHEMA, wrapping
// ValidationErrors, if it does not satisfy the schema.
func DecodeGuideline(raw, title, payer string, v Validator) (*Guideline, error) {
	body := StripCodeFence(raw)

	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, Errorf(EMALFORMED, "response is not valid JSON: %w", err)
	}
	data, ok := parsed.(map[string]any)
	if !ok {
		return nil, Errorf(EMALFORMED, "response is not a JSON object, got %s", typeName(parsed))
	}

	data["title"] = title
	data["insurance_name"] = payer
	if root, ok := data["rules"].(map[string]any); ok {
		root["rule_text"] = RootRuleText
	}

	g, err := v.ValidateGuideline(data)
	if err != nil {
		return nil, Errorf(ESCHEMA, "response does not match the guideline schema: %w", err)
	}
	return g, nil
}
