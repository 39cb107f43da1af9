package cpbrules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RootRuleText is the rule_text every guideline's root rule carries,
// regardless of what the transformation step produced.
const RootRuleText = "Medical Necessity"

// Operator is a logical combinator over a rule's children.
type Operator string

// Operator constants.
const (
	OperatorAnd  Operator = "AND"
	OperatorOr   Operator = "OR"
	OperatorNone Operator = "NONE"
)

// Valid reports whether o is one of the known operators.
func (o Operator) Valid() bool {
	switch o {
	case OperatorAnd, OperatorOr, OperatorNone:
		return true
	}
	return false
}

// Rule is a node in a guideline's decision tree. A rule with no children is
// a leaf. Rules is nil when the source omitted it or set it to null; an
// empty, non-nil slice is preserved as [].
type Rule struct {
	ID       string    `json:"rule_id"`
	Text     string    `json:"rule_text"`
	Operator *Operator `json:"operator"`
	Rules    []*Rule   `json:"rules"`
}

// IsLeaf reports whether the rule has no children.
func (r *Rule) IsLeaf() bool {
	return len(r.Rules) == 0
}

// Guideline is a clinical policy and the root of its rule tree.
type Guideline struct {
	Title         string `json:"title"`
	InsuranceName string `json:"insurance_name"`
	Rules         *Rule  `json:"rules"`
}

// MarshalGuideline returns the guideline as two-space indented JSON with a
// trailing newline.
func MarshalGuideline(g *Guideline) ([]byte, error) {
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// ValidationError describes a single schema violation at Path.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// ValidationErrors collects every violation found in one validation pass.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validator checks untyped trees, as produced by decoding JSON into any,
// against the guideline schema.
//
// In the default permissive mode only field presence and types are checked.
// Strict mode additionally requires operators to come from the closed set
// and to appear only on rules that have children.
type Validator struct {
	Strict bool
}

// ValidateGuideline validates candidate as a Guideline.
func (v Validator) ValidateGuideline(candidate any) (*Guideline, error) {
	var errs ValidationErrors
	obj, ok := candidate.(map[string]any)
	if !ok {
		return nil, ValidationErrors{{Message: "guideline must be an object, got " + typeName(candidate)}}
	}

	g := &Guideline{
		Title:         requireString(obj, "title", "", &errs),
		InsuranceName: requireString(obj, "insurance_name", "", &errs),
	}

	if raw, ok := obj["rules"]; !ok || raw == nil {
		errs = append(errs, &ValidationError{Path: "rules", Message: "field required"})
	} else {
		g.Rules = v.validateRule(raw, "rules", &errs)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return g, nil
}

// ValidateRule validates candidate as a Rule. Nesting depth is unbounded.
func (v Validator) ValidateRule(candidate any) (*Rule, error) {
	var errs ValidationErrors
	r := v.validateRule(candidate, "", &errs)
	if len(errs) > 0 {
		return nil, errs
	}
	return r, nil
}

func (v Validator) validateRule(candidate any, path string, errs *ValidationErrors) *Rule {
	obj, ok := candidate.(map[string]any)
	if !ok {
		*errs = append(*errs, &ValidationError{Path: path, Message: "rule must be an object, got " + typeName(candidate)})
		return nil
	}

	r := &Rule{
		ID:   requireString(obj, "rule_id", path, errs),
		Text: requireString(obj, "rule_text", path, errs),
	}

	if raw, ok := obj["operator"]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			*errs = append(*errs, &ValidationError{Path: join(path, "operator"), Message: "must be a string or null, got " + typeName(raw)})
		} else {
			op := Operator(s)
			if v.Strict {
				op = Operator(strings.ToUpper(strings.TrimSpace(s)))
				if !op.Valid() {
					*errs = append(*errs, &ValidationError{Path: join(path, "operator"), Message: fmt.Sprintf("unknown operator %q", s)})
				}
			}
			r.Operator = &op
		}
	}

	if raw, ok := obj["rules"]; ok && raw != nil {
		items, ok := raw.([]any)
		if !ok {
			*errs = append(*errs, &ValidationError{Path: join(path, "rules"), Message: "must be an array or null, got " + typeName(raw)})
		} else {
			r.Rules = make([]*Rule, 0, len(items))
			for i, item := range items {
				r.Rules = append(r.Rules, v.validateRule(item, fmt.Sprintf("%s[%d]", join(path, "rules"), i), errs))
			}
		}
	}

	if v.Strict && r.Operator != nil && r.IsLeaf() {
		*errs = append(*errs, &ValidationError{Path: join(path, "operator"), Message: "operator requires at least one child rule"})
	}

	return r
}

func requireString(obj map[string]any, key, path string, errs *ValidationErrors) string {
	raw, ok := obj[key]
	if !ok || raw == nil {
		*errs = append(*errs, &ValidationError{Path: join(path, key), Message: "field required"})
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		*errs = append(*errs, &ValidationError{Path: join(path, key), Message: "must be a string, got " + typeName(raw)})
		return ""
	}
	return s
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
