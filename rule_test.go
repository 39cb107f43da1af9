package cpbrules_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/fwojciec/cpbrules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func op(o cpbrules.Operator) *cpbrules.Operator { return &o }

// decode round-trips v through JSON into an untyped tree.
func decode(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var out any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func sampleGuideline() *cpbrules.Guideline {
	return &cpbrules.Guideline{
		Title:         "Chronic Fatigue Syndrome",
		InsuranceName: "Aetna",
		Rules: &cpbrules.Rule{
			ID:       "1",
			Text:     cpbrules.RootRuleText,
			Operator: op(cpbrules.OperatorOr),
			Rules: []*cpbrules.Rule{
				{ID: "1.1", Text: "Antiviral therapy is experimental"},
				{
					ID:       "1.2",
					Text:     "Immune therapy criteria",
					Operator: op(cpbrules.OperatorAnd),
					Rules: []*cpbrules.Rule{
						{ID: "1.2.1", Text: "Documented diagnosis"},
						{ID: "1.2.2", Text: "Failed conservative treatment", Rules: []*cpbrules.Rule{}},
					},
				},
			},
		},
	}
}

func TestValidator_ValidateGuideline(t *testing.T) {
	t.Parallel()

	t.Run("round-trips a valid tree unchanged", func(t *testing.T) {
		t.Parallel()

		want := sampleGuideline()
		for _, strict := range []bool{false, true} {
			got, err := cpbrules.Validator{Strict: strict}.ValidateGuideline(decode(t, want))

			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("validation is idempotent", func(t *testing.T) {
		t.Parallel()

		v := cpbrules.Validator{}
		first, err := v.ValidateGuideline(decode(t, sampleGuideline()))
		require.NoError(t, err)

		second, err := v.ValidateGuideline(decode(t, first))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("requires rules", func(t *testing.T) {
		t.Parallel()

		_, err := cpbrules.Validator{}.ValidateGuideline(map[string]any{
			"title":          "T",
			"insurance_name": "P",
		})

		var verrs cpbrules.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 1)
		assert.Equal(t, "rules", verrs[0].Path)
		assert.Equal(t, "field required", verrs[0].Message)
	})

	t.Run("rejects non-object guideline", func(t *testing.T) {
		t.Parallel()

		_, err := cpbrules.Validator{}.ValidateGuideline([]any{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "guideline must be an object, got array")
	})

	t.Run("reports nested paths", func(t *testing.T) {
		t.Parallel()

		_, err := cpbrules.Validator{}.ValidateGuideline(map[string]any{
			"title":          "T",
			"insurance_name": "P",
			"rules": map[string]any{
				"rule_id":   "1",
				"rule_text": "root",
				"rules": []any{
					map[string]any{"rule_id": "1.1", "rule_text": "ok"},
					map[string]any{"rule_text": "missing id"},
				},
			},
		})

		var verrs cpbrules.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 1)
		assert.Equal(t, "rules.rules[1].rule_id", verrs[0].Path)
		assert.Equal(t, "rules.rules[1].rule_id: field required", verrs.Error())
	})
}

func TestValidator_ValidateRule(t *testing.T) {
	t.Parallel()

	t.Run("missing optional fields are null", func(t *testing.T) {
		t.Parallel()

		r, err := cpbrules.Validator{}.ValidateRule(map[string]any{
			"rule_id":   "a",
			"rule_text": "leaf",
		})

		require.NoError(t, err)
		assert.Nil(t, r.Operator)
		assert.Nil(t, r.Rules)
		assert.True(t, r.IsLeaf())
	})

	t.Run("explicit nulls are accepted", func(t *testing.T) {
		t.Parallel()

		r, err := cpbrules.Validator{}.ValidateRule(map[string]any{
			"rule_id":   "a",
			"rule_text": "leaf",
			"operator":  nil,
			"rules":     nil,
		})

		require.NoError(t, err)
		assert.Nil(t, r.Operator)
		assert.Nil(t, r.Rules)
	})

	t.Run("ignores unknown fields", func(t *testing.T) {
		t.Parallel()

		r, err := cpbrules.Validator{}.ValidateRule(map[string]any{
			"rule_id":    "a",
			"rule_text":  "leaf",
			"confidence": 0.9,
		})

		require.NoError(t, err)
		assert.Equal(t, "a", r.ID)
	})

	t.Run("collects every violation", func(t *testing.T) {
		t.Parallel()

		_, err := cpbrules.Validator{}.ValidateRule(map[string]any{
			"rule_id":  1.0,
			"operator": true,
			"rules":    "none",
		})

		var verrs cpbrules.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		require.Len(t, verrs, 4)
		assert.Equal(t, "rule_id: must be a string, got number", verrs[0].Error())
		assert.Equal(t, "rule_text: field required", verrs[1].Error())
		assert.Equal(t, "operator: must be a string or null, got boolean", verrs[2].Error())
		assert.Equal(t, "rules: must be an array or null, got string", verrs[3].Error())
	})

	t.Run("rejects non-object children", func(t *testing.T) {
		t.Parallel()

		_, err := cpbrules.Validator{}.ValidateRule(map[string]any{
			"rule_id":   "a",
			"rule_text": "root",
			"rules":     []any{"just text"},
		})

		require.Error(t, err)
		assert.Equal(t, "rules[0]: rule must be an object, got string", err.Error())
	})

	t.Run("supports deep nesting", func(t *testing.T) {
		t.Parallel()

		const depth = 500
		leaf := map[string]any{"rule_id": "leaf", "rule_text": "leaf"}
		node := leaf
		for i := depth; i > 0; i-- {
			node = map[string]any{
				"rule_id":   fmt.Sprint(i),
				"rule_text": "level",
				"operator":  "AND",
				"rules":     []any{node},
			}
		}

		r, err := cpbrules.Validator{Strict: true}.ValidateRule(node)

		require.NoError(t, err)
		n := 0
		for cur := r; !cur.IsLeaf(); cur = cur.Rules[0] {
			n++
		}
		assert.Equal(t, depth, n)
	})

	t.Run("permissive mode keeps any operator", func(t *testing.T) {
		t.Parallel()

		r, err := cpbrules.Validator{}.ValidateRule(map[string]any{
			"rule_id":   "a",
			"rule_text": "leaf",
			"operator":  "either",
		})

		require.NoError(t, err)
		require.NotNil(t, r.Operator)
		assert.Equal(t, cpbrules.Operator("either"), *r.Operator)
	})

	t.Run("strict mode normalizes operator case", func(t *testing.T) {
		t.Parallel()

		r, err := cpbrules.Validator{Strict: true}.ValidateRule(map[string]any{
			"rule_id":   "a",
			"rule_text": "root",
			"operator":  " or ",
			"rules":     []any{map[string]any{"rule_id": "b", "rule_text": "leaf"}},
		})

		require.NoError(t, err)
		assert.Equal(t, cpbrules.OperatorOr, *r.Operator)
	})

	t.Run("strict mode rejects unknown operator", func(t *testing.T) {
		t.Parallel()

		_, err := cpbrules.Validator{Strict: true}.ValidateRule(map[string]any{
			"rule_id":   "a",
			"rule_text": "root",
			"operator":  "XOR",
			"rules":     []any{map[string]any{"rule_id": "b", "rule_text": "leaf"}},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown operator "XOR"`)
	})

	t.Run("strict mode rejects operator without children", func(t *testing.T) {
		t.Parallel()

		for _, rules := range []any{nil, []any{}} {
			_, err := cpbrules.Validator{Strict: true}.ValidateRule(map[string]any{
				"rule_id":   "a",
				"rule_text": "leaf",
				"operator":  "AND",
				"rules":     rules,
			})

			require.Error(t, err)
			assert.Contains(t, err.Error(), "operator requires at least one child rule")
		}
	})
}

func TestOperator_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, cpbrules.OperatorAnd.Valid())
	assert.True(t, cpbrules.OperatorOr.Valid())
	assert.True(t, cpbrules.OperatorNone.Valid())
	assert.False(t, cpbrules.Operator("and").Valid())
	assert.False(t, cpbrules.Operator("").Valid())
}

func TestMarshalGuideline(t *testing.T) {
	t.Parallel()

	g := &cpbrules.Guideline{
		Title:         "Chronic Fatigue Syndrome",
		InsuranceName: "Aetna",
		Rules:         &cpbrules.Rule{ID: "1", Text: cpbrules.RootRuleText},
	}

	b, err := cpbrules.MarshalGuideline(g)

	require.NoError(t, err)
	want := `{
  "title": "Chronic Fatigue Syndrome",
  "insurance_name": "Aetna",
  "rules": {
    "rule_id": "1",
    "rule_text": "Medical Necessity",
    "operator": null,
    "rules": null
  }
}
`
	assert.Equal(t, want, string(b))
	assert.True(t, strings.HasSuffix(string(b), "}\n"))
}
