package vectordb

import (
	"fmt"
	"strings"
)

// FilterCondition is a predicate over a point payload. Every Store evaluates
// the concrete condition types below natively; Matches is the reference
// semantics they follow.
type FilterCondition interface {
	// FieldPath returns the dotted payload path the condition inspects.
	FieldPath() string

	// Matches evaluates the condition against a payload.
	Matches(payload map[string]any) bool
}

// FilterSet supports Must (AND), Should (OR), and MustNot (NOT) clauses.
//
// Example:
//
//	filters := vectordb.NewFilterSet(
//	    vectordb.Must(vectordb.NewMatch("source", "upload")),
//	    vectordb.MustNot(vectordb.NewMatch("hidden", true)),
//	)
type FilterSet struct {
	// Must: all conditions must match.
	Must []FilterCondition
	// Should: at least one condition must match when any are given.
	Should []FilterCondition
	// MustNot: none of the conditions may match.
	MustNot []FilterCondition
}

// ── FilterSet Constructors ───────────────────────────────────────────────────

// NewFilterSet creates a FilterSet with the given clauses.
func NewFilterSet(clauses ...func(*FilterSet)) *FilterSet {
	fs := &FilterSet{}
	for _, clause := range clauses {
		clause(fs)
	}
	return fs
}

// Must adds conditions that all have to match.
func Must(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.Must = append(fs.Must, conditions...)
	}
}

// Should adds conditions of which at least one has to match.
func Should(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.Should = append(fs.Should, conditions...)
	}
}

// MustNot adds conditions that exclude a point when any of them match.
func MustNot(conditions ...FilterCondition) func(*FilterSet) {
	return func(fs *FilterSet) {
		fs.MustNot = append(fs.MustNot, conditions...)
	}
}

// IsEmpty reports whether the set has no conditions at all.
func (fs *FilterSet) IsEmpty() bool {
	return fs == nil || (len(fs.Must) == 0 && len(fs.Should) == 0 && len(fs.MustNot) == 0)
}

// Matches evaluates the whole set against a payload. A nil set matches everything.
func (fs *FilterSet) Matches(payload map[string]any) bool {
	if fs.IsEmpty() {
		return true
	}
	for _, c := range fs.Must {
		if !c.Matches(payload) {
			return false
		}
	}
	if len(fs.Should) > 0 {
		matched := false
		for _, c := range fs.Should {
			if c.Matches(payload) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, c := range fs.MustNot {
		if c.Matches(payload) {
			return false
		}
	}
	return true
}

// Validate rejects conditions the engines cannot express: empty field paths,
// unsupported value types, and mixed value types inside one condition.
func (fs *FilterSet) Validate() error {
	if fs == nil {
		return nil
	}
	for _, group := range [][]FilterCondition{fs.Must, fs.Should, fs.MustNot} {
		for _, c := range group {
			if err := validateCondition(c); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCondition(c FilterCondition) error {
	if c == nil {
		return fmt.Errorf("%w: nil filter condition", ErrInvalidRequest)
	}
	if strings.TrimSpace(c.FieldPath()) == "" {
		return fmt.Errorf("%w: filter condition has an empty field", ErrInvalidRequest)
	}
	switch cond := c.(type) {
	case *MatchCondition:
		return validateHomogeneousTypes(cond.Field, []any{cond.Value})
	case *MatchAnyCondition:
		return validateHomogeneousTypes(cond.Field, cond.Values)
	case *MatchExceptCondition:
		return validateHomogeneousTypes(cond.Field, cond.Values)
	case *NumericRangeCondition:
		r := cond.Range
		if r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil {
			return fmt.Errorf("%w: range on %q has no bounds", ErrInvalidRequest, cond.Field)
		}
		return nil
	}
	return fmt.Errorf("%w: unsupported filter condition %T", ErrInvalidRequest, c)
}

// ── Conditions ───────────────────────────────────────────────────────────────

// MatchCondition represents an exact match filter (field = value).
// Supports string, bool and integer values.
type MatchCondition struct {
	Field string
	Value any
}

func (c *MatchCondition) FieldPath() string { return c.Field }

func (c *MatchCondition) Matches(payload map[string]any) bool {
	v, ok := lookupField(payload, c.Field)
	return ok && valueEqual(v, c.Value)
}

// MatchAnyCondition matches if the value is one of the given values (IN).
type MatchAnyCondition struct {
	Field  string
	Values []any
}

func (c *MatchAnyCondition) FieldPath() string { return c.Field }

func (c *MatchAnyCondition) Matches(payload map[string]any) bool {
	v, ok := lookupField(payload, c.Field)
	if !ok {
		return false
	}
	for _, want := range c.Values {
		if valueEqual(v, want) {
			return true
		}
	}
	return false
}

// MatchExceptCondition matches if the field is present and its value is not
// one of the given values (NOT IN).
type MatchExceptCondition struct {
	Field  string
	Values []any
}

func (c *MatchExceptCondition) FieldPath() string { return c.Field }

func (c *MatchExceptCondition) Matches(payload map[string]any) bool {
	v, ok := lookupField(payload, c.Field)
	if !ok {
		return false
	}
	for _, not := range c.Values {
		if valueEqual(v, not) {
			return false
		}
	}
	return true
}

// NumericRange defines bounds for numeric filtering. Nil bounds are open.
type NumericRange struct {
	Gt  *float64 `json:"greaterThan,omitempty"`
	Gte *float64 `json:"greaterThanOrEqualTo,omitempty"`
	Lt  *float64 `json:"lessThan,omitempty"`
	Lte *float64 `json:"lessThanOrEqualTo,omitempty"`
}

// NumericRangeCondition filters by a numeric payload field.
type NumericRangeCondition struct {
	Field string
	Range NumericRange
}

func (c *NumericRangeCondition) FieldPath() string { return c.Field }

func (c *NumericRangeCondition) Matches(payload map[string]any) bool {
	v, ok := lookupField(payload, c.Field)
	if !ok {
		return false
	}
	n, ok := toFloat(v)
	if !ok {
		return false
	}
	r := c.Range
	if r.Gt != nil && !(n > *r.Gt) {
		return false
	}
	if r.Gte != nil && !(n >= *r.Gte) {
		return false
	}
	if r.Lt != nil && !(n < *r.Lt) {
		return false
	}
	if r.Lte != nil && !(n <= *r.Lte) {
		return false
	}
	return true
}

// ── Condition Constructors ───────────────────────────────────────────────────

// NewMatch creates an equality condition.
func NewMatch(field string, value any) *MatchCondition {
	return &MatchCondition{Field: field, Value: value}
}

// NewMatchAny creates an IN condition.
func NewMatchAny(field string, values ...any) *MatchAnyCondition {
	return &MatchAnyCondition{Field: field, Values: values}
}

// NewMatchExcept creates a NOT IN condition.
func NewMatchExcept(field string, values ...any) *MatchExceptCondition {
	return &MatchExceptCondition{Field: field, Values: values}
}

// NewNumericRange creates a numeric range condition.
func NewNumericRange(field string, r NumericRange) *NumericRangeCondition {
	return &NumericRangeCondition{Field: field, Range: r}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// lookupField resolves a dotted path such as "meta.source" in nested maps.
func lookupField(payload map[string]any, path string) (any, bool) {
	var cur any = payload
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func valueEqual(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// ValueCategory groups filter values the way the engines type them:
// "string", "numeric" or "boolean". Unsupported types return "".
func ValueCategory(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case int, int32, int64, uint64, float32, float64:
		return "numeric"
	case bool:
		return "boolean"
	}
	return ""
}

func validateHomogeneousTypes(field string, values []any) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: condition on %q has no values", ErrInvalidRequest, field)
	}
	expected := ValueCategory(values[0])
	if expected == "" {
		return fmt.Errorf("%w: unsupported value type %T on %q", ErrInvalidRequest, values[0], field)
	}
	for i, v := range values[1:] {
		actual := ValueCategory(v)
		if actual == "" {
			return fmt.Errorf("%w: unsupported value type %T at index %d on %q", ErrInvalidRequest, v, i+1, field)
		}
		if actual != expected {
			return fmt.Errorf("%w: mixed types on %q: expected %s but got %s at index %d", ErrInvalidRequest, field, expected, actual, i+1)
		}
	}
	return nil
}
