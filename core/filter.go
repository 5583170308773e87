package core

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Operator is a filter comparison operator, spelled the way the vector index
// wire grammar spells it.
type Operator string

const (
	OpEq     Operator = "$eq"
	OpNe     Operator = "$ne"
	OpGt     Operator = "$gt"
	OpGte    Operator = "$gte"
	OpLt     Operator = "$lt"
	OpLte    Operator = "$lte"
	OpIn     Operator = "$in"
	OpNin    Operator = "$nin"
	OpExists Operator = "$exists"
)

// Filter is a boolean expression tree over metadata fields. A zero Filter
// matches everything. A non-zero Filter is either a composite (And or Or set)
// or a leaf (Field, Op, Value).
//
// Filters arrive as untrusted completion-model output in the index wire
// grammar and are decoded through ParseFilter, which rejects anything outside
// the metadata schema before the filter can reach an index.
type Filter struct {
	And []Filter
	Or  []Filter

	Field string
	Op    Operator
	Value any
}

// IsZero reports whether the filter places no restriction at all.
func (f Filter) IsZero() bool {
	return f.Field == "" && len(f.And) == 0 && len(f.Or) == 0
}

// ParseFilter decodes a filter from the wire grammar and validates it against
// the metadata schema. Empty or absent input yields the match-all filter.
// Anything that is not well-formed, or that references an unknown field or
// operator, is rejected.
func ParseFilter(raw []byte) (Filter, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Filter{}, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return Filter{}, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	f, err := filterFromObject(m)
	if err != nil {
		return Filter{}, err
	}
	if err := ValidateFilter(f); err != nil {
		return Filter{}, err
	}
	return f, nil
}

// filterFromObject builds a filter from one decoded JSON object. An object
// with several keys is an implicit conjunction, matching the index semantics.
func filterFromObject(m map[string]json.RawMessage) (Filter, error) {
	if len(m) == 0 {
		return Filter{}, nil
	}

	// Sort keys so multi-key objects parse deterministically.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]Filter, 0, len(m))
	for _, key := range keys {
		switch key {
		case "$and", "$or":
			var elems []map[string]json.RawMessage
			if err := json.Unmarshal(m[key], &elems); err != nil {
				return Filter{}, fmt.Errorf("%w: %s expects an array of filters", ErrInvalidFilter, key)
			}
			sub := make([]Filter, 0, len(elems))
			for _, elem := range elems {
				child, err := filterFromObject(elem)
				if err != nil {
					return Filter{}, err
				}
				sub = append(sub, child)
			}
			if key == "$and" {
				clauses = append(clauses, Filter{And: sub})
			} else {
				clauses = append(clauses, Filter{Or: sub})
			}

		default:
			if strings.HasPrefix(key, "$") {
				return Filter{}, fmt.Errorf("%w: %q", ErrUnknownOperator, key)
			}
			leaves, err := leavesFromCondition(key, m[key])
			if err != nil {
				return Filter{}, err
			}
			clauses = append(clauses, leaves...)
		}
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return Filter{And: clauses}, nil
}

// leavesFromCondition decodes one {field: {op: value, ...}} condition into
// leaf filters, one per operator.
func leavesFromCondition(field string, raw json.RawMessage) ([]Filter, error) {
	var cond map[string]any
	if err := json.Unmarshal(raw, &cond); err != nil {
		return nil, fmt.Errorf("%w: field %q expects an operator object", ErrInvalidFilter, field)
	}
	if len(cond) == 0 {
		return nil, fmt.Errorf("%w: field %q has no operator", ErrInvalidFilter, field)
	}

	ops := make([]string, 0, len(cond))
	for op := range cond {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	leaves := make([]Filter, 0, len(cond))
	for _, op := range ops {
		leaves = append(leaves, Filter{Field: field, Op: Operator(op), Value: cond[op]})
	}
	return leaves, nil
}

// MarshalJSON renders the filter back into the wire grammar, so the same tree
// serves both the remote index query body and local evaluation.
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.wire())
}

func (f Filter) wire() map[string]any {
	switch {
	case len(f.And) > 0:
		parts := make([]map[string]any, len(f.And))
		for i, child := range f.And {
			parts[i] = child.wire()
		}
		return map[string]any{"$and": parts}
	case len(f.Or) > 0:
		parts := make([]map[string]any, len(f.Or))
		for i, child := range f.Or {
			parts[i] = child.wire()
		}
		return map[string]any{"$or": parts}
	case f.Field != "":
		return map[string]any{f.Field: map[string]any{string(f.Op): f.Value}}
	default:
		return map[string]any{}
	}
}

// Matches evaluates the filter against one entry's metadata. Used by the
// embedded index backend; the remote backend evaluates server-side.
func (f Filter) Matches(meta map[string]any) bool {
	switch {
	case f.IsZero():
		return true
	case len(f.And) > 0:
		for _, child := range f.And {
			if !child.Matches(meta) {
				return false
			}
		}
		return true
	case len(f.Or) > 0:
		for _, child := range f.Or {
			if child.Matches(meta) {
				return true
			}
		}
		return false
	default:
		return f.matchLeaf(meta)
	}
}

func (f Filter) matchLeaf(meta map[string]any) bool {
	val, present := meta[f.Field]

	if f.Op == OpExists {
		want, _ := f.Value.(bool)
		return present == want
	}
	if !present {
		return false
	}

	switch f.Op {
	case OpEq:
		return valuesEqual(val, f.Value)
	case OpNe:
		return !valuesEqual(val, f.Value)
	case OpGt, OpGte, OpLt, OpLte:
		have, ok1 := asNumber(val)
		want, ok2 := asNumber(f.Value)
		if !ok1 || !ok2 {
			// Numeric comparison against a sentinel or non-numeric value.
			return false
		}
		switch f.Op {
		case OpGt:
			return have > want
		case OpGte:
			return have >= want
		case OpLt:
			return have < want
		default:
			return have <= want
		}
	case OpIn, OpNin:
		list, ok := f.Value.([]any)
		if !ok {
			return false
		}
		found := false
		for _, candidate := range list {
			if valuesEqual(val, candidate) {
				found = true
				break
			}
		}
		if f.Op == OpIn {
			return found
		}
		return !found
	default:
		return false
	}
}

func valuesEqual(a, b any) bool {
	if na, ok1 := asNumber(a); ok1 {
		if nb, ok2 := asNumber(b); ok2 {
			return na == nb
		}
		return false
	}
	sa, ok1 := a.(string)
	sb, ok2 := b.(string)
	return ok1 && ok2 && sa == sb
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
