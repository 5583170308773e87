// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// textOperators and numberOperators define which operators each field kind
// accepts. Range comparisons on text fields are rejected.
var (
	textOperators = map[Operator]bool{
		OpEq: true, OpNe: true, OpIn: true, OpNin: true, OpExists: true,
	}
	numberOperators = map[Operator]bool{
		OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
		OpIn: true, OpNin: true, OpExists: true,
	}
)

// ValidateFilter checks a filter tree against the metadata schema.
//
// Validation rules:
//   - every leaf field must exist in MetadataSchema
//   - every operator must be permitted for the field's kind
//   - operands must have the type the operator expects
//
// The zero filter is valid (match-all). Validation fails closed: a filter
// that does not validate must never reach the vector index.
func ValidateFilter(f Filter) error {
	switch {
	case f.IsZero():
		return nil
	case len(f.And) > 0:
		for _, child := range f.And {
			if err := ValidateFilter(child); err != nil {
				return err
			}
		}
		return nil
	case len(f.Or) > 0:
		for _, child := range f.Or {
			if err := ValidateFilter(child); err != nil {
				return err
			}
		}
		return nil
	default:
		return validateLeaf(f)
	}
}

func validateLeaf(f Filter) error {
	kind, ok := MetadataSchema[f.Field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, f.Field)
	}

	allowed := textOperators
	if kind == KindNumber {
		allowed = numberOperators
	}
	if !allowed[f.Op] {
		return fmt.Errorf("%w: %q on field %q", ErrUnknownOperator, f.Op, f.Field)
	}

	switch f.Op {
	case OpExists:
		if _, ok := f.Value.(bool); !ok {
			return fmt.Errorf("%w: %s expects a boolean, field %q", ErrBadOperand, OpExists, f.Field)
		}
	case OpIn, OpNin:
		list, ok := f.Value.([]any)
		if !ok {
			return fmt.Errorf("%w: %s expects an array, field %q", ErrBadOperand, f.Op, f.Field)
		}
		for _, elem := range list {
			if err := validateOperand(kind, elem, f); err != nil {
				return err
			}
		}
	default:
		if err := validateOperand(kind, f.Value, f); err != nil {
			return err
		}
	}
	return nil
}

func validateOperand(kind FieldKind, value any, f Filter) error {
	switch kind {
	case KindNumber:
		if _, ok := asNumber(value); !ok {
			return fmt.Errorf("%w: field %q expects a number", ErrBadOperand, f.Field)
		}
	default:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%w: field %q expects a string", ErrBadOperand, f.Field)
		}
	}
	return nil
}
