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

import "errors"

// Domain validation errors
var (
	// ErrInvalidFilter indicates a metadata filter failed validation.
	ErrInvalidFilter = errors.New("invalid metadata filter")

	// ErrUnknownField indicates a filter references a field outside the metadata schema.
	ErrUnknownField = errors.New("unknown metadata field")

	// ErrUnknownOperator indicates a filter uses an operator outside the permitted set.
	ErrUnknownOperator = errors.New("unknown filter operator")

	// ErrBadOperand indicates an operator was given an operand of the wrong type.
	ErrBadOperand = errors.New("bad filter operand")
)
