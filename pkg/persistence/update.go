// Copyright 2025 UMH Systems GmbH
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

package persistence

import (
	"strings"
)

// UpdateOperator is the kind of partial-document update.
type UpdateOperator string

const (
	// OpSet replaces the value at Field.
	OpSet UpdateOperator = "$set"
	// OpPush appends Value to the array at Field.
	OpPush UpdateOperator = "$push"
	// OpPull removes entries of the array at Field that equal Value, or that match
	// all Match conditions when Match is set.
	OpPull UpdateOperator = "$pull"
)

// PositionalFilter binds a placeholder "$[Name]" in an update field to the array
// entries whose Key equals Value, like a MongoDB arrayFilter
// {"<Name>.<Key>": Value}.
type PositionalFilter struct {
	Value interface{}
	Name  string
	Key   string
}

// Placeholder returns the field segment "$[Name]".
func (f PositionalFilter) Placeholder() string {
	return "$[" + f.Name + "]"
}

// PlaceholderName returns the filter name of a "$[name]" field segment.
func PlaceholderName(segment string) (string, bool) {
	if strings.HasPrefix(segment, "$[") && strings.HasSuffix(segment, "]") && len(segment) > 3 {
		return segment[2 : len(segment)-1], true
	}

	return "", false
}

// Update is a single partial-document update.
//
// Field uses dot notation. Numeric segments address array positions, "$[name]"
// segments address the array entries selected by the positional filter of that
// name.
type Update struct {
	Value        interface{}
	Operator     UpdateOperator
	Field        string
	Match        []FilterCondition
	ArrayFilters []PositionalFilter
}

// Set replaces the value at field.
func Set(field string, value interface{}) Update {
	return Update{Operator: OpSet, Field: field, Value: value}
}

// Push appends value to the array at field.
func Push(field string, value interface{}) Update {
	return Update{Operator: OpPush, Field: field, Value: value}
}

// PullEqual removes every entry of the array at field that equals value.
func PullEqual(field string, value interface{}) Update {
	return Update{Operator: OpPull, Field: field, Value: value}
}

// PullWhere removes every entry of the array at field that matches all conditions.
// Condition fields are relative to the entry.
func PullWhere(field string, conditions ...FilterCondition) Update {
	return Update{Operator: OpPull, Field: field, Match: conditions}
}

// WithArrayFilters returns a copy of u bound to filters.
func (u Update) WithArrayFilters(filters ...PositionalFilter) Update {
	u.ArrayFilters = append(append([]PositionalFilter(nil), u.ArrayFilters...), filters...)

	return u
}
