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

// Operator represents MongoDB-style query operators for filtering documents.
//
// DESIGN DECISION: Use MongoDB-style operators ($eq, $in, $elemMatch)
// WHY: The engine targets document stores with array matching. Keeping the operator
// names of the reference backend makes the mongo translation a one-to-one mapping,
// and the in-memory backend documents the same semantics in Go.
//
// Field names use dot notation. A path that crosses an array matches if any element
// along it matches, as in MongoDB:
//
//	query := persistence.NewQuery().
//	    Filter("idShort", persistence.Eq, "Nameplate").
//	    Filter("assetInformation.globalAssetId", persistence.In, []interface{}{"urn:a", "urn:b"})
type Operator string

const (
	Eq  Operator = "$eq"  // Equal: field == value (any element for arrays)
	Ne  Operator = "$ne"  // Not equal: no element equals value
	In  Operator = "$in"  // In array: field IN (value1, value2, ...)
	Nin Operator = "$nin" // Not in array: field NOT IN (value1, value2, ...)
	// ElemMatch requires one array element to satisfy all nested conditions.
	// Value is a []FilterCondition with fields relative to the element.
	ElemMatch Operator = "$elemMatch"
	// Size matches arrays of exactly Value (int) entries.
	Size Operator = "$size"
)

// FilterCondition represents a single filter criterion for querying documents.
//
// Example:
//
//	condition := FilterCondition{
//	    Field: "semanticId",
//	    Op:    persistence.Eq,
//	    Value: map[string]interface{}{"type": "ExternalReference", "keys": [...]},
//	}
//	// Translates to MongoDB: {semanticId: {$eq: {...}}}
type FilterCondition struct {
	Value interface{}
	Field string
	Op    Operator
}

// Where is a shorthand for FilterCondition{field, op, value}.
func Where(field string, op Operator, value interface{}) FilterCondition {
	return FilterCondition{Field: field, Op: op, Value: value}
}

// SortOrder represents sort direction (1 ascending, -1 descending, as in MongoDB).
type SortOrder int

const (
	Asc  SortOrder = 1
	Desc SortOrder = -1
)

// SortField represents a field to sort by and its direction.
type SortField struct {
	Field string
	Order SortOrder
}

// Query represents filtering, sorting, and pagination criteria for finding documents.
//
// DESIGN DECISION: Builder pattern with method chaining
// WHY: Search criteria are translated field by field, and each set criterion adds
// one condition. Chaining keeps that translation linear.
//
// Filters are AND-ed. AnyOf adds a disjunction: at least one group must match all
// of its conditions. The disjunction is AND-ed with Filters.
//
// Pagination uses Skip/Limit. The paging engine turns opaque cursors into offsets
// and over-fetches one document to detect whether more data exists.
type Query struct {
	Filters    []FilterCondition
	AnyOf      [][]FilterCondition
	SortBy     []SortField
	LimitCount int
	SkipCount  int
}

// NewQuery creates an empty query builder. An empty query matches every document.
func NewQuery() *Query {
	return &Query{}
}

// Filter adds a filter condition to the query. Multiple calls create AND conditions.
func (q *Query) Filter(field string, op Operator, value interface{}) *Query {
	q.Filters = append(q.Filters, FilterCondition{
		Field: field,
		Op:    op,
		Value: value,
	})

	return q
}

// Or requires at least one of groups to match. Calling Or with no groups is a no-op.
//
// Example:
//
//	// (name == "serial" AND value == "42") OR (name == "batch" AND value == "7")
//	query.Or(
//	    []persistence.FilterCondition{persistence.Where("name", persistence.Eq, "serial"), ...},
//	    []persistence.FilterCondition{persistence.Where("name", persistence.Eq, "batch"), ...},
//	)
func (q *Query) Or(groups ...[]FilterCondition) *Query {
	q.AnyOf = append(q.AnyOf, groups...)

	return q
}

// Sort adds a sort field to the query. The first Sort is the primary key.
func (q *Query) Sort(field string, order SortOrder) *Query {
	q.SortBy = append(q.SortBy, SortField{
		Field: field,
		Order: order,
	})

	return q
}

// Limit sets the maximum number of documents to return. 0 means no limit; negative
// values are treated as 0.
func (q *Query) Limit(count int) *Query {
	if count < 0 {
		count = 0
	}

	q.LimitCount = count

	return q
}

// Skip sets the number of documents to skip before returning results.
//
// PERFORMANCE NOTE: the store still scans the skipped documents. Deep cursors on
// very large collections are slow.
func (q *Query) Skip(count int) *Query {
	if count < 0 {
		count = 0
	}

	q.SkipCount = count

	return q
}
