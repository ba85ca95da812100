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

// Package persistence defines the document store contract the engine runs on.
//
// The contract is backend-neutral but follows MongoDB semantics closely: documents
// are JSON-like trees, every document carries a unique "id" field, partial updates
// address nested array entries through positional filters, and reads can run a
// small aggregation pipeline ($match, $unwind, $skip, $limit).
//
// Two backends implement it: memory (in-process) and mongo (MongoDB).
package persistence

import (
	"context"
)

// Document is a JSON-like tree. Nested objects are map[string]interface{} (or
// Document), arrays are []interface{}.
type Document map[string]interface{}

// IDField is the key every stored document is addressed by.
const IDField = "id"

// ID returns the document's id field, or "" if it is missing or not a string.
func (d Document) ID() string {
	id, _ := d[IDField].(string)

	return id
}

// UpdateResult reports how many documents an update touched.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// Store is the document store the engine runs on.
//
// DESIGN DECISION: Single-document operations only, no transactions
// WHY: Every element mutation is scoped to one submodel document, and document
// stores guarantee atomic visibility for single-document updates. Nothing in the
// engine needs a cross-document transaction.
//
// Error contract:
//   - Get and Delete return ErrNotFound for unknown ids.
//   - Insert returns ErrConflict for a duplicate id.
//   - CreateCollection returns ErrConflict for an existing collection.
//   - DropCollection returns ErrNotFound for a missing collection.
//   - Every other failure is returned wrapped and is not retried.
type Store interface {
	// CreateCollection creates an empty collection keyed by a unique "id".
	CreateCollection(ctx context.Context, name string) error

	// DropCollection removes a collection and all its documents.
	DropCollection(ctx context.Context, name string) error

	// ListCollections returns the names of all existing collections.
	ListCollections(ctx context.Context) ([]string, error)

	// Insert stores a new document and returns its id.
	Insert(ctx context.Context, collection string, doc Document) (string, error)

	// Get returns the document with the given id.
	Get(ctx context.Context, collection string, id string) (Document, error)

	// Upsert replaces the document with the given id, or inserts it.
	Upsert(ctx context.Context, collection string, id string, doc Document) error

	// Delete removes the document with the given id.
	Delete(ctx context.Context, collection string, id string) error

	// Find returns all documents matching query, in query order.
	// A missing collection yields no documents.
	Find(ctx context.Context, collection string, query Query) ([]Document, error)

	// UpdateOne applies update to the document with the given id.
	UpdateOne(ctx context.Context, collection string, id string, update Update) (UpdateResult, error)

	// UpdateMany applies update to every document matching query.
	UpdateMany(ctx context.Context, collection string, query Query, update Update) (UpdateResult, error)

	// Aggregate runs a read pipeline over the collection.
	Aggregate(ctx context.Context, collection string, pipeline Pipeline) ([]Document, error)

	// Ping verifies that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection. The store must not be used afterwards.
	Close(ctx context.Context) error
}

// PositionalRemover is implemented by stores that can remove an array entry by
// position in one atomic update. Stores without it get the marker-and-pull
// fallback of the repository.
type PositionalRemover interface {
	// RemoveAt removes entry index of the array at field (positional placeholders
	// resolved through filters) in the document with the given id.
	RemoveAt(ctx context.Context, collection string, id string, field string, index int, filters []PositionalFilter) (UpdateResult, error)
}

// Sentinel errors returned by stores.
var (
	ErrNotFound = &storeError{msg: "not found"}
	ErrConflict = &storeError{msg: "conflict"}
)

type storeError struct {
	msg string
}

func (e *storeError) Error() string {
	return e.msg
}
