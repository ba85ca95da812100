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

// Package memory provides an in-memory implementation of the persistence.Store interface.
//
// This implementation is meant for tests, demos and single-process deployments where data
// does not need to survive a restart. It evaluates the same field paths, positional filters
// and read pipelines the MongoDB backend receives, so the repository behaves identically
// on both.
//
// # Thread Safety
//
// InMemoryStore uses a sync.RWMutex. Read operations (Get, Find, Aggregate, ListCollections)
// acquire read locks, write operations acquire exclusive locks.
//
// # Atomic Updates
//
// UpdateOne, UpdateMany and RemoveAt apply the update to a private copy of each document
// and swap the copy in only if the update succeeded, so a failed update never leaves a
// half-applied document behind.
//
// # Data Isolation
//
// All documents are deep-copied on read and write. Callers can modify returned documents
// freely.
//
// # Ordering
//
// Find without a sort returns documents in insertion order. A replaced document keeps its
// position.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("in-memory store is closed")

// validateContext rejects nil and already cancelled contexts.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}

	return ctx.Err()
}

type collection struct {
	docs  map[string]persistence.Document
	order []string
}

func newCollection() *collection {
	return &collection{docs: make(map[string]persistence.Document)}
}

func (c *collection) put(id string, doc persistence.Document) {
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}

	c.docs[id] = doc
}

func (c *collection) remove(id string) {
	delete(c.docs, id)

	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}
}

// InMemoryStore is a thread-safe in-memory document store implementing
// persistence.Store and persistence.PositionalRemover.
//
// Collections are created automatically when documents are inserted or upserted.
// Read operations on a missing collection behave like reads on an empty one.
type InMemoryStore struct {
	collections map[string]*collection
	mu          sync.RWMutex
	closed      bool
}

var (
	_ persistence.Store             = (*InMemoryStore)(nil)
	_ persistence.PositionalRemover = (*InMemoryStore)(nil)
)

// NewInMemoryStore creates a new empty in-memory document store.
//
// Example:
//
//	store := memory.NewInMemoryStore()
//	_, err := store.Insert(ctx, "submodels", persistence.Document{"id": "S1", "submodelElements": []interface{}{}})
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		collections: make(map[string]*collection),
	}
}

func (s *InMemoryStore) check(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if s.closed {
		return ErrClosed
	}

	return nil
}

// CreateCollection creates a new empty collection.
//
// Returns persistence.ErrConflict if the collection already exists.
func (s *InMemoryStore) CreateCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return err
	}

	if _, exists := s.collections[name]; exists {
		return fmt.Errorf("collection %q: %w", name, persistence.ErrConflict)
	}

	s.collections[name] = newCollection()

	return nil
}

// DropCollection removes a collection and all its documents.
//
// Returns persistence.ErrNotFound if the collection does not exist.
func (s *InMemoryStore) DropCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return err
	}

	if _, exists := s.collections[name]; !exists {
		return fmt.Errorf("collection %q: %w", name, persistence.ErrNotFound)
	}

	delete(s.collections, name)

	return nil
}

// ListCollections returns the collection names in lexical order.
func (s *InMemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// Insert stores a deep copy of doc.
//
// Returns an error if doc has no string "id" field, or persistence.ErrConflict if a
// document with the same id exists.
func (s *InMemoryStore) Insert(ctx context.Context, collectionName string, doc persistence.Document) (string, error) {
	id := doc.ID()
	if id == "" {
		return "", errors.New("document must have a non-empty string 'id' field")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return "", err
	}

	coll := s.ensureCollection(collectionName)
	if _, exists := coll.docs[id]; exists {
		return "", fmt.Errorf("document %q in %q: %w", id, collectionName, persistence.ErrConflict)
	}

	coll.put(id, doc.Clone())

	return id, nil
}

// Get returns a deep copy of the document with the given id.
func (s *InMemoryStore) Get(ctx context.Context, collectionName string, id string) (persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	coll, exists := s.collections[collectionName]
	if !exists {
		return nil, fmt.Errorf("document %q in %q: %w", id, collectionName, persistence.ErrNotFound)
	}

	doc, exists := coll.docs[id]
	if !exists {
		return nil, fmt.Errorf("document %q in %q: %w", id, collectionName, persistence.ErrNotFound)
	}

	return doc.Clone(), nil
}

// Upsert replaces the document with the given id or inserts it.
func (s *InMemoryStore) Upsert(ctx context.Context, collectionName string, id string, doc persistence.Document) error {
	if id == "" {
		return errors.New("id must not be empty")
	}

	stored := doc.Clone()
	if stored == nil {
		stored = persistence.Document{}
	}

	stored[persistence.IDField] = id

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return err
	}

	s.ensureCollection(collectionName).put(id, stored)

	return nil
}

// Delete removes the document with the given id.
func (s *InMemoryStore) Delete(ctx context.Context, collectionName string, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return err
	}

	coll, exists := s.collections[collectionName]
	if !exists {
		return fmt.Errorf("document %q in %q: %w", id, collectionName, persistence.ErrNotFound)
	}

	if _, exists := coll.docs[id]; !exists {
		return fmt.Errorf("document %q in %q: %w", id, collectionName, persistence.ErrNotFound)
	}

	coll.remove(id)

	return nil
}

// Find returns deep copies of the documents matching query.
func (s *InMemoryStore) Find(ctx context.Context, collectionName string, query persistence.Query) ([]persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	coll, exists := s.collections[collectionName]
	if !exists {
		return []persistence.Document{}, nil
	}

	var hits []persistence.Document

	for _, id := range coll.order {
		doc := coll.docs[id]

		ok, err := matchesQuery(doc, query)
		if err != nil {
			return nil, err
		}

		if ok {
			hits = append(hits, doc)
		}
	}

	sortDocuments(hits, query.SortBy)

	if query.SkipCount > 0 {
		if query.SkipCount >= len(hits) {
			hits = nil
		} else {
			hits = hits[query.SkipCount:]
		}
	}

	if query.LimitCount > 0 && query.LimitCount < len(hits) {
		hits = hits[:query.LimitCount]
	}

	out := make([]persistence.Document, 0, len(hits))
	for _, doc := range hits {
		out = append(out, doc.Clone())
	}

	return out, nil
}

func sortDocuments(docs []persistence.Document, by []persistence.SortField) {
	if len(by) == 0 {
		return
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range by {
			path := splitField(f.Field)
			a, _ := lookup(docs[i], path)
			b, _ := lookup(docs[j], path)

			if c := compareValues(a, b); c != 0 {
				return (c < 0) == (f.Order != persistence.Desc)
			}
		}

		return false
	})
}

// UpdateOne applies update to the document with the given id. A missing document
// yields an empty result, not an error.
func (s *InMemoryStore) UpdateOne(ctx context.Context, collectionName string, id string, update persistence.Update) (persistence.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return persistence.UpdateResult{}, err
	}

	return s.updateLocked(collectionName, id, func(doc persistence.Document) (bool, error) {
		return applyUpdate(doc, update)
	})
}

// UpdateMany applies update to every document matching query.
func (s *InMemoryStore) UpdateMany(ctx context.Context, collectionName string, query persistence.Query, update persistence.Update) (persistence.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return persistence.UpdateResult{}, err
	}

	coll, exists := s.collections[collectionName]
	if !exists {
		return persistence.UpdateResult{}, nil
	}

	var total persistence.UpdateResult

	for _, id := range append([]string(nil), coll.order...) {
		ok, err := matchesQuery(coll.docs[id], query)
		if err != nil {
			return total, err
		}

		if !ok {
			continue
		}

		res, err := s.updateLocked(collectionName, id, func(doc persistence.Document) (bool, error) {
			return applyUpdate(doc, update)
		})
		if err != nil {
			return total, err
		}

		total.Matched += res.Matched
		total.Modified += res.Modified
	}

	return total, nil
}

// RemoveAt removes position index of the array at field in one step.
func (s *InMemoryStore) RemoveAt(ctx context.Context, collectionName string, id string, field string, index int, filters []persistence.PositionalFilter) (persistence.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(ctx); err != nil {
		return persistence.UpdateResult{}, err
	}

	return s.updateLocked(collectionName, id, func(doc persistence.Document) (bool, error) {
		return applyAt(doc, field, filters, removeAtOp(index))
	})
}

// updateLocked runs mutate on a copy of the document and stores the copy if it
// changed. Callers hold the write lock.
func (s *InMemoryStore) updateLocked(collectionName string, id string, mutate func(persistence.Document) (bool, error)) (persistence.UpdateResult, error) {
	coll, exists := s.collections[collectionName]
	if !exists {
		return persistence.UpdateResult{}, nil
	}

	doc, exists := coll.docs[id]
	if !exists {
		return persistence.UpdateResult{}, nil
	}

	working := doc.Clone()

	modified, err := mutate(working)
	if err != nil {
		return persistence.UpdateResult{}, fmt.Errorf("update of %q in %q: %w", id, collectionName, err)
	}

	res := persistence.UpdateResult{Matched: 1}
	if modified {
		coll.docs[id] = working
		res.Modified = 1
	}

	return res, nil
}

// Aggregate runs pipeline over deep copies of the collection's documents.
func (s *InMemoryStore) Aggregate(ctx context.Context, collectionName string, pipeline persistence.Pipeline) ([]persistence.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.check(ctx); err != nil {
		return nil, err
	}

	coll, exists := s.collections[collectionName]
	if !exists {
		return []persistence.Document{}, nil
	}

	docs := make([]persistence.Document, 0, len(coll.order))
	for _, id := range coll.order {
		docs = append(docs, coll.docs[id].Clone())
	}

	return runPipeline(docs, pipeline)
}

// Ping fails only after Close.
func (s *InMemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.check(ctx)
}

// Close marks the store as closed. The data is released.
func (s *InMemoryStore) Close(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.collections = make(map[string]*collection)

	return nil
}

func (s *InMemoryStore) ensureCollection(name string) *collection {
	coll, exists := s.collections[name]
	if !exists {
		coll = newCollection()
		s.collections[name] = coll
	}

	return coll
}
