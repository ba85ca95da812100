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

package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/united-manufacturing-hub/twinstore/pkg/codec"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/modifier"
	"github.com/united-manufacturing-hub/twinstore/pkg/paging"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

// identifiableCodec binds an identifiable kind to its collection, its document
// form and its query-modifier view.
type identifiableCodec[T model.Identifiable] struct {
	encode     func(T) (persistence.Document, error)
	decode     func(interface{}) (T, error)
	view       func(T, model.QueryModifier) (T, error)
	collection string
	kind       string
}

var (
	shells = identifiableCodec[*model.AssetAdministrationShell]{
		collection: CollectionShells,
		kind:       "shell",
		encode:     codec.EncodeShell,
		decode:     codec.DecodeShell,
		view:       modifier.ApplyShell,
	}
	submodels = identifiableCodec[*model.Submodel]{
		collection: CollectionSubmodels,
		kind:       "submodel",
		encode:     codec.EncodeSubmodel,
		decode:     codec.DecodeSubmodel,
		view:       modifier.ApplySubmodel,
	}
	conceptDescriptions = identifiableCodec[*model.ConceptDescription]{
		collection: CollectionConceptDescriptions,
		kind:       "concept description",
		encode:     codec.EncodeConceptDescription,
		decode:     codec.DecodeConceptDescription,
		view:       modifier.ApplyConceptDescription,
	}
)

func requireID(kind string, id string) error {
	if strings.TrimSpace(id) == "" {
		return standarderrors.InvalidArgument("%s id must not be blank", kind)
	}

	return nil
}

func getIdentifiable[T model.Identifiable](ctx context.Context, store persistence.Store, c identifiableCodec[T], id string, m model.QueryModifier) (T, error) {
	var zero T

	if err := requireID(c.kind, id); err != nil {
		return zero, err
	}

	doc, err := store.Get(ctx, c.collection, id)
	if err != nil {
		return zero, translateStoreError("get "+c.kind, id, err)
	}

	v, err := c.decode(doc)
	if err != nil {
		return zero, standarderrors.BackingStore("decode "+c.kind, err)
	}

	out, err := c.view(v, m)
	if err != nil {
		return zero, wrapView(err)
	}

	return out, nil
}

// findIdentifiables returns one page of the documents matching q, ordered by id.
func findIdentifiables[T model.Identifiable](ctx context.Context, store persistence.Store, c identifiableCodec[T], q *persistence.Query, m model.QueryModifier, info model.PagingInfo) (model.Page[T], error) {
	q.Sort(persistence.IDField, persistence.Asc)

	if err := paging.Apply(q, info); err != nil {
		return model.Page[T]{}, err
	}

	docs, err := store.Find(ctx, c.collection, *q)
	if err != nil {
		return model.Page[T]{}, standarderrors.BackingStore("find "+c.kind, err)
	}

	page, err := paging.BuildPage(docs, info)
	if err != nil {
		return model.Page[T]{}, err
	}

	out := model.Page[T]{Metadata: page.Metadata, Items: make([]T, 0, len(page.Items))}

	for _, doc := range page.Items {
		v, err := c.decode(doc)
		if err != nil {
			return model.Page[T]{}, standarderrors.BackingStore("decode "+c.kind, err)
		}

		if v, err = c.view(v, m); err != nil {
			return model.Page[T]{}, wrapView(err)
		}

		out.Items = append(out.Items, v)
	}

	return out, nil
}

// saveIdentifiable replaces the document with v's id, or inserts it.
func saveIdentifiable[T model.Identifiable](ctx context.Context, store persistence.Store, c identifiableCodec[T], v T) error {
	if err := requireID(c.kind, v.GetID()); err != nil {
		return err
	}

	doc, err := c.encode(v)
	if err != nil {
		return standarderrors.BackingStore("encode "+c.kind, err)
	}

	if err := store.Upsert(ctx, c.collection, v.GetID(), doc); err != nil {
		return standarderrors.BackingStore("save "+c.kind, err)
	}

	return nil
}

func deleteIdentifiable[T model.Identifiable](ctx context.Context, store persistence.Store, c identifiableCodec[T], id string) error {
	if err := requireID(c.kind, id); err != nil {
		return err
	}

	if err := store.Delete(ctx, c.collection, id); err != nil {
		return translateStoreError("delete "+c.kind, id, err)
	}

	return nil
}

// insertAll inserts every item. Duplicate ids are AlreadyExists.
func insertAll[T model.Identifiable](ctx context.Context, store persistence.Store, c identifiableCodec[T], items []T) error {
	for _, v := range items {
		if err := requireID(c.kind, v.GetID()); err != nil {
			return err
		}

		doc, err := c.encode(v)
		if err != nil {
			return standarderrors.BackingStore("encode "+c.kind, err)
		}

		if _, err := store.Insert(ctx, c.collection, doc); err != nil {
			if errors.Is(err, persistence.ErrConflict) {
				return standarderrors.AlreadyExists(v.GetID())
			}

			return standarderrors.BackingStore("insert "+c.kind, err)
		}
	}

	return nil
}
