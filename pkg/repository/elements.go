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
	"fmt"
	"strings"

	"github.com/united-manufacturing-hub/twinstore/pkg/codec"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

// Collection names.
const (
	CollectionShells              = "assetAdministrationShells"
	CollectionSubmodels           = "submodels"
	CollectionConceptDescriptions = "conceptDescriptions"
	CollectionOperationResults    = "operationResults"
)

// Collections lists every collection the repository owns.
var Collections = []string{
	CollectionShells,
	CollectionSubmodels,
	CollectionConceptDescriptions,
	CollectionOperationResults,
}

// ElementEngine reads and mutates single elements inside submodel documents. Every
// mutation is one partial update of one submodel document.
type ElementEngine struct {
	store   persistence.Store
	markers MarkerGenerator
}

func NewElementEngine(store persistence.Store, markers MarkerGenerator) *ElementEngine {
	if markers == nil {
		markers = NewRandomMarkerGenerator()
	}

	return &ElementEngine{store: store, markers: markers}
}

// Fetch returns the submodel for an empty path, otherwise the addressed element.
func (e *ElementEngine) Fetch(ctx context.Context, id model.ElementIdentifier) (model.Referable, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	if id.IsSubmodel() {
		doc, err := e.store.Get(ctx, CollectionSubmodels, id.SubmodelID)
		if err != nil {
			return nil, translateStoreError("get submodel", id.String(), err)
		}

		sm, err := codec.DecodeSubmodel(doc)
		if err != nil {
			return nil, standarderrors.BackingStore("decode submodel", err)
		}

		return sm, nil
	}

	raw, err := e.fetchDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	element, err := codec.DecodeElement(raw)
	if err != nil {
		return nil, standarderrors.BackingStore("decode element", err)
	}

	return element, nil
}

// FetchElement returns the element addressed by a non-empty path.
func (e *ElementEngine) FetchElement(ctx context.Context, id model.ElementIdentifier) (model.SubmodelElement, error) {
	if id.Path.IsEmpty() {
		return nil, standarderrors.InvalidArgument("element path of %q must not be empty", id.SubmodelID)
	}

	node, err := e.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	return node.(model.SubmodelElement), nil
}

// fetchDocument runs the read pipeline and returns the raw element document.
func (e *ElementEngine) fetchDocument(ctx context.Context, id model.ElementIdentifier) (map[string]interface{}, error) {
	docs, err := e.store.Aggregate(ctx, CollectionSubmodels, BuildReadPipeline(id))
	if err != nil {
		return nil, translateStoreError("read element", id.String(), err)
	}

	if len(docs) == 0 {
		return nil, standarderrors.NotFound(id.String())
	}

	raw, ok := descend(docs[0], id.Path.Len())
	if !ok {
		return nil, standarderrors.NotFound(id.String())
	}

	return raw, nil
}

func (e *ElementEngine) exists(ctx context.Context, id model.ElementIdentifier) error {
	_, err := e.fetchDocument(ctx, id)

	return err
}

// Insert adds element as the last child of parent.
func (e *ElementEngine) Insert(ctx context.Context, parent model.ElementIdentifier, element model.SubmodelElement) error {
	if element == nil {
		return standarderrors.InvalidArgument("element must not be nil")
	}

	node, err := e.Fetch(ctx, parent)
	if err != nil {
		return err
	}

	container, ok := node.(model.Container)
	if !ok {
		return standarderrors.NotAContainer(parent.String(), string(node.ModelType()), model.ContainerKinds...)
	}

	if _, isList := container.(*model.SubmodelElementList); !isList {
		idShort := element.GetIDShort()
		if strings.TrimSpace(idShort) == "" {
			return standarderrors.InvalidArgument("idShort of a new child of %s must not be blank", parent)
		}

		candidate := parent.Child(model.Key(idShort))
		for _, child := range container.Children() {
			if parent.Child(model.Key(child.GetIDShort())).Equal(candidate) {
				return standarderrors.AlreadyExists(candidate.String())
			}
		}
	}

	doc, err := codec.EncodeElement(element)
	if err != nil {
		return standarderrors.BackingStore("encode element", err)
	}

	compiled := CompilePath(parent.Path, codec.FieldSubmodelElements)
	update := persistence.Push(compiled.ChildArray(), map[string]interface{}(doc)).WithArrayFilters(compiled.Filters...)

	res, err := e.store.UpdateOne(ctx, CollectionSubmodels, parent.SubmodelID, update)
	if err != nil {
		return translateStoreError("insert element", parent.String(), err)
	}

	if res.Modified == 0 {
		// removed between the fetch and the push
		return standarderrors.NotFound(parent.String())
	}

	return nil
}

// Update replaces the element at id. A blank idShort is taken from a final key
// segment; a different idShort is rejected.
func (e *ElementEngine) Update(ctx context.Context, id model.ElementIdentifier, element model.SubmodelElement) error {
	if err := id.Validate(); err != nil {
		return err
	}

	if id.Path.IsEmpty() {
		return standarderrors.InvalidArgument("element path of %q must not be empty", id.SubmodelID)
	}

	if element == nil {
		return standarderrors.InvalidArgument("element must not be nil")
	}

	// setting a position past the end would pad the array with nulls
	if id.Path.HasIndex() {
		if err := e.exists(ctx, id); err != nil {
			return err
		}
	}

	doc, err := codec.EncodeElement(element)
	if err != nil {
		return standarderrors.BackingStore("encode element", err)
	}

	if last := id.Path.Last(); !last.IsIndex() {
		switch element.GetIDShort() {
		case "":
			doc[codec.FieldIDShort] = last.Key()
		case last.Key():
		default:
			return standarderrors.InvalidArgument("idShort %q does not match the addressed key %q", element.GetIDShort(), last.Key())
		}
	}

	compiled := CompilePath(id.Path, codec.FieldSubmodelElements)
	update := persistence.Set(compiled.Field, map[string]interface{}(doc)).WithArrayFilters(compiled.Filters...)

	res, err := e.store.UpdateOne(ctx, CollectionSubmodels, id.SubmodelID, update)
	if err != nil {
		return translateStoreError("update element", id.String(), err)
	}

	if res.Modified == 0 {
		// identical content is a successful no-op
		return e.exists(ctx, id)
	}

	return nil
}

// Save updates the element at id, or inserts it below id.Parent() if it does not
// exist. Positions past the end of a list are not created.
func (e *ElementEngine) Save(ctx context.Context, id model.ElementIdentifier, element model.SubmodelElement) error {
	err := e.Update(ctx, id, element)
	if !standarderrors.IsNotFound(err) {
		return err
	}

	last := id.Path.Last()
	if last.IsIndex() {
		return err
	}

	if element.GetIDShort() == "" {
		clone, cloneErr := codec.CloneElement(element)
		if cloneErr != nil {
			return standarderrors.BackingStore("copy element", cloneErr)
		}

		clone.GetElementBase().IDShort = last.Key()
		element = clone
	}

	return e.Insert(ctx, id.Parent(), element)
}

// Delete removes the element at id.
func (e *ElementEngine) Delete(ctx context.Context, id model.ElementIdentifier) error {
	if err := id.Validate(); err != nil {
		return err
	}

	if id.Path.IsEmpty() {
		return standarderrors.InvalidArgument("element path of %q must not be empty", id.SubmodelID)
	}

	parent := CompilePath(id.Path.Parent(), codec.FieldSubmodelElements)
	last := id.Path.Last()

	if !last.IsIndex() {
		update := persistence.PullWhere(parent.ChildArray(),
			persistence.Where(codec.FieldIDShort, persistence.Eq, last.Key()),
		).WithArrayFilters(parent.Filters...)

		return e.expectModified(ctx, id, "delete element", update)
	}

	if err := e.exists(ctx, id); err != nil {
		return err
	}

	if remover, ok := e.store.(persistence.PositionalRemover); ok {
		res, err := remover.RemoveAt(ctx, CollectionSubmodels, id.SubmodelID, parent.ChildArray(), last.Index(), parent.Filters)
		if err != nil {
			return translateStoreError("delete element", id.String(), err)
		}

		if res.Modified == 0 {
			return standarderrors.NotFound(id.String())
		}

		return nil
	}

	return e.deleteByMarker(ctx, id, parent, last.Index())
}

// deleteByMarker removes a list entry in two updates: overwrite it with a unique
// marker, then pull the marker. A failure between both steps leaves the marker in
// the list; the returned error names it.
func (e *ElementEngine) deleteByMarker(ctx context.Context, id model.ElementIdentifier, parent CompiledPath, index int) error {
	marker := e.markers.NextMarker()
	array := parent.ChildArray()

	mark := persistence.Set(fmt.Sprintf("%s.%d", array, index), marker).WithArrayFilters(parent.Filters...)
	if err := e.expectModified(ctx, id, "mark element", mark); err != nil {
		return err
	}

	pull := persistence.PullEqual(array, marker).WithArrayFilters(parent.Filters...)

	res, err := e.store.UpdateOne(ctx, CollectionSubmodels, id.SubmodelID, pull)
	if err == nil && res.Modified == 0 {
		err = errors.New("marker not found")
	}

	if err != nil {
		return standarderrors.BackingStore("delete element",
			fmt.Errorf("marker %q left at %s: %w", marker, id, err))
	}

	return nil
}

func (e *ElementEngine) expectModified(ctx context.Context, id model.ElementIdentifier, op string, update persistence.Update) error {
	res, err := e.store.UpdateOne(ctx, CollectionSubmodels, id.SubmodelID, update)
	if err != nil {
		return translateStoreError(op, id.String(), err)
	}

	if res.Modified == 0 {
		return standarderrors.NotFound(id.String())
	}

	return nil
}

// Children returns the children of the container at parent whose semanticId
// equals semanticID, or all children if semanticID is nil.
func (e *ElementEngine) Children(ctx context.Context, parent model.ElementIdentifier, semanticID *model.Reference) ([]model.SubmodelElement, error) {
	node, err := e.Fetch(ctx, parent)
	if err != nil {
		return nil, err
	}

	container, ok := node.(model.Container)
	if !ok {
		return nil, standarderrors.NotAContainer(parent.String(), string(node.ModelType()), model.ContainerKinds...)
	}

	out := make([]model.SubmodelElement, 0, len(container.Children()))

	for _, child := range container.Children() {
		if semanticID == nil || semanticID.Equal(child.GetSemanticID()) {
			out = append(out, child)
		}
	}

	return out, nil
}

// translateStoreError maps the store's not-found to NotFound(resource) and wraps
// everything else as a backing store failure.
func translateStoreError(op string, resource string, err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return standarderrors.NotFound(resource)
	}

	return standarderrors.BackingStore(op, err)
}
