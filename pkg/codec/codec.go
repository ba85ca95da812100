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

// Package codec translates the domain model to and from persistence.Document trees.
//
// Every element document carries a "modelType" discriminator. Containers store their
// children in "value", submodels in "submodelElements". Element kinds are resolved
// through an explicit registry of constructors, so adding a kind means adding one
// entry to elementFactories.
package codec

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

const (
	FieldModelType        = "modelType"
	FieldValue            = "value"
	FieldIDShort          = "idShort"
	FieldSubmodelElements = "submodelElements"
)

var elementFactories = map[model.ModelType]func() model.SubmodelElement{
	model.ModelTypeProperty:                  func() model.SubmodelElement { return &model.Property{} },
	model.ModelTypeMultiLanguageProperty:     func() model.SubmodelElement { return &model.MultiLanguageProperty{} },
	model.ModelTypeRange:                     func() model.SubmodelElement { return &model.Range{} },
	model.ModelTypeBlob:                      func() model.SubmodelElement { return &model.Blob{} },
	model.ModelTypeFile:                      func() model.SubmodelElement { return &model.File{} },
	model.ModelTypeReferenceElement:          func() model.SubmodelElement { return &model.ReferenceElement{} },
	model.ModelTypeRelationshipElement:       func() model.SubmodelElement { return &model.RelationshipElement{} },
	model.ModelTypeSubmodelElementCollection: func() model.SubmodelElement { return &model.SubmodelElementCollection{} },
	model.ModelTypeSubmodelElementList:       func() model.SubmodelElement { return &model.SubmodelElementList{} },
	model.ModelTypeEntity:                    func() model.SubmodelElement { return &model.Entity{} },
}

// toDocument converts a struct into a document tree through its JSON form.
func toDocument(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// fromDocument fills v from a document tree.
func fromDocument(doc interface{}, v interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, v)
}

// EncodeElement serializes an element and, recursively, its children.
func EncodeElement(e model.SubmodelElement) (persistence.Document, error) {
	if e == nil {
		return nil, fmt.Errorf("cannot encode nil element")
	}

	doc, err := toDocument(e)
	if err != nil {
		return nil, fmt.Errorf("encoding %s %q: %w", e.ModelType(), e.GetIDShort(), err)
	}

	doc[FieldModelType] = string(e.ModelType())

	if c, ok := e.(model.Container); ok {
		children, err := encodeChildren(c.Children())
		if err != nil {
			return nil, fmt.Errorf("encoding children of %q: %w", e.GetIDShort(), err)
		}

		doc[FieldValue] = children
	}

	return doc, nil
}

func encodeChildren(children []model.SubmodelElement) ([]interface{}, error) {
	out := make([]interface{}, 0, len(children))

	for _, child := range children {
		doc, err := EncodeElement(child)
		if err != nil {
			return nil, err
		}

		out = append(out, map[string]interface{}(doc))
	}

	return out, nil
}

// DecodeElement rebuilds an element from its document.
func DecodeElement(v interface{}) (model.SubmodelElement, error) {
	doc, ok := persistence.AsMap(v)
	if !ok {
		return nil, fmt.Errorf("element document must be an object, got %T", v)
	}

	modelType, _ := doc[FieldModelType].(string)

	factory, known := elementFactories[model.ModelType(modelType)]
	if !known {
		return nil, fmt.Errorf("unknown element model type %q", modelType)
	}

	e := factory()

	c, isContainer := e.(model.Container)
	if isContainer {
		// children are decoded separately
		doc = withoutField(doc, FieldValue)
	}

	if err := fromDocument(doc, e); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", modelType, err)
	}

	if isContainer {
		children, err := decodeChildren(v, FieldValue)
		if err != nil {
			return nil, fmt.Errorf("decoding children of %q: %w", e.GetIDShort(), err)
		}

		c.SetChildren(children)
	}

	return e, nil
}

func decodeChildren(parent interface{}, field string) ([]model.SubmodelElement, error) {
	m, _ := persistence.AsMap(parent)

	raw, present := m[field]
	if !present || raw == nil {
		return nil, nil
	}

	arr, ok := persistence.AsArray(raw)
	if !ok {
		return nil, fmt.Errorf("field %q must be an array, got %T", field, raw)
	}

	if len(arr) == 0 {
		return nil, nil
	}

	out := make([]model.SubmodelElement, 0, len(arr))

	for i, entry := range arr {
		child, err := DecodeElement(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}

		out = append(out, child)
	}

	return out, nil
}

func withoutField(doc map[string]interface{}, field string) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))

	for k, v := range doc {
		if k != field {
			out[k] = v
		}
	}

	return out
}

// EncodeReference returns the document form of a reference, used in filters.
func EncodeReference(r model.Reference) (map[string]interface{}, error) {
	return toDocument(r)
}

// DecodeReference rebuilds a reference from its document form.
func DecodeReference(v interface{}) (model.Reference, error) {
	var r model.Reference

	return r, fromDocument(v, &r)
}

// CloneElement returns a deep copy of e by round-tripping it through its document form.
func CloneElement(e model.SubmodelElement) (model.SubmodelElement, error) {
	doc, err := EncodeElement(e)
	if err != nil {
		return nil, err
	}

	return DecodeElement(doc)
}
