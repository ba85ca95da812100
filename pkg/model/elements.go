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

package model

// ModelType is the discriminator written next to every stored element.
type ModelType string

const (
	ModelTypeAssetAdministrationShell  ModelType = "AssetAdministrationShell"
	ModelTypeSubmodel                  ModelType = "Submodel"
	ModelTypeConceptDescription        ModelType = "ConceptDescription"
	ModelTypeProperty                  ModelType = "Property"
	ModelTypeMultiLanguageProperty     ModelType = "MultiLanguageProperty"
	ModelTypeRange                     ModelType = "Range"
	ModelTypeBlob                      ModelType = "Blob"
	ModelTypeFile                      ModelType = "File"
	ModelTypeReferenceElement          ModelType = "ReferenceElement"
	ModelTypeRelationshipElement       ModelType = "RelationshipElement"
	ModelTypeSubmodelElementCollection ModelType = "SubmodelElementCollection"
	ModelTypeSubmodelElementList       ModelType = "SubmodelElementList"
	ModelTypeEntity                    ModelType = "Entity"
)

// ContainerKinds lists the model types that may own children.
var ContainerKinds = []string{
	string(ModelTypeSubmodel),
	string(ModelTypeSubmodelElementCollection),
	string(ModelTypeSubmodelElementList),
	string(ModelTypeEntity),
}

// Base holds the attributes shared by every identifiable.
type Base struct {
	IDShort     string       `json:"idShort,omitempty"`
	Category    string       `json:"category,omitempty"`
	DisplayName []LangString `json:"displayName,omitempty"`
	Description []LangString `json:"description,omitempty"`
}

func (b *Base) GetIDShort() string { return b.IDShort }

func (b *Base) GetBase() *Base { return b }

// Referable is anything that carries an idShort.
type Referable interface {
	GetIDShort() string
	ModelType() ModelType
}

// ElementBase is embedded by every submodel element kind. It repeats the fields of
// Base instead of embedding it: go-json cannot encode an embedded struct that
// itself embeds a struct after a pointer field.
type ElementBase struct {
	SemanticID  *Reference   `json:"semanticId,omitempty"`
	IDShort     string       `json:"idShort,omitempty"`
	Category    string       `json:"category,omitempty"`
	DisplayName []LangString `json:"displayName,omitempty"`
	Description []LangString `json:"description,omitempty"`
}

func (e *ElementBase) GetIDShort() string { return e.IDShort }

func (e *ElementBase) GetSemanticID() *Reference { return e.SemanticID }

func (e *ElementBase) GetElementBase() *ElementBase { return e }

// StripDescriptive clears category, display name and description.
func (e *ElementBase) StripDescriptive() {
	e.Category = ""
	e.DisplayName = nil
	e.Description = nil
}

// SubmodelElement is a node of the element tree below a submodel.
type SubmodelElement interface {
	Referable
	GetSemanticID() *Reference
	GetElementBase() *ElementBase
}

// Container is a referable that owns child elements: Submodel,
// SubmodelElementCollection, SubmodelElementList and Entity.
type Container interface {
	Referable
	Children() []SubmodelElement
	SetChildren(children []SubmodelElement)
}

// IsContainer reports whether r may own children.
func IsContainer(r Referable) bool {
	_, ok := r.(Container)

	return ok
}

type Property struct {
	ValueType string `json:"valueType"`
	Value     string `json:"value,omitempty"`
	ElementBase
}

func (*Property) ModelType() ModelType { return ModelTypeProperty }

type MultiLanguageProperty struct {
	Value []LangString `json:"value,omitempty"`
	ElementBase
}

func (*MultiLanguageProperty) ModelType() ModelType { return ModelTypeMultiLanguageProperty }

type Range struct {
	ValueType string `json:"valueType"`
	Min       string `json:"min,omitempty"`
	Max       string `json:"max,omitempty"`
	ElementBase
}

func (*Range) ModelType() ModelType { return ModelTypeRange }

// Blob carries binary content inline. Value is serialized as base64.
type Blob struct {
	ContentType string `json:"contentType"`
	Value       []byte `json:"value,omitempty"`
	ElementBase
}

func (*Blob) ModelType() ModelType { return ModelTypeBlob }

type File struct {
	ContentType string `json:"contentType"`
	Value       string `json:"value,omitempty"`
	ElementBase
}

func (*File) ModelType() ModelType { return ModelTypeFile }

type ReferenceElement struct {
	Value *Reference `json:"value,omitempty"`
	ElementBase
}

func (*ReferenceElement) ModelType() ModelType { return ModelTypeReferenceElement }

type RelationshipElement struct {
	First  *Reference `json:"first,omitempty"`
	Second *Reference `json:"second,omitempty"`
	ElementBase
}

func (*RelationshipElement) ModelType() ModelType { return ModelTypeRelationshipElement }

// SubmodelElementCollection groups children addressed by idShort.
type SubmodelElementCollection struct {
	Value []SubmodelElement `json:"-"`
	ElementBase
}

func (*SubmodelElementCollection) ModelType() ModelType {
	return ModelTypeSubmodelElementCollection
}

func (c *SubmodelElementCollection) Children() []SubmodelElement { return c.Value }

func (c *SubmodelElementCollection) SetChildren(children []SubmodelElement) { c.Value = children }

// SubmodelElementList is an ordered container. Its children are addressed by index
// and need not have unique idShorts.
type SubmodelElementList struct {
	SemanticIDListElement *Reference        `json:"semanticIdListElement,omitempty"`
	TypeValueListElement  ModelType         `json:"typeValueListElement"`
	ValueTypeListElement  string            `json:"valueTypeListElement,omitempty"`
	Value                 []SubmodelElement `json:"-"`
	ElementBase
	OrderRelevant bool `json:"orderRelevant"`
}

func (*SubmodelElementList) ModelType() ModelType { return ModelTypeSubmodelElementList }

func (l *SubmodelElementList) Children() []SubmodelElement { return l.Value }

func (l *SubmodelElementList) SetChildren(children []SubmodelElement) { l.Value = children }

type EntityType string

const (
	CoManagedEntity   EntityType = "CoManagedEntity"
	SelfManagedEntity EntityType = "SelfManagedEntity"
)

// Entity describes an asset together with statements about it. The statements are
// its children.
type Entity struct {
	EntityType    EntityType        `json:"entityType"`
	GlobalAssetID string            `json:"globalAssetId,omitempty"`
	Statements    []SubmodelElement `json:"-"`
	ElementBase
}

func (*Entity) ModelType() ModelType { return ModelTypeEntity }

func (e *Entity) Children() []SubmodelElement { return e.Statements }

func (e *Entity) SetChildren(children []SubmodelElement) { e.Statements = children }
