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

// Identifiable is a top-level object stored in its own collection, keyed by id.
type Identifiable interface {
	Referable
	GetID() string
}

// AssetAdministrationShell is the digital twin of one asset. It refers to its
// submodels by reference only.
type AssetAdministrationShell struct {
	DerivedFrom      *Reference       `json:"derivedFrom,omitempty"`
	ID               string           `json:"id"`
	Submodels        []Reference      `json:"submodels,omitempty"`
	AssetInformation AssetInformation `json:"assetInformation"`
	Base
}

func (*AssetAdministrationShell) ModelType() ModelType { return ModelTypeAssetAdministrationShell }

// GetID returns the id, or "" for a nil AssetAdministrationShell.
func (a *AssetAdministrationShell) GetID() string {
	if a == nil {
		return ""
	}

	return a.ID
}

type AssetKind string

const (
	AssetKindType     AssetKind = "Type"
	AssetKindInstance AssetKind = "Instance"
)

type AssetInformation struct {
	AssetKind        AssetKind         `json:"assetKind"`
	GlobalAssetID    string            `json:"globalAssetId,omitempty"`
	SpecificAssetIDs []SpecificAssetID `json:"specificAssetIds,omitempty"`
}

type SpecificAssetID struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Submodel is the root container of an element tree.
type Submodel struct {
	SemanticID       *Reference        `json:"semanticId,omitempty"`
	ID               string            `json:"id"`
	Kind             string            `json:"kind,omitempty"`
	SubmodelElements []SubmodelElement `json:"-"`
	Base
}

func (*Submodel) ModelType() ModelType { return ModelTypeSubmodel }

func (s *Submodel) GetID() string {
	if s == nil {
		return ""
	}

	return s.ID
}

func (s *Submodel) GetSemanticID() *Reference { return s.SemanticID }

func (s *Submodel) Children() []SubmodelElement { return s.SubmodelElements }

func (s *Submodel) SetChildren(children []SubmodelElement) { s.SubmodelElements = children }

type ConceptDescription struct {
	ID                         string                      `json:"id"`
	IsCaseOf                   []Reference                 `json:"isCaseOf,omitempty"`
	EmbeddedDataSpecifications []EmbeddedDataSpecification `json:"embeddedDataSpecifications,omitempty"`
	Base
}

func (*ConceptDescription) ModelType() ModelType { return ModelTypeConceptDescription }

func (c *ConceptDescription) GetID() string {
	if c == nil {
		return ""
	}

	return c.ID
}

// EmbeddedDataSpecification attaches a data specification template. Its content is
// kept as an opaque document.
type EmbeddedDataSpecification struct {
	Content           map[string]interface{} `json:"dataSpecificationContent,omitempty"`
	DataSpecification Reference              `json:"dataSpecification"`
}

// Environment bundles the identifiables of one deployment.
type Environment struct {
	AssetAdministrationShells []*AssetAdministrationShell `json:"assetAdministrationShells,omitempty"`
	Submodels                 []*Submodel                 `json:"submodels,omitempty"`
	ConceptDescriptions       []*ConceptDescription       `json:"conceptDescriptions,omitempty"`
}
