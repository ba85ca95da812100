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

type ReferenceType string

const (
	ExternalReference ReferenceType = "ExternalReference"
	ModelReference    ReferenceType = "ModelReference"
)

type KeyType string

const (
	KeyTypeAssetAdministrationShell KeyType = "AssetAdministrationShell"
	KeyTypeSubmodel                 KeyType = "Submodel"
	KeyTypeConceptDescription       KeyType = "ConceptDescription"
	KeyTypeGlobalReference          KeyType = "GlobalReference"
	KeyTypeSubmodelElement          KeyType = "SubmodelElement"
)

// ReferenceKey is one step of a Reference.
type ReferenceKey struct {
	Type  KeyType `json:"type"`
	Value string  `json:"value"`
}

// Reference points at an identifiable, an element or an external concept.
type Reference struct {
	Type ReferenceType  `json:"type"`
	Keys []ReferenceKey `json:"keys"`
}

// GlobalReference returns an external reference to a single global identifier,
// the usual shape of a semanticId.
func GlobalReference(value string) *Reference {
	return &Reference{
		Type: ExternalReference,
		Keys: []ReferenceKey{{Type: KeyTypeGlobalReference, Value: value}},
	}
}

// SubmodelReference returns the model reference stored in a shell's submodel list.
func SubmodelReference(submodelID string) Reference {
	return Reference{
		Type: ModelReference,
		Keys: []ReferenceKey{{Type: KeyTypeSubmodel, Value: submodelID}},
	}
}

// Equal compares type and keys in order. Two nil references are equal.
func (r *Reference) Equal(other *Reference) bool {
	if r == nil || other == nil {
		return r == other
	}

	if r.Type != other.Type || len(r.Keys) != len(other.Keys) {
		return false
	}

	for i := range r.Keys {
		if r.Keys[i] != other.Keys[i] {
			return false
		}
	}

	return true
}

// LangString is a text in one language.
type LangString struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}
