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

package codec

import (
	"fmt"

	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

// EncodeSubmodel serializes a submodel including its element tree. The
// submodelElements array is always present, even when empty.
func EncodeSubmodel(sm *model.Submodel) (persistence.Document, error) {
	if sm == nil {
		return nil, fmt.Errorf("cannot encode nil submodel")
	}

	doc, err := toDocument(sm)
	if err != nil {
		return nil, fmt.Errorf("encoding submodel %q: %w", sm.ID, err)
	}

	children, err := encodeChildren(sm.SubmodelElements)
	if err != nil {
		return nil, fmt.Errorf("encoding submodel %q: %w", sm.ID, err)
	}

	doc[FieldModelType] = string(model.ModelTypeSubmodel)
	doc[FieldSubmodelElements] = children

	return doc, nil
}

func DecodeSubmodel(v interface{}) (*model.Submodel, error) {
	doc, ok := persistence.AsMap(v)
	if !ok {
		return nil, fmt.Errorf("submodel document must be an object, got %T", v)
	}

	sm := &model.Submodel{}
	if err := fromDocument(withoutField(doc, FieldSubmodelElements), sm); err != nil {
		return nil, fmt.Errorf("decoding submodel: %w", err)
	}

	children, err := decodeChildren(doc, FieldSubmodelElements)
	if err != nil {
		return nil, fmt.Errorf("decoding submodel %q: %w", sm.ID, err)
	}

	sm.SubmodelElements = children

	return sm, nil
}

func EncodeShell(aas *model.AssetAdministrationShell) (persistence.Document, error) {
	if aas == nil {
		return nil, fmt.Errorf("cannot encode nil asset administration shell")
	}

	doc, err := toDocument(aas)
	if err != nil {
		return nil, fmt.Errorf("encoding asset administration shell %q: %w", aas.ID, err)
	}

	doc[FieldModelType] = string(model.ModelTypeAssetAdministrationShell)

	return doc, nil
}

func DecodeShell(v interface{}) (*model.AssetAdministrationShell, error) {
	aas := &model.AssetAdministrationShell{}
	if err := fromDocument(v, aas); err != nil {
		return nil, fmt.Errorf("decoding asset administration shell: %w", err)
	}

	return aas, nil
}

func EncodeConceptDescription(cd *model.ConceptDescription) (persistence.Document, error) {
	if cd == nil {
		return nil, fmt.Errorf("cannot encode nil concept description")
	}

	doc, err := toDocument(cd)
	if err != nil {
		return nil, fmt.Errorf("encoding concept description %q: %w", cd.ID, err)
	}

	doc[FieldModelType] = string(model.ModelTypeConceptDescription)

	return doc, nil
}

func DecodeConceptDescription(v interface{}) (*model.ConceptDescription, error) {
	cd := &model.ConceptDescription{}
	if err := fromDocument(v, cd); err != nil {
		return nil, fmt.Errorf("decoding concept description: %w", err)
	}

	return cd, nil
}

// DecodeEnvironment reads the JSON environment layout: three arrays keyed
// assetAdministrationShells, submodels and conceptDescriptions.
func DecodeEnvironment(v interface{}) (*model.Environment, error) {
	doc, ok := persistence.AsMap(v)
	if !ok {
		return nil, fmt.Errorf("environment must be an object, got %T", v)
	}

	env := &model.Environment{}

	err := eachEntry(doc, "assetAdministrationShells", func(entry interface{}) error {
		aas, err := DecodeShell(entry)
		env.AssetAdministrationShells = append(env.AssetAdministrationShells, aas)

		return err
	})
	if err != nil {
		return nil, err
	}

	err = eachEntry(doc, "submodels", func(entry interface{}) error {
		sm, err := DecodeSubmodel(entry)
		env.Submodels = append(env.Submodels, sm)

		return err
	})
	if err != nil {
		return nil, err
	}

	err = eachEntry(doc, "conceptDescriptions", func(entry interface{}) error {
		cd, err := DecodeConceptDescription(entry)
		env.ConceptDescriptions = append(env.ConceptDescriptions, cd)

		return err
	})
	if err != nil {
		return nil, err
	}

	return env, nil
}

func eachEntry(doc map[string]interface{}, field string, fn func(interface{}) error) error {
	raw, present := doc[field]
	if !present || raw == nil {
		return nil
	}

	arr, ok := persistence.AsArray(raw)
	if !ok {
		return fmt.Errorf("environment field %q must be an array", field)
	}

	for i, entry := range arr {
		if err := fn(entry); err != nil {
			return fmt.Errorf("%s[%d]: %w", field, i, err)
		}
	}

	return nil
}

// EncodeEnvironment is the inverse of DecodeEnvironment.
func EncodeEnvironment(env *model.Environment) (persistence.Document, error) {
	shells := make([]interface{}, 0, len(env.AssetAdministrationShells))
	for _, aas := range env.AssetAdministrationShells {
		doc, err := EncodeShell(aas)
		if err != nil {
			return nil, err
		}

		shells = append(shells, map[string]interface{}(doc))
	}

	submodels := make([]interface{}, 0, len(env.Submodels))
	for _, sm := range env.Submodels {
		doc, err := EncodeSubmodel(sm)
		if err != nil {
			return nil, err
		}

		submodels = append(submodels, map[string]interface{}(doc))
	}

	cds := make([]interface{}, 0, len(env.ConceptDescriptions))
	for _, cd := range env.ConceptDescriptions {
		doc, err := EncodeConceptDescription(cd)
		if err != nil {
			return nil, err
		}

		cds = append(cds, map[string]interface{}(doc))
	}

	return persistence.Document{
		"assetAdministrationShells": shells,
		"submodels":                 submodels,
		"conceptDescriptions":       cds,
	}, nil
}

// CloneSubmodel returns a deep copy of sm.
func CloneSubmodel(sm *model.Submodel) (*model.Submodel, error) {
	doc, err := EncodeSubmodel(sm)
	if err != nil {
		return nil, err
	}

	return DecodeSubmodel(doc)
}

// CloneShell returns a deep copy of aas.
func CloneShell(aas *model.AssetAdministrationShell) (*model.AssetAdministrationShell, error) {
	doc, err := EncodeShell(aas)
	if err != nil {
		return nil, err
	}

	return DecodeShell(doc)
}

// CloneConceptDescription returns a deep copy of cd.
func CloneConceptDescription(cd *model.ConceptDescription) (*model.ConceptDescription, error) {
	doc, err := EncodeConceptDescription(cd)
	if err != nil {
		return nil, err
	}

	return DecodeConceptDescription(doc)
}
