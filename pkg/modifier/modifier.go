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

// Package modifier shapes read results according to a model.QueryModifier.
//
// Every Apply function works on a deep copy and never touches its argument. The
// steps run in a fixed order: level, then extent, then content.
package modifier

import (
	"fmt"

	"github.com/united-manufacturing-hub/twinstore/pkg/codec"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
)

// ApplyElement returns a copy of e shaped by m.
func ApplyElement(e model.SubmodelElement, m model.QueryModifier) (model.SubmodelElement, error) {
	if e == nil {
		return nil, nil
	}

	m = m.Normalize()

	out, err := codec.CloneElement(e)
	if err != nil {
		return nil, fmt.Errorf("copying element %q: %w", e.GetIDShort(), err)
	}

	if c, ok := out.(model.Container); ok && m.Level == model.LevelCore {
		truncate(c)
	}

	walk(out, func(el model.SubmodelElement) { applyElementView(el, m) })

	return out, nil
}

// ApplyElements shapes each element of a result page.
func ApplyElements(elements []model.SubmodelElement, m model.QueryModifier) ([]model.SubmodelElement, error) {
	out := make([]model.SubmodelElement, 0, len(elements))

	for _, e := range elements {
		shaped, err := ApplyElement(e, m)
		if err != nil {
			return nil, err
		}

		out = append(out, shaped)
	}

	return out, nil
}

// ApplySubmodel returns a copy of sm shaped by m.
func ApplySubmodel(sm *model.Submodel, m model.QueryModifier) (*model.Submodel, error) {
	if sm == nil {
		return nil, nil
	}

	m = m.Normalize()

	out, err := codec.CloneSubmodel(sm)
	if err != nil {
		return nil, fmt.Errorf("copying submodel %q: %w", sm.ID, err)
	}

	if m.Level == model.LevelCore {
		truncate(out)
	}

	for _, child := range out.SubmodelElements {
		walk(child, func(el model.SubmodelElement) { applyElementView(el, m) })
	}

	switch m.Content {
	case model.ContentMetadata:
		out.SubmodelElements = nil
	case model.ContentValue:
		out.SemanticID = nil
		stripDescriptive(&out.Base)
	case model.ContentPath, model.ContentReference:
		*out = model.Submodel{
			ID:               out.ID,
			Base:             model.Base{IDShort: out.IDShort},
			SubmodelElements: out.SubmodelElements,
		}

		if m.Content == model.ContentReference {
			out.SubmodelElements = nil
		}
	case model.ContentNormal:
	}

	return out, nil
}

// ApplySubmodels shapes each submodel of a result page.
func ApplySubmodels(submodels []*model.Submodel, m model.QueryModifier) ([]*model.Submodel, error) {
	out := make([]*model.Submodel, 0, len(submodels))

	for _, sm := range submodels {
		shaped, err := ApplySubmodel(sm, m)
		if err != nil {
			return nil, err
		}

		out = append(out, shaped)
	}

	return out, nil
}

// ApplyShell returns a copy of aas shaped by m. Level and extent have no effect on
// shells.
func ApplyShell(aas *model.AssetAdministrationShell, m model.QueryModifier) (*model.AssetAdministrationShell, error) {
	if aas == nil {
		return nil, nil
	}

	m = m.Normalize()

	out, err := codec.CloneShell(aas)
	if err != nil {
		return nil, fmt.Errorf("copying asset administration shell %q: %w", aas.ID, err)
	}

	switch m.Content {
	case model.ContentValue:
		stripDescriptive(&out.Base)
	case model.ContentPath, model.ContentReference:
		*out = model.AssetAdministrationShell{ID: out.ID, Base: model.Base{IDShort: out.IDShort}}
	case model.ContentNormal, model.ContentMetadata:
	}

	return out, nil
}

// ApplyShells shapes each shell of a result page.
func ApplyShells(shells []*model.AssetAdministrationShell, m model.QueryModifier) ([]*model.AssetAdministrationShell, error) {
	out := make([]*model.AssetAdministrationShell, 0, len(shells))

	for _, aas := range shells {
		shaped, err := ApplyShell(aas, m)
		if err != nil {
			return nil, err
		}

		out = append(out, shaped)
	}

	return out, nil
}

// ApplyConceptDescription returns a copy of cd shaped by m.
func ApplyConceptDescription(cd *model.ConceptDescription, m model.QueryModifier) (*model.ConceptDescription, error) {
	if cd == nil {
		return nil, nil
	}

	m = m.Normalize()

	out, err := codec.CloneConceptDescription(cd)
	if err != nil {
		return nil, fmt.Errorf("copying concept description %q: %w", cd.ID, err)
	}

	switch m.Content {
	case model.ContentValue:
		stripDescriptive(&out.Base)
	case model.ContentPath, model.ContentReference:
		*out = model.ConceptDescription{ID: out.ID, Base: model.Base{IDShort: out.IDShort}}
	case model.ContentNormal, model.ContentMetadata:
	}

	return out, nil
}

// ApplyConceptDescriptions shapes each concept description of a result page.
func ApplyConceptDescriptions(cds []*model.ConceptDescription, m model.QueryModifier) ([]*model.ConceptDescription, error) {
	out := make([]*model.ConceptDescription, 0, len(cds))

	for _, cd := range cds {
		shaped, err := ApplyConceptDescription(cd, m)
		if err != nil {
			return nil, err
		}

		out = append(out, shaped)
	}

	return out, nil
}

// truncate clears the children of every container directly below c.
func truncate(c model.Container) {
	for _, child := range c.Children() {
		if grandchild, ok := child.(model.Container); ok {
			grandchild.SetChildren(nil)
		}
	}
}

// walk visits e and, depth first, every element below it.
func walk(e model.SubmodelElement, fn func(model.SubmodelElement)) {
	if e == nil {
		return
	}

	// children first: content "metadata" clears the child list of e
	if c, ok := e.(model.Container); ok {
		for _, child := range c.Children() {
			walk(child, fn)
		}
	}

	fn(e)
}

func applyElementView(e model.SubmodelElement, m model.QueryModifier) {
	if blob, ok := e.(*model.Blob); ok && m.Extent == model.ExtentWithoutBlobValue {
		blob.Value = nil
	}

	switch m.Content {
	case model.ContentMetadata:
		stripValue(e)
	case model.ContentValue:
		stripMetadata(e)
	case model.ContentPath:
		stripToStructure(e)
	case model.ContentReference:
		stripToStructure(e)

		if c, ok := e.(model.Container); ok {
			c.SetChildren(nil)
		}
	case model.ContentNormal:
	}
}

func stripDescriptive(b *model.Base) {
	b.Category = ""
	b.DisplayName = nil
	b.Description = nil
}

// stripMetadata removes descriptive attributes and the semanticId.
func stripMetadata(e model.SubmodelElement) {
	eb := e.GetElementBase()
	eb.SemanticID = nil
	eb.StripDescriptive()
}

// stripValue removes the value of a leaf, or the children of a container.
func stripValue(e model.SubmodelElement) {
	stripLeafValue(e)

	if c, ok := e.(model.Container); ok {
		c.SetChildren(nil)
	}
}

func stripLeafValue(e model.SubmodelElement) {
	switch el := e.(type) {
	case *model.Property:
		el.Value = ""
	case *model.MultiLanguageProperty:
		el.Value = nil
	case *model.Range:
		el.Min, el.Max = "", ""
	case *model.Blob:
		el.Value = nil
	case *model.File:
		el.Value = ""
	case *model.ReferenceElement:
		el.Value = nil
	case *model.RelationshipElement:
		el.First, el.Second = nil, nil
	case *model.Entity:
		el.GlobalAssetID = ""
	}
}

// stripToStructure keeps the kind, the idShort and the children.
func stripToStructure(e model.SubmodelElement) {
	stripLeafValue(e)
	stripMetadata(e)

	switch el := e.(type) {
	case *model.Property:
		el.ValueType = ""
	case *model.Range:
		el.ValueType = ""
	case *model.Blob:
		el.ContentType = ""
	case *model.File:
		el.ContentType = ""
	case *model.SubmodelElementList:
		el.SemanticIDListElement = nil
		el.ValueTypeListElement = ""
	}
}
