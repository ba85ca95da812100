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

// GlobalAssetIDName marks an AssetIdentification as the shell's global asset id.
const GlobalAssetIDName = "globalAssetId"

// AssetIdentification is one asset id a shell is searched by. A name of
// GlobalAssetIDName matches the global asset id; any other name matches a specific
// asset id with the same name and value.
type AssetIdentification struct {
	Name  string
	Value string
}

// GlobalAssetIdentification is a shorthand for a global asset id criterion.
func GlobalAssetIdentification(value string) AssetIdentification {
	return AssetIdentification{Name: GlobalAssetIDName, Value: value}
}

func (a AssetIdentification) IsGlobal() bool { return a.Name == GlobalAssetIDName }

// Search criteria. Empty strings and nil pointers impose no filter.

type AssetAdministrationShellSearchCriteria struct {
	IDShort  string
	AssetIDs []AssetIdentification
}

type SubmodelSearchCriteria struct {
	SemanticID *Reference
	IDShort    string
}

type ConceptDescriptionSearchCriteria struct {
	IsCaseOf          *Reference
	DataSpecification *Reference
	IDShort           string
}

// SubmodelElementSearchCriteria selects the children of Parent.
type SubmodelElementSearchCriteria struct {
	SemanticID *Reference
	Parent     ElementIdentifier
}
