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
	"github.com/united-manufacturing-hub/twinstore/pkg/codec"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

const (
	fieldGlobalAssetID      = "assetInformation.globalAssetId"
	fieldSpecificAssetIDs   = "assetInformation.specificAssetIds"
	fieldSemanticID         = "semanticId"
	fieldIsCaseOf           = "isCaseOf"
	fieldDataSpecification  = "embeddedDataSpecifications.dataSpecification"
	fieldShellSubmodelsKeys = "submodels.keys.value"
	fieldShellSubmodels     = "submodels"
)

// ShellQuery translates shell search criteria. Global asset ids are matched with
// $in, specific asset ids with one $elemMatch per name/value pair, OR-ed.
func ShellQuery(criteria model.AssetAdministrationShellSearchCriteria) *persistence.Query {
	q := persistence.NewQuery()

	if criteria.IDShort != "" {
		q.Filter(codec.FieldIDShort, persistence.Eq, criteria.IDShort)
	}

	var (
		global   []interface{}
		specific [][]persistence.FilterCondition
	)

	for _, assetID := range criteria.AssetIDs {
		if assetID.IsGlobal() {
			global = append(global, assetID.Value)

			continue
		}

		specific = append(specific, []persistence.FilterCondition{
			persistence.Where(fieldSpecificAssetIDs, persistence.ElemMatch, []persistence.FilterCondition{
				persistence.Where("name", persistence.Eq, assetID.Name),
				persistence.Where("value", persistence.Eq, assetID.Value),
			}),
		})
	}

	if len(global) > 0 {
		q.Filter(fieldGlobalAssetID, persistence.In, global)
	}

	q.Or(specific...)

	return q
}

func SubmodelQuery(criteria model.SubmodelSearchCriteria) (*persistence.Query, error) {
	q := persistence.NewQuery()

	if criteria.IDShort != "" {
		q.Filter(codec.FieldIDShort, persistence.Eq, criteria.IDShort)
	}

	if criteria.SemanticID != nil {
		ref, err := codec.EncodeReference(*criteria.SemanticID)
		if err != nil {
			return nil, standarderrors.InvalidArgument("semanticId: %v", err)
		}

		q.Filter(fieldSemanticID, persistence.Eq, ref)
	}

	return q, nil
}

func ConceptDescriptionQuery(criteria model.ConceptDescriptionSearchCriteria) (*persistence.Query, error) {
	q := persistence.NewQuery()

	if criteria.IDShort != "" {
		q.Filter(codec.FieldIDShort, persistence.Eq, criteria.IDShort)
	}

	if criteria.IsCaseOf != nil {
		ref, err := codec.EncodeReference(*criteria.IsCaseOf)
		if err != nil {
			return nil, standarderrors.InvalidArgument("isCaseOf: %v", err)
		}

		q.Filter(fieldIsCaseOf, persistence.Eq, ref)
	}

	if criteria.DataSpecification != nil {
		ref, err := codec.EncodeReference(*criteria.DataSpecification)
		if err != nil {
			return nil, standarderrors.InvalidArgument("dataSpecification: %v", err)
		}

		q.Filter(fieldDataSpecification, persistence.Eq, ref)
	}

	return q, nil
}
