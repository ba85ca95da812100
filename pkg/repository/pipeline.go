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
	"strings"

	"github.com/united-manufacturing-hub/twinstore/pkg/codec"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

// BuildReadPipeline returns the aggregation that isolates the element addressed by
// id. Each segment unwinds one level of the tree and keeps the matching entry:
//
//	$match   id == "S1"
//	$unwind  submodelElements
//	$match   submodelElements.idShort == "L"
//	$unwind  submodelElements.value
//	$skip    1
//	$limit   1
//
// The surviving document carries the element at submodelElements(.value)*(n-1).
func BuildReadPipeline(id model.ElementIdentifier) persistence.Pipeline {
	pipeline := persistence.Pipeline{
		persistence.MatchStage(persistence.Where(persistence.IDField, persistence.Eq, id.SubmodelID)),
	}

	for i, seg := range id.Path.Segments() {
		field := levelField(i)
		pipeline = append(pipeline, persistence.UnwindStage(field))

		if seg.IsIndex() {
			pipeline = append(pipeline, persistence.SkipStage(seg.Index()), persistence.LimitStage(1))
		} else {
			pipeline = append(pipeline, persistence.MatchStage(
				persistence.Where(field+"."+codec.FieldIDShort, persistence.Eq, seg.Key()),
			))
		}
	}

	return pipeline
}

// levelField is the field holding the unwound entry of tree level depth.
func levelField(depth int) string {
	return codec.FieldSubmodelElements + strings.Repeat("."+codec.FieldValue, depth)
}

// descend follows submodelElements and depth-1 nested value fields of a pipeline
// result to the isolated element.
func descend(doc persistence.Document, depth int) (map[string]interface{}, bool) {
	current, ok := persistence.AsMap(doc[codec.FieldSubmodelElements])

	for i := 1; ok && i < depth; i++ {
		current, ok = persistence.AsMap(current[codec.FieldValue])
	}

	return current, ok
}
