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

package persistence

import (
	"fmt"
	"strings"
)

// StageKind is the kind of a read pipeline stage.
type StageKind string

const (
	StageMatch  StageKind = "$match"
	StageUnwind StageKind = "$unwind"
	StageSkip   StageKind = "$skip"
	StageLimit  StageKind = "$limit"
)

// Stage is one step of a read pipeline.
//
//   - $match keeps documents satisfying all Conditions.
//   - $unwind emits one document per entry of the array at Field, with Field
//     replaced by that entry. Documents where Field is missing, null or an empty
//     array are dropped; a non-array value passes through unchanged.
//   - $skip drops the first Count documents.
//   - $limit keeps at most Count documents.
type Stage struct {
	Kind       StageKind
	Field      string
	Conditions []FilterCondition
	Count      int
}

// Pipeline is an ordered list of stages.
type Pipeline []Stage

func MatchStage(conditions ...FilterCondition) Stage {
	return Stage{Kind: StageMatch, Conditions: conditions}
}

func UnwindStage(field string) Stage {
	return Stage{Kind: StageUnwind, Field: field}
}

func SkipStage(n int) Stage {
	return Stage{Kind: StageSkip, Count: n}
}

func LimitStage(n int) Stage {
	return Stage{Kind: StageLimit, Count: n}
}

func (s Stage) String() string {
	switch s.Kind {
	case StageMatch:
		parts := make([]string, 0, len(s.Conditions))
		for _, c := range s.Conditions {
			parts = append(parts, fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value))
		}

		return "$match{" + strings.Join(parts, ", ") + "}"
	case StageUnwind:
		return "$unwind{" + s.Field + "}"
	case StageSkip, StageLimit:
		return fmt.Sprintf("%s{%d}", s.Kind, s.Count)
	default:
		return string(s.Kind)
	}
}
