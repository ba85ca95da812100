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

import (
	"strings"

	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

// ElementIdentifier addresses a single element: the owning submodel plus the path
// below it. An empty path addresses the submodel itself.
type ElementIdentifier struct {
	SubmodelID string
	Path       Path
}

// NewElementIdentifier is a shorthand for ElementIdentifier{submodelID, path}.
func NewElementIdentifier(submodelID string, path Path) ElementIdentifier {
	return ElementIdentifier{SubmodelID: submodelID, Path: path}
}

// SubmodelIdentifier addresses the submodel itself.
func SubmodelIdentifier(submodelID string) ElementIdentifier {
	return ElementIdentifier{SubmodelID: submodelID}
}

// ParseElementIdentifier reads "<submodelId>#<idShortPath>".
func ParseElementIdentifier(s string) (ElementIdentifier, error) {
	id, rawPath, _ := strings.Cut(s, "#")

	path, err := ParsePath(rawPath)
	if err != nil {
		return ElementIdentifier{}, err
	}

	out := NewElementIdentifier(id, path)

	return out, out.Validate()
}

// Validate checks that the identifier can be resolved.
func (e ElementIdentifier) Validate() error {
	if strings.TrimSpace(e.SubmodelID) == "" {
		return standarderrors.InvalidArgument("submodel id must not be blank")
	}

	if !e.Path.IsEmpty() && e.Path.segments[0].IsIndex() {
		return standarderrors.InvalidArgument("%s: direct children of a submodel are addressed by idShort", e)
	}

	return nil
}

// IsSubmodel reports whether the identifier addresses the submodel itself.
func (e ElementIdentifier) IsSubmodel() bool {
	return e.Path.IsEmpty()
}

// Parent returns the identifier of the containing element.
func (e ElementIdentifier) Parent() ElementIdentifier {
	return ElementIdentifier{SubmodelID: e.SubmodelID, Path: e.Path.Parent()}
}

// Child returns the identifier of a child of e.
func (e ElementIdentifier) Child(seg Segment) ElementIdentifier {
	return ElementIdentifier{SubmodelID: e.SubmodelID, Path: e.Path.Append(seg)}
}

func (e ElementIdentifier) Equal(other ElementIdentifier) bool {
	return e.SubmodelID == other.SubmodelID && e.Path.Equal(other.Path)
}

func (e ElementIdentifier) String() string {
	if e.Path.IsEmpty() {
		return e.SubmodelID
	}

	return e.SubmodelID + "#" + e.Path.String()
}
