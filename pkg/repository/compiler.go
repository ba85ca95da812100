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
	"strconv"

	"github.com/united-manufacturing-hub/twinstore/pkg/codec"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

// CompiledPath is the update address of one element inside a submodel document.
// It is derived per operation and never stored.
type CompiledPath struct {
	// Field is the dotted update field, with "$[aN]" placeholders for key segments.
	Field string
	// Filters binds every placeholder of Field. There is one filter per key segment.
	Filters []persistence.PositionalFilter
	depth   int
}

// CompilePath translates path into an update address below base.
//
//	CompilePath("C.L[1].P", "submodelElements")
//	  Field:   submodelElements.$[a0].value.$[a1].value.1.value.$[a3]
//	  Filters: a0.idShort == "C", a1.idShort == "L", a3.idShort == "P"
//
// Filter names come from segment positions, so the same path always compiles to
// the same result.
func CompilePath(path model.Path, base string) CompiledPath {
	segments := path.Segments()
	out := CompiledPath{Field: base, depth: len(segments)}

	for i, seg := range segments {
		if seg.IsIndex() {
			out.Field += "." + strconv.Itoa(seg.Index())
		} else {
			filter := persistence.PositionalFilter{
				Name:  "a" + strconv.Itoa(i),
				Key:   codec.FieldIDShort,
				Value: seg.Key(),
			}
			out.Field += "." + filter.Placeholder()
			out.Filters = append(out.Filters, filter)
		}

		if i < len(segments)-1 {
			out.Field += "." + codec.FieldValue
		}
	}

	return out
}

// ChildArray returns the field of the child array of the addressed container: the
// base itself for an empty path, otherwise the container's value array.
func (c CompiledPath) ChildArray() string {
	if c.depth == 0 {
		return c.Field
	}

	return c.Field + "." + codec.FieldValue
}

// Equal reports whether both compile results address the same field with the same
// filters.
func (c CompiledPath) Equal(other CompiledPath) bool {
	if c.Field != other.Field || c.depth != other.depth || len(c.Filters) != len(other.Filters) {
		return false
	}

	for i := range c.Filters {
		if c.Filters[i] != other.Filters[i] {
			return false
		}
	}

	return true
}
