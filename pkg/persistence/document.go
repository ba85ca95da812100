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
	"reflect"

	"github.com/tiendc/go-deepcopy"
)

// AsMap returns v as a map if it is a nested document.
func AsMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]interface{}:
		return m, true
	default:
		return nil, false
	}
}

// AsArray returns v as a slice if it is an array.
func AsArray(v interface{}) ([]interface{}, bool) {
	a, ok := v.([]interface{})

	return a, ok
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	var out Document
	mustCopy(&out, d)

	return out
}

// CloneValue returns a deep copy of a document tree value, keeping its dynamic type.
func CloneValue(v interface{}) interface{} {
	if v == nil {
		return nil
	}

	var out interface{}
	mustCopy(&out, v)

	return out
}

// mustCopy deep-copies src into dst. Document trees hold only maps, slices and
// scalars, so a failing copy is a programming error.
func mustCopy(dst, src interface{}) {
	if err := deepcopy.Copy(dst, src); err != nil {
		panic(fmt.Sprintf("copying document tree %T: %v", src, err))
	}
}

// Equal compares two document tree values. Document and map[string]interface{} are
// interchangeable, and all numbers compare by value.
func Equal(a, b interface{}) bool {
	if am, ok := AsMap(a); ok {
		bm, ok := AsMap(b)
		if !ok || len(am) != len(bm) {
			return false
		}

		for k, av := range am {
			bv, present := bm[k]
			if !present || !Equal(av, bv) {
				return false
			}
		}

		return true
	}

	if aa, ok := AsArray(a); ok {
		ba, ok := AsArray(b)
		if !ok || len(aa) != len(ba) {
			return false
		}

		for i := range aa {
			if !Equal(aa[i], ba[i]) {
				return false
			}
		}

		return true
	}

	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)

		return ok && af == bf
	}

	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
