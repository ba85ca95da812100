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

package memory

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

// resolve returns every value reachable from v along path. Arrays on the way are
// fanned out: a path continuing through an array visits each element, unless the
// next segment is a numeric position.
func resolve(v interface{}, path []string) []interface{} {
	if len(path) == 0 {
		return []interface{}{v}
	}

	if m, ok := persistence.AsMap(v); ok {
		child, present := m[path[0]]
		if !present {
			return nil
		}

		return resolve(child, path[1:])
	}

	if arr, ok := persistence.AsArray(v); ok {
		if idx, err := strconv.Atoi(path[0]); err == nil {
			if idx < 0 || idx >= len(arr) {
				return nil
			}

			return resolve(arr[idx], path[1:])
		}

		var out []interface{}
		for _, e := range arr {
			if _, isMap := persistence.AsMap(e); isMap {
				out = append(out, resolve(e, path)...)
			}
		}

		return out
	}

	return nil
}

func splitField(field string) []string {
	if field == "" {
		return nil
	}

	return strings.Split(field, ".")
}

// matchesQuery reports whether doc satisfies all filters and at least one AnyOf group.
func matchesQuery(doc interface{}, q persistence.Query) (bool, error) {
	ok, err := matchesAll(doc, q.Filters)
	if err != nil || !ok {
		return false, err
	}

	if len(q.AnyOf) == 0 {
		return true, nil
	}

	for _, group := range q.AnyOf {
		ok, err := matchesAll(doc, group)
		if err != nil {
			return false, err
		}

		if ok {
			return true, nil
		}
	}

	return false, nil
}

func matchesAll(doc interface{}, conditions []persistence.FilterCondition) (bool, error) {
	for _, c := range conditions {
		ok, err := matches(doc, c)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func matches(doc interface{}, c persistence.FilterCondition) (bool, error) {
	values := resolve(doc, splitField(c.Field))

	switch c.Op {
	case persistence.Eq, "":
		return anyEqual(values, c.Value), nil
	case persistence.Ne:
		return !anyEqual(values, c.Value), nil
	case persistence.In, persistence.Nin:
		list, err := toList(c.Value)
		if err != nil {
			return false, err
		}

		found := false

		for _, candidate := range list {
			if anyEqual(values, candidate) {
				found = true

				break
			}
		}

		return found == (c.Op == persistence.In), nil
	case persistence.ElemMatch:
		nested, ok := c.Value.([]persistence.FilterCondition)
		if !ok {
			return false, fmt.Errorf("%s on %q expects []FilterCondition, got %T", c.Op, c.Field, c.Value)
		}

		for _, v := range values {
			arr, isArr := persistence.AsArray(v)
			if !isArr {
				continue
			}

			for _, e := range arr {
				ok, err := matchesAll(e, nested)
				if err != nil {
					return false, err
				}

				if ok {
					return true, nil
				}
			}
		}

		return false, nil
	case persistence.Size:
		want, err := toInt(c.Value)
		if err != nil {
			return false, err
		}

		for _, v := range values {
			if arr, isArr := persistence.AsArray(v); isArr && len(arr) == want {
				return true, nil
			}
		}

		return false, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", c.Op)
	}
}

// anyEqual applies MongoDB equality: a value matches if it equals target or, for
// arrays, if one of its entries does. A missing field equals nil.
func anyEqual(values []interface{}, target interface{}) bool {
	if len(values) == 0 {
		return target == nil
	}

	for _, v := range values {
		if persistence.Equal(v, target) {
			return true
		}

		if arr, ok := persistence.AsArray(v); ok {
			for _, e := range arr {
				if persistence.Equal(e, target) {
					return true
				}
			}
		}
	}

	return false
}

func toList(v interface{}) ([]interface{}, error) {
	if arr, ok := persistence.AsArray(v); ok {
		return arr, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}

	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}

	return out, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

// compareValues orders two scalars for sorting: missing < numbers < strings < other.
func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case 1:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)

		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
	case 2:
		return strings.Compare(a.(string), b.(string))
	}

	return 0
}

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case int, int32, int64, float32, float64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
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
