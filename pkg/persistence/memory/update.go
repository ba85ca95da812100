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
	"strconv"

	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

// slot is an assignable location inside a document: a map key or an array position.
type slot struct {
	m   map[string]interface{}
	arr []interface{}
	key string
	idx int
}

func (s slot) get() (interface{}, bool) {
	if s.m != nil {
		v, ok := s.m[s.key]

		return v, ok
	}

	return s.arr[s.idx], true
}

func (s slot) set(v interface{}) {
	if s.m != nil {
		s.m[s.key] = v

		return
	}

	s.arr[s.idx] = v
}

// terminalOp mutates the addressed slot and reports whether anything changed.
type terminalOp func(s slot) (bool, error)

// applier resolves an update field against one document and runs op on every
// addressed slot.
//
// Unlike MongoDB, missing intermediate fields and out-of-range positions address
// nothing instead of being created or padded with nulls.
type applier struct {
	filters  map[string]persistence.PositionalFilter
	op       terminalOp
	modified bool
}

func newApplier(filters []persistence.PositionalFilter, op terminalOp) *applier {
	byName := make(map[string]persistence.PositionalFilter, len(filters))
	for _, f := range filters {
		byName[f.Name] = f
	}

	return &applier{filters: byName, op: op}
}

func (a *applier) walk(node interface{}, segs []string) error {
	seg := segs[0]
	last := len(segs) == 1

	if m, ok := persistence.AsMap(node); ok {
		if last {
			return a.apply(slot{m: m, key: seg})
		}

		child, present := m[seg]
		if !present {
			return nil
		}

		return a.walk(child, segs[1:])
	}

	arr, ok := persistence.AsArray(node)
	if !ok {
		return nil
	}

	if name, isPlaceholder := persistence.PlaceholderName(seg); isPlaceholder {
		f, known := a.filters[name]
		if !known {
			return fmt.Errorf("no array filter found for identifier %q", name)
		}

		for i := range arr {
			hit, err := matches(arr[i], persistence.Where(f.Key, persistence.Eq, f.Value))
			if err != nil {
				return err
			}

			if !hit {
				continue
			}

			if last {
				err = a.apply(slot{arr: arr, idx: i})
			} else {
				err = a.walk(arr[i], segs[1:])
			}

			if err != nil {
				return err
			}
		}

		return nil
	}

	idx, err := strconv.Atoi(seg)
	if err != nil {
		return fmt.Errorf("cannot address array with field %q", seg)
	}

	if idx < 0 || idx >= len(arr) {
		return nil
	}

	if last {
		return a.apply(slot{arr: arr, idx: idx})
	}

	return a.walk(arr[idx], segs[1:])
}

func (a *applier) apply(s slot) error {
	changed, err := a.op(s)
	if err != nil {
		return err
	}

	a.modified = a.modified || changed

	return nil
}

// applyUpdate runs u against doc in place.
func applyUpdate(doc persistence.Document, u persistence.Update) (bool, error) {
	op, err := terminalFor(u)
	if err != nil {
		return false, err
	}

	return applyAt(doc, u.Field, u.ArrayFilters, op)
}

func applyAt(doc persistence.Document, field string, filters []persistence.PositionalFilter, op terminalOp) (bool, error) {
	segs := splitField(field)
	if len(segs) == 0 {
		return false, fmt.Errorf("update field must not be empty")
	}

	if segs[0] == persistence.IDField {
		return false, fmt.Errorf("field %q is immutable", persistence.IDField)
	}

	a := newApplier(filters, op)
	if err := a.walk(map[string]interface{}(doc), segs); err != nil {
		return false, err
	}

	return a.modified, nil
}

func terminalFor(u persistence.Update) (terminalOp, error) {
	switch u.Operator {
	case persistence.OpSet:
		return func(s slot) (bool, error) {
			s.set(persistence.CloneValue(u.Value))

			return true, nil
		}, nil
	case persistence.OpPush:
		return func(s slot) (bool, error) {
			current, present := s.get()
			if !present || current == nil {
				s.set([]interface{}{persistence.CloneValue(u.Value)})

				return true, nil
			}

			arr, ok := persistence.AsArray(current)
			if !ok {
				return false, fmt.Errorf("cannot push to non-array field %q", u.Field)
			}

			s.set(append(arr, persistence.CloneValue(u.Value)))

			return true, nil
		}, nil
	case persistence.OpPull:
		return func(s slot) (bool, error) {
			current, present := s.get()
			if !present {
				return false, nil
			}

			arr, ok := persistence.AsArray(current)
			if !ok {
				return false, fmt.Errorf("cannot pull from non-array field %q", u.Field)
			}

			kept := make([]interface{}, 0, len(arr))

			for _, e := range arr {
				var remove bool

				if len(u.Match) > 0 {
					hit, err := matchesAll(e, u.Match)
					if err != nil {
						return false, err
					}

					remove = hit
				} else {
					remove = persistence.Equal(e, u.Value)
				}

				if !remove {
					kept = append(kept, e)
				}
			}

			if len(kept) == len(arr) {
				return false, nil
			}

			s.set(kept)

			return true, nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported update operator %q", u.Operator)
	}
}

// removeAtOp removes position index of the addressed array.
func removeAtOp(index int) terminalOp {
	return func(s slot) (bool, error) {
		current, present := s.get()
		if !present {
			return false, nil
		}

		arr, ok := persistence.AsArray(current)
		if !ok {
			return false, fmt.Errorf("cannot remove position %d of a non-array field", index)
		}

		if index < 0 || index >= len(arr) {
			return false, nil
		}

		out := make([]interface{}, 0, len(arr)-1)
		out = append(out, arr[:index]...)
		out = append(out, arr[index+1:]...)
		s.set(out)

		return true, nil
	}
}
