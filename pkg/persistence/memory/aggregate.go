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

	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

// runPipeline evaluates p over docs. docs must already be private copies.
func runPipeline(docs []persistence.Document, p persistence.Pipeline) ([]persistence.Document, error) {
	current := docs

	for _, stage := range p {
		switch stage.Kind {
		case persistence.StageMatch:
			kept := current[:0:0]

			for _, d := range current {
				ok, err := matchesAll(d, stage.Conditions)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", stage, err)
				}

				if ok {
					kept = append(kept, d)
				}
			}

			current = kept
		case persistence.StageUnwind:
			current = unwind(current, splitField(stage.Field))
		case persistence.StageSkip:
			if stage.Count >= len(current) {
				current = nil
			} else if stage.Count > 0 {
				current = current[stage.Count:]
			}
		case persistence.StageLimit:
			if stage.Count < len(current) {
				current = current[:stage.Count]
			}
		default:
			return nil, fmt.Errorf("unsupported pipeline stage %q", stage.Kind)
		}
	}

	return current, nil
}

func unwind(docs []persistence.Document, path []string) []persistence.Document {
	var out []persistence.Document

	for _, d := range docs {
		v, present := lookup(d, path)
		if !present || v == nil {
			continue
		}

		arr, isArr := persistence.AsArray(v)
		if !isArr {
			out = append(out, d)

			continue
		}

		for _, entry := range arr {
			copied := d.Clone()
			assign(copied, path, persistence.CloneValue(entry))
			out = append(out, copied)
		}
	}

	return out
}

// lookup follows path through nested documents only.
func lookup(doc persistence.Document, path []string) (interface{}, bool) {
	var node interface{} = doc

	for _, seg := range path {
		m, ok := persistence.AsMap(node)
		if !ok {
			return nil, false
		}

		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}

	return node, true
}

// assign sets path in doc. The parent of the last segment must exist.
func assign(doc persistence.Document, path []string, v interface{}) {
	var node interface{} = doc

	for _, seg := range path[:len(path)-1] {
		m, ok := persistence.AsMap(node)
		if !ok {
			return
		}

		node = m[seg]
	}

	if m, ok := persistence.AsMap(node); ok {
		m[path[len(path)-1]] = v
	}
}
