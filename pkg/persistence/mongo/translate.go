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

package mongo

import (
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

const objectIDField = "_id"

// toBSON converts a document tree into BSON. Map keys are sorted so that equal
// documents have equal encodings, which embedded-document equality relies on.
func toBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case persistence.Document:
		return sortedD(t)
	case map[string]interface{}:
		return sortedD(t)
	case []interface{}:
		out := make(bson.A, len(t))
		for i := range t {
			out[i] = toBSON(t[i])
		}

		return out
	default:
		return v
	}
}

func sortedD(m map[string]interface{}) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make(bson.D, 0, len(keys))
	for _, k := range keys {
		out = append(out, bson.E{Key: k, Value: toBSON(m[k])})
	}

	return out
}

// fromBSON converts a decoded BSON value back into a document tree and strips the
// store's _id field.
func fromBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.M:
		return fromM(t)
	case map[string]interface{}:
		return fromM(t)
	case bson.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			if e.Key != objectIDField {
				out[e.Key] = fromBSON(e.Value)
			}
		}

		return out
	case bson.A:
		return fromA(t)
	case []interface{}:
		return fromA(t)
	default:
		return v
	}
}

func fromM(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))

	for k, v := range m {
		if k != objectIDField {
			out[k] = fromBSON(v)
		}
	}

	return out
}

func fromA(a []interface{}) []interface{} {
	out := make([]interface{}, len(a))
	for i := range a {
		out[i] = fromBSON(a[i])
	}

	return out
}

func toDocument(m bson.M) persistence.Document {
	return persistence.Document(fromM(m))
}

// translateConditions builds a filter document. Conditions on distinct fields
// share one document; repeated fields are combined with $and.
func translateConditions(conditions []persistence.FilterCondition) (bson.D, error) {
	out := bson.D{}
	seen := map[string]bool{}
	repeated := false

	for _, c := range conditions {
		if seen[c.Field] {
			repeated = true
		}

		seen[c.Field] = true
	}

	var all bson.A

	for _, c := range conditions {
		expr, err := translateOperator(c)
		if err != nil {
			return nil, err
		}

		if repeated {
			all = append(all, bson.D{{Key: c.Field, Value: expr}})
		} else {
			out = append(out, bson.E{Key: c.Field, Value: expr})
		}
	}

	if repeated {
		return bson.D{{Key: "$and", Value: all}}, nil
	}

	return out, nil
}

func translateOperator(c persistence.FilterCondition) (bson.D, error) {
	switch c.Op {
	case persistence.Eq, "":
		return bson.D{{Key: string(persistence.Eq), Value: toBSON(c.Value)}}, nil
	case persistence.Ne:
		return bson.D{{Key: string(c.Op), Value: toBSON(c.Value)}}, nil
	case persistence.In, persistence.Nin:
		list, ok := c.Value.([]interface{})
		if !ok {
			return nil, fmt.Errorf("%s on %q expects []interface{}, got %T", c.Op, c.Field, c.Value)
		}

		return bson.D{{Key: string(c.Op), Value: toBSON(list)}}, nil
	case persistence.ElemMatch:
		nested, ok := c.Value.([]persistence.FilterCondition)
		if !ok {
			return nil, fmt.Errorf("%s on %q expects []FilterCondition, got %T", c.Op, c.Field, c.Value)
		}

		inner, err := translateConditions(nested)
		if err != nil {
			return nil, err
		}

		return bson.D{{Key: string(c.Op), Value: inner}}, nil
	case persistence.Size:
		return bson.D{{Key: string(c.Op), Value: c.Value}}, nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", c.Op)
	}
}

// translateQuery builds the filter of q. AnyOf becomes one $or of $and groups.
func translateQuery(q persistence.Query) (bson.D, error) {
	filter, err := translateConditions(q.Filters)
	if err != nil {
		return nil, err
	}

	if len(q.AnyOf) == 0 {
		return filter, nil
	}

	groups := make(bson.A, 0, len(q.AnyOf))

	for _, group := range q.AnyOf {
		d, err := translateConditions(group)
		if err != nil {
			return nil, err
		}

		groups = append(groups, d)
	}

	return append(filter, bson.E{Key: "$or", Value: groups}), nil
}

func translateFindOptions(q persistence.Query) *options.FindOptions {
	opts := options.Find()

	if len(q.SortBy) > 0 {
		sortDoc := make(bson.D, 0, len(q.SortBy))
		for _, s := range q.SortBy {
			sortDoc = append(sortDoc, bson.E{Key: s.Field, Value: int(s.Order)})
		}

		opts.SetSort(sortDoc)
	}

	if q.SkipCount > 0 {
		opts.SetSkip(int64(q.SkipCount))
	}

	if q.LimitCount > 0 {
		opts.SetLimit(int64(q.LimitCount))
	}

	return opts
}

// translateUpdate returns the update document and its options.
func translateUpdate(u persistence.Update) (bson.D, *options.UpdateOptions, error) {
	var value interface{}

	switch u.Operator {
	case persistence.OpSet, persistence.OpPush:
		value = toBSON(u.Value)
	case persistence.OpPull:
		if len(u.Match) == 0 {
			value = toBSON(u.Value)

			break
		}

		cond, err := translateConditions(u.Match)
		if err != nil {
			return nil, nil, err
		}

		value = cond
	default:
		return nil, nil, fmt.Errorf("unsupported update operator %q", u.Operator)
	}

	opts := options.Update()

	if len(u.ArrayFilters) > 0 {
		filters := make([]interface{}, 0, len(u.ArrayFilters))
		for _, f := range u.ArrayFilters {
			filters = append(filters, bson.D{{Key: f.Name + "." + f.Key, Value: toBSON(f.Value)}})
		}

		opts.SetArrayFilters(options.ArrayFilters{Filters: filters})
	}

	return bson.D{{Key: string(u.Operator), Value: bson.D{{Key: u.Field, Value: value}}}}, opts, nil
}

func translatePipeline(p persistence.Pipeline) ([]bson.D, error) {
	out := make([]bson.D, 0, len(p))

	for _, stage := range p {
		switch stage.Kind {
		case persistence.StageMatch:
			cond, err := translateConditions(stage.Conditions)
			if err != nil {
				return nil, err
			}

			out = append(out, bson.D{{Key: string(stage.Kind), Value: cond}})
		case persistence.StageUnwind:
			out = append(out, bson.D{{Key: string(stage.Kind), Value: "$" + stage.Field}})
		case persistence.StageSkip, persistence.StageLimit:
			out = append(out, bson.D{{Key: string(stage.Kind), Value: int64(stage.Count)}})
		default:
			return nil, fmt.Errorf("unsupported pipeline stage %q", stage.Kind)
		}
	}

	return out, nil
}

// idFilter selects the document with the given id.
func idFilter(id string) bson.D {
	return bson.D{{Key: persistence.IDField, Value: id}}
}
