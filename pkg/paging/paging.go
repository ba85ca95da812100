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

// Package paging turns cursor/limit requests into offset queries and builds pages
// from over-fetched results.
//
// A cursor is the decimal offset of the first item of the next page. Every read
// fetches limit+1 items; the extra item only signals that another page exists and
// is never returned. Cursors stay valid only while the limit is unchanged.
package paging

import (
	"math"
	"strconv"

	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

// EncodeCursor returns the cursor pointing at offset.
func EncodeCursor(offset int) string {
	return strconv.Itoa(offset)
}

// DecodeCursor parses a cursor. The empty cursor is offset 0.
func DecodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, standarderrors.InvalidArgument("invalid cursor %q", cursor)
	}

	return offset, nil
}

// Validate checks a paging request: the limit must not be negative and a cursor
// requires a limit.
func Validate(info model.PagingInfo) error {
	if info.Limit < 0 {
		return standarderrors.InvalidArgument("limit must not be negative, got %d", info.Limit)
	}

	if info.HasCursor() && !info.HasLimit() {
		return standarderrors.InvalidArgument("cursor %q given without a limit", info.Cursor)
	}

	_, err := DecodeCursor(info.Cursor)

	return err
}

// Apply sets skip and limit on q for the requested page, over-fetching by one.
func Apply(q *persistence.Query, info model.PagingInfo) error {
	if err := Validate(info); err != nil {
		return err
	}

	offset, _ := DecodeCursor(info.Cursor)
	q.Skip(offset)

	if info.HasLimit() {
		q.Limit(overFetch(info.Limit))
	}

	return nil
}

// overFetch returns limit+1, saturating at math.MaxInt. No result can hold more
// than math.MaxInt items, so the saturated limit never produces a cursor.
func overFetch(limit int) int {
	if limit == math.MaxInt {
		return limit
	}

	return limit + 1
}

// Slice applies the same window as Apply to an in-memory sequence.
func Slice[T any](items []T, info model.PagingInfo) ([]T, error) {
	if err := Validate(info); err != nil {
		return nil, err
	}

	offset, _ := DecodeCursor(info.Cursor)
	if offset >= len(items) {
		return nil, nil
	}

	end := len(items)
	if info.HasLimit() && overFetch(info.Limit) < end-offset {
		end = offset + overFetch(info.Limit)
	}

	return items[offset:end], nil
}

// BuildPage truncates an over-fetched result to the requested limit and sets the
// cursor when more items exist.
func BuildPage[T any](overFetched []T, info model.PagingInfo) (model.Page[T], error) {
	if err := Validate(info); err != nil {
		return model.Page[T]{}, err
	}

	if !info.HasLimit() || len(overFetched) <= info.Limit {
		return model.Page[T]{Items: overFetched}, nil
	}

	offset, _ := DecodeCursor(info.Cursor)

	return model.Page[T]{
		Items:    overFetched[:info.Limit],
		Metadata: model.PagingMetadata{Cursor: EncodeCursor(offset + info.Limit)},
	}, nil
}

// Collect builds a page from the full sequence, applying Slice then BuildPage.
func Collect[T any](items []T, info model.PagingInfo) (model.Page[T], error) {
	window, err := Slice(items, info)
	if err != nil {
		return model.Page[T]{}, err
	}

	return BuildPage(window, info)
}
