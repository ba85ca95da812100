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

// PagingInfo selects a page of a result sequence.
//
// Limit == 0 means "no limit". A cursor is only meaningful together with the limit
// of the request that issued it: callers must keep the limit constant while
// following cursors, otherwise offsets drift. This is not checked.
type PagingInfo struct {
	Cursor string
	Limit  int
}

// AllItems requests the whole sequence.
var AllItems = PagingInfo{}

func (p PagingInfo) HasLimit() bool { return p.Limit > 0 }

func (p PagingInfo) HasCursor() bool { return p.Cursor != "" }

// PagingMetadata describes the position of a page in its sequence.
type PagingMetadata struct {
	// Cursor is set iff more items exist after this page.
	Cursor string
}

// Page is one slice of a result sequence.
type Page[T any] struct {
	Metadata PagingMetadata
	Items    []T
}

func (p Page[T]) HasMore() bool { return p.Metadata.Cursor != "" }
