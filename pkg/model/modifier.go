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

// Level restricts how deep below the returned element children are kept.
type Level string

const (
	LevelDeep Level = "deep"
	LevelCore Level = "core"
)

// Extent controls whether large payloads are returned.
type Extent string

const (
	ExtentWithoutBlobValue Extent = "withoutBlobValue"
	ExtentWithBlobValue    Extent = "withBlobValue"
)

// Content selects which part of the structure survives.
type Content string

const (
	ContentNormal    Content = "normal"
	ContentMetadata  Content = "metadata"
	ContentValue     Content = "value"
	ContentReference Content = "reference"
	ContentPath      Content = "path"
)

// QueryModifier is a view restriction applied after retrieval. It never changes
// stored data.
type QueryModifier struct {
	Level   Level
	Extent  Extent
	Content Content
}

// DefaultModifier returns the full element tree without blob payloads.
var DefaultModifier = QueryModifier{
	Level:   LevelDeep,
	Extent:  ExtentWithoutBlobValue,
	Content: ContentNormal,
}

// CompleteModifier returns everything that is stored.
var CompleteModifier = QueryModifier{
	Level:   LevelDeep,
	Extent:  ExtentWithBlobValue,
	Content: ContentNormal,
}

// Normalize fills empty fields with the defaults.
func (q QueryModifier) Normalize() QueryModifier {
	if q.Level == "" {
		q.Level = DefaultModifier.Level
	}

	if q.Extent == "" {
		q.Extent = DefaultModifier.Extent
	}

	if q.Content == "" {
		q.Content = DefaultModifier.Content
	}

	return q
}
