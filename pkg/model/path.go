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
	"regexp"
	"strconv"
	"strings"

	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

var indexPattern = regexp.MustCompile(`^\[(\d+)\]$`)

// Segment is one step of a Path: either a named child key or a position in an
// ordered list.
type Segment struct {
	key   string
	index int
	isIdx bool
}

// Key returns a segment addressing the child with the given idShort.
func Key(idShort string) Segment {
	return Segment{key: idShort}
}

// Index returns a segment addressing the n-th entry of an ordered list.
func Index(n int) Segment {
	return Segment{index: n, isIdx: true}
}

// ParseSegment classifies s: "[N]" is an index, anything else is a key.
func ParseSegment(s string) (Segment, error) {
	if m := indexPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Segment{}, standarderrors.InvalidArgument("index segment %q out of range", s)
		}

		return Index(n), nil
	}

	if strings.TrimSpace(s) == "" {
		return Segment{}, standarderrors.InvalidArgument("empty key segment")
	}

	if strings.ContainsAny(s, "[]") {
		return Segment{}, standarderrors.InvalidArgument("malformed segment %q", s)
	}

	return Key(s), nil
}

func (s Segment) IsIndex() bool { return s.isIdx }

// Key returns the idShort of a key segment and "" for index segments.
func (s Segment) Key() string { return s.key }

// Index returns the position of an index segment and -1 for key segments.
func (s Segment) Index() int {
	if !s.isIdx {
		return -1
	}

	return s.index
}

func (s Segment) String() string {
	if s.isIdx {
		return "[" + strconv.Itoa(s.index) + "]"
	}

	return s.key
}

// Path addresses an element below a submodel. The zero value is the empty path,
// which denotes the submodel's direct children. Paths are immutable; every method
// returns a new value.
type Path struct {
	segments []Segment
}

// NewPath builds a path from segments.
func NewPath(segments ...Segment) Path {
	if len(segments) == 0 {
		return Path{}
	}

	return Path{segments: append([]Segment(nil), segments...)}
}

// PathFromStrings builds a path from raw segments where "[N]" denotes an index.
func PathFromStrings(raw []string) (Path, error) {
	segments := make([]Segment, 0, len(raw))

	for _, r := range raw {
		seg, err := ParseSegment(r)
		if err != nil {
			return Path{}, err
		}

		segments = append(segments, seg)
	}

	return NewPath(segments...), nil
}

// ParsePath parses the idShort path notation, e.g. "Collection.List[2].Property".
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}

	var segments []Segment

	for _, part := range strings.Split(s, ".") {
		name := part
		rest := ""

		if i := strings.IndexByte(part, '['); i >= 0 {
			name, rest = part[:i], part[i:]
		}

		// a leading index is only valid for a part that is an index alone, e.g. "L.[1]"
		if name != "" {
			seg, err := ParseSegment(name)
			if err != nil {
				return Path{}, err
			}

			segments = append(segments, seg)
		} else if rest == "" {
			return Path{}, standarderrors.InvalidArgument("empty key segment in path %q", s)
		}

		for rest != "" {
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return Path{}, standarderrors.InvalidArgument("unbalanced brackets in path %q", s)
			}

			seg, err := ParseSegment(rest[:end+1])
			if err != nil {
				return Path{}, err
			}

			if !seg.IsIndex() {
				return Path{}, standarderrors.InvalidArgument("malformed index in path %q", s)
			}

			segments = append(segments, seg)
			rest = rest[end+1:]
		}
	}

	return NewPath(segments...), nil
}

// MustParsePath is ParsePath for literals known to be valid.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}

	return p
}

// Segments returns a copy of the segments.
func (p Path) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

func (p Path) Len() int { return len(p.segments) }

func (p Path) IsEmpty() bool { return len(p.segments) == 0 }

// Last returns the final segment. It panics on the empty path.
func (p Path) Last() Segment {
	return p.segments[len(p.segments)-1]
}

// Parent returns the path one level up. The parent of the empty path is empty.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}

	return NewPath(p.segments[:len(p.segments)-1]...)
}

// Append returns p extended by seg.
func (p Path) Append(seg Segment) Path {
	out := make([]Segment, 0, len(p.segments)+1)
	out = append(out, p.segments...)

	return Path{segments: append(out, seg)}
}

// HasIndex reports whether any segment is an index.
func (p Path) HasIndex() bool {
	for _, s := range p.segments {
		if s.IsIndex() {
			return true
		}
	}

	return false
}

func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}

	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}

	return true
}

// String renders the idShort path notation accepted by ParsePath.
func (p Path) String() string {
	var b strings.Builder

	for i, s := range p.segments {
		if i > 0 && !s.IsIndex() {
			b.WriteByte('.')
		}

		b.WriteString(s.String())
	}

	return b.String()
}
