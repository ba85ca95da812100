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
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	// MarkerPrefix starts every deletion marker. The NUL byte keeps markers out of
	// the space of idShorts and printable values.
	MarkerPrefix = "\x00twinstore-marker:"

	markerLength  = 48
	markerCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// MarkerGenerator produces the placeholder values written over list entries that
// are deleted by value.
type MarkerGenerator interface {
	NextMarker() string
}

// RandomMarkerGenerator emits markers of 48 base62 characters (about 285 bits).
// It is safe for concurrent use.
type RandomMarkerGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomMarkerGenerator seeds a generator from crypto/rand.
func NewRandomMarkerGenerator() *RandomMarkerGenerator {
	seed := make([]byte, 16)

	if _, err := cryptorand.Read(seed); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}

	return NewSeededMarkerGenerator(binary.LittleEndian.Uint64(seed[:8]), binary.LittleEndian.Uint64(seed[8:]))
}

// NewSeededMarkerGenerator returns a deterministic generator.
func NewSeededMarkerGenerator(seed1, seed2 uint64) *RandomMarkerGenerator {
	return &RandomMarkerGenerator{
		//nolint:gosec // markers must be unique, not unpredictable
		rng: rand.New(rand.NewPCG(seed1, seed2)),
	}
}

func (g *RandomMarkerGenerator) NextMarker() string {
	buf := make([]byte, markerLength)

	g.mu.Lock()
	for i := range buf {
		buf[i] = markerCharset[g.rng.IntN(len(markerCharset))]
	}
	g.mu.Unlock()

	return MarkerPrefix + string(buf)
}

// IsMarker reports whether v is a deletion marker left behind by an interrupted
// delete.
func IsMarker(v interface{}) bool {
	s, ok := v.(string)

	return ok && strings.HasPrefix(s, MarkerPrefix)
}
