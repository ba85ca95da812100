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

package repository_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/repository"
)

var _ = Describe("CompilePath", func() {
	const base = "submodelElements"

	It("places one placeholder per key and a numeric segment per index", func() {
		compiled := repository.CompilePath(model.MustParsePath("C.L[1].P"), base)

		Expect(compiled.Field).To(Equal("submodelElements.$[a0].value.$[a1].value.1.value.$[a3]"))
		Expect(compiled.Filters).To(Equal([]persistence.PositionalFilter{
			{Name: "a0", Key: "idShort", Value: "C"},
			{Name: "a1", Key: "idShort", Value: "L"},
			{Name: "a3", Key: "idShort", Value: "P"},
		}))
		Expect(compiled.ChildArray()).To(Equal(compiled.Field + ".value"))
	})

	It("addresses the base array for the empty path", func() {
		compiled := repository.CompilePath(model.Path{}, base)

		Expect(compiled.Field).To(Equal(base))
		Expect(compiled.Filters).To(BeEmpty())
		Expect(compiled.ChildArray()).To(Equal(base))
	})

	It("keeps list children of a list in the value array", func() {
		compiled := repository.CompilePath(model.MustParsePath("L[0][2]"), base)

		Expect(compiled.Field).To(Equal("submodelElements.$[a0].value.0.value.2"))
		Expect(compiled.Filters).To(HaveLen(1))
	})

	DescribeTable("is idempotent and counts one filter per key",
		func(raw string, keys int) {
			path := model.MustParsePath(raw)
			first := repository.CompilePath(path, base)
			second := repository.CompilePath(model.MustParsePath(path.String()), base)

			Expect(first.Equal(second)).To(BeTrue())
			Expect(first.Filters).To(HaveLen(keys))
		},
		Entry("single key", "P", 1),
		Entry("nested keys", "C.Inner.Y", 3),
		Entry("list entry", "L[3]", 1),
		Entry("mixed", "C.L[1][0].P", 3),
	)

	It("distinguishes paths that differ in one segment", func() {
		a := repository.CompilePath(model.MustParsePath("C.A"), base)
		b := repository.CompilePath(model.MustParsePath("C.B"), base)

		Expect(a.Equal(b)).To(BeFalse())
	})
})

var _ = Describe("BuildReadPipeline", func() {
	It("unwinds one level per segment", func() {
		id := model.NewElementIdentifier("S1", model.MustParsePath("C.L[1]"))

		Expect(repository.BuildReadPipeline(id)).To(Equal(persistence.Pipeline{
			persistence.MatchStage(persistence.Where("id", persistence.Eq, "S1")),
			persistence.UnwindStage("submodelElements"),
			persistence.MatchStage(persistence.Where("submodelElements.idShort", persistence.Eq, "C")),
			persistence.UnwindStage("submodelElements.value"),
			persistence.MatchStage(persistence.Where("submodelElements.value.idShort", persistence.Eq, "L")),
			persistence.UnwindStage("submodelElements.value.value"),
			persistence.SkipStage(1),
			persistence.LimitStage(1),
		}))
	})

	It("only matches the submodel for the empty path", func() {
		Expect(repository.BuildReadPipeline(model.SubmodelIdentifier("S1"))).To(HaveLen(1))
	})
})

var _ = Describe("RandomMarkerGenerator", func() {
	It("emits distinct prefixed markers", func() {
		gen := repository.NewRandomMarkerGenerator()
		seen := map[string]bool{}

		for range 100 {
			m := gen.NextMarker()
			Expect(repository.IsMarker(m)).To(BeTrue())
			Expect(m).To(HaveLen(len(repository.MarkerPrefix) + 48))
			Expect(seen).ToNot(HaveKey(m))
			seen[m] = true
		}
	})

	It("is deterministic for a fixed seed", func() {
		a := repository.NewSeededMarkerGenerator(7, 11)
		b := repository.NewSeededMarkerGenerator(7, 11)

		Expect(a.NextMarker()).To(Equal(b.NextMarker()))
	})

	It("does not mistake ordinary values for markers", func() {
		Expect(repository.IsMarker("twinstore-marker:abc")).To(BeFalse())
		Expect(repository.IsMarker(42)).To(BeFalse())
	})
})
