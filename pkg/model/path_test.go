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

package model_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

var _ = Describe("Path", func() {
	Context("parsing", func() {
		It("splits keys and indices", func() {
			p, err := model.ParsePath("C.L[1][0].P")
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Segments()).To(Equal([]model.Segment{
				model.Key("C"), model.Key("L"), model.Index(1), model.Index(0), model.Key("P"),
			}))
			Expect(p.String()).To(Equal("C.L[1][0].P"))
		})

		It("treats the empty string as the empty path", func() {
			p, err := model.ParsePath("")
			Expect(err).ToNot(HaveOccurred())
			Expect(p.IsEmpty()).To(BeTrue())
			Expect(p.Parent().IsEmpty()).To(BeTrue())
		})

		DescribeTable("rejects malformed paths",
			func(raw string) {
				_, err := model.ParsePath(raw)
				Expect(standarderrors.IsInvalidArgument(err)).To(BeTrue())
			},
			Entry("empty key", "C..P"),
			Entry("unbalanced bracket", "L[1"),
			Entry("non-numeric index", "L[x]"),
			Entry("negative index", "L[-1]"),
		)

		It("classifies raw segments", func() {
			p, err := model.PathFromStrings([]string{"L", "[2]"})
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Last().IsIndex()).To(BeTrue())
			Expect(p.Last().Index()).To(Equal(2))
			Expect(p.Segments()[0].Index()).To(Equal(-1))
		})
	})

	Context("immutability", func() {
		It("does not share segments between derived paths", func() {
			base := model.NewPath(model.Key("C"))
			a := base.Append(model.Key("A"))
			b := base.Append(model.Key("B"))

			Expect(a.String()).To(Equal("C.A"))
			Expect(b.String()).To(Equal("C.B"))
			Expect(base.Len()).To(Equal(1))

			segs := a.Segments()
			segs[0] = model.Key("X")
			Expect(a.String()).To(Equal("C.A"))
		})

		It("computes parents", func() {
			p := model.MustParsePath("C.L[3]")
			Expect(p.Parent().String()).To(Equal("C.L"))
			Expect(p.HasIndex()).To(BeTrue())
			Expect(p.Parent().HasIndex()).To(BeFalse())
		})
	})
})

var _ = Describe("ElementIdentifier", func() {
	It("compares submodel id and segments in order", func() {
		a := model.NewElementIdentifier("S1", model.MustParsePath("C.P"))
		b := model.SubmodelIdentifier("S1").Child(model.Key("C")).Child(model.Key("P"))
		c := model.NewElementIdentifier("S2", model.MustParsePath("C.P"))

		Expect(a.Equal(b)).To(BeTrue())
		Expect(a.Equal(c)).To(BeFalse())
		Expect(a.Parent().Equal(model.NewElementIdentifier("S1", model.MustParsePath("C")))).To(BeTrue())
	})

	It("round-trips the string notation", func() {
		id, err := model.ParseElementIdentifier("S2#L[1]")
		Expect(err).ToNot(HaveOccurred())
		Expect(id.SubmodelID).To(Equal("S2"))
		Expect(id.String()).To(Equal("S2#L[1]"))

		sm, err := model.ParseElementIdentifier("S2")
		Expect(err).ToNot(HaveOccurred())
		Expect(sm.IsSubmodel()).To(BeTrue())
	})

	It("rejects blank submodel ids and leading indices", func() {
		Expect(standarderrors.IsInvalidArgument(model.SubmodelIdentifier(" ").Validate())).To(BeTrue())
		Expect(standarderrors.IsInvalidArgument(
			model.NewElementIdentifier("S1", model.NewPath(model.Index(0))).Validate(),
		)).To(BeTrue())
	})
})

var _ = Describe("Containers", func() {
	It("recognizes the four container kinds", func() {
		Expect(model.IsContainer(&model.Submodel{})).To(BeTrue())
		Expect(model.IsContainer(&model.SubmodelElementCollection{})).To(BeTrue())
		Expect(model.IsContainer(&model.SubmodelElementList{})).To(BeTrue())
		Expect(model.IsContainer(&model.Entity{})).To(BeTrue())
		Expect(model.IsContainer(&model.Property{})).To(BeFalse())
		Expect(model.IsContainer(&model.Blob{})).To(BeFalse())
	})

	It("compares references by type and keys", func() {
		Expect(model.GlobalReference("urn:a").Equal(model.GlobalReference("urn:a"))).To(BeTrue())
		Expect(model.GlobalReference("urn:a").Equal(model.GlobalReference("urn:b"))).To(BeFalse())

		var none *model.Reference
		Expect(none.Equal(nil)).To(BeTrue())
	})
})
