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

package persistence_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

func sampleDocument() persistence.Document {
	return persistence.Document{
		"id":    "S1",
		"count": 2.0,
		"kind":  nil,
		"submodelElements": []interface{}{
			map[string]interface{}{"idShort": "P", "value": "1"},
			persistence.Document{"idShort": "C", "value": []interface{}{"a", "b"}},
		},
	}
}

var _ = Describe("Document", func() {
	It("clones nested trees without sharing", func() {
		original := sampleDocument()

		clone := original.Clone()
		Expect(clone).To(Equal(original))
		Expect(clone).To(HaveKeyWithValue("kind", BeNil()))

		elements := clone["submodelElements"].([]interface{})
		elements[0].(map[string]interface{})["value"] = "mutated"
		elements[1].(persistence.Document)["value"].([]interface{})[0] = "z"
		clone["id"] = "S2"

		Expect(original).To(Equal(sampleDocument()))
	})

	It("keeps nil and scalars", func() {
		var empty persistence.Document
		Expect(empty.Clone()).To(BeNil())
		Expect(persistence.CloneValue(nil)).To(BeNil())
		Expect(persistence.CloneValue("x")).To(Equal("x"))
		Expect(persistence.CloneValue(3.5)).To(Equal(3.5))
	})

	It("keeps the dynamic type of cloned values", func() {
		value := persistence.CloneValue(map[string]interface{}{"idShort": "P"})
		Expect(value).To(BeAssignableToTypeOf(map[string]interface{}{}))

		value = persistence.CloneValue([]interface{}{persistence.Document{"idShort": "P"}})
		Expect(value.([]interface{})[0]).To(BeAssignableToTypeOf(persistence.Document{}))
	})

	It("compares numbers by value", func() {
		Expect(persistence.Equal(map[string]interface{}{"n": 1}, persistence.Document{"n": 1.0})).To(BeTrue())
		Expect(persistence.Equal([]interface{}{int64(2)}, []interface{}{2.0})).To(BeTrue())
		Expect(persistence.Equal("a", "b")).To(BeFalse())
	})
})
