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

package memory_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence/memory"
)

const submodels = "submodels"

// element builds a stored element document.
func element(idShort string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"idShort": idShort, "value": value}
}

func submodelDoc() persistence.Document {
	return persistence.Document{
		"id": "S1",
		"submodelElements": []interface{}{
			element("C", []interface{}{
				element("P", "1"),
				element("Q", "2"),
			}),
			element("L", []interface{}{"a", "b", "c"}),
			element("X", "leaf"),
		},
	}
}

func children(doc persistence.Document, idx int) []interface{} {
	elements := doc["submodelElements"].([]interface{})

	return elements[idx].(map[string]interface{})["value"].([]interface{})
}

var _ = Describe("InMemoryStore", func() {
	var (
		ctx   context.Context
		store *memory.InMemoryStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewInMemoryStore()
		_, err := store.Insert(ctx, submodels, submodelDoc())
		Expect(err).ToNot(HaveOccurred())
	})

	Context("document lifecycle", func() {
		It("rejects duplicate ids", func() {
			_, err := store.Insert(ctx, submodels, persistence.Document{"id": "S1"})
			Expect(errors.Is(err, persistence.ErrConflict)).To(BeTrue())
		})

		It("rejects documents without id", func() {
			_, err := store.Insert(ctx, submodels, persistence.Document{"idShort": "x"})
			Expect(err).To(HaveOccurred())
		})

		It("isolates stored documents from returned copies", func() {
			doc, err := store.Get(ctx, submodels, "S1")
			Expect(err).ToNot(HaveOccurred())

			children(doc, 0)[0].(map[string]interface{})["value"] = "mutated"

			again, err := store.Get(ctx, submodels, "S1")
			Expect(err).ToNot(HaveOccurred())
			Expect(children(again, 0)[0].(map[string]interface{})["value"]).To(Equal("1"))
		})

		It("upserts and deletes", func() {
			Expect(store.Upsert(ctx, submodels, "S2", persistence.Document{"idShort": "two"})).To(Succeed())

			doc, err := store.Get(ctx, submodels, "S2")
			Expect(err).ToNot(HaveOccurred())
			Expect(doc.ID()).To(Equal("S2"))

			Expect(store.Delete(ctx, submodels, "S2")).To(Succeed())
			_, err = store.Get(ctx, submodels, "S2")
			Expect(errors.Is(err, persistence.ErrNotFound)).To(BeTrue())
			Expect(errors.Is(store.Delete(ctx, submodels, "S2"), persistence.ErrNotFound)).To(BeTrue())
		})

		It("manages collections", func() {
			Expect(store.CreateCollection(ctx, "shells")).To(Succeed())
			Expect(errors.Is(store.CreateCollection(ctx, "shells"), persistence.ErrConflict)).To(BeTrue())

			names, err := store.ListCollections(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(names).To(Equal([]string{"shells", submodels}))

			Expect(store.DropCollection(ctx, "shells")).To(Succeed())
			Expect(errors.Is(store.DropCollection(ctx, "shells"), persistence.ErrNotFound)).To(BeTrue())
		})

		It("refuses work after Close", func() {
			Expect(store.Close(ctx)).To(Succeed())
			Expect(store.Ping(ctx)).To(MatchError(memory.ErrClosed))
		})
	})

	Context("Find", func() {
		BeforeEach(func() {
			for _, doc := range []persistence.Document{
				{"id": "A3", "idShort": "x", "semanticId": map[string]interface{}{"type": "ExternalReference", "keys": []interface{}{map[string]interface{}{"type": "GlobalReference", "value": "urn:x"}}}},
				{"id": "A1", "idShort": "y", "assetInformation": map[string]interface{}{
					"globalAssetId":    "urn:asset:1",
					"specificAssetIds": []interface{}{map[string]interface{}{"name": "serial", "value": "42"}},
				}},
				{"id": "A2", "idShort": "x", "assetInformation": map[string]interface{}{
					"specificAssetIds": []interface{}{
						map[string]interface{}{"name": "serial", "value": "7"},
						map[string]interface{}{"name": "batch", "value": "42"},
					},
				}},
			} {
				_, err := store.Insert(ctx, "shells", doc)
				Expect(err).ToNot(HaveOccurred())
			}
		})

		ids := func(docs []persistence.Document) []string {
			out := make([]string, 0, len(docs))
			for _, d := range docs {
				out = append(out, d.ID())
			}

			return out
		}

		It("returns insertion order without sort and honours sort, skip and limit", func() {
			docs, err := store.Find(ctx, "shells", *persistence.NewQuery())
			Expect(err).ToNot(HaveOccurred())
			Expect(ids(docs)).To(Equal([]string{"A3", "A1", "A2"}))

			docs, err = store.Find(ctx, "shells", *persistence.NewQuery().Sort("id", persistence.Asc).Skip(1).Limit(1))
			Expect(err).ToNot(HaveOccurred())
			Expect(ids(docs)).To(Equal([]string{"A2"}))
		})

		It("compares embedded documents by value", func() {
			ref := map[string]interface{}{"keys": []interface{}{map[string]interface{}{"value": "urn:x", "type": "GlobalReference"}}, "type": "ExternalReference"}

			docs, err := store.Find(ctx, "shells", *persistence.NewQuery().Filter("semanticId", persistence.Eq, ref))
			Expect(err).ToNot(HaveOccurred())
			Expect(ids(docs)).To(Equal([]string{"A3"}))
		})

		It("requires specific asset id pairs to match within one entry", func() {
			pair := []persistence.FilterCondition{
				persistence.Where("name", persistence.Eq, "serial"),
				persistence.Where("value", persistence.Eq, "42"),
			}

			docs, err := store.Find(ctx, "shells", *persistence.NewQuery().
				Filter("assetInformation.specificAssetIds", persistence.ElemMatch, pair))
			Expect(err).ToNot(HaveOccurred())
			Expect(ids(docs)).To(Equal([]string{"A1"}))
		})

		It("combines filters with OR groups", func() {
			docs, err := store.Find(ctx, "shells", *persistence.NewQuery().
				Filter("idShort", persistence.Eq, "x").
				Or(
					[]persistence.FilterCondition{persistence.Where("assetInformation.specificAssetIds.value", persistence.Eq, "42")},
					[]persistence.FilterCondition{persistence.Where("assetInformation.globalAssetId", persistence.In, []string{"urn:none"})},
				))
			Expect(err).ToNot(HaveOccurred())
			Expect(ids(docs)).To(Equal([]string{"A2"}))
		})

		It("returns nothing for a missing collection", func() {
			docs, err := store.Find(ctx, "missing", *persistence.NewQuery())
			Expect(err).ToNot(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})
	})

	Context("positional updates", func() {
		keyFilter := func(name, key string) persistence.PositionalFilter {
			return persistence.PositionalFilter{Name: name, Key: "idShort", Value: key}
		}

		It("sets a nested entry selected by filters", func() {
			res, err := store.UpdateOne(ctx, submodels, "S1",
				persistence.Set("submodelElements.$[a0].value.$[a1]", element("P", "2")).
					WithArrayFilters(keyFilter("a0", "C"), keyFilter("a1", "P")))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Modified).To(Equal(int64(1)))

			doc, _ := store.Get(ctx, submodels, "S1")
			Expect(children(doc, 0)).To(HaveLen(2))
			Expect(children(doc, 0)[0]).To(Equal(element("P", "2")))
		})

		It("reports no modification when a filter matches nothing", func() {
			res, err := store.UpdateOne(ctx, submodels, "S1",
				persistence.Set("submodelElements.$[a0].value.$[a1]", element("Z", "2")).
					WithArrayFilters(keyFilter("a0", "C"), keyFilter("a1", "Z")))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Modified).To(BeZero())
			Expect(res.Matched).To(Equal(int64(1)))
		})

		It("does not pad arrays when setting beyond their end", func() {
			res, err := store.UpdateOne(ctx, submodels, "S1",
				persistence.Set("submodelElements.$[a0].value.5", "z").WithArrayFilters(keyFilter("a0", "L")))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Modified).To(BeZero())

			doc, _ := store.Get(ctx, submodels, "S1")
			Expect(children(doc, 1)).To(HaveLen(3))
		})

		It("pushes and pulls", func() {
			_, err := store.UpdateOne(ctx, submodels, "S1",
				persistence.Push("submodelElements.$[a0].value", element("R", "3")).WithArrayFilters(keyFilter("a0", "C")))
			Expect(err).ToNot(HaveOccurred())

			res, err := store.UpdateOne(ctx, submodels, "S1",
				persistence.PullWhere("submodelElements.$[a0].value", persistence.Where("idShort", persistence.Eq, "P")).
					WithArrayFilters(keyFilter("a0", "C")))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Modified).To(Equal(int64(1)))

			doc, _ := store.Get(ctx, submodels, "S1")
			Expect(children(doc, 0)).To(Equal([]interface{}{element("Q", "2"), element("R", "3")}))
		})

		It("fails on unknown filter names without touching the document", func() {
			_, err := store.UpdateOne(ctx, submodels, "S1",
				persistence.Set("submodelElements.$[zz]", "x"))
			Expect(err).To(HaveOccurred())

			doc, _ := store.Get(ctx, submodels, "S1")
			Expect(doc).To(Equal(submodelDoc()))
		})

		It("removes an entry by position", func() {
			res, err := store.RemoveAt(ctx, submodels, "S1", "submodelElements.$[a0].value", 1,
				[]persistence.PositionalFilter{keyFilter("a0", "L")})
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Modified).To(Equal(int64(1)))

			doc, _ := store.Get(ctx, submodels, "S1")
			Expect(children(doc, 1)).To(Equal([]interface{}{"a", "c"}))
		})

		It("pulls from every matching document", func() {
			for _, id := range []string{"AAS1", "AAS2"} {
				_, err := store.Insert(ctx, "shells", persistence.Document{
					"id": id,
					"submodels": []interface{}{
						map[string]interface{}{"type": "ModelReference", "keys": []interface{}{map[string]interface{}{"type": "Submodel", "value": "S1"}}},
						map[string]interface{}{"type": "ModelReference", "keys": []interface{}{map[string]interface{}{"type": "Submodel", "value": "S9"}}},
					},
				})
				Expect(err).ToNot(HaveOccurred())
			}

			res, err := store.UpdateMany(ctx, "shells",
				*persistence.NewQuery().Filter("submodels.keys.value", persistence.Eq, "S1"),
				persistence.PullWhere("submodels", persistence.Where("keys.value", persistence.Eq, "S1")))
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Modified).To(Equal(int64(2)))

			doc, _ := store.Get(ctx, "shells", "AAS2")
			Expect(doc["submodels"]).To(HaveLen(1))
		})
	})

	Context("Aggregate", func() {
		It("walks nested arrays with unwind and match", func() {
			docs, err := store.Aggregate(ctx, submodels, persistence.Pipeline{
				persistence.MatchStage(persistence.Where("id", persistence.Eq, "S1")),
				persistence.UnwindStage("submodelElements"),
				persistence.MatchStage(persistence.Where("submodelElements.idShort", persistence.Eq, "C")),
				persistence.UnwindStage("submodelElements.value"),
				persistence.MatchStage(persistence.Where("submodelElements.value.idShort", persistence.Eq, "Q")),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(docs).To(HaveLen(1))

			sme := docs[0]["submodelElements"].(map[string]interface{})
			Expect(sme["value"]).To(Equal(element("Q", "2")))
		})

		It("selects list entries with skip and limit", func() {
			docs, err := store.Aggregate(ctx, submodels, persistence.Pipeline{
				persistence.MatchStage(persistence.Where("id", persistence.Eq, "S1")),
				persistence.UnwindStage("submodelElements"),
				persistence.MatchStage(persistence.Where("submodelElements.idShort", persistence.Eq, "L")),
				persistence.UnwindStage("submodelElements.value"),
				persistence.SkipStage(2),
				persistence.LimitStage(1),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0]["submodelElements"].(map[string]interface{})["value"]).To(Equal("c"))
		})

		It("passes non-array values through unwind", func() {
			docs, err := store.Aggregate(ctx, submodels, persistence.Pipeline{
				persistence.UnwindStage("submodelElements"),
				persistence.MatchStage(persistence.Where("submodelElements.idShort", persistence.Eq, "X")),
				persistence.UnwindStage("submodelElements.value"),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0]["submodelElements"].(map[string]interface{})["value"]).To(Equal("leaf"))
		})

		It("yields nothing past the end of a list", func() {
			docs, err := store.Aggregate(ctx, submodels, persistence.Pipeline{
				persistence.UnwindStage("submodelElements"),
				persistence.MatchStage(persistence.Where("submodelElements.idShort", persistence.Eq, "L")),
				persistence.UnwindStage("submodelElements.value"),
				persistence.SkipStage(3),
				persistence.LimitStage(1),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})
	})
})
