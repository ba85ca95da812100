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
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/twinstore/pkg/config"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence/memory"
	"github.com/united-manufacturing-hub/twinstore/pkg/repository"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

type staticModel struct {
	env   *model.Environment
	err   error
	calls int
}

func (s *staticModel) InitialModel(_ context.Context) (*model.Environment, error) {
	s.calls++

	return s.env, s.err
}

// flakyStore fails submodel inserts while failing is set. Close is a no-op so the
// same store can serve a second Start.
type flakyStore struct {
	persistence.Store
	failing atomic.Bool
}

func (f *flakyStore) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	if collection == repository.CollectionSubmodels && f.failing.Load() {
		return "", errors.New("connection reset")
	}

	return f.Store.Insert(ctx, collection, doc)
}

func (f *flakyStore) Close(context.Context) error { return nil }

func shell(id string, globalAssetID string, submodelIDs ...string) *model.AssetAdministrationShell {
	aas := &model.AssetAdministrationShell{
		ID: id,
		AssetInformation: model.AssetInformation{
			AssetKind:     model.AssetKindInstance,
			GlobalAssetID: globalAssetID,
		},
	}
	aas.IDShort = "shell-" + id

	for _, smID := range submodelIDs {
		aas.Submodels = append(aas.Submodels, model.SubmodelReference(smID))
	}

	return aas
}

func submodel(id string, semanticID string, elements ...model.SubmodelElement) *model.Submodel {
	sm := &model.Submodel{ID: id, SubmodelElements: elements}
	sm.IDShort = "sm-" + id

	if semanticID != "" {
		sm.SemanticID = model.GlobalReference(semanticID)
	}

	return sm
}

func conceptDescription(id string, isCaseOf string) *model.ConceptDescription {
	cd := &model.ConceptDescription{ID: id}
	cd.IDShort = "cd-" + id

	if isCaseOf != "" {
		cd.IsCaseOf = []model.Reference{*model.GlobalReference(isCaseOf)}
	}

	return cd
}

func shellIDs(items []*model.AssetAdministrationShell) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}

	return out
}

func submodelIDs(items []*model.Submodel) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}

	return out
}

var _ = Describe("Repository", func() {
	var (
		ctx      context.Context
		store    *memory.InMemoryStore
		provider *staticModel
		repo     *repository.Repository
	)

	newRepository := func(cfg config.Config) *repository.Repository {
		return repository.New(cfg,
			repository.WithLogger(zap.NewNop().Sugar()),
			repository.WithModelProvider(provider),
			repository.WithMarkerGenerator(repository.NewSeededMarkerGenerator(3, 4)),
			repository.WithStoreOpener(func(context.Context, config.Config) (persistence.Store, error) {
				return store, nil
			}),
		)
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewInMemoryStore()
		provider = &staticModel{env: &model.Environment{
			AssetAdministrationShells: []*model.AssetAdministrationShell{shell("A1", "urn:asset:1", "S1")},
			Submodels:                 []*model.Submodel{sampleSubmodel()},
			ConceptDescriptions:       []*model.ConceptDescription{conceptDescription("CD1", "urn:case:1")},
		}}
		repo = newRepository(config.Default())
	})

	AfterEach(func() {
		if repo.State() == repository.StateStarted {
			Expect(repo.Stop(ctx)).To(Succeed())
		}
	})

	Describe("lifecycle", func() {
		It("rejects operations before start and after stop", func() {
			Expect(repo.State()).To(Equal(repository.StateUninitialized))

			_, err := repo.GetSubmodel(ctx, "S1", model.DefaultModifier)
			Expect(err).To(MatchError(repository.ErrNotStarted))

			Expect(repo.Start(ctx)).To(Succeed())
			Expect(repo.State()).To(Equal(repository.StateStarted))

			Expect(repo.Stop(ctx)).To(Succeed())
			Expect(repo.State()).To(Equal(repository.StateStopped))

			_, err = repo.GetSubmodel(ctx, "S1", model.DefaultModifier)
			Expect(err).To(MatchError(repository.ErrNotStarted))
		})

		It("cannot be started twice or restarted after stop", func() {
			Expect(repo.Start(ctx)).To(Succeed())
			Expect(repo.Start(ctx)).ToNot(Succeed())

			Expect(repo.Stop(ctx)).To(Succeed())
			Expect(repo.Start(ctx)).ToNot(Succeed())
			Expect(repo.Stop(ctx)).ToNot(Succeed())
		})

		It("rejects an invalid configuration", func() {
			cfg := config.Default()
			cfg.Backend = config.BackendMongo

			repo = newRepository(cfg)

			err := repo.Start(ctx)
			Expect(standarderrors.IsInvalidArgument(err)).To(BeTrue())
			Expect(repo.State()).To(Equal(repository.StateUninitialized))
		})

		It("stays uninitialized when the initial model cannot be loaded", func() {
			provider.err = errors.New("file not readable")

			Expect(repo.Start(ctx)).To(MatchError(ContainSubstring("file not readable")))
			Expect(repo.State()).To(Equal(repository.StateUninitialized))
		})

		It("bootstraps the initial model into a fresh store", func() {
			Expect(repo.Start(ctx)).To(Succeed())
			Expect(provider.calls).To(Equal(1))

			names, err := store.ListCollections(ctx)
			Expect(err).ToNot(HaveOccurred())
			Expect(names).To(ConsistOf(repository.Collections))

			sm, err := repo.GetSubmodel(ctx, "S1", model.CompleteModifier)
			Expect(err).ToNot(HaveOccurred())
			Expect(sm).To(Equal(sampleSubmodel()))
		})

		It("discards a partly loaded model so the next start bootstraps again", func() {
			flaky := &flakyStore{Store: store}
			flaky.failing.Store(true)

			repo = repository.New(config.Default(),
				repository.WithLogger(zap.NewNop().Sugar()),
				repository.WithModelProvider(provider),
				repository.WithStoreOpener(func(context.Context, config.Config) (persistence.Store, error) {
					return flaky, nil
				}),
			)

			err := repo.Start(ctx)
			Expect(standarderrors.IsBackingStoreFailure(err)).To(BeTrue())
			Expect(repo.State()).To(Equal(repository.StateUninitialized))

			names, err := store.ListCollections(ctx)
			Expect(err).ToNot(HaveOccurred())
			for _, own := range repository.Collections {
				Expect(names).ToNot(ContainElement(own))
			}

			flaky.failing.Store(false)

			Expect(repo.Start(ctx)).To(Succeed())
			Expect(provider.calls).To(Equal(2))

			_, err = repo.GetAssetAdministrationShell(ctx, "A1", model.DefaultModifier)
			Expect(err).ToNot(HaveOccurred())

			sm, err := repo.GetSubmodel(ctx, "S1", model.CompleteModifier)
			Expect(err).ToNot(HaveOccurred())
			Expect(sm).To(Equal(sampleSubmodel()))
		})

		It("keeps existing collections unless override is set", func() {
			Expect(store.CreateCollection(ctx, repository.CollectionSubmodels)).To(Succeed())
			seed(ctx, store)

			extra := submodel("S2", "")
			doc, err := store.Get(ctx, repository.CollectionSubmodels, "S1")
			Expect(err).ToNot(HaveOccurred())
			Expect(doc).ToNot(BeNil())

			Expect(repo.Start(ctx)).To(Succeed())
			Expect(provider.calls).To(BeZero())
			Expect(repo.SaveSubmodel(ctx, extra)).To(Succeed())
			Expect(repo.Stop(ctx)).To(Succeed())

			store = memory.NewInMemoryStore()
			Expect(store.CreateCollection(ctx, repository.CollectionSubmodels)).To(Succeed())
			Expect(store.Upsert(ctx, repository.CollectionSubmodels, "S9", persistence.Document{"idShort": "stale"})).To(Succeed())

			cfg := config.Default()
			cfg.Override = true
			repo = newRepository(cfg)

			Expect(repo.Start(ctx)).To(Succeed())
			Expect(provider.calls).To(Equal(1))

			_, err = repo.GetSubmodel(ctx, "S9", model.DefaultModifier)
			Expect(standarderrors.IsNotFound(err)).To(BeTrue())

			_, err = repo.GetSubmodel(ctx, "S1", model.DefaultModifier)
			Expect(err).ToNot(HaveOccurred())
		})
	})

	Context("when started", func() {
		BeforeEach(func() {
			Expect(repo.Start(ctx)).To(Succeed())
		})

		Describe("identifiables", func() {
			It("saves, reads and deletes shells", func() {
				aas := shell("A2", "urn:asset:2")
				Expect(repo.SaveAssetAdministrationShell(ctx, aas)).To(Succeed())

				got, err := repo.GetAssetAdministrationShell(ctx, "A2", model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(got.ID).To(Equal("A2"))
				Expect(got.AssetInformation.GlobalAssetID).To(Equal("urn:asset:2"))

				aas.AssetInformation.GlobalAssetID = "urn:asset:2b"
				Expect(repo.SaveAssetAdministrationShell(ctx, aas)).To(Succeed())

				got, err = repo.GetAssetAdministrationShell(ctx, "A2", model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(got.AssetInformation.GlobalAssetID).To(Equal("urn:asset:2b"))

				Expect(repo.DeleteAssetAdministrationShell(ctx, "A2")).To(Succeed())

				_, err = repo.GetAssetAdministrationShell(ctx, "A2", model.DefaultModifier)
				Expect(standarderrors.IsNotFound(err)).To(BeTrue())

				err = repo.DeleteAssetAdministrationShell(ctx, "A2")
				Expect(standarderrors.IsNotFound(err)).To(BeTrue())
			})

			It("rejects identifiables without id", func() {
				err := repo.SaveSubmodel(ctx, submodel("", ""))
				Expect(standarderrors.IsInvalidArgument(err)).To(BeTrue())

				err = repo.SaveConceptDescription(ctx, nil)
				Expect(standarderrors.IsInvalidArgument(err)).To(BeTrue())
			})

			It("rejects nil identifiables", func() {
				Expect(standarderrors.IsInvalidArgument(repo.SaveAssetAdministrationShell(ctx, nil))).To(BeTrue())
				Expect(standarderrors.IsInvalidArgument(repo.SaveSubmodel(ctx, nil))).To(BeTrue())
				Expect(standarderrors.IsInvalidArgument(repo.SaveConceptDescription(ctx, nil))).To(BeTrue())
			})

			It("saves, reads and deletes concept descriptions", func() {
				Expect(repo.SaveConceptDescription(ctx, conceptDescription("CD2", ""))).To(Succeed())

				cd, err := repo.GetConceptDescription(ctx, "CD2", model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(cd.IDShort).To(Equal("cd-CD2"))

				Expect(repo.DeleteConceptDescription(ctx, "CD2")).To(Succeed())

				_, err = repo.GetConceptDescription(ctx, "CD2", model.DefaultModifier)
				Expect(standarderrors.IsNotFound(err)).To(BeTrue())
			})

			It("removes shell references when a submodel is deleted", func() {
				Expect(repo.SaveSubmodel(ctx, submodel("S2", ""))).To(Succeed())
				Expect(repo.SaveAssetAdministrationShell(ctx, shell("A2", "urn:asset:2", "S1", "S2"))).To(Succeed())

				Expect(repo.DeleteSubmodel(ctx, "S1")).To(Succeed())

				for _, id := range []string{"A1", "A2"} {
					aas, err := repo.GetAssetAdministrationShell(ctx, id, model.DefaultModifier)
					Expect(err).ToNot(HaveOccurred())

					for _, ref := range aas.Submodels {
						Expect(ref.Keys[0].Value).ToNot(Equal("S1"))
					}
				}

				aas, err := repo.GetAssetAdministrationShell(ctx, "A2", model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(aas.Submodels).To(Equal([]model.Reference{model.SubmodelReference("S2")}))
			})

			It("does not touch shells when the submodel does not exist", func() {
				err := repo.DeleteSubmodel(ctx, "S9")
				Expect(standarderrors.IsNotFound(err)).To(BeTrue())

				aas, err := repo.GetAssetAdministrationShell(ctx, "A1", model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(aas.Submodels).To(HaveLen(1))
			})

			It("refuses to bootstrap ids that already exist", func() {
				err := repo.BootstrapFromModel(ctx, provider.env)
				Expect(standarderrors.IsAlreadyExists(err)).To(BeTrue())
			})

			It("empties every collection on reset", func() {
				Expect(repo.ResetAll(ctx)).To(Succeed())

				page, err := repo.FindSubmodels(ctx, model.SubmodelSearchCriteria{}, model.DefaultModifier, model.AllItems)
				Expect(err).ToNot(HaveOccurred())
				Expect(page.Items).To(BeEmpty())
			})
		})

		Describe("search and paging", func() {
			BeforeEach(func() {
				for _, id := range []string{"S5", "S3", "S4", "S2"} {
					Expect(repo.SaveSubmodel(ctx, submodel(id, "urn:semantic:"+id))).To(Succeed())
				}
			})

			It("pages through submodels sorted by id", func() {
				info := model.PagingInfo{Limit: 2}

				page, err := repo.FindSubmodels(ctx, model.SubmodelSearchCriteria{}, model.DefaultModifier, info)
				Expect(err).ToNot(HaveOccurred())
				Expect(submodelIDs(page.Items)).To(Equal([]string{"S1", "S2"}))
				Expect(page.Metadata.Cursor).To(Equal("2"))

				info.Cursor = page.Metadata.Cursor
				page, err = repo.FindSubmodels(ctx, model.SubmodelSearchCriteria{}, model.DefaultModifier, info)
				Expect(err).ToNot(HaveOccurred())
				Expect(submodelIDs(page.Items)).To(Equal([]string{"S3", "S4"}))
				Expect(page.Metadata.Cursor).To(Equal("4"))

				info.Cursor = page.Metadata.Cursor
				page, err = repo.FindSubmodels(ctx, model.SubmodelSearchCriteria{}, model.DefaultModifier, info)
				Expect(err).ToNot(HaveOccurred())
				Expect(submodelIDs(page.Items)).To(Equal([]string{"S5"}))
				Expect(page.HasMore()).To(BeFalse())
			})

			It("rejects a cursor without a limit", func() {
				_, err := repo.FindSubmodels(ctx, model.SubmodelSearchCriteria{}, model.DefaultModifier, model.PagingInfo{Cursor: "2"})
				Expect(standarderrors.IsInvalidArgument(err)).To(BeTrue())
			})

			It("filters submodels by semanticId and idShort", func() {
				page, err := repo.FindSubmodels(ctx,
					model.SubmodelSearchCriteria{SemanticID: model.GlobalReference("urn:semantic:S3")},
					model.DefaultModifier, model.AllItems)
				Expect(err).ToNot(HaveOccurred())
				Expect(submodelIDs(page.Items)).To(Equal([]string{"S3"}))

				page, err = repo.FindSubmodels(ctx,
					model.SubmodelSearchCriteria{IDShort: "Sample"},
					model.DefaultModifier, model.AllItems)
				Expect(err).ToNot(HaveOccurred())
				Expect(submodelIDs(page.Items)).To(Equal([]string{"S1"}))
			})

			It("applies the query modifier to every page item", func() {
				page, err := repo.FindSubmodels(ctx, model.SubmodelSearchCriteria{IDShort: "Sample"},
					model.QueryModifier{Content: model.ContentMetadata}, model.AllItems)
				Expect(err).ToNot(HaveOccurred())
				Expect(page.Items).To(HaveLen(1))
				Expect(page.Items[0].SubmodelElements).To(BeEmpty())

				stored, err := repo.GetSubmodel(ctx, "S1", model.CompleteModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(stored.SubmodelElements).To(HaveLen(4))
			})

			It("finds shells by global and specific asset ids", func() {
				tagged := shell("A2", "urn:asset:2")
				tagged.AssetInformation.SpecificAssetIDs = []model.SpecificAssetID{{Name: "serial", Value: "42"}}
				Expect(repo.SaveAssetAdministrationShell(ctx, tagged)).To(Succeed())
				Expect(repo.SaveAssetAdministrationShell(ctx, shell("A3", "urn:asset:3"))).To(Succeed())

				page, err := repo.FindAssetAdministrationShells(ctx, model.AssetAdministrationShellSearchCriteria{
					AssetIDs: []model.AssetIdentification{
						model.GlobalAssetIdentification("urn:asset:1"),
						model.GlobalAssetIdentification("urn:asset:3"),
					},
				}, model.DefaultModifier, model.AllItems)
				Expect(err).ToNot(HaveOccurred())
				Expect(shellIDs(page.Items)).To(Equal([]string{"A1", "A3"}))

				page, err = repo.FindAssetAdministrationShells(ctx, model.AssetAdministrationShellSearchCriteria{
					AssetIDs: []model.AssetIdentification{{Name: "serial", Value: "42"}},
				}, model.DefaultModifier, model.AllItems)
				Expect(err).ToNot(HaveOccurred())
				Expect(shellIDs(page.Items)).To(Equal([]string{"A2"}))

				page, err = repo.FindAssetAdministrationShells(ctx, model.AssetAdministrationShellSearchCriteria{
					AssetIDs: []model.AssetIdentification{{Name: "serial", Value: "43"}},
				}, model.DefaultModifier, model.AllItems)
				Expect(err).ToNot(HaveOccurred())
				Expect(page.Items).To(BeEmpty())
			})

			It("finds concept descriptions by isCaseOf", func() {
				Expect(repo.SaveConceptDescription(ctx, conceptDescription("CD2", "urn:case:2"))).To(Succeed())

				page, err := repo.FindConceptDescriptions(ctx, model.ConceptDescriptionSearchCriteria{
					IsCaseOf: model.GlobalReference("urn:case:2"),
				}, model.DefaultModifier, model.AllItems)
				Expect(err).ToNot(HaveOccurred())
				Expect(page.Items).To(HaveLen(1))
				Expect(page.Items[0].ID).To(Equal("CD2"))
			})

			It("pages through the submodel references of a shell", func() {
				Expect(repo.SaveAssetAdministrationShell(ctx, shell("A2", "", "S1", "S2", "S3"))).To(Succeed())

				page, err := repo.GetSubmodelRefs(ctx, "A2", model.PagingInfo{Limit: 2})
				Expect(err).ToNot(HaveOccurred())
				Expect(page.Items).To(Equal([]model.Reference{model.SubmodelReference("S1"), model.SubmodelReference("S2")}))
				Expect(page.Metadata.Cursor).To(Equal("2"))

				page, err = repo.GetSubmodelRefs(ctx, "A2", model.PagingInfo{Limit: 2, Cursor: "2"})
				Expect(err).ToNot(HaveOccurred())
				Expect(page.Items).To(Equal([]model.Reference{model.SubmodelReference("S3")}))
				Expect(page.HasMore()).To(BeFalse())

				_, err = repo.GetSubmodelRefs(ctx, "A9", model.AllItems)
				Expect(standarderrors.IsNotFound(err)).To(BeTrue())
			})
		})

		Describe("submodel elements", func() {
			It("edits elements through the facade", func() {
				Expect(repo.InsertSubmodelElement(ctx, elementID("C"), property("Z", "z"))).To(Succeed())
				Expect(repo.UpdateSubmodelElement(ctx, elementID("C.Z"), property("Z", "zz"))).To(Succeed())
				Expect(repo.SaveSubmodelElement(ctx, elementID("C.W"), property("", "w"))).To(Succeed())
				Expect(repo.DeleteSubmodelElement(ctx, elementID("L[0]"))).To(Succeed())

				z, err := repo.GetSubmodelElement(ctx, elementID("C.Z"), model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(z).To(Equal(property("Z", "zz")))

				w, err := repo.GetSubmodelElement(ctx, elementID("C.W"), model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(w).To(Equal(property("W", "w")))

				first, err := repo.GetSubmodelElement(ctx, elementID("L[0]"), model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(first).To(Equal(property("", "b")))
			})

			It("pages through children filtered by semanticId", func() {
				for _, idShort := range []string{"T1", "T2", "T3"} {
					tagged := property(idShort, idShort)
					tagged.SemanticID = model.GlobalReference("urn:tag")
					Expect(repo.InsertSubmodelElement(ctx, elementID("C"), tagged)).To(Succeed())
				}

				criteria := model.SubmodelElementSearchCriteria{
					Parent:     elementID("C"),
					SemanticID: model.GlobalReference("urn:tag"),
				}

				page, err := repo.FindSubmodelElements(ctx, criteria, model.DefaultModifier, model.PagingInfo{Limit: 2})
				Expect(err).ToNot(HaveOccurred())
				Expect(page.Items).To(HaveLen(2))
				Expect(page.Items[0].GetIDShort()).To(Equal("T1"))
				Expect(page.Metadata.Cursor).To(Equal("2"))

				page, err = repo.FindSubmodelElements(ctx, criteria, model.DefaultModifier, model.PagingInfo{Limit: 2, Cursor: "2"})
				Expect(err).ToNot(HaveOccurred())
				Expect(page.Items).To(HaveLen(1))
				Expect(page.Items[0].GetIDShort()).To(Equal("T3"))
				Expect(page.HasMore()).To(BeFalse())
			})

			It("truncates nested containers at level core", func() {
				c, err := repo.GetSubmodelElement(ctx, elementID("C"), model.QueryModifier{Level: model.LevelCore})
				Expect(err).ToNot(HaveOccurred())

				inner := c.(model.Container).Children()[1].(model.Container)
				Expect(inner.Children()).To(BeEmpty())

				stored, err := repo.GetSubmodelElement(ctx, elementID("C.Inner"), model.DefaultModifier)
				Expect(err).ToNot(HaveOccurred())
				Expect(stored.(model.Container).Children()).To(HaveLen(1))
			})

			It("reports a leaf parent when listing children", func() {
				_, err := repo.FindSubmodelElements(ctx, model.SubmodelElementSearchCriteria{Parent: elementID("P")},
					model.DefaultModifier, model.AllItems)
				Expect(standarderrors.IsNotAContainer(err)).To(BeTrue())
			})
		})

		Describe("operation results", func() {
			It("replaces the result stored under a handle", func() {
				handle := model.NewOperationHandle("req-1")

				Expect(repo.SaveOperationResult(ctx, handle, model.OperationResult{
					ExecutionState: model.ExecutionStateRunning,
				})).To(Succeed())

				Expect(repo.SaveOperationResult(ctx, handle, model.OperationResult{
					ExecutionState:  model.ExecutionStateCompleted,
					Success:         true,
					Messages:        []model.Message{{MessageType: model.MessageTypeInfo, Text: "done"}},
					OutputArguments: []model.OperationVariable{{Value: property("Out", "1")}},
				})).To(Succeed())

				result, err := repo.GetOperationResult(ctx, handle)
				Expect(err).ToNot(HaveOccurred())
				Expect(result.ExecutionState).To(Equal(model.ExecutionStateCompleted))
				Expect(result.Success).To(BeTrue())
				Expect(result.Messages).To(HaveLen(1))
				Expect(result.OutputArguments[0].Value).To(Equal(property("Out", "1")))
			})

			It("validates and resolves handles", func() {
				err := repo.SaveOperationResult(ctx, model.OperationHandle{}, model.OperationResult{})
				Expect(standarderrors.IsInvalidArgument(err)).To(BeTrue())

				_, err = repo.GetOperationResult(ctx, model.NewOperationHandle(""))
				Expect(standarderrors.IsNotFound(err)).To(BeTrue())
			})
		})

		It("counts failed operations by kind", func() {
			_, err := repo.GetSubmodel(ctx, "missing", model.DefaultModifier)
			Expect(standarderrors.IsNotFound(err)).To(BeTrue())

			count, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "twinstore_persistence_errors_total")
			Expect(err).ToNot(HaveOccurred())
			Expect(count).To(BeNumerically(">=", 1))
		})
	})
})
