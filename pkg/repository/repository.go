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

// Package repository persists asset administration shells, submodels, concept
// descriptions and operation results in a document store, and edits single
// elements of a submodel's tree in place.
//
// Every element operation targets one submodel document. Paths are compiled into
// positional update fields (see CompilePath) and read through an aggregation that
// unwinds one tree level per path segment (see BuildReadPipeline).
package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/united-manufacturing-hub/twinstore/pkg/codec"
	"github.com/united-manufacturing-hub/twinstore/pkg/config"
	"github.com/united-manufacturing-hub/twinstore/pkg/logger"
	"github.com/united-manufacturing-hub/twinstore/pkg/metrics"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/modifier"
	"github.com/united-manufacturing-hub/twinstore/pkg/paging"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/sentry"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

// Lifecycle states and events.
const (
	StateUninitialized = "uninitialized"
	StateStarted       = "started"
	StateStopped       = "stopped"

	EventStart = "start"
	EventStop  = "stop"
)

// discardTimeout bounds dropping a partly loaded model after a failed start.
const discardTimeout = 5 * time.Second

// ErrNotStarted is returned by every operation outside the started state.
var ErrNotStarted = errors.New("repository is not started")

// Repository is the persistence facade. It is safe for concurrent use once started.
type Repository struct {
	opener   StoreOpener
	provider ModelProvider
	markers  MarkerGenerator
	tracer   trace.Tracer
	logger   *zap.SugaredLogger

	lifecycle *fsm.FSM
	store     persistence.Store
	elements  *ElementEngine

	cfg config.Config

	// mu is held shared by running operations and exclusively by Start and Stop.
	mu sync.RWMutex
}

func New(cfg config.Config, opts ...Option) *Repository {
	r := &Repository{
		cfg:    cfg.Clone(),
		opener: OpenStore,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = logger.For(logger.ComponentRepository)
	}

	if r.provider == nil && cfg.InitialModel != "" {
		r.provider = config.NewFileModelProvider(cfg.InitialModel)
	}

	if r.markers == nil {
		r.markers = NewRandomMarkerGenerator()
	}

	if r.tracer == nil {
		r.tracer = otel.Tracer("twinstore.repository")
	}

	r.lifecycle = fsm.NewFSM(
		StateUninitialized,
		fsm.Events{
			{Name: EventStart, Src: []string{StateUninitialized}, Dst: StateStarted},
			{Name: EventStop, Src: []string{StateStarted}, Dst: StateStopped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				r.logger.Infof("Repository transitioned from %s to %s", e.Src, e.Dst)
				metrics.UpdateLifecycleState(e.Dst)
			},
		},
	)

	metrics.UpdateLifecycleState(StateUninitialized)

	return r
}

// State returns the current lifecycle state.
func (r *Repository) State() string {
	return r.lifecycle.Current()
}

// Start connects to the store. If Override is set, or none of the repository's
// collections exists yet, all collections are reset and the initial model is
// loaded. If that fails part-way, the collections are dropped again.
func (r *Repository) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.Can(EventStart) {
		return fmt.Errorf("cannot start repository in state %s", r.lifecycle.Current())
	}

	if err := r.cfg.Validate(); err != nil {
		return standarderrors.InvalidArgument("configuration: %v", err)
	}

	store, err := r.opener(ctx, r.cfg)
	if err != nil {
		return standarderrors.BackingStore("open store", err)
	}

	if err := r.prepare(ctx, store); err != nil {
		if closeErr := store.Close(ctx); closeErr != nil {
			r.logger.Warnf("Failed to close store after failed start: %v", closeErr)
		}

		return err
	}

	r.store = store
	r.elements = NewElementEngine(store, r.markers)

	return r.lifecycle.Event(ctx, EventStart)
}

func (r *Repository) prepare(ctx context.Context, store persistence.Store) error {
	if err := store.Ping(ctx); err != nil {
		return standarderrors.BackingStore("ping store", err)
	}

	fresh, err := isFresh(ctx, store)
	if err != nil {
		return err
	}

	if !fresh && !r.cfg.Override {
		r.logger.Infof("Using existing collections")

		return nil
	}

	var env *model.Environment

	if r.provider != nil {
		if env, err = r.provider.InitialModel(ctx); err != nil {
			return fmt.Errorf("failed to load initial model: %w", err)
		}
	}

	if env == nil {
		env = &model.Environment{}
	}

	if err := resetAll(ctx, store); err != nil {
		return r.discardPartialModel(ctx, store, err)
	}

	if err := bootstrap(ctx, store, env); err != nil {
		return r.discardPartialModel(ctx, store, err)
	}

	r.logger.Infof("Loaded initial model: %d shells, %d submodels, %d concept descriptions",
		len(env.AssetAdministrationShells), len(env.Submodels), len(env.ConceptDescriptions))

	return nil
}

// Stop closes the store. A stopped repository cannot be started again.
func (r *Repository) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.lifecycle.Can(EventStop) {
		return fmt.Errorf("cannot stop repository in state %s", r.lifecycle.Current())
	}

	closeErr := r.store.Close(ctx)

	r.store = nil
	r.elements = nil

	if err := r.lifecycle.Event(ctx, EventStop); err != nil {
		return err
	}

	if closeErr != nil {
		return standarderrors.BackingStore("close store", closeErr)
	}

	return nil
}

// observe runs fn against the started store inside a span, records metrics and
// reports backing store failures.
func (r *Repository) observe(ctx context.Context, op string, resource string, fn func(ctx context.Context) error) error {
	ctx, span := r.tracer.Start(ctx, "repository."+op,
		trace.WithAttributes(attribute.String("twinstore.resource", resource)),
	)
	defer span.End()

	start := time.Now()
	err := r.run(ctx, fn)
	metrics.ObserveOperation(op, time.Since(start), err)

	if err == nil {
		span.SetStatus(codes.Ok, "")
		r.logger.Debugw("Operation succeeded", "operation", op, "resource", resource)

		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if standarderrors.IsBackingStoreFailure(err) {
		sentry.ReportStoreFailure(r.logger, op, resource, err)
	} else {
		r.logger.Debugw("Operation rejected", "operation", op, "resource", resource, "error", err)
	}

	return err
}

func (r *Repository) run(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.lifecycle.Current() != StateStarted {
		return ErrNotStarted
	}

	return fn(ctx)
}

// Shells

func (r *Repository) GetAssetAdministrationShell(ctx context.Context, id string, m model.QueryModifier) (*model.AssetAdministrationShell, error) {
	var out *model.AssetAdministrationShell

	err := r.observe(ctx, "get_shell", id, func(ctx context.Context) (err error) {
		out, err = getIdentifiable(ctx, r.store, shells, id, m)

		return err
	})

	return out, err
}

func (r *Repository) FindAssetAdministrationShells(ctx context.Context, criteria model.AssetAdministrationShellSearchCriteria, m model.QueryModifier, info model.PagingInfo) (model.Page[*model.AssetAdministrationShell], error) {
	var out model.Page[*model.AssetAdministrationShell]

	err := r.observe(ctx, "find_shells", CollectionShells, func(ctx context.Context) (err error) {
		out, err = findIdentifiables(ctx, r.store, shells, ShellQuery(criteria), m, info)

		return err
	})

	return out, err
}

func (r *Repository) SaveAssetAdministrationShell(ctx context.Context, aas *model.AssetAdministrationShell) error {
	return r.observe(ctx, "save_shell", aas.GetID(), func(ctx context.Context) error {
		if aas == nil {
			return standarderrors.InvalidArgument("asset administration shell must not be nil")
		}

		return saveIdentifiable(ctx, r.store, shells, aas)
	})
}

func (r *Repository) DeleteAssetAdministrationShell(ctx context.Context, id string) error {
	return r.observe(ctx, "delete_shell", id, func(ctx context.Context) error {
		return deleteIdentifiable(ctx, r.store, shells, id)
	})
}

// GetSubmodelRefs pages through the submodel references of a shell in stored order.
func (r *Repository) GetSubmodelRefs(ctx context.Context, aasID string, info model.PagingInfo) (model.Page[model.Reference], error) {
	var out model.Page[model.Reference]

	err := r.observe(ctx, "get_submodel_refs", aasID, func(ctx context.Context) error {
		if err := paging.Validate(info); err != nil {
			return err
		}

		aas, err := getIdentifiable(ctx, r.store, shells, aasID, model.CompleteModifier)
		if err != nil {
			return err
		}

		out, err = paging.Collect(aas.Submodels, info)

		return err
	})

	return out, err
}

// Submodels

func (r *Repository) GetSubmodel(ctx context.Context, id string, m model.QueryModifier) (*model.Submodel, error) {
	var out *model.Submodel

	err := r.observe(ctx, "get_submodel", id, func(ctx context.Context) (err error) {
		out, err = getIdentifiable(ctx, r.store, submodels, id, m)

		return err
	})

	return out, err
}

func (r *Repository) FindSubmodels(ctx context.Context, criteria model.SubmodelSearchCriteria, m model.QueryModifier, info model.PagingInfo) (model.Page[*model.Submodel], error) {
	var out model.Page[*model.Submodel]

	err := r.observe(ctx, "find_submodels", CollectionSubmodels, func(ctx context.Context) error {
		q, err := SubmodelQuery(criteria)
		if err != nil {
			return err
		}

		out, err = findIdentifiables(ctx, r.store, submodels, q, m, info)

		return err
	})

	return out, err
}

func (r *Repository) SaveSubmodel(ctx context.Context, sm *model.Submodel) error {
	return r.observe(ctx, "save_submodel", sm.GetID(), func(ctx context.Context) error {
		if sm == nil {
			return standarderrors.InvalidArgument("submodel must not be nil")
		}

		return saveIdentifiable(ctx, r.store, submodels, sm)
	})
}

// DeleteSubmodel removes the submodel and every shell reference to it.
func (r *Repository) DeleteSubmodel(ctx context.Context, id string) error {
	return r.observe(ctx, "delete_submodel", id, func(ctx context.Context) error {
		if err := deleteIdentifiable(ctx, r.store, submodels, id); err != nil {
			return err
		}

		res, err := r.store.UpdateMany(ctx, CollectionShells,
			*persistence.NewQuery().Filter(fieldShellSubmodelsKeys, persistence.Eq, id),
			persistence.PullWhere(fieldShellSubmodels, persistence.Where("keys.value", persistence.Eq, id)),
		)
		if err != nil {
			return standarderrors.BackingStore("remove submodel references", err)
		}

		r.logger.Debugw("Submodel deleted", "id", id, "cascaded", res.Modified)

		return nil
	})
}

// Concept descriptions

func (r *Repository) GetConceptDescription(ctx context.Context, id string, m model.QueryModifier) (*model.ConceptDescription, error) {
	var out *model.ConceptDescription

	err := r.observe(ctx, "get_concept_description", id, func(ctx context.Context) (err error) {
		out, err = getIdentifiable(ctx, r.store, conceptDescriptions, id, m)

		return err
	})

	return out, err
}

func (r *Repository) FindConceptDescriptions(ctx context.Context, criteria model.ConceptDescriptionSearchCriteria, m model.QueryModifier, info model.PagingInfo) (model.Page[*model.ConceptDescription], error) {
	var out model.Page[*model.ConceptDescription]

	err := r.observe(ctx, "find_concept_descriptions", CollectionConceptDescriptions, func(ctx context.Context) error {
		q, err := ConceptDescriptionQuery(criteria)
		if err != nil {
			return err
		}

		out, err = findIdentifiables(ctx, r.store, conceptDescriptions, q, m, info)

		return err
	})

	return out, err
}

func (r *Repository) SaveConceptDescription(ctx context.Context, cd *model.ConceptDescription) error {
	return r.observe(ctx, "save_concept_description", cd.GetID(), func(ctx context.Context) error {
		if cd == nil {
			return standarderrors.InvalidArgument("concept description must not be nil")
		}

		return saveIdentifiable(ctx, r.store, conceptDescriptions, cd)
	})
}

func (r *Repository) DeleteConceptDescription(ctx context.Context, id string) error {
	return r.observe(ctx, "delete_concept_description", id, func(ctx context.Context) error {
		return deleteIdentifiable(ctx, r.store, conceptDescriptions, id)
	})
}

// Submodel elements

func (r *Repository) GetSubmodelElement(ctx context.Context, id model.ElementIdentifier, m model.QueryModifier) (model.SubmodelElement, error) {
	var out model.SubmodelElement

	err := r.observe(ctx, "get_element", id.String(), func(ctx context.Context) error {
		element, err := r.elements.FetchElement(ctx, id)
		if err != nil {
			return err
		}

		out, err = modifier.ApplyElement(element, m)

		return wrapView(err)
	})

	return out, err
}

// FindSubmodelElements pages through the children of criteria.Parent, optionally
// filtered by semanticId.
func (r *Repository) FindSubmodelElements(ctx context.Context, criteria model.SubmodelElementSearchCriteria, m model.QueryModifier, info model.PagingInfo) (model.Page[model.SubmodelElement], error) {
	var out model.Page[model.SubmodelElement]

	err := r.observe(ctx, "find_elements", criteria.Parent.String(), func(ctx context.Context) error {
		if err := paging.Validate(info); err != nil {
			return err
		}

		children, err := r.elements.Children(ctx, criteria.Parent, criteria.SemanticID)
		if err != nil {
			return err
		}

		page, err := paging.Collect(children, info)
		if err != nil {
			return err
		}

		if page.Items, err = modifier.ApplyElements(page.Items, m); err != nil {
			return wrapView(err)
		}

		out = page

		return nil
	})

	return out, err
}

func (r *Repository) InsertSubmodelElement(ctx context.Context, parent model.ElementIdentifier, element model.SubmodelElement) error {
	return r.observe(ctx, "insert_element", parent.String(), func(ctx context.Context) error {
		return r.elements.Insert(ctx, parent, element)
	})
}

func (r *Repository) UpdateSubmodelElement(ctx context.Context, id model.ElementIdentifier, element model.SubmodelElement) error {
	return r.observe(ctx, "update_element", id.String(), func(ctx context.Context) error {
		return r.elements.Update(ctx, id, element)
	})
}

func (r *Repository) SaveSubmodelElement(ctx context.Context, id model.ElementIdentifier, element model.SubmodelElement) error {
	return r.observe(ctx, "save_element", id.String(), func(ctx context.Context) error {
		return r.elements.Save(ctx, id, element)
	})
}

func (r *Repository) DeleteSubmodelElement(ctx context.Context, id model.ElementIdentifier) error {
	return r.observe(ctx, "delete_element", id.String(), func(ctx context.Context) error {
		return r.elements.Delete(ctx, id)
	})
}

// Operation results

// SaveOperationResult stores result under the handle id, replacing an earlier
// result of the same handle.
func (r *Repository) SaveOperationResult(ctx context.Context, handle model.OperationHandle, result model.OperationResult) error {
	return r.observe(ctx, "save_operation_result", handle.HandleID, func(ctx context.Context) error {
		if handle.HandleID == "" {
			return standarderrors.InvalidArgument("operation handle id must not be empty")
		}

		doc, err := codec.EncodeOperationResult(handle, result)
		if err != nil {
			return standarderrors.BackingStore("encode operation result", err)
		}

		if err := r.store.Upsert(ctx, CollectionOperationResults, handle.HandleID, doc); err != nil {
			return standarderrors.BackingStore("save operation result", err)
		}

		return nil
	})
}

func (r *Repository) GetOperationResult(ctx context.Context, handle model.OperationHandle) (model.OperationResult, error) {
	var out model.OperationResult

	err := r.observe(ctx, "get_operation_result", handle.HandleID, func(ctx context.Context) error {
		if handle.HandleID == "" {
			return standarderrors.InvalidArgument("operation handle id must not be empty")
		}

		doc, err := r.store.Get(ctx, CollectionOperationResults, handle.HandleID)
		if err != nil {
			return translateStoreError("get operation result", handle.HandleID, err)
		}

		if out, err = codec.DecodeOperationResult(doc); err != nil {
			return standarderrors.BackingStore("decode operation result", err)
		}

		return nil
	})

	return out, err
}

// Bulk

// ResetAll drops and recreates every collection of the repository.
func (r *Repository) ResetAll(ctx context.Context) error {
	return r.observe(ctx, "reset_all", "*", func(ctx context.Context) error {
		return resetAll(ctx, r.store)
	})
}

// BootstrapFromModel inserts every identifiable of env. Ids must not exist yet.
func (r *Repository) BootstrapFromModel(ctx context.Context, env *model.Environment) error {
	return r.observe(ctx, "bootstrap", "*", func(ctx context.Context) error {
		return bootstrap(ctx, r.store, env)
	})
}

// isFresh reports whether none of the repository's collections exists.
func isFresh(ctx context.Context, store persistence.Store) (bool, error) {
	existing, err := store.ListCollections(ctx)
	if err != nil {
		return false, standarderrors.BackingStore("list collections", err)
	}

	for _, name := range existing {
		for _, own := range Collections {
			if name == own {
				return false, nil
			}
		}
	}

	return true, nil
}

// discardPartialModel drops the repository's collections after a failed reset or
// bootstrap, so the next Start finds a fresh store and loads the full model again.
// It returns cause.
func (r *Repository) discardPartialModel(ctx context.Context, store persistence.Store, cause error) error {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	for _, name := range Collections {
		if err := store.DropCollection(cleanupCtx, name); err != nil && !errors.Is(err, persistence.ErrNotFound) {
			r.logger.Warnf("Failed to drop collection %s after failed bootstrap: %v", name, err)
		}
	}

	return cause
}

func resetAll(ctx context.Context, store persistence.Store) error {
	existing, err := store.ListCollections(ctx)
	if err != nil {
		return standarderrors.BackingStore("list collections", err)
	}

	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	g, gctx := errgroup.WithContext(ctx)

	for _, name := range Collections {
		g.Go(func() error {
			if present[name] {
				if err := store.DropCollection(gctx, name); err != nil && !errors.Is(err, persistence.ErrNotFound) {
					return standarderrors.BackingStore("drop collection "+name, err)
				}
			}

			if err := store.CreateCollection(gctx, name); err != nil {
				return standarderrors.BackingStore("create collection "+name, err)
			}

			return nil
		})
	}

	return g.Wait()
}

func bootstrap(ctx context.Context, store persistence.Store, env *model.Environment) error {
	if env == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return insertAll(gctx, store, shells, env.AssetAdministrationShells) })
	g.Go(func() error { return insertAll(gctx, store, submodels, env.Submodels) })
	g.Go(func() error { return insertAll(gctx, store, conceptDescriptions, env.ConceptDescriptions) })

	return g.Wait()
}

func wrapView(err error) error {
	if err == nil {
		return nil
	}

	return standarderrors.BackingStore("apply query modifier", err)
}
