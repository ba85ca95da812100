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
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/twinstore/pkg/config"
	"github.com/united-manufacturing-hub/twinstore/pkg/logger"
	"github.com/united-manufacturing-hub/twinstore/pkg/model"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
	"github.com/united-manufacturing-hub/twinstore/pkg/persistence/memory"
	mongostore "github.com/united-manufacturing-hub/twinstore/pkg/persistence/mongo"
)

// StoreOpener connects to the backing store described by cfg.
type StoreOpener func(ctx context.Context, cfg config.Config) (persistence.Store, error)

// ModelProvider supplies the environment loaded into empty collections on start.
type ModelProvider interface {
	InitialModel(ctx context.Context) (*model.Environment, error)
}

type Option func(*Repository)

func WithStoreOpener(opener StoreOpener) Option {
	return func(r *Repository) { r.opener = opener }
}

func WithModelProvider(provider ModelProvider) Option {
	return func(r *Repository) { r.provider = provider }
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(r *Repository) { r.logger = log }
}

// WithMarkerGenerator replaces the generator of list deletion markers.
func WithMarkerGenerator(markers MarkerGenerator) Option {
	return func(r *Repository) { r.markers = markers }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(r *Repository) { r.tracer = tracer }
}

// OpenStore is the default StoreOpener. It opens an in-memory store or connects to
// MongoDB, depending on cfg.Backend.
func OpenStore(ctx context.Context, cfg config.Config) (persistence.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		return memory.NewInMemoryStore(), nil
	case config.BackendMongo:
		return mongostore.Open(ctx, mongostore.Config{
			URI:                    cfg.Mongo.ConnectionString,
			Database:               cfg.Mongo.Database,
			ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
			Logger:                 logger.For(logger.ComponentMongoStore),
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
