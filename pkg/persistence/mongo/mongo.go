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

// Package mongo implements persistence.Store on MongoDB.
//
// Documents are stored as they are, keyed by a unique "id" field; the driver's _id
// is never exposed. Positional updates map one-to-one onto MongoDB array filters.
// The store does not implement persistence.PositionalRemover, so list entries are
// deleted with the marker-and-pull sequence of the repository.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/twinstore/pkg/persistence"
)

// DefaultServerSelectionTimeout bounds how long an operation waits for a reachable
// server.
const DefaultServerSelectionTimeout = 3 * time.Second

// codeNamespaceExists is returned by createCollection for an existing collection.
const codeNamespaceExists = 48

type Config struct {
	Logger                 *zap.SugaredLogger
	URI                    string
	Database               string
	ServerSelectionTimeout time.Duration
}

// Store is a persistence.Store backed by one MongoDB database.
type Store struct {
	client *mongodriver.Client
	db     *mongodriver.Database
	logger *zap.SugaredLogger
}

var _ persistence.Store = (*Store)(nil)

// Open creates a client for cfg.URI. The driver connects lazily; call Ping to
// verify that a server is reachable.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo connection string must not be empty")
	}

	if cfg.Database == "" {
		return nil, errors.New("mongo database name must not be empty")
	}

	timeout := cfg.ServerSelectionTimeout
	if timeout <= 0 {
		timeout = DefaultServerSelectionTimeout
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	client, err := mongodriver.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	log.Infof("Opened MongoDB database %s", cfg.Database)

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
		logger: log,
	}, nil
}

// CreateCollection creates the collection with a unique index on id.
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if err := s.db.CreateCollection(ctx, name); err != nil {
		var cmdErr mongodriver.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == codeNamespaceExists {
			return fmt.Errorf("collection %q: %w", name, persistence.ErrConflict)
		}

		return fmt.Errorf("failed to create collection %q: %w", name, err)
	}

	_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: persistence.IDField, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_" + persistence.IDField),
	})
	if err != nil {
		return fmt.Errorf("failed to create id index on %q: %w", name, err)
	}

	s.logger.Debugf("Created collection %s", name)

	return nil
}

func (s *Store) DropCollection(ctx context.Context, name string) error {
	exists, err := s.hasCollection(ctx, name)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("collection %q: %w", name, persistence.ErrNotFound)
	}

	if err := s.db.Collection(name).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collection %q: %w", name, err)
	}

	return nil
}

func (s *Store) hasCollection(ctx context.Context, name string) (bool, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}

	return len(names) > 0, nil
}

// ListCollections returns the collection names in lexical order.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	sort.Strings(names)

	return names, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc persistence.Document) (string, error) {
	id := doc.ID()
	if id == "" {
		return "", errors.New("document must have a non-empty string 'id' field")
	}

	if _, err := s.db.Collection(collection).InsertOne(ctx, toBSON(doc)); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("document %q in %q: %w", id, collection, persistence.ErrConflict)
		}

		return "", fmt.Errorf("failed to insert %q into %q: %w", id, collection, err)
	}

	return id, nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (persistence.Document, error) {
	var raw bson.M

	err := s.db.Collection(collection).FindOne(ctx, idFilter(id)).Decode(&raw)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return nil, fmt.Errorf("document %q in %q: %w", id, collection, persistence.ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get %q from %q: %w", id, collection, err)
	}

	return toDocument(raw), nil
}

func (s *Store) Upsert(ctx context.Context, collection string, id string, doc persistence.Document) error {
	if id == "" {
		return errors.New("id must not be empty")
	}

	stored := doc.Clone()
	if stored == nil {
		stored = persistence.Document{}
	}

	stored[persistence.IDField] = id

	_, err := s.db.Collection(collection).ReplaceOne(ctx, idFilter(id), toBSON(stored), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %q into %q: %w", id, collection, err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("failed to delete %q from %q: %w", id, collection, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("document %q in %q: %w", id, collection, persistence.ErrNotFound)
	}

	return nil
}

func (s *Store) Find(ctx context.Context, collection string, query persistence.Query) ([]persistence.Document, error) {
	filter, err := translateQuery(query)
	if err != nil {
		return nil, err
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, translateFindOptions(query))
	if err != nil {
		return nil, fmt.Errorf("failed to query %q: %w", collection, err)
	}

	return decodeAll(ctx, cursor)
}

func (s *Store) UpdateOne(ctx context.Context, collection string, id string, update persistence.Update) (persistence.UpdateResult, error) {
	doc, opts, err := translateUpdate(update)
	if err != nil {
		return persistence.UpdateResult{}, err
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, idFilter(id), doc, opts)
	if err != nil {
		return persistence.UpdateResult{}, fmt.Errorf("failed to update %q in %q: %w", id, collection, err)
	}

	return persistence.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (s *Store) UpdateMany(ctx context.Context, collection string, query persistence.Query, update persistence.Update) (persistence.UpdateResult, error) {
	filter, err := translateQuery(query)
	if err != nil {
		return persistence.UpdateResult{}, err
	}

	doc, opts, err := translateUpdate(update)
	if err != nil {
		return persistence.UpdateResult{}, err
	}

	res, err := s.db.Collection(collection).UpdateMany(ctx, filter, doc, opts)
	if err != nil {
		return persistence.UpdateResult{}, fmt.Errorf("failed to update documents in %q: %w", collection, err)
	}

	return persistence.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (s *Store) Aggregate(ctx context.Context, collection string, pipeline persistence.Pipeline) ([]persistence.Document, error) {
	stages, err := translatePipeline(pipeline)
	if err != nil {
		return nil, err
	}

	cursor, err := s.db.Collection(collection).Aggregate(ctx, stages)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %q: %w", collection, err)
	}

	return decodeAll(ctx, cursor)
}

func decodeAll(ctx context.Context, cursor *mongodriver.Cursor) ([]persistence.Document, error) {
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	out := make([]persistence.Document, 0, len(raw))
	for _, m := range raw {
		out = append(out, toDocument(m))
	}

	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
