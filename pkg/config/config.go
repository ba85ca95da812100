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

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tiendc/go-deepcopy"
)

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendMongo  Backend = "mongo"
)

const (
	DefaultDatabase               = "twinstore"
	DefaultServerSelectionTimeout = 3 * time.Second
	DefaultMetricsAddress         = ":8080"
)

// Config is the persistence configuration, loaded from YAML and overridable through
// the environment.
type Config struct {
	Backend Backend     `yaml:"backend"`
	Mongo   MongoConfig `yaml:"mongo,omitempty"`
	// InitialModel is the JSON or YAML environment file loaded on a fresh start.
	InitialModel   string `yaml:"initialModel,omitempty"`
	MetricsAddress string `yaml:"metricsAddress,omitempty"`
	SentryDSN      string `yaml:"sentryDsn,omitempty"`
	// Override resets all collections and reloads the initial model on every start.
	Override bool `yaml:"override"`
}

type MongoConfig struct {
	ConnectionString       string        `yaml:"connectionString"`
	Database               string        `yaml:"database"`
	ServerSelectionTimeout time.Duration `yaml:"serverSelectionTimeout,omitempty"`
}

// Default returns an in-memory configuration.
func Default() Config {
	return Config{
		Backend:        BackendMemory,
		MetricsAddress: DefaultMetricsAddress,
		Mongo: MongoConfig{
			Database:               DefaultDatabase,
			ServerSelectionTimeout: DefaultServerSelectionTimeout,
		},
	}
}

// Validate checks that the configuration can be started.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendMongo:
		if strings.TrimSpace(c.Mongo.ConnectionString) == "" {
			return fmt.Errorf("mongo backend requires a connection string")
		}

		if strings.TrimSpace(c.Mongo.Database) == "" {
			return fmt.Errorf("mongo backend requires a database name")
		}

		if c.Mongo.ServerSelectionTimeout < 0 {
			return fmt.Errorf("server selection timeout must not be negative, got %s", c.Mongo.ServerSelectionTimeout)
		}
	default:
		return fmt.Errorf("unknown backend %q, expected %q or %q", c.Backend, BackendMemory, BackendMongo)
	}

	return nil
}

// Clone creates a deep copy of Config
func (c Config) Clone() Config {
	var clone Config
	_ = deepcopy.Copy(&clone, &c)

	return clone
}
