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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/united-manufacturing-hub/twinstore/pkg/env"
	"github.com/united-manufacturing-hub/twinstore/pkg/sentry"
)

// LoadFile reads a YAML configuration on top of Default(). A missing file yields
// the defaults.
func LoadFile(ctx context.Context, path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	if ctx.Err() != nil {
		return Config{}, ctx.Err()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads the config file and applies environment
// variable overrides, then validates the result.
//
// Order of precedence (highest to lowest):
//  1. Environment variables (TWINSTORE_BACKEND, MONGO_CONNECTION_STRING, ...)
//  2. Config file values
//  3. Default values
//
// Unlike the config file, the environment is never written back.
func LoadConfigWithEnvOverrides(ctx context.Context, path string, log *zap.SugaredLogger) (Config, error) {
	cfg, err := LoadFile(ctx, path)
	if err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg, log)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config, log *zap.SugaredLogger) {
	backend, err := env.GetAsString("TWINSTORE_BACKEND", false, string(cfg.Backend))
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get TWINSTORE_BACKEND: %w", err)
	}

	cfg.Backend = Backend(backend)

	if cfg.Mongo.ConnectionString, err = env.GetAsString("MONGO_CONNECTION_STRING", false, cfg.Mongo.ConnectionString); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get MONGO_CONNECTION_STRING: %w", err)
	}

	if cfg.Mongo.Database, err = env.GetAsString("MONGO_DATABASE", false, cfg.Mongo.Database); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get MONGO_DATABASE: %w", err)
	}

	if cfg.Mongo.ServerSelectionTimeout, err = env.GetAsDuration("MONGO_SERVER_SELECTION_TIMEOUT", false, cfg.Mongo.ServerSelectionTimeout); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get MONGO_SERVER_SELECTION_TIMEOUT: %w", err)
	}

	if cfg.InitialModel, err = env.GetAsString("TWINSTORE_INITIAL_MODEL", false, cfg.InitialModel); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get TWINSTORE_INITIAL_MODEL: %w", err)
	}

	if cfg.Override, err = env.GetAsBool("TWINSTORE_OVERRIDE", false, cfg.Override); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get TWINSTORE_OVERRIDE: %w", err)
	}

	if cfg.MetricsAddress, err = env.GetAsString("METRICS_ADDRESS", false, cfg.MetricsAddress); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get METRICS_ADDRESS: %w", err)
	}

	if cfg.SentryDSN, err = env.GetAsString("SENTRY_DSN", false, cfg.SentryDSN); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeWarning, log, "Failed to get SENTRY_DSN: %w", err)
	}
}
