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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/united-manufacturing-hub/twinstore/pkg/config"
	"github.com/united-manufacturing-hub/twinstore/pkg/logger"
	"github.com/united-manufacturing-hub/twinstore/pkg/metrics"
	"github.com/united-manufacturing-hub/twinstore/pkg/repository"
	"github.com/united-manufacturing-hub/twinstore/pkg/sentry"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

// shutdownTimeout bounds closing the store and the metrics server.
const shutdownTimeout = 3 * time.Second

func loadConfig(ctx context.Context, log *zap.SugaredLogger) (config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(ctx, configPath, log)
	if err != nil {
		return config.Config{}, err
	}

	sentry.InitSentry(cfg.SentryDSN, appVersion)

	return cfg, nil
}

// startWithBackoff retries Start while the backing store is unreachable. Any
// other failure is permanent. A failed bootstrap leaves no collections behind, so
// each retry loads the initial model from scratch.
func startWithBackoff(ctx context.Context, repo *repository.Repository, retries uint64, log *zap.SugaredLogger) error {
	operation := func() error {
		err := repo.Start(ctx)
		if err != nil && !standarderrors.IsBackingStoreFailure(err) {
			return backoff.Permanent(err)
		}

		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)

	return backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		log.Warnf("Failed to start repository, retrying in %s: %v", wait, err)
	})
}

func stopRepository(repo *repository.Repository, log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := repo.Stop(ctx); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to stop repository: %w", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.For(logger.ComponentCLI)
	log.Infof("Starting twinstore %s", appVersion)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, log)
	if err != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to load config: %w", err)

		return err
	}

	server := metrics.SetupMetricsEndpoint(cfg.MetricsAddress)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to shutdown metrics server: %w", err)
		}
	}()

	repo := repository.New(cfg)

	if err := startWithBackoff(ctx, repo, startRetries, log); err != nil {
		sentry.ReportIssuef(sentry.IssueTypeError, log, "Failed to start repository: %w", err)

		return err
	}
	defer stopRepository(repo, log)

	log.Infow("Repository started", "backend", cfg.Backend, "metrics", cfg.MetricsAddress)

	<-ctx.Done()

	log.Info("Shutting down")

	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	log := logger.For(logger.ComponentCLI)

	cfg, err := loadConfig(cmd.Context(), log)
	if err != nil {
		return err
	}

	cfg.Override = true

	repo := repository.New(cfg)
	if err := repo.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to reset repository: %w", err)
	}

	stopRepository(repo, log)

	log.Infof("Reset %d collections", len(repository.Collections))

	return nil
}
