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

package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/united-manufacturing-hub/twinstore/pkg/logger"
	"github.com/united-manufacturing-hub/twinstore/pkg/sentry"
	"github.com/united-manufacturing-hub/twinstore/pkg/standarderrors"
)

const (
	// Outcome labels.
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	// Namespace and subsystem for all metrics.
	namespace = "twinstore"
	subsystem = "persistence"

	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_total",
			Help:      "Total number of persistence operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operation_duration_seconds",
			Help:      "Duration of persistence operations in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of failed persistence operations by error kind",
		},
		[]string{"operation", "kind"},
	)

	lifecycleState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lifecycle_state",
			Help:      "Lifecycle state of the repository (0=uninitialized, 1=started, 2=stopped, -1=unknown)",
		},
	)
)

// ObserveOperation records one finished operation. Errors are counted by kind;
// uncategorized errors count as "unknown".
func ObserveOperation(operation string, duration time.Duration, err error) {
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if err == nil {
		operationsTotal.WithLabelValues(operation, OutcomeSuccess).Inc()

		return
	}

	operationsTotal.WithLabelValues(operation, OutcomeError).Inc()
	errorsTotal.WithLabelValues(operation, standarderrors.KindOf(err).String()).Inc()
}

// UpdateLifecycleState publishes the repository lifecycle state.
func UpdateLifecycleState(state string) {
	lifecycleState.Set(getStateValue(state))
}

func getStateValue(state string) float64 {
	switch state {
	case "uninitialized":
		return 0
	case "started":
		return 1
	case "stopped":
		return 2
	default:
		return -1
	}
}

// SetupMetricsEndpoint starts an HTTP server to expose metrics
// This should be called once at application startup.
func SetupMetricsEndpoint(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.ReportIssue(err, sentry.IssueTypeError, logger.For(logger.ComponentMetrics))
		}
	}()

	return server
}
