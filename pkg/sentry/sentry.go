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

package sentry

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const (
	// DefaultAppVersion is the version of builds without release ldflags.
	DefaultAppVersion = "0.0.0-dev"

	developmentEnvironment = "development"
	productionEnvironment  = "production"
)

var shouldDebounceErrors = true

func EnableTestMode() {
	shouldDebounceErrors = false
}

func DisableTestMode() {
	shouldDebounceErrors = true
}

// Environment derives the Sentry environment from the app version: releases
// without a prerelease suffix are production, everything else is development.
func Environment(appVersion string) string {
	version, err := semver.NewVersion(appVersion)
	if err != nil || version.Prerelease() != "" {
		return developmentEnvironment
	}

	return productionEnvironment
}

// InitSentry configures the global Sentry client. An empty DSN or a local
// development build leaves Sentry disabled, reports then only reach the log.
func InitSentry(dsn string, appVersion string) {
	if dsn == "" || appVersion == "" || appVersion == DefaultAppVersion {
		zap.S().Debug("Sentry disabled for local development build")

		return
	}

	if _, err := semver.NewVersion(appVersion); err != nil {
		zap.S().Errorf("Failed to parse app version, using default environment (development): %s", err)
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:           dsn,
		Environment:   Environment(appVersion),
		Release:       "twinstore@" + appVersion,
		EnableTracing: false,
	})
	if err != nil {
		zap.S().Errorf("Failed to initialize Sentry: %s", err)
	}
}

func getMeaningfulErrorTitle(err error) string {
	message := err.Error()

	// first phrase, up to a period, comma or colon
	idx := strings.IndexAny(message, ".,:")
	if idx > 0 {
		message = message[:idx]
	}

	if len(message) > 100 {
		message = message[:97] + "..."
	}

	return message
}

func createSentryEvent(level sentry.Level, err error) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = level
	event.Message = err.Error()
	event.Exception = []sentry.Exception{{
		Type:       getMeaningfulErrorTitle(err),
		Value:      err.Error(),
		Stacktrace: sentry.ExtractStacktrace(err),
	}}
	event.Fingerprint = []string{
		"{{ default }}",
		"level: " + string(level),
	}

	return event
}

func createSentryEventWithContext(level sentry.Level, err error, context map[string]interface{}) *sentry.Event {
	event := createSentryEvent(level, err)

	for key, value := range context {
		switch v := value.(type) {
		case string:
			if event.Tags == nil {
				event.Tags = make(map[string]string)
			}

			event.Tags[key] = v
		default:
			if event.Extra == nil {
				event.Extra = make(map[string]interface{})
			}

			event.Extra[key] = v
		}

		if key == "operation" {
			event.Fingerprint = append(event.Fingerprint, fmt.Sprintf("operation: %v", value))
		}
	}

	return event
}

func sendSentryEvent(event *sentry.Event) {
	sentry.CaptureEvent(event)
}
