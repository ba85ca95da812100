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

// Package env reads typed settings from the process environment.
//
// Every getter follows the same rules. An unset or empty variable yields the
// default, or an error when required. A value that does not parse yields the
// default, or an error when required.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func lookup[T any](key string, required bool, fallback T, kind string, parse func(string) (T, error)) (T, error) {
	var zero T

	raw := os.Getenv(key)
	if raw == "" {
		if required {
			return zero, fmt.Errorf("required environment variable %s is not set", key)
		}

		return fallback, nil
	}

	parsed, err := parse(raw)
	if err == nil {
		return parsed, nil
	}

	if required {
		return zero, fmt.Errorf("environment variable %s=%q is not a valid %s: %w", key, raw, kind, err)
	}

	return fallback, nil
}

func GetAsString(key string, required bool, defaultValue string) (string, error) {
	return lookup(key, required, defaultValue, "string", func(raw string) (string, error) { return raw, nil })
}

func GetAsInt(key string, required bool, defaultValue int) (int, error) {
	return lookup(key, required, defaultValue, "integer", strconv.Atoi)
}

// GetAsBool accepts true/false, 1/0, yes/no, y/n and on/off in any case.
func GetAsBool(key string, required bool, defaultValue bool) (bool, error) {
	return lookup(key, required, defaultValue, "boolean", parseBool)
}

// GetAsDuration takes time.ParseDuration syntax such as "3s" or "250ms".
func GetAsDuration(key string, required bool, defaultValue time.Duration) (time.Duration, error) {
	return lookup(key, required, defaultValue, "duration", time.ParseDuration)
}

var boolWords = map[string]bool{
	"true": true, "1": true, "yes": true, "y": true, "on": true,
	"false": false, "0": false, "no": false, "n": false, "off": false,
}

func parseBool(raw string) (bool, error) {
	b, known := boolWords[strings.ToLower(raw)]
	if !known {
		return false, fmt.Errorf("unknown word %q", raw)
	}

	return b, nil
}
