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
	"os"

	"github.com/united-manufacturing-hub/twinstore/pkg/logger"
)

// appVersion is set at build time with -ldflags "-X main.appVersion=...".
var appVersion = "0.0.0-dev"

func main() {
	// Initialize the global logger first thing
	logger.Initialize()

	defer func() {
		_ = logger.Sync()
	}()

	if err := rootCmd.Execute(); err != nil {
		_ = logger.Sync()

		os.Exit(1)
	}
}
