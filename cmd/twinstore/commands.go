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
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	startRetries uint64

	rootCmd = &cobra.Command{
		Use:   "twinstore",
		Short: "Persistence engine for asset administration shells and submodels",
		Long: `twinstore stores asset administration shells, submodels and concept
descriptions in MongoDB or in memory, and edits submodel element trees in place.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the repository and serve metrics until interrupted",
		RunE:  runServe, // Defined in cmd_serve.go
	}

	resetCmd = &cobra.Command{
		Use:   "reset",
		Short: "Drop all collections and load the initial model again",
		RunE:  runReset, // Defined in cmd_serve.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), appVersion)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/data/config.yaml",
		"path of the YAML configuration file; a missing file means defaults")

	serveCmd.Flags().Uint64Var(&startRetries, "start-retries", 5,
		"how often a failed start is retried with exponential backoff")

	rootCmd.AddCommand(serveCmd, resetCmd, versionCmd)
}
