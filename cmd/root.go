/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	cfgFile   string
	logLevel  string
	logFormat string
	dbPath    string
	noCache   bool
)

var rootCmd = &cobra.Command{
	Use:   "subtran",
	Short: "LLM subtitle translator",
	Long: `A CLI application that translates SubRip (.srt) subtitles one cue at a time
through any OpenAI-compatible streaming chat endpoint.

Failed cues are retried automatically on network, rate-limit and server
errors, can be re-run later with --retry-failed, and successful translations
are remembered in a local SQLite translation memory.

Use "subtran translate --help" for translation options.`,
	Version:      version,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.config/subtran/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Translation memory database path")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Disable the translation memory")
}
