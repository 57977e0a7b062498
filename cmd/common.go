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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/valpere/subtran/internal/config"
	"github.com/valpere/subtran/internal/logging"
	"github.com/valpere/subtran/internal/store"
)

// globalFlagKeys maps persistent flags to their config keys.
var globalFlagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"db":         "store.path",
	"no-cache":   "store.disabled",
}

// loadSettings binds the global flags plus any local ones given in keys, and
// loads the merged configuration.
func loadSettings(cmd *cobra.Command, keys map[string]string) (*config.Settings, error) {
	v := viper.New()
	if err := bindFlags(v, rootCmd.PersistentFlags(), globalFlagKeys); err != nil {
		return nil, err
	}
	if err := bindFlags(v, cmd.Flags(), keys); err != nil {
		return nil, err
	}

	settings, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

func newLogger(settings *config.Settings) (*zap.Logger, error) {
	logger, err := logging.New(settings.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// openStore opens the translation memory database, creating its directory.
func openStore(settings *config.Settings) (*store.Store, error) {
	path := settings.Store.Path
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// withStore loads settings and runs fn against the opened store.
func withStore(cmd *cobra.Command, fn func(db *store.Store) error) error {
	settings, err := loadSettings(cmd, nil)
	if err != nil {
		return err
	}
	db, err := openStore(settings)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
