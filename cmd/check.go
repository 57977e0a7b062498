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

	"github.com/spf13/cobra"

	"github.com/valpere/subtran/internal"
	"github.com/valpere/subtran/internal/translator"
)

var checkListModels bool

var checkFlagKeys = map[string]string{
	"model":    "api.model",
	"base-url": "api.base_url",
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check connectivity and credentials",
	Long: `Verify that the configured endpoint is reachable and accepts the API key by
listing the models it serves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd, checkFlagKeys)
		if err != nil {
			return err
		}
		if err := settings.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err := newLogger(settings)
		if err != nil {
			return err
		}
		defer logger.Sync()

		api := settings.APIConfig()
		client := translator.NewClient(translator.WithLogger(logger))
		models, err := client.ListModels(cmd.Context(), api)
		if err != nil {
			te := internal.AsTranslationError(err)
			return fmt.Errorf("connection to %s failed: %s", api.BaseURL, te.Error())
		}

		fmt.Printf("Connected to %s (%d models available)\n", api.BaseURL, len(models))
		if !containsModel(models, api.Model) {
			fmt.Printf("Warning: model %q is not listed by the endpoint\n", api.Model)
		}

		if checkListModels {
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, []string{m})
			}
			fmt.Println(renderTable([]string{"MODEL"}, rows, nil))
		}
		return nil
	},
}

func containsModel(models []string, model string) bool {
	for _, m := range models {
		if m == model {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("model", "m", translator.DefaultModel, "Chat model")
	checkCmd.Flags().String("base-url", translator.DefaultBaseURL, "OpenAI-compatible API base URL")
	checkCmd.Flags().BoolVar(&checkListModels, "list", false, "Print every model the endpoint serves")
}
