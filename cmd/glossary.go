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

	"github.com/valpere/subtran/internal/language"
	"github.com/valpere/subtran/internal/store"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the terminology glossary",
	Long: `Add, list, and delete terminology glossary entries.

Glossary entries for the batch's source and target languages are appended to
the system prompt, so names and recurring terms are translated the same way
in every cue.`,
}

var (
	glossaryListSource string
	glossaryListTarget string
)

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			entries, err := db.ListGlossaryTerms(cmd.Context(), glossaryListSource, glossaryListTarget)
			if err != nil {
				return fmt.Errorf("failed to list glossary: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println("Glossary is empty.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.ID, e.SourceLang, e.TargetLang, e.SourceTerm, e.TargetTerm})
			}
			fmt.Println(renderTable([]string{"ID", "SOURCE LANG", "TARGET LANG", "SOURCE TERM", "TARGET TERM"}, rows, nil))
			return nil
		})
	},
}

var (
	glossaryAddSource string
	glossaryAddTarget string
)

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term> <target-term>",
	Short: "Add or update a glossary entry",
	Long: `Add a glossary entry mapping a source-language term to a target-language term.

The source language must match the one used for translation, so use "auto"
for batches that let the model infer the source language.

Example:
  subtran glossary add "Winterfell" "Invernalia" --source en --target es`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if glossaryAddTarget == "" {
			return fmt.Errorf("--target language flag is required")
		}
		if !language.IsKnown(glossaryAddSource) || !language.IsKnown(glossaryAddTarget) {
			return fmt.Errorf("unknown language code in %q → %q", glossaryAddSource, glossaryAddTarget)
		}

		return withStore(cmd, func(db *store.Store) error {
			if err := db.AddGlossaryTerm(cmd.Context(), glossaryAddSource, glossaryAddTarget, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to add glossary entry: %w", err)
			}
			fmt.Printf("Added: [%s→%s] %q → %q\n", glossaryAddSource, glossaryAddTarget, args[0], args[1])
			return nil
		})
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a glossary entry by ID",
	Long:  `Delete a glossary entry by its ID (shown in "subtran glossary list").`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			if err := db.DeleteGlossaryTerm(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete glossary entry: %w", err)
			}
			fmt.Printf("Deleted glossary entry: %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryListCmd.Flags().StringVarP(&glossaryListSource, "source", "s", "", "Filter by source language code (e.g. en)")
	glossaryListCmd.Flags().StringVarP(&glossaryListTarget, "target", "t", "", "Filter by target language code (e.g. es)")

	glossaryAddCmd.Flags().StringVarP(&glossaryAddSource, "source", "s", language.Auto, "Source language code, or auto")
	glossaryAddCmd.Flags().StringVarP(&glossaryAddTarget, "target", "t", "", "Target language code (e.g. es)")

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
