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
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/subtran/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent translation batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(db *store.Store) error {
			runs, err := db.ListRuns(cmd.Context(), historyLimit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Println("No batches recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				stopped := ""
				if r.Cancelled {
					stopped = "yes"
				}
				rows = append(rows, []string{
					r.CreatedAt.Format("2006-01-02 15:04"),
					r.Mode,
					truncate(r.InputFile, 30),
					r.SourceLang + "→" + r.TargetLang,
					r.Model,
					strconv.Itoa(r.Succeeded) + "/" + strconv.Itoa(r.Total),
					strconv.Itoa(r.Failed),
					strconv.Itoa(r.Cached),
					strconv.Itoa(r.Attempts),
					r.Duration.Round(time.Millisecond).String(),
					stopped,
				})
			}
			fmt.Println(renderTable(
				[]string{"WHEN", "MODE", "INPUT", "LANGS", "MODEL", "OK", "FAILED", "CACHED", "ATTEMPTS", "DURATION", "STOPPED"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum batches to show (0 for all)")
}
