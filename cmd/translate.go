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
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/subtran/internal"
	"github.com/valpere/subtran/internal/detector"
	"github.com/valpere/subtran/internal/language"
	"github.com/valpere/subtran/internal/orchestrator"
	"github.com/valpere/subtran/internal/srt"
	"github.com/valpere/subtran/internal/store"
	"github.com/valpere/subtran/internal/translator"
	"github.com/valpere/subtran/internal/validator"
)

var (
	inputFile   string
	outputFile  string
	noAutoRetry bool
)

// translateFlagKeys maps translate flags to config keys.
var translateFlagKeys = map[string]string{
	"source":        "translation.source_language",
	"target":        "translation.target_language",
	"model":         "api.model",
	"base-url":      "api.base_url",
	"context":       "translation.context.enabled",
	"before":        "translation.context.preceding",
	"after":         "translation.context.succeeding",
	"retry-failed":  "translation.retry_rounds",
	"detect-source": "translation.detect_source",
	"validate":      "translation.validate",
	"protect-tags":  "translation.protect_tags",
	"max-retries":   "retry.max_retries",
	"retry-delay":   "retry.retry_delay",
}

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate an SRT subtitle file",
	Long: `Translate a SubRip subtitle file cue by cue through an OpenAI-compatible
streaming chat endpoint.

Each cue is sent on its own, optionally with neighbouring cues as context.
Network, rate-limit and server errors are retried up to --max-retries times
with a fixed --retry-delay. Cues that still fail keep their error and can be
re-run with --retry-failed. Press Ctrl+C to stop; cues translated so far are
written to the output file.

Example:
  subtran translate -i movie.srt -o movie.de.srt -t de --context --before 2 --after 1`,
	RunE: runTranslate,
}

func runTranslate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd, translateFlagKeys)
	if err != nil {
		return err
	}
	if noAutoRetry {
		settings.Translation.AutoRetry = false
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(settings)
	if err != nil {
		return err
	}
	defer logger.Sync()

	raw, err := os.ReadFile(inputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	parser := srt.Parser{Lookahead: settings.Parser.RecoveryLookahead}
	entries, err := parser.ParseDocument(string(raw))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", inputFile, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%s contains no subtitles", inputFile)
	}

	output := outputFile
	if output == "" {
		output = defaultOutputPath(inputFile, settings.Translation.TargetLanguage)
	}

	var det *detector.Detector
	if settings.Translation.DetectSource && strings.EqualFold(settings.Translation.SourceLanguage, language.Auto) {
		det = detector.New()
		if code, ok := det.DetectEntries(entries); ok {
			logger.Info("detected source language", zap.String("language", code))
			settings.Translation.SourceLanguage = code
		} else {
			logger.Warn("could not detect source language, letting the model infer it")
		}
	}

	ctx := cmd.Context()
	var db *store.Store
	if !settings.Store.Disabled {
		if db, err = openStore(settings); err != nil {
			return err
		}
		defer db.Close()
	}

	run := settings.RunOptions()
	var glossary map[string]string
	if db != nil {
		glossary, err = db.GetGlossaryTerms(ctx, run.SourceLanguage, run.TargetLanguage)
		if err != nil {
			logger.Warn("failed to load glossary", zap.Error(err))
		}
	}
	snap := orchestrator.NewSnapshot(settings.APIConfig(), run, glossary)

	prog := newProgress(os.Stderr, logger)
	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithObserver(prog),
	}
	if db != nil {
		opts = append(opts, orchestrator.WithMemory(db))
	}
	if settings.Translation.Validate {
		opts = append(opts, orchestrator.WithChecker(validator.New(det)))
	}

	client := translator.NewClient(translator.WithLogger(logger))
	orch := orchestrator.New(client, settings.Retry, opts...)

	interrupted, stopSignals := stopOnSignal(orch, logger)
	defer stopSignals()

	var summaries []*orchestrator.Summary

	prog.start(len(entries), "translating")
	summary, err := orch.RunAll(ctx, entries, snap)
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}
	summaries = append(summaries, summary)

	rounds := settings.Translation.RetryRounds
	for round := 1; round <= rounds && !summary.Cancelled && !interrupted.Load(); round++ {
		failed := countFailed(entries)
		if failed == 0 {
			break
		}
		logger.Info("retrying failed cues", zap.Int("round", round), zap.Int("failed", failed))
		prog.start(failed, fmt.Sprintf("retry %d/%d", round, rounds))
		summary, err = orch.RetryFailed(ctx, entries, snap)
		if err != nil {
			return fmt.Errorf("retry failed: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(output, []byte(srt.Format(entries)), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	if db != nil {
		for _, s := range summaries {
			if err := db.SaveRun(ctx, runRecord(s, snap, inputFile, output)); err != nil {
				logger.Warn("failed to record run", zap.Error(err))
			}
		}
	}

	fmt.Println(renderSummaries(summaries))
	if failures := failedRows(entries); len(failures) > 0 {
		fmt.Println(renderTable([]string{"CUE", "KIND", "CODE", "MESSAGE"}, failures, []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
	}
	fmt.Printf("Output written to %s\n", output)

	if summary.Cancelled || interrupted.Load() {
		fmt.Println("Translation was stopped before all cues were processed.")
		return nil
	}
	if n := countFailed(entries); n > 0 {
		return fmt.Errorf("%d of %d cues failed to translate", n, len(entries))
	}
	return nil
}

// stopOnSignal stops the running batch on SIGINT or SIGTERM. A second
// signal falls through to the default handler. The returned func releases
// the signal handler.
func stopOnSignal(orch *orchestrator.Orchestrator, logger *zap.Logger) (*atomic.Bool, func()) {
	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			signal.Stop(sigCh)
			interrupted.Store(true)
			logger.Warn("interrupt received, stopping the batch")
			orch.Stop()
		case <-done:
		}
	}()

	var once sync.Once
	return &interrupted, func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(done)
		})
	}
}

func defaultOutputPath(input, target string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "." + target + ".srt"
}

func countFailed(entries []internal.SubtitleEntry) int {
	n := 0
	for i := range entries {
		if entries[i].Failed() {
			n++
		}
	}
	return n
}

func failedRows(entries []internal.SubtitleEntry) [][]string {
	var rows [][]string
	for _, e := range entries {
		if e.Error == nil {
			continue
		}
		code := ""
		if e.Error.Code != 0 {
			code = strconv.Itoa(e.Error.Code)
		}
		rows = append(rows, []string{strconv.Itoa(e.ID), string(e.Error.Kind), code, truncate(e.Error.Message, 60)})
	}
	return rows
}

func renderSummaries(summaries []*orchestrator.Summary) string {
	headers := []string{"BATCH", "MODE", "TOTAL", "OK", "FAILED", "CACHED", "SKIPPED", "ATTEMPTS", "DURATION", "STOPPED"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(summaries))
	for i, s := range summaries {
		stopped := ""
		if s.Cancelled {
			stopped = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(s.Mode),
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Succeeded),
			strconv.Itoa(s.Failed),
			strconv.Itoa(s.Cached),
			strconv.Itoa(s.Skipped),
			strconv.Itoa(s.Attempts),
			s.Duration.Round(time.Millisecond).String(),
			stopped,
		})
	}
	return renderTable(headers, rows, aligns)
}

func runRecord(s *orchestrator.Summary, snap orchestrator.Snapshot, input, output string) store.RunRecord {
	return store.RunRecord{
		ID:         s.RunID,
		Mode:       string(s.Mode),
		InputFile:  input,
		OutputFile: output,
		Model:      snap.API.Model,
		SourceLang: snap.Run.SourceLanguage,
		TargetLang: snap.Run.TargetLanguage,
		Total:      s.Total,
		Succeeded:  s.Succeeded,
		Failed:     s.Failed,
		Cached:     s.Cached,
		Skipped:    s.Skipped,
		Attempts:   s.Attempts,
		Cancelled:  s.Cancelled,
		Duration:   s.Duration,
		CreatedAt:  time.Now(),
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input SRT file (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output SRT file (default <input>.<target>.srt)")
	translateCmd.Flags().StringP("source", "s", language.Auto, "Source language code, or auto")
	translateCmd.Flags().StringP("target", "t", "en", "Target language code")
	translateCmd.Flags().StringP("model", "m", translator.DefaultModel, "Chat model")
	translateCmd.Flags().String("base-url", translator.DefaultBaseURL, "OpenAI-compatible API base URL")
	translateCmd.Flags().Bool("context", false, "Send neighbouring cues as context")
	translateCmd.Flags().Int("before", 1, "Preceding cues sent as context")
	translateCmd.Flags().Int("after", 1, "Succeeding cues sent as context")
	translateCmd.Flags().BoolVar(&noAutoRetry, "no-auto-retry", false, "Do not retry failed attempts automatically")
	translateCmd.Flags().Int("max-retries", orchestrator.DefaultMaxRetries, "Automatic retries per cue")
	translateCmd.Flags().Duration("retry-delay", orchestrator.DefaultRetryDelay, "Delay between automatic retries")
	translateCmd.Flags().Int("retry-failed", 0, "Re-run failed cues up to N more times after the first pass")
	translateCmd.Flags().Bool("detect-source", false, "Detect the source language when it is auto")
	translateCmd.Flags().Bool("validate", false, "Warn when a translation is not in the target language")
	translateCmd.Flags().Bool("protect-tags", false, "Replace <i>-style and {\\an8}-style tags with markers the model must keep")

	translateCmd.MarkFlagRequired("input")
}
