// Package orchestrator drives subtitle entries through translation one at a
// time, with bounded retry, cooperative cancellation and progress events.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/valpere/subtran/internal"
	"github.com/valpere/subtran/internal/placeholder"
	"github.com/valpere/subtran/internal/postprocess"
	"github.com/valpere/subtran/internal/prompt"
	"github.com/valpere/subtran/internal/translator"
)

// ErrBatchRunning is returned when a batch is started while another runs.
var ErrBatchRunning = errors.New("a batch is already running")

// Mode names the entry point that started a batch.
type Mode string

const (
	ModeRunAll      Mode = "run-all"
	ModeRetryFailed Mode = "retry-failed"
)

// Streamer performs one streaming translation attempt.
type Streamer interface {
	Stream(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error)
}

// Memory is a translation cache keyed by the exact user prompt.
type Memory interface {
	GetCachedTranslation(ctx context.Context, sourceText, sourceLang, targetLang, model string) (string, bool, error)
	SaveToMemory(ctx context.Context, sourceText, sourceLang, targetLang, model, finalText string) error
}

// Checker validates that a translation is in the target language.
type Checker interface {
	IsValid(text, targetLang string) bool
}

// Summary reports the outcome of one batch.
type Summary struct {
	RunID     string
	Mode      Mode
	Total     int
	Succeeded int
	Failed    int
	Cached    int
	Skipped   int
	Attempts  int
	Cancelled bool
	Duration  time.Duration
}

type Orchestrator struct {
	streamer Streamer
	config   Config
	prompts  *prompt.Builder
	memory   Memory
	checker  Checker
	observer Observer
	logger   *zap.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

func WithMemory(m Memory) Option {
	return func(o *Orchestrator) { o.memory = m }
}

func WithChecker(c Checker) Option {
	return func(o *Orchestrator) { o.checker = c }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func New(streamer Streamer, config Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		streamer: streamer,
		config:   config.withDefaults(),
		observer: NopObserver{},
		logger:   zap.NewNop(),
		state:    State{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.prompts = prompt.NewBuilder(o.logger)
	return o
}

// State returns the current batch state. Safe for concurrent use.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Stop cancels the running batch, if any. The in-flight attempt ends at its
// next cancellation check and no further entries are started.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// RunAll clears every entry and translates them all in document order.
func (o *Orchestrator) RunAll(ctx context.Context, entries []internal.SubtitleEntry, snap Snapshot) (*Summary, error) {
	return o.run(ctx, ModeRunAll, entries, snap, func() []int {
		indices := make([]int, len(entries))
		for i := range entries {
			entries[i].Reset()
			indices[i] = i
		}
		return indices
	})
}

// RetryFailed translates only the entries that currently carry an error.
// Context windows still resolve against the whole of entries.
func (o *Orchestrator) RetryFailed(ctx context.Context, entries []internal.SubtitleEntry, snap Snapshot) (*Summary, error) {
	return o.run(ctx, ModeRetryFailed, entries, snap, func() []int {
		var indices []int
		for i := range entries {
			if entries[i].Failed() {
				entries[i].Reset()
				indices = append(indices, i)
			}
		}
		return indices
	})
}

// begin claims the orchestrator for a new batch. Nothing may touch the
// entries before it succeeds.
func (o *Orchestrator) begin(parent context.Context) (context.Context, context.CancelFunc, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Status == StatusRunning {
		return nil, nil, ErrBatchRunning
	}
	ctx, cancel := context.WithCancel(parent)
	o.cancel = cancel
	o.state = State{Status: StatusRunning}
	return ctx, cancel, nil
}

// run owns entries once begin succeeds; selectEntries resets and picks the
// entries to process.
func (o *Orchestrator) run(parent context.Context, mode Mode, entries []internal.SubtitleEntry, snap Snapshot, selectEntries func() []int) (*Summary, error) {
	ctx, cancel, err := o.begin(parent)
	if err != nil {
		return nil, err
	}
	defer cancel()
	o.observer.BatchChanged(State{Status: StatusRunning})

	indices := selectEntries()

	summary := &Summary{
		RunID: uuid.NewString(),
		Mode:  mode,
		Total: len(indices),
	}
	start := time.Now()
	system := snap.SystemPrompt()

	o.logger.Info("batch started",
		zap.String("run_id", summary.RunID),
		zap.String("mode", string(mode)),
		zap.Int("entries", len(indices)),
		zap.String("model", snap.API.Model),
		zap.String("target", snap.Run.TargetLanguage))

	for pos, idx := range indices {
		if ctx.Err() != nil {
			summary.Cancelled = true
			summary.Skipped = len(indices) - pos
			break
		}

		entry := &entries[idx]
		o.setCurrent(entry.ID)

		out := o.translateEntry(ctx, entry, entries, snap, system)
		summary.Attempts += out.Attempts
		switch {
		case out.Err != nil:
			summary.Failed++
		case out.Attempts == 0:
			summary.Cached++
			summary.Succeeded++
		default:
			summary.Succeeded++
		}
	}
	if ctx.Err() != nil {
		summary.Cancelled = true
	}

	summary.Duration = time.Since(start)
	final := State{Status: StatusIdle}
	if summary.Cancelled {
		final.Status = StatusCancelled
	}

	o.mu.Lock()
	o.state = final
	o.cancel = nil
	o.mu.Unlock()
	o.observer.BatchChanged(final)

	o.logger.Info("batch finished",
		zap.String("run_id", summary.RunID),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("cached", summary.Cached),
		zap.Int("skipped", summary.Skipped),
		zap.Bool("cancelled", summary.Cancelled),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

func (o *Orchestrator) setCurrent(id int) {
	st := State{Status: StatusRunning, Current: id, HasCurrent: true}
	o.mu.Lock()
	o.state = st
	o.mu.Unlock()
	o.observer.BatchChanged(st)
}

// translateEntry runs the per-entry pipeline and publishes the final result.
func (o *Orchestrator) translateEntry(ctx context.Context, entry *internal.SubtitleEntry, all []internal.SubtitleEntry, snap Snapshot, system string) Outcome {
	source := *entry
	var markers []string
	if snap.Run.ProtectTags {
		source.Text, markers = placeholder.Protect(entry.Text)
	}
	user := o.prompts.UserPrompt(source, all, snap.Run.Context)

	if text, ok := o.lookup(ctx, user, snap); ok {
		entry.TranslatedText = text
		entry.Error = nil
		o.observer.EntryUpdated(Update{EntryID: entry.ID, Text: text, Phase: PhaseCached})
		o.observer.EntryUpdated(Update{EntryID: entry.ID, Text: text, Phase: PhaseDone})
		return Outcome{Text: text}
	}

	out := o.translateWithRetry(ctx, entry, translator.Request{System: system, User: user}, snap)
	if out.Err != nil {
		entry.TranslatedText = ""
		entry.Error = out.Err
		o.logger.Warn("entry failed",
			zap.Int("entry", entry.ID),
			zap.String("kind", string(out.Err.Kind)),
			zap.Int("code", out.Err.Code),
			zap.String("message", out.Err.Message),
			zap.Int("attempts", out.Attempts))
		o.observer.EntryUpdated(Update{EntryID: entry.ID, Err: out.Err, Phase: PhaseDone, Attempt: out.Attempts - 1})
		return out
	}

	text := postprocess.Clean(source.Text, out.Text)
	if text == "" {
		text = out.Text
	}
	if len(markers) > 0 {
		if missing := placeholder.Missing(text, markers); len(missing) > 0 {
			o.logger.Warn("translation dropped formatting markers",
				zap.Int("entry", entry.ID),
				zap.Ints("missing", missing))
		}
		text = placeholder.Restore(text, markers)
	}
	out.Text = text
	entry.TranslatedText = text
	entry.Error = nil

	if o.checker != nil && !o.checker.IsValid(text, snap.Run.TargetLanguage) {
		o.logger.Warn("translation may not be in the target language",
			zap.Int("entry", entry.ID),
			zap.String("target", snap.Run.TargetLanguage))
	}
	o.remember(ctx, user, text, snap)

	o.observer.EntryUpdated(Update{EntryID: entry.ID, Text: text, Phase: PhaseDone, Attempt: out.Attempts - 1})
	return out
}

func (o *Orchestrator) lookup(ctx context.Context, user string, snap Snapshot) (string, bool) {
	if o.memory == nil {
		return "", false
	}
	text, ok, err := o.memory.GetCachedTranslation(ctx, user, snap.Run.SourceLanguage, snap.Run.TargetLanguage, snap.API.Model)
	if err != nil {
		o.logger.Debug("memory lookup failed", zap.Error(err))
		return "", false
	}
	return text, ok && text != ""
}

func (o *Orchestrator) remember(ctx context.Context, user, text string, snap Snapshot) {
	if o.memory == nil {
		return
	}
	if err := o.memory.SaveToMemory(ctx, user, snap.Run.SourceLanguage, snap.Run.TargetLanguage, snap.API.Model, text); err != nil {
		o.logger.Debug("memory save failed", zap.Error(err))
	}
}
