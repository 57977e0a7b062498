package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/valpere/subtran/internal"
	"github.com/valpere/subtran/internal/prompt"
	"github.com/valpere/subtran/internal/translator"
)

type mockStreamer struct {
	streamFunc func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error)
	callCount  atomic.Int32

	mu    sync.Mutex
	users []string
}

func (m *mockStreamer) Stream(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.users = append(m.users, req.User)
	m.mu.Unlock()
	if m.streamFunc != nil {
		return m.streamFunc(ctx, cfg, req, onDelta)
	}
	out := "tr:" + req.User
	onDelta(out)
	return out, nil
}

func (m *mockStreamer) prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.users...)
}

type fakeMemory struct {
	hits  map[string]string
	saved map[string]string
}

func (f *fakeMemory) GetCachedTranslation(_ context.Context, sourceText, _, _, _ string) (string, bool, error) {
	text, ok := f.hits[sourceText]
	return text, ok, nil
}

func (f *fakeMemory) SaveToMemory(_ context.Context, sourceText, _, _, _, finalText string) error {
	if f.saved == nil {
		f.saved = make(map[string]string)
	}
	f.saved[sourceText] = finalText
	return nil
}

type rejectAll struct{}

func (rejectAll) IsValid(string, string) bool { return false }

func testEntries(texts ...string) []internal.SubtitleEntry {
	entries := make([]internal.SubtitleEntry, len(texts))
	for i, t := range texts {
		entries[i] = internal.SubtitleEntry{
			ID:        i + 1,
			StartTime: "00:00:01,000",
			EndTime:   "00:00:02,000",
			Text:      t,
		}
	}
	return entries
}

func testSnapshot(autoRetry bool) Snapshot {
	return NewSnapshot(
		translator.Config{BaseURL: "http://unused", APIKey: "k", Model: "m"},
		RunOptions{SourceLanguage: "en", TargetLanguage: "de", AutoRetry: autoRetry},
		nil,
	)
}

func fastConfig() Config {
	return Config{MaxRetries: 3, RetryDelay: time.Millisecond}
}

func serverError() *internal.TranslationError {
	return internal.NewTranslationError(internal.ServerError, 500, "boom", true, nil)
}

func TestNew_Defaults(t *testing.T) {
	o := New(&mockStreamer{}, Config{})

	if o.config.MaxRetries != DefaultMaxRetries {
		t.Errorf("expected MaxRetries=%d, got %d", DefaultMaxRetries, o.config.MaxRetries)
	}
	if o.config.RetryDelay != DefaultRetryDelay {
		t.Errorf("expected RetryDelay=%v, got %v", DefaultRetryDelay, o.config.RetryDelay)
	}
	if st := o.State(); st.Status != StatusIdle || st.HasCurrent {
		t.Errorf("expected idle state, got %+v", st)
	}
}

func TestRunAll_TranslatesEveryEntryInOrder(t *testing.T) {
	svc := &mockStreamer{}
	var done []int
	obs := ObserverFuncs{OnEntry: func(u Update) {
		if u.Phase == PhaseDone {
			done = append(done, u.EntryID)
		}
	}}
	o := New(svc, fastConfig(), WithObserver(obs))

	entries := testEntries("Hello", "World", "Bye")
	entries[1].TranslatedText = "stale"

	summary, err := o.RunAll(context.Background(), entries, testSnapshot(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range entries {
		if e.Error != nil || e.TranslatedText != "tr:"+e.Text {
			t.Errorf("entry %d: unexpected state text=%q err=%v", e.ID, e.TranslatedText, e.Error)
		}
	}
	if got := []int{1, 2, 3}; len(done) != 3 || done[0] != got[0] || done[2] != got[2] {
		t.Errorf("expected done order %v, got %v", got, done)
	}
	if summary.Succeeded != 3 || summary.Failed != 0 || summary.Attempts != 3 || summary.Mode != ModeRunAll {
		t.Errorf("unexpected summary %+v", summary)
	}
	if summary.RunID == "" {
		t.Error("expected run id")
	}
	if st := o.State(); st.Status != StatusIdle || st.HasCurrent {
		t.Errorf("expected idle state with no current entry, got %+v", st)
	}
}

func TestRunAll_EveryEntryEndsWithTextOrError(t *testing.T) {
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		if req.User == "bad" {
			return "", internal.NewTranslationError(internal.APIError, 400, "nope", false, nil)
		}
		return "ok", nil
	}}
	o := New(svc, fastConfig())

	entries := testEntries("a", "bad", "c")
	if _, err := o.RunAll(context.Background(), entries, testSnapshot(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, e := range entries {
		if e.TranslatedText == "" && e.Error == nil {
			t.Errorf("entry %d has neither text nor error", e.ID)
		}
		if e.TranslatedText != "" && e.Error != nil {
			t.Errorf("entry %d has both text and error", e.ID)
		}
	}
	if entries[2].TranslatedText != "ok" {
		t.Error("a failed entry must not stop later entries")
	}
}

func TestRetry_ServerErrorAttemptCount(t *testing.T) {
	tests := []struct {
		name      string
		autoRetry bool
		want      int32
	}{
		{"auto retry", true, 4},
		{"no auto retry", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
				return "", serverError()
			}}
			o := New(svc, fastConfig())

			entries := testEntries("x")
			summary, err := o.RunAll(context.Background(), entries, testSnapshot(tt.autoRetry))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := svc.callCount.Load(); got != tt.want {
				t.Errorf("expected %d attempts, got %d", tt.want, got)
			}
			if summary.Attempts != int(tt.want) {
				t.Errorf("summary attempts = %d, want %d", summary.Attempts, tt.want)
			}
			if entries[0].Error == nil || entries[0].Error.Kind != internal.ServerError {
				t.Errorf("expected ServerError on entry, got %v", entries[0].Error)
			}
		})
	}
}

func TestRetry_PermissionErrorNotRetried(t *testing.T) {
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		return "", internal.NewTranslationError(internal.PermissionError, 401, "bad key", false, nil)
	}}
	o := New(svc, fastConfig())

	entries := testEntries("x")
	o.RunAll(context.Background(), entries, testSnapshot(true))

	if got := svc.callCount.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
	if entries[0].Error == nil || entries[0].Error.Kind != internal.PermissionError || entries[0].Error.Retryable {
		t.Errorf("expected terminal PermissionError, got %v", entries[0].Error)
	}
}

func TestRetry_ClearsErrorBeforeNextAttempt(t *testing.T) {
	var calls atomic.Int32
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		if calls.Add(1) == 1 {
			onDelta("par")
			te := internal.NewTranslationError(internal.NetworkError, 0, "reset", true, nil)
			te.Partial = "par"
			return "", te
		}
		onDelta("Hallo")
		return "Hallo", nil
	}}

	entries := testEntries("Hello")
	var phases []Phase
	obs := ObserverFuncs{OnEntry: func(u Update) {
		phases = append(phases, u.Phase)
		switch u.Phase {
		case PhaseRetrying:
			if entries[0].Error == nil || entries[0].Error.Kind != internal.NetworkError {
				t.Errorf("expected previous error visible during delay, got %v", entries[0].Error)
			}
		case PhaseAttempt:
			if entries[0].Error != nil || entries[0].TranslatedText != "" {
				t.Errorf("expected cleared entry at attempt start, got text=%q err=%v",
					entries[0].TranslatedText, entries[0].Error)
			}
			if u.Attempt != 1 {
				t.Errorf("expected attempt 1, got %d", u.Attempt)
			}
		}
	}}
	o := New(svc, fastConfig(), WithObserver(obs))

	if _, err := o.RunAll(context.Background(), entries, testSnapshot(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entries[0].Error != nil {
		t.Errorf("successful retry must leave no error, got %v", entries[0].Error)
	}
	if entries[0].TranslatedText != "Hallo" {
		t.Errorf("expected 'Hallo', got %q", entries[0].TranslatedText)
	}

	want := []Phase{PhaseStreaming, PhaseRetrying, PhaseAttempt, PhaseStreaming, PhaseDone}
	if len(phases) != len(want) {
		t.Fatalf("expected phases %v, got %v", want, phases)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d: expected %s, got %s", i, want[i], phases[i])
		}
	}
}

func TestRetry_LogsRetryAttempts(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		return "", serverError()
	}}
	o := New(svc, fastConfig(), WithLogger(zap.New(core)))

	o.RunAll(context.Background(), testEntries("x"), testSnapshot(true))

	retries := logs.FilterMessage("retrying entry").All()
	if len(retries) != 3 {
		t.Fatalf("expected 3 retry log lines, got %d", len(retries))
	}
	if got := retries[2].ContextMap()["attempt"]; got != int64(3) {
		t.Errorf("expected last retry to be attempt 3, got %v", got)
	}
}

func TestRetryFailed_OnlyFailedEntriesWithFullContext(t *testing.T) {
	svc := &mockStreamer{}
	o := New(svc, fastConfig())

	entries := testEntries("A", "B", "C", "D")
	entries[0].TranslatedText = "a"
	entries[1].Error = serverError()
	entries[2].TranslatedText = "c"
	entries[3].Error = serverError()

	snap := testSnapshot(true)
	snap.Run.Context = prompt.Window{Enabled: true, Preceding: 1, Succeeding: 1}

	summary, err := o.RetryFailed(context.Background(), entries, snap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompts := svc.prompts()
	if len(prompts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(prompts))
	}
	if !strings.Contains(prompts[0], "Context (Previous):\nA") || !strings.Contains(prompts[0], "Context (Succeeding):\nC") {
		t.Errorf("expected context from full document, got %q", prompts[0])
	}
	if !strings.HasSuffix(prompts[1], "Translate THIS Subtitle:\nD\n---\nContext (Succeeding):") {
		t.Errorf("unexpected prompt for last entry: %q", prompts[1])
	}

	if entries[0].TranslatedText != "a" || entries[2].TranslatedText != "c" {
		t.Error("successful entries must be left untouched")
	}
	if entries[1].Error != nil || entries[3].Error != nil {
		t.Error("retried entries should have succeeded")
	}
	if summary.Mode != ModeRetryFailed || summary.Total != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestStop_CancelsRemainingEntries(t *testing.T) {
	var o *Orchestrator
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		if req.User == "B" {
			onDelta("hal")
			o.Stop()
			<-ctx.Done()
			return "", internal.AbortError("hal")
		}
		return "ok", nil
	}}

	var states []State
	o = New(svc, fastConfig(), WithObserver(ObserverFuncs{OnBatch: func(s State) {
		states = append(states, s)
	}}))

	entries := testEntries("A", "B", "C")
	summary, err := o.RunAll(context.Background(), entries, testSnapshot(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := svc.callCount.Load(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
	if entries[1].Error == nil || !entries[1].Error.Aborted() {
		t.Errorf("expected aborted error on entry 2, got %v", entries[1].Error)
	}
	if entries[2].TranslatedText != "" || entries[2].Error != nil {
		t.Error("entry after the cancelled one must never be attempted")
	}
	if !summary.Cancelled || summary.Skipped != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if st := o.State(); st.Status != StatusCancelled || st.HasCurrent {
		t.Errorf("expected cancelled state, got %+v", st)
	}
	if last := states[len(states)-1]; last.Status != StatusCancelled {
		t.Errorf("expected final batch notification to be cancelled, got %+v", last)
	}
}

func TestStop_DuringDelayKeepsGenuineError(t *testing.T) {
	var o *Orchestrator
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		return "", serverError()
	}}
	o = New(svc, Config{MaxRetries: 3, RetryDelay: time.Hour}, WithObserver(ObserverFuncs{OnEntry: func(u Update) {
		if u.Phase == PhaseRetrying {
			o.Stop()
		}
	}}))

	entries := testEntries("x", "y")
	done := make(chan struct{})
	go func() {
		defer close(done)
		o.RunAll(context.Background(), entries, testSnapshot(true))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stop did not interrupt the retry delay")
	}

	if got := svc.callCount.Load(); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
	if entries[0].Error == nil || entries[0].Error.Kind != internal.ServerError {
		t.Errorf("expected the server error to be preserved, got %v", entries[0].Error)
	}
	if entries[1].Error != nil || entries[1].TranslatedText != "" {
		t.Error("second entry must not be attempted")
	}
}

func TestRun_RejectsConcurrentBatch(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		close(started)
		<-release
		return "ok", nil
	}}
	o := New(svc, fastConfig())

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.RunAll(context.Background(), testEntries("a"), testSnapshot(true))
	}()
	<-started

	if st := o.State(); st.Status != StatusRunning || !st.HasCurrent || st.Current != 1 {
		t.Errorf("expected running on entry 1, got %+v", st)
	}
	if _, err := o.RunAll(context.Background(), testEntries("b"), testSnapshot(true)); !errors.Is(err, ErrBatchRunning) {
		t.Errorf("expected ErrBatchRunning, got %v", err)
	}

	close(release)
	<-done
}

func TestStop_StaleHandleDoesNotAffectNextBatch(t *testing.T) {
	svc := &mockStreamer{}
	o := New(svc, fastConfig())

	o.Stop()
	if _, err := o.RunAll(context.Background(), testEntries("a"), testSnapshot(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o.Stop()

	entries := testEntries("a", "b")
	summary, err := o.RunAll(context.Background(), entries, testSnapshot(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Cancelled || summary.Succeeded != 2 {
		t.Errorf("stale stop leaked into a new batch: %+v", summary)
	}
}

func TestRunAll_ParentContextCancelled(t *testing.T) {
	svc := &mockStreamer{}
	o := New(svc, fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := o.RunAll(ctx, testEntries("a", "b"), testSnapshot(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.callCount.Load() != 0 || !summary.Cancelled || summary.Skipped != 2 {
		t.Errorf("expected nothing attempted, got calls=%d summary=%+v", svc.callCount.Load(), summary)
	}
}

func TestRunAll_MemoryHitSkipsNetwork(t *testing.T) {
	svc := &mockStreamer{}
	mem := &fakeMemory{hits: map[string]string{"Hello": "Hallo"}}
	o := New(svc, fastConfig(), WithMemory(mem))

	entries := testEntries("Hello", "World")
	summary, _ := o.RunAll(context.Background(), entries, testSnapshot(true))

	if got := svc.callCount.Load(); got != 1 {
		t.Errorf("expected 1 network attempt, got %d", got)
	}
	if entries[0].TranslatedText != "Hallo" || summary.Cached != 1 || summary.Succeeded != 2 {
		t.Errorf("unexpected result: entry=%q summary=%+v", entries[0].TranslatedText, summary)
	}
	if mem.saved["World"] != "tr:World" {
		t.Errorf("expected new translation saved to memory, got %v", mem.saved)
	}
}

func TestRunAll_CleansFinalTextAndWarnsOnLanguage(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		return "Here is the translation: \"Hallo\"", nil
	}}
	o := New(svc, fastConfig(), WithChecker(rejectAll{}), WithLogger(zap.New(core)))

	entries := testEntries("Hello")
	o.RunAll(context.Background(), entries, testSnapshot(true))

	if entries[0].TranslatedText != "Hallo" {
		t.Errorf("expected cleaned text, got %q", entries[0].TranslatedText)
	}
	if logs.FilterMessage("translation may not be in the target language").Len() != 1 {
		t.Error("expected a language warning")
	}
	if entries[0].Error != nil {
		t.Error("a language mismatch must not fail the entry")
	}
}

func TestNewSnapshot_CopiesGlossary(t *testing.T) {
	glossary := map[string]string{"Castle": "Burg"}
	snap := NewSnapshot(translator.Config{SystemPromptTemplate: "{source_language}->{target_language}"},
		RunOptions{SourceLanguage: "en", TargetLanguage: "de"}, glossary)
	glossary["Castle"] = "Schloss"

	if snap.Glossary["Castle"] != "Burg" {
		t.Error("snapshot must not see later glossary changes")
	}
	if got := snap.SystemPrompt(); !strings.HasPrefix(got, "English->German") || !strings.Contains(got, "Castle → Burg") {
		t.Errorf("unexpected system prompt %q", got)
	}
}

func TestChannelObserver(t *testing.T) {
	ch := NewChannelObserver(64)
	o := New(&mockStreamer{}, fastConfig(), WithObserver(ch))

	if _, err := o.RunAll(context.Background(), testEntries("a"), testSnapshot(true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ch.Close()

	var events []Event
	for ev := range ch.Events() {
		events = append(events, ev)
	}

	if len(events) != 5 {
		t.Fatalf("expected 5 events, got %d", len(events))
	}
	if events[0].Batch == nil || events[0].Batch.Status != StatusRunning {
		t.Errorf("expected running first, got %+v", events[0])
	}
	if events[1].Batch == nil || events[1].Batch.Current != 1 {
		t.Errorf("expected current entry 1, got %+v", events[1])
	}
	if events[3].Entry == nil || events[3].Entry.Phase != PhaseDone || events[3].Entry.Text != "tr:a" {
		t.Errorf("expected done update, got %+v", events[3])
	}
	if events[4].Batch == nil || events[4].Batch.Status != StatusIdle {
		t.Errorf("expected idle last, got %+v", events[4])
	}
}

func TestRunAll_ProtectTags(t *testing.T) {
	var system string
	svc := &mockStreamer{streamFunc: func(_ context.Context, _ translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		system = req.System
		out := strings.NewReplacer("Hello", "Hallo", "Top", "Oben", "[PH2]", "").Replace(req.User)
		onDelta(out)
		return out, nil
	}}
	core, logs := observer.New(zapcore.WarnLevel)
	o := New(svc, fastConfig(), WithLogger(zap.New(core)))

	snap := testSnapshot(false)
	snap.Run.ProtectTags = true
	entries := testEntries("<i>Hello</i>", "{\\an8}<b>Top</b>")

	if _, err := o.RunAll(context.Background(), entries, snap); err != nil {
		t.Fatalf("RunAll failed: %v", err)
	}

	prompts := svc.prompts()
	if prompts[0] != "[PH0]Hello[PH1]" {
		t.Errorf("expected tags hidden from the model, got %q", prompts[0])
	}
	if !strings.Contains(system, "[PH0]") {
		t.Errorf("expected marker hint in system prompt, got %q", system)
	}
	if entries[0].TranslatedText != "<i>Hallo</i>" {
		t.Errorf("expected tags restored, got %q", entries[0].TranslatedText)
	}
	if entries[1].TranslatedText != "{\\an8}<b>Oben" {
		t.Errorf("unexpected second translation %q", entries[1].TranslatedText)
	}
	if logs.FilterMessage("translation dropped formatting markers").Len() != 1 {
		t.Errorf("expected one dropped-marker warning, got %d", logs.FilterMessage("translation dropped formatting markers").Len())
	}
}

func TestRetryFailed_RejectedWhileRunningLeavesEntriesAlone(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		if req.User == "a" {
			return "", internal.NewTranslationError(internal.PermissionError, 401, "no", false, nil)
		}
		close(started)
		<-release
		return "ok", nil
	}}
	o := New(svc, fastConfig())

	entries := testEntries("a", "b")
	done := make(chan *Summary)
	go func() {
		summary, _ := o.RunAll(context.Background(), entries, testSnapshot(true))
		done <- summary
	}()
	<-started

	before := entries[0].Error
	if before == nil || before.Kind != internal.PermissionError {
		t.Fatalf("expected entry 1 to have failed, got %v", before)
	}
	if _, err := o.RetryFailed(context.Background(), entries, testSnapshot(true)); !errors.Is(err, ErrBatchRunning) {
		t.Fatalf("expected ErrBatchRunning, got %v", err)
	}
	if entries[0].Error != before {
		t.Errorf("rejected batch cleared the running batch's entry: %v", entries[0].Error)
	}

	close(release)
	summary := <-done
	if summary.Cancelled || summary.Failed != 1 || summary.Succeeded != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
	if entries[0].Error == nil || entries[1].TranslatedText != "ok" {
		t.Errorf("every entry must hold text or error, got %+v", entries)
	}
}

func TestStop_DuringRetryAttemptKeepsErrorAndPartial(t *testing.T) {
	var o *Orchestrator
	var calls atomic.Int32
	svc := &mockStreamer{streamFunc: func(ctx context.Context, cfg translator.Config, req translator.Request, onDelta func(string)) (string, error) {
		if calls.Add(1) == 1 {
			return "", serverError()
		}
		onDelta("Hal")
		o.Stop()
		<-ctx.Done()
		return "", internal.AbortError("Hal")
	}}
	o = New(svc, fastConfig())

	entries := testEntries("Hello")
	summary, err := o.RunAll(context.Background(), entries, testSnapshot(true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Attempts != 2 || !summary.Cancelled {
		t.Errorf("unexpected summary %+v", summary)
	}
	got := entries[0].Error
	if got == nil || got.Kind != internal.ServerError {
		t.Fatalf("expected the server error to be reported, got %v", got)
	}
	if got.Partial != "Hal" {
		t.Errorf("expected partial text from the stopped attempt, got %q", got.Partial)
	}
	if entries[0].TranslatedText != "" {
		t.Errorf("failed entry must not keep text, got %q", entries[0].TranslatedText)
	}
}
