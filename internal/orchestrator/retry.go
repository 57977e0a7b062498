package orchestrator

import (
	"context"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/valpere/subtran/internal"
	"github.com/valpere/subtran/internal/translator"
)

// Outcome is the result of driving one entry through the retry loop.
type Outcome struct {
	Text     string
	Err      *internal.TranslationError
	Attempts int
}

// translateWithRetry runs attempt 0 and, for retryable failures with
// auto-retry on, up to MaxRetries more after a fixed delay. Cancellation is
// seen before each attempt, during the delay and inside the stream.
func (o *Orchestrator) translateWithRetry(ctx context.Context, entry *internal.SubtitleEntry, req translator.Request, snap Snapshot) Outcome {
	maxRetries := 0
	if snap.Run.AutoRetry {
		maxRetries = o.config.MaxRetries
	}
	backoff := retry.WithMaxRetries(uint64(maxRetries), retry.NewConstant(o.config.RetryDelay))

	var (
		attempts int
		text     string
		lastErr  *internal.TranslationError
	)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		n := attempts
		attempts++

		if n > 0 {
			entry.Reset()
			o.observer.EntryUpdated(Update{EntryID: entry.ID, Phase: PhaseAttempt, Attempt: n})
		}

		out, err := o.streamer.Stream(ctx, snap.API, req, func(acc string) {
			entry.TranslatedText = acc
			o.observer.EntryUpdated(Update{EntryID: entry.ID, Text: acc, Phase: PhaseStreaming, Attempt: n})
		})
		if err == nil {
			text = out
			return nil
		}

		te := internal.AsTranslationError(err)
		if te.Aborted() {
			return te
		}
		lastErr = te

		if !te.Retryable || n >= maxRetries {
			return te
		}

		entry.TranslatedText = ""
		entry.Error = te
		o.observer.EntryUpdated(Update{EntryID: entry.ID, Err: te, Phase: PhaseRetrying, Attempt: n})
		o.logger.Info("retrying entry",
			zap.Int("entry", entry.ID),
			zap.String("kind", string(te.Kind)),
			zap.Int("attempt", n+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("delay", o.config.RetryDelay))
		return retry.RetryableError(te)
	})

	if err == nil {
		return Outcome{Text: text, Attempts: attempts}
	}

	te := internal.AsTranslationError(err)
	if te.Aborted() && lastErr != nil {
		// Report the failure that caused the retry, with whatever the
		// stopped attempt streamed before it was cancelled.
		kept := *lastErr
		if te.Partial != "" {
			kept.Partial = te.Partial
		}
		te = &kept
	}
	return Outcome{Err: te, Attempts: attempts}
}
