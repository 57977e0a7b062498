package orchestrator

import (
	"time"

	"github.com/valpere/subtran/internal/placeholder"
	"github.com/valpere/subtran/internal/prompt"
	"github.com/valpere/subtran/internal/translator"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 3 * time.Second
)

// Config bounds the retry loop applied to every entry.
type Config struct {
	MaxRetries int           `mapstructure:"max_retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// RunOptions are the user choices that shape one batch.
type RunOptions struct {
	SourceLanguage string
	TargetLanguage string
	AutoRetry      bool
	Context        prompt.Window
	// ProtectTags hides formatting tags from the model behind markers.
	ProtectTags bool
}

// Snapshot is everything a batch reads, fixed when the batch starts.
type Snapshot struct {
	API      translator.Config
	Run      RunOptions
	Glossary map[string]string
}

// NewSnapshot copies its inputs so later changes by the caller cannot leak
// into a running batch.
func NewSnapshot(api translator.Config, run RunOptions, glossary map[string]string) Snapshot {
	var terms map[string]string
	if len(glossary) > 0 {
		terms = make(map[string]string, len(glossary))
		for k, v := range glossary {
			terms[k] = v
		}
	}
	return Snapshot{API: api, Run: run, Glossary: terms}
}

// SystemPrompt renders the configured template for this batch's languages.
func (s Snapshot) SystemPrompt() string {
	out := prompt.SystemPrompt(s.API.SystemPromptTemplate, s.Run.SourceLanguage, s.Run.TargetLanguage, s.Glossary)
	if s.Run.ProtectTags {
		out += "\n\n" + placeholder.Hint
	}
	return out
}
