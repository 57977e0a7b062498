// Package config loads subtran settings from defaults, an optional config
// file, SUBTRAN_* environment variables and bound command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/valpere/subtran/internal/language"
	"github.com/valpere/subtran/internal/logging"
	"github.com/valpere/subtran/internal/orchestrator"
	"github.com/valpere/subtran/internal/prompt"
	"github.com/valpere/subtran/internal/srt"
	"github.com/valpere/subtran/internal/translator"
)

const envPrefix = "SUBTRAN"

var (
	ErrMissingAPIKey  = errors.New("api.api_key is required (set SUBTRAN_API_API_KEY or OPENAI_API_KEY)")
	ErrMissingBaseURL = errors.New("api.base_url is required")
)

type Settings struct {
	API         translator.Config   `mapstructure:"api"`
	Translation TranslationSettings `mapstructure:"translation"`
	Retry       orchestrator.Config `mapstructure:"retry"`
	Parser      ParserSettings      `mapstructure:"parser"`
	Store       StoreSettings       `mapstructure:"store"`
	Log         logging.Options     `mapstructure:"log"`
}

type TranslationSettings struct {
	SourceLanguage string        `mapstructure:"source_language"`
	TargetLanguage string        `mapstructure:"target_language"`
	AutoRetry      bool          `mapstructure:"auto_retry"`
	DetectSource   bool          `mapstructure:"detect_source"`
	Validate       bool          `mapstructure:"validate"`
	RetryRounds    int           `mapstructure:"retry_rounds"`
	ProtectTags    bool          `mapstructure:"protect_tags"`
	Context        prompt.Window `mapstructure:"context"`
}

type ParserSettings struct {
	RecoveryLookahead int `mapstructure:"recovery_lookahead"`
}

type StoreSettings struct {
	Path     string `mapstructure:"path"`
	Disabled bool   `mapstructure:"disabled"`
}

// SetDefaults registers every key so that environment variables are seen by
// Unmarshal even when no config file mentions them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", translator.DefaultBaseURL)
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.model", translator.DefaultModel)
	v.SetDefault("api.system_prompt", prompt.DefaultSystemTemplate)

	v.SetDefault("translation.source_language", language.Auto)
	v.SetDefault("translation.target_language", "en")
	v.SetDefault("translation.auto_retry", true)
	v.SetDefault("translation.detect_source", false)
	v.SetDefault("translation.validate", false)
	v.SetDefault("translation.retry_rounds", 0)
	v.SetDefault("translation.protect_tags", false)
	v.SetDefault("translation.context.enabled", false)
	v.SetDefault("translation.context.preceding", 1)
	v.SetDefault("translation.context.succeeding", 1)

	v.SetDefault("retry.max_retries", orchestrator.DefaultMaxRetries)
	v.SetDefault("retry.retry_delay", orchestrator.DefaultRetryDelay)

	v.SetDefault("parser.recovery_lookahead", srt.DefaultLookahead)

	v.SetDefault("store.path", defaultStorePath())
	v.SetDefault("store.disabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_paths", []string{"stderr"})
	v.SetDefault("log.development", false)
}

// Load reads configuration into v and decodes it. An explicit path must
// exist; otherwise config.yaml in DefaultDir is used when present.
func Load(v *viper.Viper, path string) (*Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.api_key", envPrefix+"_API_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &s, nil
}

// Validate checks the settings needed to run a translation batch.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.API.BaseURL) == "" {
		return ErrMissingBaseURL
	}
	if u, err := url.Parse(s.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", s.API.BaseURL)
	}
	if strings.TrimSpace(s.API.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if strings.TrimSpace(s.API.Model) == "" {
		return errors.New("api.model is required")
	}

	t := s.Translation
	if strings.EqualFold(t.TargetLanguage, language.Auto) || strings.TrimSpace(t.TargetLanguage) == "" {
		return errors.New("translation.target_language must name a language")
	}
	if !language.IsKnown(t.TargetLanguage) {
		return fmt.Errorf("unknown target language %q", t.TargetLanguage)
	}
	if !language.IsKnown(t.SourceLanguage) {
		return fmt.Errorf("unknown source language %q", t.SourceLanguage)
	}
	if t.Context.Preceding < 0 || t.Context.Succeeding < 0 {
		return errors.New("translation.context counts must not be negative")
	}
	if t.RetryRounds < 0 {
		return errors.New("translation.retry_rounds must not be negative")
	}

	if s.Retry.MaxRetries < 1 {
		return errors.New("retry.max_retries must be at least 1; disable translation.auto_retry instead")
	}
	if s.Retry.RetryDelay <= 0 {
		return errors.New("retry.retry_delay must be positive")
	}
	if s.Parser.RecoveryLookahead < 1 {
		return errors.New("parser.recovery_lookahead must be at least 1")
	}
	return nil
}

// APIConfig returns the endpoint settings with surrounding whitespace removed.
func (s *Settings) APIConfig() translator.Config {
	c := s.API
	c.BaseURL = strings.TrimSpace(c.BaseURL)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)
	return c
}

// RunOptions returns the per-batch options derived from the settings.
func (s *Settings) RunOptions() orchestrator.RunOptions {
	return orchestrator.RunOptions{
		SourceLanguage: s.Translation.SourceLanguage,
		TargetLanguage: s.Translation.TargetLanguage,
		AutoRetry:      s.Translation.AutoRetry,
		Context:        s.Translation.Context,
		ProtectTags:    s.Translation.ProtectTags,
	}
}

// DefaultDir is $XDG_CONFIG_HOME/subtran or ~/.config/subtran.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "subtran")
	}
	return filepath.Join(".", ".subtran")
}

func defaultStorePath() string {
	return filepath.Join(DefaultDir(), "subtran.db")
}

