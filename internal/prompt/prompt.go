// Package prompt assembles the system and user messages sent for a subtitle
// entry.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/subtran/internal"
	"github.com/valpere/subtran/internal/language"
)

// DefaultSystemTemplate is used when no template is configured.
const DefaultSystemTemplate = "You will be provided with a main subtitle entry to translate, potentially accompanied by preceding and succeeding subtitle lines for context. Translate *only* the main subtitle entry, which will be clearly indicated. Use the context to improve the accuracy and naturalness of the translation for the main entry. Original format: {source_language}. Target format: {target_language}. Only provide the translated text for the main entry."

const (
	sourcePlaceholder = "{source_language}"
	targetPlaceholder = "{target_language}"

	precedingHeader  = "Context (Previous):"
	targetHeader     = "Translate THIS Subtitle:"
	succeedingHeader = "Context (Succeeding):"
	delimiter        = "---"
)

// Window selects how many neighbouring entries accompany the target.
type Window struct {
	Enabled    bool `mapstructure:"enabled" json:"enabled"`
	Preceding  int  `mapstructure:"preceding" json:"preceding"`
	Succeeding int  `mapstructure:"succeeding" json:"succeeding"`
}

func (w Window) active() bool {
	return w.Enabled && (w.Preceding > 0 || w.Succeeding > 0)
}

// Builder renders user prompts.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder returns a Builder; a nil logger discards output.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// UserPrompt returns entry's text, wrapped with its neighbours from all when
// the window is active. Neighbours are found by entry ID so a filtered
// retry batch still sees the full document.
func (b *Builder) UserPrompt(entry internal.SubtitleEntry, all []internal.SubtitleEntry, w Window) string {
	if !w.active() {
		return entry.Text
	}

	idx := indexOf(all, entry.ID)
	if idx < 0 {
		b.logger.Warn("entry not found in document, sending without context",
			zap.Int("entry", entry.ID))
		return entry.Text
	}

	var sb strings.Builder
	if w.Preceding > 0 {
		sb.WriteString(precedingHeader + "\n")
		for _, e := range all[max(0, idx-w.Preceding):idx] {
			sb.WriteString(e.Text + "\n")
		}
		sb.WriteString(delimiter + "\n")
	}

	sb.WriteString(targetHeader + "\n")
	sb.WriteString(entry.Text + "\n")

	if w.Succeeding > 0 {
		sb.WriteString(delimiter + "\n")
		sb.WriteString(succeedingHeader + "\n")
		for _, e := range all[idx+1 : min(len(all), idx+1+w.Succeeding)] {
			sb.WriteString(e.Text + "\n")
		}
	}

	return strings.TrimSpace(sb.String())
}

// SystemPrompt fills the language placeholders in template and appends the
// glossary, if any.
func SystemPrompt(template, sourceLang, targetLang string, glossary map[string]string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultSystemTemplate
	}
	out := strings.ReplaceAll(template, sourcePlaceholder, language.SourceLabel(sourceLang))
	out = strings.ReplaceAll(out, targetPlaceholder, language.TargetLabel(targetLang))

	if len(glossary) == 0 {
		return out
	}

	terms := make([]string, 0, len(glossary))
	for src := range glossary {
		terms = append(terms, src)
	}
	sort.Strings(terms)

	var sb strings.Builder
	sb.WriteString(out)
	sb.WriteString("\n\nTERMINOLOGY (always use these exact translations):\n")
	for _, src := range terms {
		fmt.Fprintf(&sb, "- %s → %s\n", src, glossary[src])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func indexOf(all []internal.SubtitleEntry, id int) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}
