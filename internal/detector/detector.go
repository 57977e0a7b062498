// Package detector guesses the language of subtitle text with lingua.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"

	"github.com/valpere/subtran/internal"
)

// sampleRunes caps how much of a document is fed to the detector.
const sampleRunes = 4000

// Detector wraps a lingua detector. Building one is expensive; reuse it.
type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lower-case ISO 639-1 code of text's language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// DetectEntries detects the dominant language of a subtitle document from a
// sample of its cues.
func (d *Detector) DetectEntries(entries []internal.SubtitleEntry) (string, bool) {
	var sb strings.Builder
	n := 0
	for _, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		n += len([]rune(text))
		if n >= sampleRunes {
			break
		}
	}
	return d.DetectISO(sb.String())
}
