// Package validator checks that a translated cue is in the target language.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/subtran/internal/detector"
	"github.com/valpere/subtran/internal/language"
)

// Short cues ("Yes.", "Okay!") are accepted unchecked; detection on them is
// noise.
const minValidationLength = 20

type Validator struct {
	det *detector.Detector
}

// New reuses det when given, otherwise builds a detector.
func New(det *detector.Detector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// Check returns an error naming both languages when translatedText is
// confidently detected as something other than targetLang.
func (v *Validator) Check(translatedText, targetLang string) error {
	if targetLang == "" || targetLang == language.Auto {
		return nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}
	if len([]rune(text)) < minValidationLength {
		return nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return nil
	}
	if detected != language.Base(targetLang) {
		return fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}
	return nil
}

// IsValid reports whether Check passes.
func (v *Validator) IsValid(translatedText, targetLang string) bool {
	return v.Check(translatedText, targetLang) == nil
}
