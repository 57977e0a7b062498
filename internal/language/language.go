// Package language maps language codes to the labels used in prompts and
// listings.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto lets the model infer the source language.
const Auto = "auto"

const (
	fallbackSource = "the original language"
	fallbackTarget = "English"
)

// Option is a selectable language.
type Option struct {
	Code  string
	Label string
}

var options = []Option{
	{Code: Auto, Label: "Auto Detect"},
	{Code: "en", Label: "English"},
	{Code: "zh-CN", Label: "Chinese (Simplified)"},
	{Code: "es", Label: "Spanish"},
	{Code: "fr", Label: "French"},
	{Code: "de", Label: "German"},
	{Code: "ja", Label: "Japanese"},
	{Code: "ko", Label: "Korean"},
}

// Options returns the built-in language list, auto first.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// SourceLabel names a source language for the system prompt.
func SourceLabel(code string) string {
	if isAuto(code) {
		return fallbackSource
	}
	if label, ok := Label(code); ok {
		return label
	}
	return fallbackSource
}

// TargetLabel names a target language for the system prompt.
func TargetLabel(code string) string {
	if isAuto(code) {
		return fallbackTarget
	}
	if label, ok := Label(code); ok {
		return label
	}
	return fallbackTarget
}

// Label resolves code against the built-in table first and then against
// the CLDR English display names.
func Label(code string) (string, bool) {
	code = strings.TrimSpace(code)
	for _, o := range options {
		if o.Code != Auto && strings.EqualFold(o.Code, code) {
			return o.Label, true
		}
	}

	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		return "", false
	}
	return name, true
}

// IsKnown reports whether code names a usable language (auto included).
func IsKnown(code string) bool {
	if isAuto(code) {
		return true
	}
	_, ok := Label(code)
	return ok
}

// Base returns the ISO 639-1 base of code, e.g. "zh" for "zh-CN".
func Base(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(code))
	}
	base, _ := tag.Base()
	return base.String()
}

func isAuto(code string) bool {
	code = strings.TrimSpace(code)
	return code == "" || strings.EqualFold(code, Auto)
}
