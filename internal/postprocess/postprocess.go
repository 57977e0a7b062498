// Package postprocess strips model artefacts from a streamed subtitle
// translation before it is stored on the entry.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean returns translated with reasoning blocks, echoed prompt scaffolding,
// chatty preambles and wrapping quotes removed. source is the original cue
// text; quotes are kept when the source itself was quoted. Line breaks
// inside the cue survive.
func Clean(source, translated string) string {
	text := removeThinkingBlocks(translated)
	text = removeScaffolding(text)
	text = removePreamble(text)
	if !quoted(strings.TrimSpace(source)) {
		text = unquote(text)
	}
	return strings.TrimSpace(text)
}

// RE2 has no backreferences, so each tag pair is spelled out.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// An opening tag with no close means the model was cut off mid-thought.
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

const (
	targetHeader = "translate this subtitle:"
	contextLabel = "context ("
	sectionBreak = "---"
)

// removeScaffolding drops any copy of the context-window layout the model
// echoed back: everything up to the target header, and everything from a
// following section break or context header on.
func removeScaffolding(text string) string {
	lines := strings.Split(text, "\n")

	for i, l := range lines {
		if strings.EqualFold(strings.TrimSpace(l), targetHeader) {
			lines = lines[i+1:]
			break
		}
	}

	for i, l := range lines {
		t := strings.ToLower(strings.TrimSpace(l))
		if t == sectionBreak || strings.HasPrefix(t, contextLabel) {
			lines = lines[:i]
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Anchored at the start and requiring a colon, so real dialogue that merely
// begins with "Sure" is left alone.
var preamblePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:translated )?(?:translation|subtitle|text)(?: of the (?:main )?(?:subtitle|entry))?\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translation|translated (?:text|subtitle))\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.!]? here(?:'s| is)(?: the)? (?:translated )?(?:translation|subtitle|text)\s*:`),
}

func removePreamble(text string) string {
	for _, re := range preamblePatterns {
		if loc := re.FindStringIndex(text); loc != nil {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'«', '»'},
	{'“', '”'},
	{'‘', '’'},
	{'「', '」'},
}

func quoted(text string) bool {
	runes := []rune(text)
	if len(runes) < 2 {
		return false
	}
	first, last := runes[0], runes[len(runes)-1]
	for _, p := range quotePairs {
		if first == p[0] && last == p[1] {
			return true
		}
	}
	return false
}

func unquote(text string) string {
	if !quoted(text) {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[1 : len(runes)-1]))
}
