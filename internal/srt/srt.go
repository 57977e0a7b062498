// Package srt reads and writes SubRip subtitle documents.
package srt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/valpere/subtran/internal"
)

// DefaultLookahead is how many lines the parser scans past a malformed block
// looking for the next index/timing pair before it gives up.
const DefaultLookahead = 10

const (
	timingSeparator = "-->"
	bom             = "\ufeff"
)

// ErrNoEntries is returned when non-blank input contains no parseable cue.
var ErrNoEntries = errors.New("no subtitle entries found")

// Parser turns SubRip text into entries. The zero value uses DefaultLookahead.
type Parser struct {
	Lookahead int
}

// Parse parses raw with the default parser.
func Parse(raw string) []internal.SubtitleEntry {
	return Parser{}.Parse(raw)
}

// ParseDocument parses raw with the default parser and reports ErrNoEntries
// for non-blank input that produced nothing.
func ParseDocument(raw string) ([]internal.SubtitleEntry, error) {
	return Parser{}.ParseDocument(raw)
}

func (p Parser) ParseDocument(raw string) ([]internal.SubtitleEntry, error) {
	entries := p.Parse(raw)
	if len(entries) == 0 && strings.TrimSpace(strings.TrimPrefix(raw, bom)) != "" {
		return nil, ErrNoEntries
	}
	return entries, nil
}

// Parse never fails. Malformed blocks are skipped; if no index/timing anchor
// follows one within the lookahead bound, parsing stops and the entries read
// so far are returned.
func (p Parser) Parse(raw string) []internal.SubtitleEntry {
	lines := splitLines(raw)
	bound := p.Lookahead
	if bound <= 0 {
		bound = DefaultLookahead
	}

	var entries []internal.SubtitleEntry
	i := 0
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}

		if !isAnchor(lines, i) {
			next, ok := findAnchor(lines, i+1, bound)
			if !ok {
				break
			}
			i = next
		}

		id, _ := parseIndex(lines[i])
		start, end := splitTiming(lines[i+1])
		i += 2

		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, lines[i])
			i++
		}
		if len(text) == 0 {
			continue
		}

		entries = append(entries, internal.SubtitleEntry{
			ID:        id,
			StartTime: start,
			EndTime:   end,
			Text:      strings.Join(text, "\n"),
		})
	}

	return entries
}

// Format renders entries back to SubRip, preferring translated text. The
// first '.' of each timestamp becomes ',' as the format requires.
func Format(entries []internal.SubtitleEntry) string {
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		text := e.TranslatedText
		if text == "" {
			text = e.Text
		}
		blocks = append(blocks, fmt.Sprintf("%d\n%s --> %s\n%s\n",
			e.ID, commaTimestamp(e.StartTime), commaTimestamp(e.EndTime), text))
	}
	return strings.Join(blocks, "\n")
}

func splitLines(raw string) []string {
	raw = strings.TrimPrefix(raw, bom)
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func parseIndex(line string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, false
	}
	return n, true
}

// isAnchor reports whether lines[i] is an index line directly followed by a
// timing line.
func isAnchor(lines []string, i int) bool {
	if i+1 >= len(lines) {
		return false
	}
	if _, ok := parseIndex(lines[i]); !ok {
		return false
	}
	return strings.Contains(lines[i+1], timingSeparator)
}

func findAnchor(lines []string, from, bound int) (int, bool) {
	for j := from; j < len(lines) && j < from+bound; j++ {
		if isAnchor(lines, j) {
			return j, true
		}
	}
	return 0, false
}

func splitTiming(line string) (string, string) {
	if start, end, ok := strings.Cut(line, " "+timingSeparator+" "); ok {
		return start, end
	}
	start, end, _ := strings.Cut(line, timingSeparator)
	return strings.TrimSpace(start), strings.TrimSpace(end)
}

func commaTimestamp(ts string) string {
	return strings.Replace(ts, ".", ",", 1)
}
