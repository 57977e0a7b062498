// Package placeholder shields subtitle formatting from the model. HTML-style
// tags (<i>, </font>) and ASS override blocks ({\an8}) are swapped for
// numbered markers ([PH0], [PH1], ...) before a cue is sent and put back
// afterwards.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
)

var (
	// ASS/SSA override blocks: {\an8}, {\i1\b1}
	reOverride = regexp.MustCompile(`\{\\[^{}]*\}`)

	// HTML-style tags: <i>, </i>, <font color="#fff">, <br/>
	reTag = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)

	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Hint is appended to the system prompt when markers are in use.
const Hint = "The text may contain markers such as [PH0]. Keep every marker exactly as written and at the matching position in the translation."

// Protect replaces formatting markup with markers in order of appearance and
// returns the originals for Restore.
func Protect(text string) (string, []string) {
	var markers []string
	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	text = reOverride.ReplaceAllStringFunc(text, replace)
	text = reTag.ReplaceAllStringFunc(text, replace)
	return text, markers
}

// Restore puts the originals back. Unknown indices are left as they are.
func Restore(text string, markers []string) string {
	if len(markers) == 0 {
		return text
	}
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// Missing returns the indices of markers the translation dropped.
func Missing(text string, markers []string) []int {
	found := make(map[int]bool, len(markers))
	for _, sub := range rePlaceholder.FindAllStringSubmatch(text, -1) {
		if idx, err := strconv.Atoi(sub[1]); err == nil {
			found[idx] = true
		}
	}

	var missing []int
	for i := range markers {
		if !found[i] {
			missing = append(missing, i)
		}
	}
	return missing
}
