package translator

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// eventReader yields the payload of each "data:" line of an event stream.
// Lines split across network reads are reassembled by the buffered reader.
type eventReader struct {
	br *bufio.Reader
}

func newEventReader(r io.Reader) *eventReader {
	return &eventReader{br: bufio.NewReader(r)}
}

// Next returns the next data payload, or io.EOF once the stream is drained.
// Comments, blank separators and other fields are skipped.
func (r *eventReader) Next() (string, error) {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" && err != nil {
			return "", io.EOF
		}

		line = strings.TrimRight(line, "\r\n")
		if data, ok := strings.CutPrefix(line, dataPrefix); ok {
			return strings.TrimPrefix(data, " "), nil
		}
		if err != nil {
			return "", io.EOF
		}
	}
}
