package event

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Decoder reads TestOutcome events from a JSON-lines stream, one event per
// line. Blank lines are skipped. The runner plugin emits this format at
// test completion; by the time events reach the pipeline they are treated
// as already-decoded values.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder creates a decoder over r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	// Stack traces in error summaries can make for long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Decoder{scanner: scanner}
}

// Next returns the next outcome in the stream, or io.EOF when exhausted.
func (d *Decoder) Next() (*TestOutcome, error) {
	for d.scanner.Scan() {
		d.line++

		text := strings.TrimSpace(d.scanner.Text())
		if text == "" {
			continue
		}

		var outcome TestOutcome
		if err := json.Unmarshal([]byte(text), &outcome); err != nil {
			return nil, fmt.Errorf("decoding event on line %d: %w", d.line, err)
		}

		if err := outcome.Validate(); err != nil {
			return nil, fmt.Errorf("invalid event on line %d: %w", d.line, err)
		}

		return &outcome, nil
	}

	if err := d.scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event stream: %w", err)
	}

	return nil, io.EOF
}

// ReadAll decodes every outcome in the stream.
func ReadAll(r io.Reader) ([]TestOutcome, error) {
	decoder := NewDecoder(r)
	outcomes := make([]TestOutcome, 0, 64)

	for {
		outcome, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return outcomes, nil
		}
		if err != nil {
			return nil, err
		}

		outcomes = append(outcomes, *outcome)
	}
}
