package symbols

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Record is one line of analyzer output.
type Record struct {
	URI protocol.DocumentUri `json:"uri"`
	Symbol
}

// Decode reads newline-delimited analyzer records and groups the symbols by
// document. Lines that cannot be decoded are skipped and reported.
func Decode(reader io.Reader) (map[protocol.DocumentUri][]Symbol, []error) {
	tables := make(map[protocol.DocumentUri][]Symbol)
	var errs []error

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record Record
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			errs = append(errs, fmt.Errorf("analyzer record %d: %w", line, err))
			continue
		}
		if record.URI == "" {
			errs = append(errs, fmt.Errorf("analyzer record %d: %w", line, errors.New("missing uri")))
			continue
		}
		tables[record.URI] = append(tables[record.URI], record.Symbol)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("reading analyzer output: %w", err))
	}

	return tables, errs
}
