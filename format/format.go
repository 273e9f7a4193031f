// Package format turns the output of the formatter into text edits against
// the original document.
package format

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/op/go-logging"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tminor/tycheck/tool"
)

var log = logging.MustGetLogger("format")

// FailedError reports a formatter that exited with a non-zero status.
type FailedError struct {
	Status int
	Stderr string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("formatter failed with status %d", e.Status)
}

// Format runs formatter over original and returns the edits that turn
// original into the formatted text. With minimal set the edits cover only
// the changed lines, otherwise a single edit replaces the whole document.
func Format(ctx context.Context, formatter tool.Tool, original string, minimal bool) ([]protocol.TextEdit, error) {
	output, err := formatter.Invoke(ctx, []byte(original))
	if err != nil {
		var exitErr *tool.ExitError
		if errors.As(err, &exitErr) {
			return nil, &FailedError{Status: exitErr.Status, Stderr: exitErr.Stderr}
		}
		return nil, fmt.Errorf("formatter: %w", err)
	}
	if !utf8.Valid(output) {
		return nil, errors.New("formatter output is not valid UTF-8")
	}

	formatted := string(output)
	if !minimal {
		return Whole(original, formatted)
	}

	edits, err := Edits(original, formatted)
	if err != nil {
		return nil, err
	}
	log.Debugf("formatting produced %d edits", len(edits))
	return edits, nil
}
