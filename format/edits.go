package format

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"github.com/pmezard/go-difflib/difflib"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tminor/tycheck/documents"
)

// Edits computes line-granularity edits from original to formatted.
//
// Lines keep their terminators, so the replacement text of an insertion or
// replacement ends with a line separator unless it includes the last line
// of a formatted text that does not end with one. A single cursor walks the
// formatted lines in script order and must be exhausted at the end.
func Edits(original string, formatted string) ([]protocol.TextEdit, error) {
	oldLines := splitLines(original)
	newLines := splitLines(formatted)

	edits := []protocol.TextEdit{}
	cursor := 0
	for _, op := range difflib.NewMatcher(oldLines, newLines).GetOpCodes() {
		if op.J1 != cursor {
			return nil, fmt.Errorf("edit script skips formatted lines %d to %d", cursor, op.J1)
		}
		next := cursor + op.J2 - op.J1

		var edit protocol.TextEdit
		switch op.Tag {
		case 'e':
			cursor = next
			continue

		case 'i':
			start, err := linePosition(oldLines, op.I1)
			if err != nil {
				return nil, err
			}
			edit.Range = protocol.Range{Start: start, End: start}
			edit.NewText = strings.Join(newLines[cursor:next], "")

		case 'd':
			var err error
			if edit.Range, err = lineRange(oldLines, op.I1, op.I2); err != nil {
				return nil, err
			}

		case 'r':
			var err error
			if edit.Range, err = lineRange(oldLines, op.I1, op.I2); err != nil {
				return nil, err
			}
			edit.NewText = strings.Join(newLines[cursor:next], "")

		default:
			return nil, fmt.Errorf("unknown edit script tag %q", op.Tag)
		}

		edits = append(edits, edit)
		cursor = next
	}

	if cursor != len(newLines) {
		return nil, fmt.Errorf("edit script consumed %d of %d formatted lines", cursor, len(newLines))
	}
	return edits, nil
}

// Whole returns a single edit replacing all of original with formatted, or
// no edits when they are equal.
func Whole(original string, formatted string) ([]protocol.TextEdit, error) {
	if original == formatted {
		return []protocol.TextEdit{}, nil
	}

	lines := splitLines(original)
	end, err := linePosition(lines, len(lines))
	if err != nil {
		return nil, err
	}
	return []protocol.TextEdit{{
		Range:   protocol.Range{End: end},
		NewText: formatted,
	}}, nil
}

// splitLines splits s after every "\n". The last line has no terminator when
// s does not end with one.
func splitLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineRange(lines []string, from int, to int) (protocol.Range, error) {
	start, err := linePosition(lines, from)
	if err != nil {
		return protocol.Range{}, err
	}
	end, err := linePosition(lines, to)
	if err != nil {
		return protocol.Range{}, err
	}
	return protocol.Range{Start: start, End: end}, nil
}

// linePosition returns the position at which line index starts. Past the
// last line of a text without a final separator that is the end of the last
// line.
func linePosition(lines []string, index int) (protocol.Position, error) {
	if index > 0 && index == len(lines) && !strings.HasSuffix(lines[index-1], "\n") {
		line, err := safecast.Conv[uint32](index - 1)
		if err != nil {
			return protocol.Position{}, err
		}
		character, err := safecast.Conv[uint32](documents.UTF16Len(lines[index-1]))
		if err != nil {
			return protocol.Position{}, err
		}
		return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(character)}, nil
	}

	line, err := safecast.Conv[uint32](index)
	if err != nil {
		return protocol.Position{}, err
	}
	return protocol.Position{Line: protocol.UInteger(line)}, nil
}
