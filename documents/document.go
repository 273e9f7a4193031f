package documents

import (
	"sync"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document is the text of one open document together with the byte offset
// at which each of its lines starts.
type Document struct {
	lock       sync.Mutex
	content    string
	lineStarts []int
}

func NewDocument(content string) *Document {
	var d Document
	d.set(content)
	return &d
}

func (d *Document) Content() string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.content
}

// Offset converts a position to a byte offset into the content. Characters
// are counted in UTF-16 code units. Positions past the end of a line clamp to
// the end of that line, positions past the last line clamp to the end of the
// content.
func (d *Document) Offset(position protocol.Position) int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.offset(position)
}

func (d *Document) offset(position protocol.Position) int {
	line := int(position.Line)
	if line >= len(d.lineStarts) {
		return len(d.content)
	}

	start := d.lineStarts[line]
	end := len(d.content)
	if line+1 < len(d.lineStarts) {
		end = d.lineStarts[line+1] - 1
		if end > start && d.content[end-1] == '\r' {
			end--
		}
	}

	return start + ByteOffset(d.content[start:end], int(position.Character))
}

func (d *Document) apply(change Change) {
	if change.Range == nil {
		d.set(change.Text)
		return
	}

	start := d.offset(change.Range.Start)
	end := d.offset(change.Range.End)
	if end < start {
		start, end = end, start
	}
	d.set(d.content[:start] + change.Text + d.content[end:])
}

func (d *Document) set(content string) {
	d.content = content
	d.lineStarts = d.lineStarts[:0]
	d.lineStarts = append(d.lineStarts, 0)
	for index := 0; index < len(content); index++ {
		if content[index] == '\n' {
			d.lineStarts = append(d.lineStarts, index+1)
		}
	}
}

// ByteOffset returns the byte offset in line reached after the given number
// of UTF-16 code units, or len(line) when line is shorter.
func ByteOffset(line string, units int) int {
	count := 0
	for index, r := range line {
		if count >= units {
			return index
		}
		count += utf16Width(r)
	}
	return len(line)
}

// UTF16Len returns the length of s in UTF-16 code units.
func UTF16Len(s string) int {
	count := 0
	for _, r := range s {
		count += utf16Width(r)
	}
	return count
}

func utf16Width(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}
