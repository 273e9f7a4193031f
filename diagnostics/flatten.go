package diagnostics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"fortio.org/safecast"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tminor/tycheck/documents"
)

// Source is set on every published diagnostic.
var Source = "tycheck"

// QuickFix is the replacement a linter suggests for a span.
type QuickFix struct {
	Replacement   *string
	Applicability Applicability
}

// Entry is a diagnostic paired with its optional quick fix.
type Entry struct {
	Diagnostic protocol.Diagnostic
	Fix        QuickFix
}

// Lists holds the entries of each document.
type Lists map[protocol.DocumentUri][]Entry

// URIs returns the documents in l, sorted.
func (l Lists) URIs() []protocol.DocumentUri {
	uris := make([]protocol.DocumentUri, 0, len(l))
	for uri := range l {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Diagnostics returns the diagnostics of uri without their fixes. The result
// is never nil.
func (l Lists) Diagnostics(uri protocol.DocumentUri) []protocol.Diagnostic {
	entries := l[uri]
	diagnostics := make([]protocol.Diagnostic, len(entries))
	for index, entry := range entries {
		diagnostics[index] = entry.Diagnostic
	}
	return diagnostics
}

// MalformedRecordError reports a line of linter output that could not be
// decoded.
type MalformedRecordError struct {
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed diagnostic record on line %d: %s", e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Parse reads newline-delimited linter records and flattens them into lists.
// Relative file names are resolved against the root carried by each record,
// or against root when a record carries none. Malformed lines are skipped
// and reported, and non-diagnostic lines are skipped silently.
func Parse(reader io.Reader, root string) (Lists, []error) {
	lists := make(Lists)
	var errs []error

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			errs = append(errs, &MalformedRecordError{Line: line, Err: err})
			continue
		}
		if !rec.isDiagnostic() {
			continue
		}

		errs = append(errs, Flatten(rec.root(root), rec.Message, lists)...)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("reading linter output: %w", err))
	}

	return lists, errs
}

// Flatten appends one entry per span of node and of all its descendants to
// lists. A node with an unknown level still contributes its spans, without a
// severity.
func Flatten(root string, node *Node, lists Lists) []error {
	var errs []error
	flatten(root, node, lists, &errs)
	return errs
}

func flatten(root string, node *Node, lists Lists, errs *[]error) {
	severity, err := ParseLevel(node.Level)
	if err != nil {
		*errs = append(*errs, err)
	}

	var code *protocol.IntegerOrString
	if node.Code != nil {
		code = &protocol.IntegerOrString{Value: node.Code.Code}
	}

	for _, span := range node.Spans {
		spanRange, err := span.protocolRange()
		if err != nil {
			*errs = append(*errs, fmt.Errorf("%s: %w", span.FileName, err))
			continue
		}

		message := node.Message
		if span.Label != nil {
			message += "\n" + *span.Label
		}

		fix := QuickFix{Replacement: span.SuggestedReplacement}
		if span.SuggestionApplicability != nil {
			fix.Applicability = *span.SuggestionApplicability
		}

		uri := fileURI(root, span.FileName)
		lists[uri] = append(lists[uri], Entry{
			Diagnostic: protocol.Diagnostic{
				Range:    spanRange,
				Severity: severity.Protocol(),
				Code:     code,
				Source:   &Source,
				Message:  message,
			},
			Fix: fix,
		})
	}

	for index := range node.Children {
		flatten(root, &node.Children[index], lists, errs)
	}
}

func fileURI(root string, name string) protocol.DocumentUri {
	if !filepath.IsAbs(name) {
		name = filepath.Join(root, name)
	}
	return documents.PathToURI(name)
}

// protocolRange converts the 1-based span to a 0-based range.
func (s *Span) protocolRange() (protocol.Range, error) {
	var values [4]protocol.UInteger
	for index, value := range [4]int{s.LineStart, s.ColumnStart, s.LineEnd, s.ColumnEnd} {
		converted, err := safecast.Conv[uint32](max(value-1, 0))
		if err != nil {
			return protocol.Range{}, err
		}
		values[index] = protocol.UInteger(converted)
	}

	return protocol.Range{
		Start: protocol.Position{Line: values[0], Character: values[1]},
		End:   protocol.Position{Line: values[2], Character: values[3]},
	}, nil
}
