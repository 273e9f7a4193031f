package diagnostics

import (
	"encoding/json"
	"path/filepath"
)

// record is one line of linter output. Lines describing anything other than
// a compiler message (build artifacts, build script output) carry a
// different reason and no message.
type record struct {
	Reason       string `json:"reason"`
	ManifestPath string `json:"manifest_path"`
	Root         string `json:"root"`
	Message      *Node  `json:"message"`
}

func (r *record) isDiagnostic() bool {
	return r.Message != nil && (r.Reason == "" || r.Reason == "compiler-message")
}

// root returns the directory span file names are relative to.
func (r *record) root(fallback string) string {
	switch {
	case r.Root != "":
		return r.Root
	case r.ManifestPath != "":
		return filepath.Dir(r.ManifestPath)
	default:
		return fallback
	}
}

// Node is one diagnostic in the tree emitted by the linter. Children are the
// attached notes and help messages, each with its own spans.
type Node struct {
	Level    string `json:"level"`
	Message  string `json:"message"`
	Spans    []Span `json:"spans"`
	Code     *Code  `json:"code"`
	Children []Node `json:"children"`
}

type Code struct {
	Code string `json:"code"`
}

// Span locates a node in a file. Lines and columns are 1-based and the end
// column is exclusive.
type Span struct {
	FileName                string         `json:"file_name"`
	LineStart               int            `json:"line_start"`
	LineEnd                 int            `json:"line_end"`
	ColumnStart             int            `json:"column_start"`
	ColumnEnd               int            `json:"column_end"`
	Label                   *string        `json:"label"`
	SuggestedReplacement    *string        `json:"suggested_replacement"`
	SuggestionApplicability *Applicability `json:"suggestion_applicability"`
}

// Applicability says how confident the linter is that a suggested
// replacement is correct.
type Applicability int

const (
	ApplicabilityUnspecified Applicability = iota
	ApplicabilityMachineApplicable
	ApplicabilityMaybeIncorrect
	ApplicabilityHasPlaceholders
)

var applicabilityNames = map[string]Applicability{
	"MachineApplicable": ApplicabilityMachineApplicable,
	"MaybeIncorrect":    ApplicabilityMaybeIncorrect,
	"HasPlaceholders":   ApplicabilityHasPlaceholders,
	"Unspecified":       ApplicabilityUnspecified,
}

func (a Applicability) String() string {
	switch a {
	case ApplicabilityMachineApplicable:
		return "MachineApplicable"
	case ApplicabilityMaybeIncorrect:
		return "MaybeIncorrect"
	case ApplicabilityHasPlaceholders:
		return "HasPlaceholders"
	}
	return "Unspecified"
}

// UnmarshalJSON implements json.Unmarshaler. Unknown names decode as
// ApplicabilityUnspecified.
func (a *Applicability) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	*a = applicabilityNames[name]
	return nil
}
