package diagnostics

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

type Severity int

const (
	SeverityNone Severity = iota
	SeverityError
	SeverityWarning
	SeverityInformation
	SeverityHint
)

var levels = map[string]Severity{
	"error":                          SeverityError,
	"internal-compiler-error":        SeverityError,
	"error: internal compiler error": SeverityError,
	"warning":                        SeverityWarning,
	"note":                           SeverityInformation,
	"failure-note":                   SeverityInformation,
	"help":                           SeverityHint,
}

// UnknownLevelError is reported for a node whose level has no severity.
type UnknownLevelError struct {
	Level string
}

func (e *UnknownLevelError) Error() string {
	return fmt.Sprintf("unknown severity: %s", e.Level)
}

// ParseLevel maps a linter level to a severity. Matching is case-sensitive;
// an unknown level yields SeverityNone and an *UnknownLevelError.
func ParseLevel(level string) (Severity, error) {
	if severity, ok := levels[level]; ok {
		return severity, nil
	}
	return SeverityNone, &UnknownLevelError{Level: level}
}

// Protocol returns the protocol severity, or nil for SeverityNone.
func (s Severity) Protocol() *protocol.DiagnosticSeverity {
	var severity protocol.DiagnosticSeverity
	switch s {
	case SeverityError:
		severity = protocol.DiagnosticSeverityError
	case SeverityWarning:
		severity = protocol.DiagnosticSeverityWarning
	case SeverityInformation:
		severity = protocol.DiagnosticSeverityInformation
	case SeverityHint:
		severity = protocol.DiagnosticSeverityHint
	default:
		return nil
	}
	return &severity
}

// SeverityOf is the inverse of Protocol.
func SeverityOf(severity *protocol.DiagnosticSeverity) Severity {
	if severity == nil {
		return SeverityNone
	}
	switch *severity {
	case protocol.DiagnosticSeverityError:
		return SeverityError
	case protocol.DiagnosticSeverityWarning:
		return SeverityWarning
	case protocol.DiagnosticSeverityInformation:
		return SeverityInformation
	case protocol.DiagnosticSeverityHint:
		return SeverityHint
	}
	return SeverityNone
}

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return "none"
}
