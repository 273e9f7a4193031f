package diagnostics

import (
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CodeActions returns one quick fix per published diagnostic of uri that lies
// within requested and carries a non-empty suggested replacement. A fix is
// preferred when the linter marked it machine applicable.
func (a *Aggregator) CodeActions(uri protocol.DocumentUri, requested protocol.Range) []protocol.CodeAction {
	actions := []protocol.CodeAction{}
	for _, entry := range a.Published(uri) {
		replacement := entry.Fix.Replacement
		if replacement == nil || *replacement == "" {
			continue
		}
		if !Within(entry.Diagnostic.Range, requested) {
			continue
		}

		kind := protocol.CodeActionKindQuickFix
		preferred := entry.Fix.Applicability == ApplicabilityMachineApplicable
		actions = append(actions, protocol.CodeAction{
			Title:       entry.Diagnostic.Message,
			Kind:        &kind,
			Diagnostics: []protocol.Diagnostic{entry.Diagnostic},
			IsPreferred: &preferred,
			Edit: &protocol.WorkspaceEdit{
				Changes: map[protocol.DocumentUri][]protocol.TextEdit{
					uri: {{Range: entry.Diagnostic.Range, NewText: *replacement}},
				},
			},
		})
	}
	return actions
}

// Within reports whether inner lies entirely inside outer.
func Within(inner protocol.Range, outer protocol.Range) bool {
	return !less(inner.Start, outer.Start) && !less(outer.End, inner.End)
}

func less(a protocol.Position, b protocol.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}
