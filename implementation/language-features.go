package implementation

import (
	"context"
	"errors"
	"fmt"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tminor/tycheck/documents"
	"github.com/tminor/tycheck/format"
)

// TextDocumentHover implements protocol.TextDocumentHoverFunc
func (s *Server) TextDocumentHover(context *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.remember(context)

	symbol, ok := s.symbols.Query(params.TextDocument.URI, params.Position)
	if !ok {
		return nil, nil
	}

	range_ := symbol.Range
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: fmt.Sprintf("```rust\n%s: %s\n```", symbol.Name, symbol.Type),
		},
		Range: &range_,
	}, nil
}

// TextDocumentFormatting implements protocol.TextDocumentFormattingFunc
func (s *Server) TextDocumentFormatting(context_ *glsp.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	s.remember(context_)

	content, ok := s.documents.Get(params.TextDocument.URI)
	if !ok {
		return nil, &Error{Code: CodeFileNotOpen, Err: fmt.Errorf("%s: %w", params.TextDocument.URI, documents.ErrDocumentNotOpen)}
	}

	edits, err := format.Format(context.Background(), s.formatter, content, s.config.Format.MinimalEdits)
	if err != nil {
		var failed *format.FailedError
		if errors.As(err, &failed) {
			return nil, &Error{Code: CodeFormatterFailed, Err: err}
		}
		return nil, err
	}
	return edits, nil
}

// TextDocumentCodeAction implements protocol.TextDocumentCodeActionFunc
func (s *Server) TextDocumentCodeAction(context *glsp.Context, params *protocol.CodeActionParams) (any, error) {
	s.remember(context)
	return s.diagnostics.CodeActions(params.TextDocument.URI, params.Range), nil
}
