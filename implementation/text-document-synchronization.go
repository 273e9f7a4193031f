package implementation

import (
	"context"
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tminor/tycheck/documents"
)

// TextDocumentDidOpen implements protocol.TextDocumentDidOpenFunc
func (s *Server) TextDocumentDidOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.remember(context)
	s.documents.Open(params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

// TextDocumentDidChange implements protocol.TextDocumentDidChangeFunc
func (s *Server) TextDocumentDidChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.remember(context)

	changes := make([]documents.Change, 0, len(params.ContentChanges))
	for _, change := range params.ContentChanges {
		if change_, ok := change.(protocol.TextDocumentContentChangeEvent); ok {
			changes = append(changes, documents.Change{Range: change_.Range, Text: change_.Text})
		} else if change_, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			changes = append(changes, documents.Change{Text: change_.Text})
		}
	}

	if err := s.documents.Apply(params.TextDocument.URI, changes); err != nil {
		if errors.Is(err, documents.ErrDocumentNotOpen) {
			log.Warningf("change to %s ignored: %s", params.TextDocument.URI, err.Error())
			return nil
		}
		return err
	}
	return nil
}

// TextDocumentDidSave implements protocol.TextDocumentDidSaveFunc
func (s *Server) TextDocumentDidSave(context *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	s.remember(context)
	log.Debugf("saved: %s", params.TextDocument.URI)
	s.goBackground(s.refresh)
	s.goBackground(s.analyzeInBackground)
	return nil
}

// TextDocumentDidClose implements protocol.TextDocumentDidCloseFunc
func (s *Server) TextDocumentDidClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.remember(context)
	if err := s.documents.Close(params.TextDocument.URI); err != nil {
		log.Warningf("close of %s ignored: %s", params.TextDocument.URI, err.Error())
	}
	return nil
}

// refresh runs a diagnostics cycle and reports its failures to the client.
func (s *Server) refresh(ctx context.Context) {
	err := s.diagnostics.Refresh(ctx)
	if err == nil {
		return
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, err := range joined.Unwrap() {
			s.logMessage(protocol.MessageTypeError, err.Error())
		}
	} else {
		s.logMessage(protocol.MessageTypeError, err.Error())
	}
}
