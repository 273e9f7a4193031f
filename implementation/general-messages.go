package implementation

import (
	"path/filepath"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tminor/tycheck/documents"
)

// Initialize implements protocol.InitializeFunc
func (s *Server) Initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.remember(context)

	if s.config.Root == "" {
		if root := workspaceRoot(params); root != "" && root != s.root {
			s.setRoot(root)
		}
	}

	capabilities := s.handler.CreateServerCapabilities()
	openClose := true
	change := protocol.TextDocumentSyncKindIncremental
	includeText := false
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
		Save:      &protocol.SaveOptions{IncludeText: &includeText},
	}
	capabilities.CodeActionProvider = protocol.CodeActionOptions{
		CodeActionKinds: []protocol.CodeActionKind{protocol.CodeActionKindQuickFix},
	}

	return &protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &Version,
		},
	}, nil
}

// Initialized implements protocol.InitializedFunc
func (s *Server) Initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	s.remember(context)
	s.logMessage(protocol.MessageTypeInfo, Name+" "+Version+" ready")
	s.goBackground(s.refresh)
	return nil
}

// Shutdown implements protocol.ShutdownFunc
func (s *Server) Shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	s.Wait()
	return nil
}

// SetTrace implements protocol.SetTraceFunc
func (s *Server) SetTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func workspaceRoot(params *protocol.InitializeParams) string {
	var root string
	switch {
	case params.RootURI != nil:
		root = documents.URIToPath(*params.RootURI)
	case params.RootPath != nil:
		root = *params.RootPath
	case len(params.WorkspaceFolders) > 0:
		root = documents.URIToPath(params.WorkspaceFolders[0].URI)
	}
	if root == "" {
		return ""
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return root
}
