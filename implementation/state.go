package implementation

import (
	"context"
	"os"
	"sync"

	"github.com/op/go-logging"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tminor/tycheck/config"
	"github.com/tminor/tycheck/diagnostics"
	"github.com/tminor/tycheck/documents"
	"github.com/tminor/tycheck/symbols"
	"github.com/tminor/tycheck/tool"
)

const Name = "tycheck"

var Version = "0.1.0"

var log = logging.MustGetLogger("implementation")

// Options configures a Server. Collaborators left nil are built from
// Config.
type Options struct {
	Config    *config.Config
	Linter    tool.Tool
	Formatter tool.Tool
	Analyzer  tool.Tool
}

// Server owns the state of one workspace session and implements the
// protocol handlers on top of it.
type Server struct {
	options Options
	config  *config.Config
	root    string
	handler protocol.Handler

	documents   *documents.Store
	symbols     *symbols.Index
	diagnostics *diagnostics.Aggregator
	formatter   tool.Tool
	analyzer    tool.Tool

	notifyLock sync.RWMutex
	notify     glsp.NotifyFunc

	// background tracks refresh cycles and analyzer passes.
	background sync.WaitGroup
}

func NewServer(options Options) *Server {
	if options.Config == nil {
		options.Config = config.Default()
	}

	root := options.Config.Root
	if root == "" {
		root, _ = os.Getwd()
	}

	s := &Server{
		options:   options,
		config:    options.Config,
		documents: documents.NewStore(),
		symbols:   symbols.NewIndex(),
	}
	s.handler = protocol.Handler{
		Initialize:             s.Initialize,
		Initialized:            s.Initialized,
		Shutdown:               s.Shutdown,
		SetTrace:               s.SetTrace,
		TextDocumentDidOpen:    s.TextDocumentDidOpen,
		TextDocumentDidChange:  s.TextDocumentDidChange,
		TextDocumentDidSave:    s.TextDocumentDidSave,
		TextDocumentDidClose:   s.TextDocumentDidClose,
		TextDocumentHover:      s.TextDocumentHover,
		TextDocumentFormatting: s.TextDocumentFormatting,
		TextDocumentCodeAction: s.TextDocumentCodeAction,
	}
	s.setRoot(root)
	return s
}

// Wait blocks until every background refresh and analyzer pass has
// finished.
func (s *Server) Wait() {
	s.background.Wait()
}

// setRoot (re)builds the collaborators for the workspace at root. It runs
// before any document is opened.
func (s *Server) setRoot(root string) {
	s.root = root

	linter := s.options.Linter
	if linter == nil {
		linter = tool.NewCommand(root, s.config.Linter...)
	}
	s.formatter = s.options.Formatter
	if s.formatter == nil {
		s.formatter = tool.NewCommand(root, s.config.Formatter...)
	}
	s.analyzer = s.options.Analyzer
	if s.analyzer == nil && len(s.config.Analyzer) > 0 {
		s.analyzer = tool.NewCommand(root, s.config.Analyzer...)
	}

	s.diagnostics = diagnostics.NewAggregator(linter, root, s.publishDiagnostics)
	log.Infof("workspace root: %s", root)
}

// remember keeps the notification function of the connection.
func (s *Server) remember(context *glsp.Context) {
	if context == nil || context.Notify == nil {
		return
	}
	s.notifyLock.Lock()
	defer s.notifyLock.Unlock()
	s.notify = context.Notify
}

func (s *Server) send(method string, params any) {
	s.notifyLock.RLock()
	notify := s.notify
	s.notifyLock.RUnlock()
	if notify != nil {
		notify(method, params)
	}
}

func (s *Server) publishDiagnostics(uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	s.send(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func (s *Server) logMessage(type_ protocol.MessageType, message string) {
	s.send(protocol.ServerWindowLogMessage, &protocol.LogMessageParams{
		Type:    type_,
		Message: message,
	})
}

// goBackground runs task in the background.
func (s *Server) goBackground(task func(ctx context.Context)) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		task(context.Background())
	}()
}
