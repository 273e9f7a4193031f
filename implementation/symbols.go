package implementation

import (
	"bytes"
	"context"
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"

	"github.com/tminor/tycheck/symbols"
)

// AnalyzerPassError reports a symbol analysis pass that did not complete.
// The index is left untouched.
type AnalyzerPassError struct {
	Err error
}

func (e *AnalyzerPassError) Error() string {
	return fmt.Sprintf("analyzer pass failed: %s", e.Err.Error())
}

func (e *AnalyzerPassError) Unwrap() error {
	return e.Err
}

// Analyze runs the analyzer and installs the symbol tables it reports.
// Invocation and decoding run in a single errgroup goroutine that is awaited
// at once, so a panic there becomes an *AnalyzerPassError. The index lock is
// only taken for the swap.
func (s *Server) Analyze(ctx context.Context) error {
	if s.analyzer == nil {
		log.Info("no analyzer configured, skipping symbol analysis")
		return nil
	}

	var tables map[protocol.DocumentUri][]symbols.Symbol
	var group errgroup.Group
	group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		output, err := s.analyzer.Invoke(ctx, nil)
		if err != nil {
			return err
		}

		var errs []error
		tables, errs = symbols.Decode(bytes.NewReader(output))
		for _, err := range errs {
			log.Warningf("%s", err.Error())
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return &AnalyzerPassError{Err: err}
	}

	s.symbols.Install(tables)
	log.Infof("installed symbol tables for %d documents", len(tables))
	return nil
}

func (s *Server) analyzeInBackground(ctx context.Context) {
	if err := s.Analyze(ctx); err != nil {
		log.Errorf("%s", err.Error())
		s.logMessage(protocol.MessageTypeError, err.Error())
	}
}
