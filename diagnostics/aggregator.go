// Package diagnostics turns the structured output of the linter into
// per-document diagnostic lists with attached quick fixes and publishes them.
package diagnostics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/op/go-logging"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"golang.org/x/sync/errgroup"

	"github.com/tminor/tycheck/tool"
)

var log = logging.MustGetLogger("diagnostics")

// Publisher sends the complete diagnostic list of one document to the
// client.
type Publisher func(uri protocol.DocumentUri, diagnostics []protocol.Diagnostic)

// Aggregator owns the published diagnostics of the workspace.
type Aggregator struct {
	linter  tool.Tool
	root    string
	publish Publisher

	// refreshLock is held for a whole refresh cycle and guards lists.
	refreshLock sync.Mutex
	lists       Lists

	// publishedLock guards published, the snapshot read by code actions.
	publishedLock sync.RWMutex
	published     Lists
}

func NewAggregator(linter tool.Tool, root string, publish Publisher) *Aggregator {
	return &Aggregator{
		linter:    linter,
		root:      root,
		publish:   publish,
		lists:     make(Lists),
		published: make(Lists),
	}
}

// Refresh runs one refresh cycle: every published document is cleared while
// the linter runs, then the linter output is parsed and every rebuilt list is
// published.
//
// Errors from individual records never abort the cycle. They are logged and
// returned joined together with a linter failure, if any, after whatever
// could be parsed has been published.
func (a *Aggregator) Refresh(ctx context.Context) error {
	a.refreshLock.Lock()
	defer a.refreshLock.Unlock()

	stale := a.lists
	a.lists = make(Lists)
	a.setPublished(make(Lists))

	var (
		output []byte
		group  errgroup.Group
	)
	group.Go(func() error {
		for _, uri := range stale.URIs() {
			a.publish(uri, []protocol.Diagnostic{})
		}
		return nil
	})
	group.Go(func() error {
		var err error
		output, err = a.linter.Invoke(ctx, nil)
		return err
	})
	lintErr := group.Wait()

	var errs []error
	if lintErr != nil {
		var exitErr *tool.ExitError
		if errors.As(lintErr, &exitErr) {
			// Linters exit non-zero when they report errors; the output is
			// still valid.
			log.Debugf("linter exited with status %d", exitErr.Status)
		} else {
			errs = append(errs, fmt.Errorf("linter: %w", lintErr))
		}
	}

	lists, parseErrs := Parse(bytes.NewReader(output), a.root)
	errs = append(errs, parseErrs...)
	for _, err := range errs {
		log.Errorf("%s", err.Error())
	}

	a.lists = lists
	a.setPublished(lists)
	for _, uri := range lists.URIs() {
		a.publish(uri, lists.Diagnostics(uri))
	}
	log.Infof("published diagnostics for %d documents", len(lists))

	return errors.Join(errs...)
}

// Published returns the entries last published for uri.
func (a *Aggregator) Published(uri protocol.DocumentUri) []Entry {
	a.publishedLock.RLock()
	defer a.publishedLock.RUnlock()
	return a.published[uri]
}

func (a *Aggregator) setPublished(lists Lists) {
	snapshot := make(Lists, len(lists))
	for uri, entries := range lists {
		snapshot[uri] = entries
	}

	a.publishedLock.Lock()
	defer a.publishedLock.Unlock()
	a.published = snapshot
}
