// Package documents tracks the live text of the documents the client has
// open.
package documents

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/op/go-logging"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = logging.MustGetLogger("documents")

// ErrDocumentNotOpen is returned for operations on a URI that was never
// opened or has been closed.
var ErrDocumentNotOpen = errors.New("document not open")

// Change is one content change. A nil Range replaces the whole document.
type Change struct {
	Range *protocol.Range
	Text  string
}

// Store holds opened documents. Each document has its own lock so edits to
// distinct documents never contend.
type Store struct {
	lock      sync.RWMutex
	documents map[protocol.DocumentUri]*Document
}

func NewStore() *Store {
	return &Store{
		documents: make(map[protocol.DocumentUri]*Document),
	}
}

// Open starts tracking uri with the given text, replacing any previous
// content.
func (s *Store) Open(uri protocol.DocumentUri, text string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.documents[uri] = NewDocument(text)
	log.Debugf("opened %s", uri)
}

// Close stops tracking uri.
func (s *Store) Close(uri protocol.DocumentUri) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.documents[uri]; !ok {
		return fmt.Errorf("%s: %w", uri, ErrDocumentNotOpen)
	}
	delete(s.documents, uri)
	log.Debugf("closed %s", uri)
	return nil
}

// Get returns the current text of uri.
func (s *Store) Get(uri protocol.DocumentUri) (string, bool) {
	if document, ok := s.document(uri); ok {
		return document.Content(), true
	}
	return "", false
}

// Apply applies changes to uri in order. The document's lock is held for the
// whole sequence.
func (s *Store) Apply(uri protocol.DocumentUri, changes []Change) error {
	document, ok := s.document(uri)
	if !ok {
		return fmt.Errorf("%s: %w", uri, ErrDocumentNotOpen)
	}

	document.lock.Lock()
	defer document.lock.Unlock()
	for _, change := range changes {
		document.apply(change)
	}
	return nil
}

// URIs returns the open documents, sorted.
func (s *Store) URIs() []protocol.DocumentUri {
	s.lock.RLock()
	defer s.lock.RUnlock()
	uris := make([]protocol.DocumentUri, 0, len(s.documents))
	for uri := range s.documents {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

func (s *Store) document(uri protocol.DocumentUri) (*Document, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	document, ok := s.documents[uri]
	return document, ok
}
