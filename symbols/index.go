// Package symbols holds the per-document symbol table produced by the
// analyzer and answers positional queries against it.
//
// Invariant: for every document the stored slice is sorted by start
// position, every range lies on a single line, and no two ranges overlap.
// A slice is never modified after it has been installed, so readers may keep
// using a slice after releasing the lock.
package symbols

import (
	"sort"
	"sync"

	"github.com/op/go-logging"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = logging.MustGetLogger("symbols")

// Symbol is a named, typed program entity with a single-line range.
type Symbol struct {
	Name  string         `json:"name"`
	Type  string         `json:"type"`
	Range protocol.Range `json:"range"`
}

// Index maps documents to their symbol tables.
type Index struct {
	lock    sync.RWMutex
	symbols map[protocol.DocumentUri][]Symbol
}

func NewIndex() *Index {
	return &Index{
		symbols: make(map[protocol.DocumentUri][]Symbol),
	}
}

// ReplaceAll installs symbols as the complete table of uri.
func (i *Index) ReplaceAll(uri protocol.DocumentUri, symbols []Symbol) {
	table := normalize(uri, symbols)

	i.lock.Lock()
	defer i.lock.Unlock()
	i.symbols[uri] = table
}

// Install replaces the table of every document present in tables under a
// single lock acquisition. Documents absent from tables keep their table.
func (i *Index) Install(tables map[protocol.DocumentUri][]Symbol) {
	normalized := make(map[protocol.DocumentUri][]Symbol, len(tables))
	for uri, symbols := range tables {
		normalized[uri] = normalize(uri, symbols)
	}

	i.lock.Lock()
	defer i.lock.Unlock()
	for uri, table := range normalized {
		i.symbols[uri] = table
	}
}

// Symbols returns the installed table of uri. The slice must not be
// modified.
func (i *Index) Symbols(uri protocol.DocumentUri) []Symbol {
	i.lock.RLock()
	defer i.lock.RUnlock()
	return i.symbols[uri]
}

// Query returns the symbol whose range contains position.
//
// Ranges are end-exclusive, so a position on the boundary between two
// adjacent ranges belongs to the range that starts there.
func (i *Index) Query(uri protocol.DocumentUri, position protocol.Position) (Symbol, bool) {
	table := i.Symbols(uri)

	index := sort.Search(len(table), func(n int) bool {
		return !before(table[n].Range, position)
	})
	if index == len(table) {
		return Symbol{}, false
	}

	candidate := table[index]
	if contains(candidate.Range, position) {
		return candidate, true
	}
	return Symbol{}, false
}

// before reports whether the whole of symbolRange lies before position.
func before(symbolRange protocol.Range, position protocol.Position) bool {
	if symbolRange.Start.Line != position.Line {
		return symbolRange.Start.Line < position.Line
	}
	return symbolRange.End.Character <= position.Character
}

func contains(symbolRange protocol.Range, position protocol.Position) bool {
	return symbolRange.Start.Line == position.Line &&
		symbolRange.Start.Character <= position.Character &&
		position.Character < symbolRange.End.Character
}

// normalize returns a sorted copy of symbols without multi-line, empty or
// overlapping ranges.
func normalize(uri protocol.DocumentUri, symbols []Symbol) []Symbol {
	table := make([]Symbol, 0, len(symbols))
	for _, symbol := range symbols {
		if symbol.Range.Start.Line != symbol.Range.End.Line {
			log.Debugf("%s: skipping multi-line symbol %q", uri, symbol.Name)
			continue
		}
		if symbol.Range.End.Character <= symbol.Range.Start.Character {
			log.Debugf("%s: skipping empty symbol %q", uri, symbol.Name)
			continue
		}
		table = append(table, symbol)
	}

	sort.SliceStable(table, func(a, b int) bool {
		if table[a].Range.Start.Line != table[b].Range.Start.Line {
			return table[a].Range.Start.Line < table[b].Range.Start.Line
		}
		return table[a].Range.Start.Character < table[b].Range.Start.Character
	})

	kept := table[:0]
	for _, symbol := range table {
		if n := len(kept); n > 0 {
			last := kept[n-1].Range
			if last.Start.Line == symbol.Range.Start.Line && symbol.Range.Start.Character < last.End.Character {
				log.Warningf("%s: symbol %q overlaps %q, skipping", uri, symbol.Name, kept[n-1].Name)
				continue
			}
		}
		kept = append(kept, symbol)
	}

	return kept
}
