package symbols

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

const uri = "file:///work/src/main.rs"

func symbol(name string, line, start, end protocol.UInteger) Symbol {
	return Symbol{
		Name: name,
		Type: "i32",
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: start},
			End:   protocol.Position{Line: line, Character: end},
		},
	}
}

func at(line, character protocol.UInteger) protocol.Position {
	return protocol.Position{Line: line, Character: character}
}

func TestQuery(t *testing.T) {
	index := NewIndex()
	index.ReplaceAll(uri, []Symbol{
		symbol("y", 2, 8, 9),
		symbol("x", 1, 8, 9),
		symbol("left", 3, 0, 3),
		symbol("right", 3, 3, 5),
	})

	tests := []struct {
		name     string
		position protocol.Position
		want     string
	}{
		{"start", at(1, 8), "x"},
		{"other line", at(2, 8), "y"},
		{"end is exclusive", at(1, 9), ""},
		{"before start", at(1, 7), ""},
		{"empty line", at(0, 8), ""},
		{"past last", at(9, 0), ""},
		{"adjacent boundary goes to later range", at(3, 3), "right"},
		{"inside earlier adjacent range", at(3, 2), "left"},
		{"end of adjacent pair", at(3, 5), ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := index.Query(uri, test.position)
			if test.want == "" {
				assert.False(t, ok, "unexpected %q", got.Name)
				return
			}
			require.True(t, ok)
			assert.Equal(t, test.want, got.Name)
		})
	}

	_, ok := index.Query("file:///other.rs", at(1, 8))
	assert.False(t, ok)
}

func TestReplaceAllNormalizes(t *testing.T) {
	index := NewIndex()
	multiLine := symbol("multi", 0, 0, 4)
	multiLine.Range.End.Line = 1

	index.ReplaceAll(uri, []Symbol{
		symbol("b", 0, 6, 8),
		multiLine,
		symbol("a", 0, 0, 4),
		symbol("overlap", 0, 2, 5),
		symbol("empty", 0, 9, 9),
	})

	want := []Symbol{symbol("a", 0, 0, 4), symbol("b", 0, 6, 8)}
	if diff := cmp.Diff(want, index.Symbols(uri)); diff != "" {
		t.Errorf("symbols mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceAllDiscardsPreviousTable(t *testing.T) {
	index := NewIndex()
	index.ReplaceAll(uri, []Symbol{symbol("old", 0, 0, 3), symbol("gone", 4, 0, 3)})
	index.ReplaceAll(uri, []Symbol{symbol("new", 1, 0, 3)})

	_, ok := index.Query(uri, at(4, 1))
	assert.False(t, ok)
	got, ok := index.Query(uri, at(1, 1))
	require.True(t, ok)
	assert.Equal(t, "new", got.Name)
}

func TestInstall(t *testing.T) {
	index := NewIndex()
	index.ReplaceAll("file:///kept.rs", []Symbol{symbol("kept", 0, 0, 4)})
	index.ReplaceAll("file:///replaced.rs", []Symbol{symbol("old", 0, 0, 3)})

	index.Install(map[protocol.DocumentUri][]Symbol{
		"file:///replaced.rs": {symbol("new", 0, 0, 3)},
		"file:///added.rs":    {symbol("added", 2, 1, 6)},
	})

	for uri, want := range map[protocol.DocumentUri]string{
		"file:///kept.rs":     "kept",
		"file:///replaced.rs": "new",
	} {
		got, ok := index.Query(uri, at(0, 1))
		require.True(t, ok, uri)
		assert.Equal(t, want, got.Name)
	}
	got, ok := index.Query("file:///added.rs", at(2, 5))
	require.True(t, ok)
	assert.Equal(t, "added", got.Name)
}

// TestQueryExactness compares Query with a linear scan over random disjoint
// range sets.
func TestQueryExactness(t *testing.T) {
	random := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		var table []Symbol
		for line := protocol.UInteger(0); line < 20; line++ {
			character := protocol.UInteger(random.Intn(3))
			for random.Intn(4) != 0 {
				length := protocol.UInteger(1 + random.Intn(6))
				table = append(table, symbol(fmt.Sprintf("s%d_%d", line, character), line, character, character+length))
				character += length + protocol.UInteger(random.Intn(3))
			}
		}
		random.Shuffle(len(table), func(a, b int) { table[a], table[b] = table[b], table[a] })

		index := NewIndex()
		index.ReplaceAll(uri, table)
		require.Len(t, index.Symbols(uri), len(table))

		for line := protocol.UInteger(0); line < 21; line++ {
			for character := protocol.UInteger(0); character < 60; character++ {
				position := at(line, character)
				var want *Symbol
				for n := range table {
					if contains(table[n].Range, position) {
						require.Nil(t, want, "ranges overlap")
						want = &table[n]
					}
				}

				got, ok := index.Query(uri, position)
				if want == nil {
					assert.False(t, ok, "round %d %v: unexpected %q", round, position, got.Name)
				} else if assert.True(t, ok, "round %d %v: want %q", round, position, want.Name) {
					assert.Equal(t, want.Name, got.Name)
				}
			}
		}
	}
}

// TestAtomicReplace checks that readers only ever observe a complete table.
func TestAtomicReplace(t *testing.T) {
	generation := func(prefix string) []Symbol {
		var table []Symbol
		for line := protocol.UInteger(0); line < 50; line++ {
			table = append(table, symbol(prefix, line, 0, 4), symbol(prefix, line, 5, 9))
		}
		return table
	}
	older, newer := generation("old"), generation("new")

	index := NewIndex()
	index.ReplaceAll(uri, older)

	var wait sync.WaitGroup
	stop := make(chan struct{})
	for reader := 0; reader < 4; reader++ {
		wait.Add(1)
		go func() {
			defer wait.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				table := index.Symbols(uri)
				if !assert.Len(t, table, 100) {
					return
				}
				for _, s := range table {
					if !assert.Equal(t, table[0].Name, s.Name) {
						return
					}
				}
				got, ok := index.Query(uri, at(25, 6))
				assert.True(t, ok)
				assert.Contains(t, []string{"old", "new"}, got.Name)
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			index.ReplaceAll(uri, newer)
		} else {
			index.ReplaceAll(uri, older)
		}
	}
	close(stop)
	wait.Wait()
}

func TestDecode(t *testing.T) {
	input := strings.Join([]string{
		`{"uri":"file:///a.rs","name":"x","type":"i32","range":{"start":{"line":1,"character":8},"end":{"line":1,"character":9}}}`,
		``,
		`not json`,
		`{"name":"orphan","type":"u8","range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}}}`,
		`{"uri":"file:///b.rs","name":"v","type":"Vec<u8>","range":{"start":{"line":3,"character":4},"end":{"line":3,"character":5}}}`,
		`{"uri":"file:///a.rs","name":"y","type":"&str","range":{"start":{"line":2,"character":8},"end":{"line":2,"character":9}}}`,
	}, "\n")

	tables, errs := Decode(strings.NewReader(input))
	assert.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "analyzer record 3")
	assert.Contains(t, errs[1].Error(), "missing uri")

	want := map[protocol.DocumentUri][]Symbol{
		"file:///a.rs": {
			{Name: "x", Type: "i32", Range: symbol("", 1, 8, 9).Range},
			{Name: "y", Type: "&str", Range: symbol("", 2, 8, 9).Range},
		},
		"file:///b.rs": {
			{Name: "v", Type: "Vec<u8>", Range: symbol("", 3, 4, 5).Range},
		},
	}
	if diff := cmp.Diff(want, tables); diff != "" {
		t.Errorf("tables mismatch (-want +got):\n%s", diff)
	}
}
