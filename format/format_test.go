package format

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/tminor/tycheck/documents"
	"github.com/tminor/tycheck/tool"
)

// apply applies edits that all refer to original, back to front.
func apply(t *testing.T, original string, edits []protocol.TextEdit) string {
	t.Helper()

	sorted := append([]protocol.TextEdit(nil), edits...)
	sort.SliceStable(sorted, func(a, b int) bool {
		x, y := sorted[a].Range.Start, sorted[b].Range.Start
		if x.Line != y.Line {
			return x.Line > y.Line
		}
		return x.Character > y.Character
	})

	changes := make([]documents.Change, len(sorted))
	for index, edit := range sorted {
		r := edit.Range
		changes[index] = documents.Change{Range: &r, Text: edit.NewText}
	}

	store := documents.NewStore()
	store.Open("file:///apply.rs", original)
	require.NoError(t, store.Apply("file:///apply.rs", changes))
	content, _ := store.Get("file:///apply.rs")
	return content
}

func position(line, character protocol.UInteger) protocol.Position {
	return protocol.Position{Line: line, Character: character}
}

func TestEdits(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		formatted string
		want      []protocol.TextEdit
	}{
		{
			name:      "unchanged",
			original:  "fn main() {}\n",
			formatted: "fn main() {}\n",
			want:      []protocol.TextEdit{},
		},
		{
			name:      "insert",
			original:  "a\nc\n",
			formatted: "a\nb\nc\n",
			want: []protocol.TextEdit{
				{Range: protocol.Range{Start: position(1, 0), End: position(1, 0)}, NewText: "b\n"},
			},
		},
		{
			name:      "delete",
			original:  "a\nb\nc\n",
			formatted: "a\nc\n",
			want: []protocol.TextEdit{
				{Range: protocol.Range{Start: position(1, 0), End: position(2, 0)}},
			},
		},
		{
			name:      "replace",
			original:  "fn main(){\nlet x=1;\n}\n",
			formatted: "fn main() {\n    let x = 1;\n}\n",
			want: []protocol.TextEdit{
				{Range: protocol.Range{Start: position(0, 0), End: position(2, 0)}, NewText: "fn main() {\n    let x = 1;\n"},
			},
		},
		{
			name:      "adds final newline",
			original:  "x\ny",
			formatted: "x\ny\n",
			want: []protocol.TextEdit{
				{Range: protocol.Range{Start: position(1, 0), End: position(1, 1)}, NewText: "y\n"},
			},
		},
		{
			name:      "drops final newline",
			original:  "x\ny\n",
			formatted: "x\ny",
			want: []protocol.TextEdit{
				{Range: protocol.Range{Start: position(1, 0), End: position(2, 0)}, NewText: "y"},
			},
		},
		{
			name:      "from empty",
			original:  "",
			formatted: "a\n",
			want: []protocol.TextEdit{
				{Range: protocol.Range{Start: position(0, 0), End: position(0, 0)}, NewText: "a\n"},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			edits, err := Edits(test.original, test.formatted)
			require.NoError(t, err)
			if diff := cmp.Diff(test.want, edits); diff != "" {
				t.Errorf("edits mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, test.formatted, apply(t, test.original, edits))
		})
	}
}

func randomText(random *rand.Rand) string {
	words := []string{"fn", "let x = 1;", "}", "", "    return;", "😀", "é", "a\r"}
	var builder strings.Builder
	lines := random.Intn(12)
	for index := 0; index < lines; index++ {
		builder.WriteString(words[random.Intn(len(words))])
		if index < lines-1 || random.Intn(2) == 0 {
			builder.WriteString("\n")
		}
	}
	return builder.String()
}

func TestRoundTrip(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	for round := 0; round < 500; round++ {
		original := randomText(random)
		formatted := randomText(random)
		if random.Intn(3) == 0 {
			formatted = original + formatted
		}

		edits, err := Edits(original, formatted)
		require.NoError(t, err)
		require.Equal(t, formatted, apply(t, original, edits), "original %q", original)

		whole, err := Whole(original, formatted)
		require.NoError(t, err)
		require.Equal(t, formatted, apply(t, original, whole), "original %q", original)
	}
}

func TestWhole(t *testing.T) {
	edits, err := Whole("same\n", "same\n")
	require.NoError(t, err)
	assert.Empty(t, edits)
	assert.NotNil(t, edits)

	edits, err = Whole("a\nbc", "x\n")
	require.NoError(t, err)
	assert.Equal(t, []protocol.TextEdit{{Range: protocol.Range{End: position(1, 2)}, NewText: "x\n"}}, edits)
}

func TestFormat(t *testing.T) {
	echo := tool.Func(func(_ context.Context, input []byte) ([]byte, error) {
		return input, nil
	})

	t.Run("unchanged output", func(t *testing.T) {
		edits, err := Format(context.Background(), echo, "fn main() {}\n", true)
		require.NoError(t, err)
		assert.NotNil(t, edits)
		assert.Empty(t, edits)
	})

	t.Run("formatter failure", func(t *testing.T) {
		failing := tool.Func(func(context.Context, []byte) ([]byte, error) {
			return nil, &tool.ExitError{Name: "rustfmt", Status: 1, Stderr: "error: expected item"}
		})
		edits, err := Format(context.Background(), failing, "fn main( {}\n", true)
		assert.Nil(t, edits)
		var failed *FailedError
		require.True(t, errors.As(err, &failed))
		assert.Equal(t, 1, failed.Status)
		assert.EqualError(t, err, "formatter failed with status 1")
	})

	t.Run("formatter missing", func(t *testing.T) {
		missing := tool.Func(func(context.Context, []byte) ([]byte, error) {
			return nil, errors.New("exec: \"rustfmt\": executable file not found in $PATH")
		})
		_, err := Format(context.Background(), missing, "x", true)
		require.Error(t, err)
		var failed *FailedError
		assert.False(t, errors.As(err, &failed))
	})

	t.Run("whole document", func(t *testing.T) {
		upper := tool.Func(func(_ context.Context, input []byte) ([]byte, error) {
			return []byte(strings.ToUpper(string(input))), nil
		})
		edits, err := Format(context.Background(), upper, "a\nb\n", false)
		require.NoError(t, err)
		assert.Equal(t, []protocol.TextEdit{{Range: protocol.Range{End: position(2, 0)}, NewText: "A\nB\n"}}, edits)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		garbage := tool.Func(func(context.Context, []byte) ([]byte, error) {
			return []byte{0xff, 0xfe}, nil
		})
		_, err := Format(context.Background(), garbage, "x", true)
		assert.Error(t, err)
	})
}
