package iter

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"gopkg.bondrewd.org/pegen.go/internal/pegen"
)

type stringBody struct {
	r *strings.Reader
}

func (b *stringBody) Read(ctx context.Context, size int32) ([]byte, error) {
	buf := make([]byte, size)
	n, err := b.r.Read(buf)
	return buf[:n], err
}

func (b *stringBody) Close(ctx context.Context) error {
	return nil
}

func numbered(n int) pegen.FileBody {
	var b strings.Builder
	for x := 0; x < n; x = x + 1 {
		fmt.Fprintf(&b, "line %d\n", x)
	}
	return &stringBody{r: strings.NewReader(b.String())}
}

func TestFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	numValues := 10
	filter := pegen.Filter[Line](FilterFunc[Line](func(ctx context.Context, val Line) bool {
		return val.Number%2 == 0
	}))
	for x := 1; x <= numValues; x = x + 1 {
		x := x
		t.Run(fmt.Sprintf("N(%d)", x), func(t *testing.T) {
			t.Parallel()
			it := NewIteratorFilter(NewLineFileBodyCtx(ctx, numbered(x)), filter)
			kept, err := Collect(ctx, it)
			require.NoError(t, err)
			require.Len(t, kept, x/2)
			for offset, k := range kept {
				require.Equal(t, int32(offset*2+2), k.Number)
				require.Equal(t, fmt.Sprintf("line %d", offset*2+1), k.Text)
			}
		})
	}
}

func TestLines(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected []Line
	}{
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
		{
			name:  "unterminated",
			input: "a\nb",
			expected: []Line{
				{Number: 1, Text: "a"},
				{Number: 2, Text: "b"},
			},
		},
		{
			name:  "crlf and blanks",
			input: "LPAR '('\r\n\r\n# c\n",
			expected: []Line{
				{Number: 1, Text: "LPAR '('"},
				{Number: 2, Text: ""},
				{Number: 3, Text: "# c"},
			},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			lines, err := Collect(ctx, NewLineFileBodyCtx(ctx, &stringBody{r: strings.NewReader(testCase.input)}))
			require.NoError(t, err)
			require.Equal(t, testCase.expected, lines)
		})
	}
}

func TestReadAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	content, err := ReadAll(ctx, &stringBody{r: strings.NewReader("start: NAME\n")})
	require.NoError(t, err)
	require.Equal(t, "start: NAME\n", content)
}

var benchEscapeValue Line

func BenchmarkFilter(b *testing.B) {
	ctx := context.Background()
	filter := FilterFunc[Line](func(ctx context.Context, val Line) bool { return val.Number%3 == 0 })

	var loopEscapeValue Line
	b.ResetTimer()
	for n := 0; n < b.N; n = n + 1 {
		it := NewIteratorFilter[Line](NewLineFileBodyCtx(ctx, numbered(1000)), filter)
		for v := it.Next(ctx); v.IsPresent(); v = it.Next(ctx) {
			loopEscapeValue = v.Value()
		}
	}
	benchEscapeValue = loopEscapeValue
}
