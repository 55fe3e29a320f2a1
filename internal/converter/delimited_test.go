package converter

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nconklindev/csvmaker/internal/types"
)

func TestDelimitedSource_ConsistentWidth(t *testing.T) {
	// Every record has the same field count: every record comes out, trimmed.
	for n := 1; n <= 4; n++ {
		t.Run(fmt.Sprintf("%d fields", n), func(t *testing.T) {
			var b strings.Builder
			for rec := 0; rec < 5; rec++ {
				fields := make([]string, n)
				for i := range fields {
					fields[i] = fmt.Sprintf("  v%d_%d ", rec, i)
				}
				b.WriteString(strings.Join(fields, "|"))
				b.WriteString("\n")
			}

			src, err := NewDelimitedSource(strings.NewReader(b.String()), '|')
			require.NoError(t, err)

			rows, err := readAllRows(t, NewSchemaValidator(src))
			require.NoError(t, err)
			require.Len(t, rows, 5)
			for rec, row := range rows {
				require.Len(t, row, n)
				for i, f := range row {
					assert.Equal(t, fmt.Sprintf("v%d_%d", rec, i), f)
				}
			}
		})
	}
}

func TestSchemaValidator_StopsAtMismatch(t *testing.T) {
	src, err := NewDelimitedSource(strings.NewReader("a,b\nc,d\ne\nf,g\n"), ',')
	require.NoError(t, err)
	v := NewSchemaValidator(src)

	rows, err := readAllRows(t, v)
	require.Error(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 2, v.Width())
	assert.Equal(t, 3, src.Line(), "the source must not be read past the bad record")

	var rec *RecordError
	require.True(t, errors.As(err, &rec))
	assert.Equal(t, types.KindSchemaMismatch, rec.Kind)
	assert.Equal(t, 3, rec.Line)
	assert.Equal(t, "line 3: "+MismatchMessage, rec.Error())
}

func TestDelimitedSource_EmbeddedLineBreak(t *testing.T) {
	src, err := NewDelimitedSource(strings.NewReader("a;\"multi\nline\"\nb;c\n"), ';')
	require.NoError(t, err)

	rows, err := readAllRows(t, src)
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"a", "multi\nline"}, {"b", "c"}}, rows)
}

func TestNewDelimitedSource_InvalidDelimiter(t *testing.T) {
	for _, d := range []rune{0, '"', '\n', '\r'} {
		_, err := NewDelimitedSource(strings.NewReader(""), d)
		assert.Error(t, err, "delimiter %q", d)
	}
}
