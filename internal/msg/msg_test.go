package msg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndentWriter(t *testing.T) {
	var sb strings.Builder
	w := &IndentWriter{Indent: "    ", W: &sb}

	n, err := w.Write([]byte("first\nsecond\n"))
	require.NoError(t, err)
	assert.Equal(t, 13, n)
	assert.Equal(t, "    first\n    second\n", sb.String())
}

func TestIndentWriterSplitWrites(t *testing.T) {
	var sb strings.Builder
	w := &IndentWriter{Indent: "  ", W: &sb}

	// A line split across writes is indented exactly once.
	_, err := w.Write([]byte("par"))
	require.NoError(t, err)
	_, err = w.Write([]byte("tial\nnext"))
	require.NoError(t, err)
	assert.Equal(t, "  partial\n  next", sb.String())
}
