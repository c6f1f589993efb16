package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"commits": 3}))
	assert.Equal(t, "{\n  \"commits\": 3\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVRows(t *testing.T) {
	tests := []struct {
		name     string
		header   []string
		rows     [][]string
		expected string
	}{
		{"rows", []string{"key", "commits"}, [][]string{{"user:1", "3"}, {"user:2", "1"}}, "key,commits\nuser:1,3\nuser:2,1\n"},
		{"header only", []string{"key"}, nil, "key\n"},
		{"quoted", []string{"name"}, [][]string{{"Smith, Alice"}}, "name\n\"Smith, Alice\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeCSVRows(&buf, tt.header, tt.rows))
			assert.Equal(t, tt.expected, buf.String())
		})
	}

	err := writeCSVWithHeader(io.Discard, []string{"key"}, func(*csv.Writer) error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)
}

func TestWriteWithFile(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		require.NoError(t, writeWithFile("", func(io.Writer) error {
			called = true
			return nil
		}, "Wrote nothing"))
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		require.NoError(t, writeWithFile(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "leaderboard")
			return err
		}, "Wrote table"))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "leaderboard", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.txt")
		err := writeWithFile(path, func(io.Writer) error { return assert.AnError }, "Wrote table")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("invalid path", func(t *testing.T) {
		assert.Error(t, writeWithFile("/nonexistent/dir/out.txt", func(io.Writer) error { return nil }, "Wrote table"))
	})
}
