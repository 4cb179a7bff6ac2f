package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func TestJSONFile_MissingFileIsEmpty(t *testing.T) {
	f := NewJSONFile(filepath.Join(t.TempDir(), "nope.json"))

	records := []record{{ID: "keep"}}
	require.NoError(t, f.Load(&records))
	assert.Equal(t, []record{{ID: "keep"}}, records)
}

func TestJSONFile_RoundTripPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.json")
	f := NewJSONFile(path)

	in := []record{{"3", "c"}, {"1", "a"}, {"2", "b"}}
	require.NoError(t, f.Save(in))

	var out []record
	require.NoError(t, NewJSONFile(path).Load(&out))
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestJSONFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	var out []record
	err := NewJSONFile(path).Load(&out)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestReadTextAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")

	_, ok, err := ReadText(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, WriteFileAtomic(path, []byte("To: a@b.co")))
	text, ok, err := ReadText(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "To: a@b.co", text)

	require.NoError(t, Remove(path))
	require.NoError(t, Remove(path))
}
