package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindNewest(t *testing.T) {
	dir := t.TempDir()

	old := filepath.Join(dir, "old.txt")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	nested := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	newest := filepath.Join(nested, "new.txt")
	require.NoError(t, os.WriteFile(newest, []byte("new"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.md"), []byte("x"), 0o644))

	found, err := FindNewest(dir, ".txt")
	require.NoError(t, err)
	assert.Equal(t, newest, found)
}

func TestFindNewest_NoMatches(t *testing.T) {
	_, err := FindNewest(t.TempDir(), ".txt")
	require.Error(t, err)
}
