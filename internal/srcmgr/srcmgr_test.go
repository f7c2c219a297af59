package srcmgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFileCanonicalizesAndHashes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo.cpp")
	require.NoError(t, os.WriteFile(path, []byte("int main() {}"), 0o644))

	m := New()
	h, err := m.GetFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, h.Path)
	assert.NotEmpty(t, h.SHA1)
	assert.Equal(t, "unknown", h.Type)
}

func TestGetFileCachesByCanonicalPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo.cpp")
	require.NoError(t, os.WriteFile(path, []byte("int main() {}"), 0o644))

	m := New()
	first, err := m.GetFile(path)
	require.NoError(t, err)

	first.Type = "cpp"
	m.UpdateFile(first)

	second, err := m.GetFile(path)
	require.NoError(t, err)
	assert.Equal(t, "cpp", second.Type)
	assert.Same(t, first, second)
}

func TestGetFileMissingFile(t *testing.T) {
	m := New()
	_, err := m.GetFile(filepath.Join(t.TempDir(), "missing.cpp"))
	require.Error(t, err)
}
