package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for file discovery:
// - Only .erl files are returned, in lexical walk order
// - Test-file patterns are always excluded, even with no configured ignores
// - Configured ignore globs exclude by path relative to the root
// - Invalid globs fail construction

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("'placeholder'\n"), 0o644))
}

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "src/shop.erl")
	writeFile(t, root, "src/router.erl")
	writeFile(t, root, "src/shop_tests.erl")
	writeFile(t, root, "test/router_SUITE.erl")
	writeFile(t, root, "_build/gen/shop.erl")
	writeFile(t, root, "README.md")

	fd, err := NewFileDiscovery(root, []string{"_build/**"})
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "src", "router.erl"),
		filepath.Join(root, "src", "shop.erl"),
	}
	assert.Equal(t, want, files)
}

func TestDiscoverFiles_NoIgnores(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.erl")
	writeFile(t, root, "a_tests.erl")

	fd, err := NewFileDiscovery(root, nil)
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.erl")}, files)
}

func TestNewFileDiscovery_BadPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(t.TempDir(), []string{"[unterminated"})
	assert.Error(t, err)
}
