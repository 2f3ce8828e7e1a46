package helpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TempDirWithFiles creates a temporary directory and writes each of the files
// provided in to it, creating any parent directories required. The keys of the map
// are slash-separated paths relative to the directory. The directory is returned.
func TempDirWithFiles(t *testing.T, files map[string][]byte) string {
	dirPath := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dirPath, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create parent directories in temporary dir")
		require.NoError(t, os.WriteFile(path, content, 0o644), "failed to create temporary file in temporary dir")
	}

	return dirPath
}
