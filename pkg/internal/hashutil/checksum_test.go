package hashutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateFileChecksum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello\n"), 0644))

	sum, err := CalculateFileChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, "sha256:5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03", sum)

	// Same content through the bytes helper must agree.
	assert.Equal(t, sum, ChecksumBytes([]byte("hello\n")))
}

func TestCalculateFileChecksumMissing(t *testing.T) {
	_, err := CalculateFileChecksum(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
