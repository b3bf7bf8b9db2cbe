package hashutil

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/templink/templink/pkg/types"
)

// CalculateFileChecksum calculates the SHA256 checksum of a file
func CalculateFileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// ChecksumBytes calculates the SHA256 checksum of in-memory content
func ChecksumBytes(data []byte) string {
	return fmt.Sprintf("sha256:%x", sha256.Sum256(data))
}

// CalculateFileChecksumFS calculates the SHA256 checksum of a file through
// the FS abstraction, for use with non-OS filesystems in tests
func CalculateFileChecksumFS(fsys types.FS, path string) (string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ChecksumBytes(data), nil
}
