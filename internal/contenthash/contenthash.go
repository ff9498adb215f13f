// Package contenthash derives the content digest that identifies a source
// image independent of its file name or location.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"pagesmith/internal/services"
)

// chunkSize bounds memory use regardless of input size.
const chunkSize = 32 * 1024

// Digest streams r through SHA-256 and returns the lowercase hex digest.
func Digest(r io.Reader) (string, error) {
	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(hasher, r, buf); err != nil {
		return "", fmt.Errorf("hash content: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// File returns the digest of the file at path. Unreadable files are reported
// as services.ErrInvalidSource.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidSource, "hash", "open", path, err)
	}
	defer f.Close()

	digest, err := Digest(f)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidSource, "hash", "read", path, err)
	}
	return digest, nil
}

// Valid reports whether s looks like a digest produced by this package.
func Valid(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil && s == toLower(s)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'F' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
