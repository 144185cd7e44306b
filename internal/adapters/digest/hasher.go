package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"

	"lukechampine.com/blake3"

	"mcpdiff/internal/ports"
)

// Supported algorithms
const (
	SHA256 = "sha256"
	BLAKE3 = "blake3"
)

// Hasher implements ports.Hasher
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
}

var _ ports.Hasher = (*Hasher)(nil)

// New returns a hasher for algorithm. An empty name selects sha256, which
// existing logs were written with.
func New(algorithm string) (*Hasher, error) {
	switch algorithm {
	case "", SHA256:
		return &Hasher{algorithm: SHA256, newHash: sha256.New}, nil
	case BLAKE3:
		return &Hasher{algorithm: BLAKE3, newHash: func() hash.Hash { return blake3.New(32, nil) }}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// Algorithm returns the algorithm name
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// Fingerprint hashes the file at path
func (h *Hasher) Fingerprint(path string) (string, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("%s is a directory", path)
	}

	hh := h.newHash()
	if _, err := io.Copy(hh, f); err != nil {
		return "", false, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(hh.Sum(nil)), true, nil
}

// Sum hashes content
func (h *Hasher) Sum(content []byte) string {
	hh := h.newHash()
	hh.Write(content)
	return hex.EncodeToString(hh.Sum(nil))
}
