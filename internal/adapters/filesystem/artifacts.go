package filesystem

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"
)

// ArtifactStore implements ports.ArtifactStore under the history root.
// Checkpoints whose name ends in .zst are stored zstd-compressed.
type ArtifactStore struct {
	layout domain.Layout
}

var _ ports.ArtifactStore = (*ArtifactStore)(nil)

// NewArtifactStore creates an artifact store for layout
func NewArtifactStore(layout domain.Layout) *ArtifactStore {
	return &ArtifactStore{layout: layout}
}

// ReadDiff returns a diff artifact
func (a *ArtifactStore) ReadDiff(ref string) ([]byte, error) {
	data, err := os.ReadFile(a.layout.Artifact(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to read diff: %w", err)
	}
	return data, nil
}

// WriteDiff stores a diff artifact
func (a *ArtifactStore) WriteDiff(ref string, diff []byte) error {
	return writeFileAtomic(a.layout.Artifact(ref), diff, 0644)
}

// ReadCheckpoint returns the snapshot bytes of a checkpoint
func (a *ArtifactStore) ReadCheckpoint(ref string) ([]byte, error) {
	f, err := os.Open(a.layout.Artifact(ref))
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer f.Close()

	if !isCompressed(ref) {
		return io.ReadAll(f)
	}

	decoder, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer decoder.Close()

	content, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompressing checkpoint: %w", err)
	}
	return content, nil
}

// WriteCheckpoint stores a snapshot, compressing it when ref asks for it
func (a *ArtifactStore) WriteCheckpoint(ref string, content []byte) error {
	data := content
	if isCompressed(ref) {
		var compressed bytes.Buffer
		encoder, err := zstd.NewWriter(&compressed)
		if err != nil {
			return fmt.Errorf("creating zstd encoder: %w", err)
		}
		if _, err := encoder.Write(content); err != nil {
			encoder.Close()
			return fmt.Errorf("compressing: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("closing encoder: %w", err)
		}
		data = compressed.Bytes()
	}
	return writeFileAtomic(a.layout.Artifact(ref), data, 0644)
}

// RestoreCheckpoint writes a snapshot over target
func (a *ArtifactStore) RestoreCheckpoint(ref, target string) error {
	content, err := a.ReadCheckpoint(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	return writeFileAtomic(target, content, fileMode(target, 0644))
}

func isCompressed(ref string) bool {
	return strings.HasSuffix(ref, domain.CompressedExt)
}
