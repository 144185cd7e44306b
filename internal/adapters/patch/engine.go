package patch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"mcpdiff/internal/application"
	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"
)

// DefaultBinary is the patch program looked up on PATH
const DefaultBinary = "patch"

// Engine implements ports.Patcher by running patch(1) from the workspace root
type Engine struct {
	layout domain.Layout
	binary string
	logger *slog.Logger
}

var _ ports.Patcher = (*Engine)(nil)

// NewEngine creates a patch engine. An empty binary selects DefaultBinary.
func NewEngine(layout domain.Layout, binary string) *Engine {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Engine{layout: layout, binary: binary, logger: slog.Default()}
}

// WithLogger sets the engine's logger
func (e *Engine) WithLogger(logger *slog.Logger) *Engine {
	e.logger = logger
	return e
}

// Apply patches target with diff. Forward application creates a missing
// target as an empty file first, so diffs from an empty file apply.
// An empty diff changes nothing.
func (e *Engine) Apply(ctx context.Context, diff []byte, target string, reverse bool) error {
	abs := e.layout.Resolve(target)

	if !reverse {
		if err := ensureFile(abs); err != nil {
			return err
		}
	}
	if len(bytes.TrimSpace(diff)) == 0 {
		return nil
	}

	args := []string{"--no-backup-if-mismatch", "-p1", "--forward", "--reject-file=-"}
	if reverse {
		args = append(args, "-R")
	}
	args = append(args, filepath.FromSlash(e.layout.Rel(abs)))

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Dir = e.layout.WorkspaceRoot
	cmd.Stdin = bytes.NewReader(diff)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &application.PatchError{
			Target: e.layout.Rel(abs),
			Output: strings.TrimSpace(string(out)),
			Err:    err,
		}
	}

	e.logger.Debug("patch applied", "target", abs, "reverse", reverse)
	return nil
}

// Unified renders a unified diff from before to after with a/ and b/
// prefixes. A missing final newline is treated as present on both sides.
func (e *Engine) Unified(before, after []byte, relPath string) ([]byte, error) {
	return Unified(before, after, relPath)
}

// Unified is the stateless form of Engine.Unified
func Unified(before, after []byte, relPath string) ([]byte, error) {
	diff := difflib.UnifiedDiff{
		A:        splitLines(before),
		B:        splitLines(after),
		FromFile: "a/" + relPath,
		ToFile:   "b/" + relPath,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return nil, fmt.Errorf("failed to render diff: %w", err)
	}
	return []byte(text), nil
}

func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(domain.NormalizeText(content)), "\n")
	return lines[:len(lines)-1]
}

func ensureFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f.Close()
}
