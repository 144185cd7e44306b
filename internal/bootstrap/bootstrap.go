// Package bootstrap assembles a Journal from the resolved configuration.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"mcpdiff/internal/adapters/digest"
	"mcpdiff/internal/adapters/filesystem"
	"mcpdiff/internal/adapters/lock"
	"mcpdiff/internal/adapters/patch"
	"mcpdiff/internal/adapters/sqlite"
	"mcpdiff/internal/application/commands"
	"mcpdiff/internal/config"
)

// Open builds a Journal for cfg. The returned close function releases the
// entry index; it is safe to call when the index could not be opened.
func Open(cfg *config.Config, logger *slog.Logger) (*commands.Journal, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	hasher, err := digest.New(cfg.HashAlgorithm)
	if err != nil {
		return nil, nil, err
	}

	layout := cfg.Layout
	logs := filesystem.NewLogStore(layout).WithLogger(logger)
	j := commands.NewJournal(
		layout,
		logs,
		filesystem.NewArtifactStore(layout),
		filesystem.NewStateStore(layout),
		hasher,
		lock.NewLocker(layout, cfg.LockTimeout).WithLogger(logger),
		patch.NewEngine(layout, cfg.PatchBinary).WithLogger(logger),
		cfg.StrictVerification,
	).WithLogger(logger)
	j.CompressCheckpoints = cfg.CompressCheckpoints

	idx := sqlite.NewIndex(logs, layout)
	if err := idx.Open(); err != nil {
		// Listing falls back to reading the logs directly
		logger.Warn("entry index unavailable", "error", err)
		return j, func() error { return nil }, nil
	}
	j.WithIndex(idx)

	return j, idx.Close, nil
}

// NewLogger returns a text logger on w at the named level
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// DiscardLogger drops every record; used by the TUI, which owns the terminal
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
