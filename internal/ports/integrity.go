package ports

import (
	"context"
	"time"
)

// Hasher fingerprints file contents
type Hasher interface {
	// Fingerprint hashes the file at path. present is false, with no error,
	// when the file does not exist.
	Fingerprint(path string) (digest string, present bool, err error)

	// Sum hashes in-memory content the same way Fingerprint hashes files
	Sum(content []byte) string

	Algorithm() string
}

// Locker hands out exclusive advisory locks keyed by path
type Locker interface {
	// Acquire locks target. A lock held elsewhere fails with a busy error
	// unless the configured wait allows retrying until it frees up.
	Acquire(ctx context.Context, target string) (Guard, error)

	// Prune removes lock files no process holds and returns how many were removed
	Prune(olderThan time.Duration) (int, error)
}

// Guard is a held lock. Release is safe to call more than once.
type Guard interface {
	Release()
}

// Patcher materializes unified diffs
type Patcher interface {
	// Apply patches target with diff, in reverse when reverse is set
	Apply(ctx context.Context, diff []byte, target string, reverse bool) error

	// Unified renders a unified diff turning before into after
	Unified(before, after []byte, relPath string) ([]byte, error)
}
