package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"mcpdiff/internal/application"
	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"
)

const defaultRetryDelay = 50 * time.Millisecond

// Locker implements ports.Locker with flock(2) lock files under the
// history root's locks directory. The target itself is never locked.
type Locker struct {
	layout  domain.Layout
	timeout time.Duration
	retry   time.Duration
	logger  *slog.Logger
}

var _ ports.Locker = (*Locker)(nil)

// NewLocker creates a locker. A zero timeout fails immediately on contention;
// a positive timeout polls until it elapses.
func NewLocker(layout domain.Layout, timeout time.Duration) *Locker {
	return &Locker{
		layout:  layout,
		timeout: timeout,
		retry:   defaultRetryDelay,
		logger:  slog.Default(),
	}
}

// WithLogger sets the logger used for release failures
func (l *Locker) WithLogger(logger *slog.Logger) *Locker {
	l.logger = logger
	return l
}

// Acquire takes the exclusive lock for target
func (l *Locker) Acquire(ctx context.Context, target string) (ports.Guard, error) {
	lockPath := l.layout.LockPath(target)
	for {
		if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create locks directory: %w", err)
		}

		fl := flock.New(lockPath)
		locked, err := l.tryLock(ctx, fl)
		if err != nil {
			return nil, fmt.Errorf("failed to lock %s: %w", target, err)
		}
		if !locked {
			return nil, &application.LockBusyError{Target: target, LockPath: lockPath}
		}

		// A prune may have unlinked the file between open and lock; the lock
		// then guards nothing and has to be taken again on the new file.
		if linked(fl, lockPath) {
			l.logger.Debug("lock acquired", "target", target, "lock", lockPath)
			return &guard{fl: fl, target: target, logger: l.logger}, nil
		}
		fl.Unlock()
		l.logger.Debug("lock file replaced while locking, retrying", "lock", lockPath)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (l *Locker) tryLock(ctx context.Context, fl *flock.Flock) (bool, error) {
	if l.timeout <= 0 {
		return fl.TryLock()
	}
	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	locked, err := fl.TryLockContext(waitCtx, l.retry)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return locked, err
}

// linked reports whether the file fl holds is still the one at path
func linked(fl *flock.Flock, path string) bool {
	fh := fl.Fh()
	if fh == nil {
		return false
	}
	held, err := fh.Stat()
	if err != nil {
		return false
	}
	current, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, current)
}

// Prune removes lock files that no process holds and that were last touched
// more than olderThan ago. A file is only unlinked while Prune holds its lock,
// and Acquire re-checks the path after locking.
func (l *Locker) Prune(olderThan time.Duration) (int, error) {
	dirEntries, err := os.ReadDir(l.layout.LocksPath())
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read locks directory: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), domain.LockExt) {
			continue
		}
		info, err := de.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(l.layout.LocksPath(), de.Name())
		fl := flock.New(path)
		locked, err := fl.TryLock()
		if err != nil || !locked {
			continue
		}
		if !linked(fl, path) {
			fl.Unlock()
			continue
		}
		if err := os.Remove(path); err != nil {
			l.logger.Warn("failed to remove stale lock", "lock", path, "error", err)
		} else {
			removed++
		}
		fl.Unlock()
	}
	return removed, nil
}

type guard struct {
	fl     *flock.Flock
	target string
	logger *slog.Logger
	once   sync.Once
}

// Release unlocks; failures are logged, never returned
func (g *guard) Release() {
	g.once.Do(func() {
		if err := g.fl.Unlock(); err != nil {
			g.logger.Warn("failed to release lock", "target", g.target, "error", err)
			return
		}
		g.logger.Debug("lock released", "target", g.target)
	})
}
