package domain

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

// Directory names under a workspace
const (
	MarkerDir     = ".mcp"
	HistoryDir    = "edit_history"
	LogsDir       = "logs"
	DiffsDir      = "diffs"
	CheckpointDir = "checkpoints"
	StateDir      = "state"
	LocksDir      = "locks"

	LogExt        = ".log"
	DiffExt       = ".diff"
	CheckpointExt = ".chkpt"
	CompressedExt = ".zst"
	LockExt       = ".lock"
)

// Layout resolves every on-disk location used by the journal
type Layout struct {
	WorkspaceRoot string
	HistoryRoot   string
}

// NewLayout returns the layout for a workspace using the default history root
func NewLayout(workspaceRoot string) Layout {
	root := filepath.Clean(workspaceRoot)
	return Layout{
		WorkspaceRoot: root,
		HistoryRoot:   filepath.Join(root, MarkerDir, HistoryDir),
	}
}

func (l Layout) LogsPath() string { return filepath.Join(l.HistoryRoot, LogsDir) }

func (l Layout) LogPath(conversationID string) string {
	return filepath.Join(l.LogsPath(), conversationID+LogExt)
}

func (l Layout) LocksPath() string { return filepath.Join(l.HistoryRoot, LocksDir) }

func (l Layout) StatePath(conversationID string) string {
	return filepath.Join(l.HistoryRoot, StateDir, conversationID+".json")
}

// DiffRel is the history-relative path of an entry's diff artifact
func (l Layout) DiffRel(conversationID, editID string) string {
	return filepath.ToSlash(filepath.Join(DiffsDir, conversationID, editID+DiffExt))
}

// CheckpointRel is the history-relative path of a checkpoint for target
func (l Layout) CheckpointRel(conversationID, target, editID string, compressed bool) string {
	name := SanitizePath(l.Rel(target)) + "_" + editID + CheckpointExt
	if compressed {
		name += CompressedExt
	}
	return filepath.ToSlash(filepath.Join(CheckpointDir, conversationID, name))
}

// Artifact resolves a history-relative artifact reference
func (l Layout) Artifact(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(l.HistoryRoot, filepath.FromSlash(rel))
}

// Resolve makes an entry path absolute. Relative paths are workspace-relative.
func (l Layout) Resolve(path string) string {
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.WorkspaceRoot, path)
}

// Rel returns path relative to the workspace root, slash separated.
// Paths outside the workspace are returned cleaned and absolute.
func (l Layout) Rel(path string) string {
	abs := l.Resolve(path)
	rel, err := filepath.Rel(l.WorkspaceRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Contains reports whether path lies inside the workspace
func (l Layout) Contains(path string) bool {
	return !filepath.IsAbs(filepath.FromSlash(l.Rel(path)))
}

// LockPath returns the lock file guarding target
func (l Layout) LockPath(target string) string {
	sum := sha256.Sum256([]byte(l.Resolve(target)))
	return filepath.Join(l.LocksPath(), hex.EncodeToString(sum[:])[:24]+LockExt)
}

var unsafeChars = regexp.MustCompile(`[^\w\-.]`)

const maxNameLen = 200

// SanitizePath turns a workspace-relative path into a flat file name
func SanitizePath(rel string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(rel)
	name = unsafeChars.ReplaceAllString(name, "_")
	if len(name) > maxNameLen {
		sum := sha1.Sum([]byte(name))
		name = name[:maxNameLen-9] + "_" + hex.EncodeToString(sum[:])[:8]
	}
	return name
}
