package domain

import "path/filepath"

// TraceLineage returns the entries that shaped filePath, oldest first.
// entries must already be in chronological order and carry comparable paths.
// The walk goes backwards from the newest entry: a Move whose destination is
// the tracked path switches tracking to its source, so edits made before a
// rename belong to the lineage of the renamed file.
func TraceLineage(entries []LogEntry, filePath string) []LogEntry {
	tracked := filepath.Clean(filePath)
	var reversed []LogEntry

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		switch {
		case samePath(e.FilePath, tracked):
			reversed = append(reversed, e)
			if e.Operation == OperationMove && e.SourcePath != "" {
				tracked = filepath.Clean(e.SourcePath)
			}
		case e.Operation == OperationMove && samePath(e.SourcePath, tracked):
			// The tracked file was moved away later on; the move is part of
			// its history even though it no longer lives at tracked.
			reversed = append(reversed, e)
		}
	}

	lineage := make([]LogEntry, len(reversed))
	for i, e := range reversed {
		lineage[len(reversed)-1-i] = e
	}
	return lineage
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// Baseline describes where a reconstruction starts
type Baseline struct {
	Start      int       // index into the lineage of the first replayed entry
	Checkpoint *LogEntry // nil means start from an absent file
}

// SelectBaseline picks the starting point for replaying lineage.
// The earliest entry carrying a checkpoint wins when no skipped entry comes
// before it; entries before it are covered by the snapshot. A checkpoint taken
// after a skipped entry still contains that entry's effect, so the replay then
// starts from the beginning instead, which needs the first surviving entry to
// be a Create. When nothing survives, a lineage that began with a Create
// reconstructs to an absent file. ok is false when no baseline exists.
func SelectBaseline(lineage []LogEntry) (b Baseline, ok bool) {
	if len(lineage) == 0 {
		return Baseline{}, false
	}

	firstSkip := len(lineage)
	for i, e := range lineage {
		if skipAltersContent(e) {
			firstSkip = i
			break
		}
	}

	for i := range lineage {
		if lineage[i].CheckpointFile != "" {
			if i <= firstSkip {
				return Baseline{Start: i, Checkpoint: &lineage[i]}, true
			}
			break
		}
	}

	for _, e := range lineage {
		if e.Status.Applies() && e.Operation != OperationUnknown {
			return Baseline{}, e.Operation == OperationCreate
		}
	}

	return Baseline{}, lineage[0].Operation == OperationCreate
}

// skipAltersContent reports whether replay leaves out an effect of e that a
// later checkpoint would have captured
func skipAltersContent(e LogEntry) bool {
	if e.Operation == OperationUnknown {
		return e.HashBefore != e.HashAfter
	}
	if e.Status.Applies() {
		return false
	}
	return e.Operation.ChangesContent() || e.Operation == OperationMove
}

// AffectedFiles returns the distinct (conversation, file) pairs of entries,
// in first-seen order.
func AffectedFiles(entries []LogEntry) []FileRef {
	seen := make(map[FileRef]bool, len(entries))
	var refs []FileRef
	for _, e := range entries {
		ref := FileRef{ConversationID: e.ConversationID, FilePath: e.FilePath}
		if e.FilePath == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

// CurrentPath follows the moves recorded after entries[i] and returns where
// that entry's file lives at the end of entries. entries must be in
// chronological order. Rejected moves count too: replay still tracks their
// destination.
func CurrentPath(entries []LogEntry, i int) string {
	path := entries[i].FilePath
	for _, e := range entries[i+1:] {
		if e.Operation == OperationMove && samePath(e.SourcePath, path) {
			path = e.FilePath
		}
	}
	return path
}
