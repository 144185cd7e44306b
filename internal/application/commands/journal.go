package commands

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mcpdiff/internal/application/replay"
	"mcpdiff/internal/domain"
	"mcpdiff/internal/ports"
)

// Journal bundles the collaborators every command works with
type Journal struct {
	Layout    domain.Layout
	Logs      ports.LogStore
	Artifacts ports.ArtifactStore
	State     ports.StateStore
	Hasher    ports.Hasher
	Locker    ports.Locker
	Patcher   ports.Patcher
	Index     ports.EntryIndex // optional, listing falls back to the logs
	Replay    *replay.Engine
	Logger    *slog.Logger

	CompressCheckpoints bool

	strict bool
	now   func() time.Time
	newID func() string
}

// NewJournal wires a Journal and the replay engine it uses
func NewJournal(layout domain.Layout, logs ports.LogStore, artifacts ports.ArtifactStore, state ports.StateStore,
	hasher ports.Hasher, locker ports.Locker, patcher ports.Patcher, strict bool) *Journal {
	j := &Journal{
		Layout:    layout,
		Logs:      logs,
		Artifacts: artifacts,
		State:     state,
		Hasher:    hasher,
		Locker:    locker,
		Patcher:   patcher,
		Logger:    slog.Default(),
		strict:    strict,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	j.Replay = replay.NewEngine(j.replayDeps(), strict)
	return j
}

// WithLogger sets the logger used by the journal and its replay engine
func (j *Journal) WithLogger(logger *slog.Logger) *Journal {
	j.Logger = logger
	j.Replay = replay.NewEngine(j.replayDeps(), j.strict)
	return j
}

// WithIndex attaches an entry index used for listing
func (j *Journal) WithIndex(index ports.EntryIndex) *Journal {
	j.Index = index
	return j
}

func (j *Journal) replayDeps() replay.Deps {
	return replay.Deps{
		Layout:    j.Layout,
		Logs:      j.Logs,
		Artifacts: j.Artifacts,
		State:     j.State,
		Hasher:    j.Hasher,
		Locker:    j.Locker,
		Patcher:   j.Patcher,
		Logger:    j.Logger,
	}
}

func (j *Journal) timestamp() time.Time {
	return j.now().UTC()
}
