package service

import (
	"fmt"
	"math/rand"
	"sync"

	"vocabdeck/internal/codec"
	"vocabdeck/internal/domain"
	"vocabdeck/internal/reconcile"
	"vocabdeck/internal/repository"
	"vocabdeck/internal/scheduler"
	"vocabdeck/internal/store"

	"go.uber.org/zap"
)

// Saver receives the full state after every committed mutation
type Saver interface {
	Schedule(state domain.Snapshot)
}

// Callbacks let a presentation layer observe the core. Any may be nil.
// Card, progress and preview callbacks run after the workspace lock is
// released. OnSaveStatusChanged belongs to the saver and is delivered from
// its publisher goroutine, never while the workspace lock is held.
type Callbacks struct {
	OnCardShown         func(entry domain.Entry)
	OnRoundProgress     func(seen, total int)
	OnSaveStatusChanged func(status domain.SaveStatus)
	OnRestorePreview    func(report domain.PreviewReport)
}

// Workspace is the shared study context: the word store, the round
// scheduler and the restore engine behind one lock. Every service operates
// through it, so each operation is observed as a single unit.
type Workspace struct {
	mu        sync.Mutex
	store     *store.WordStore
	scheduler *scheduler.RoundScheduler
	engine    *reconcile.Engine
	saver     Saver
	callbacks Callbacks
	logger    *zap.Logger
}

// NewWorkspace creates a workspace over st. A nil rng is seeded from the clock.
func NewWorkspace(st *store.WordStore, saver Saver, rng *rand.Rand, callbacks Callbacks, logger *zap.Logger) *Workspace {
	w := &Workspace{
		store:     st,
		engine:    reconcile.NewEngine(),
		saver:     saver,
		callbacks: callbacks,
		logger:    logger,
	}
	w.scheduler = scheduler.New(exposureSource{w}, rng)
	w.scheduler.Reset()
	return w
}

// Bootstrap replaces the store with a previously persisted state without
// scheduling a write. Invalid entries are skipped.
func (w *Workspace) Bootstrap(state domain.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.store.Replace(reconcile.Overwrite(state, w.store.NewID, w.store.Now()))
	w.scheduler.Reset()
}

// State returns a copy of the current store
func (w *Workspace) State() domain.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.Snapshot()
}

// structuralChangeLocked restarts the round and queues a save.
// Callers hold w.mu.
func (w *Workspace) structuralChangeLocked() {
	w.scheduler.Reset()
	w.saver.Schedule(w.store.Snapshot())
}

func (w *Workspace) emitCard(entry domain.Entry, seen, total int) {
	if w.callbacks.OnCardShown != nil {
		w.callbacks.OnCardShown(entry)
	}
	w.emitProgress(seen, total)
}

func (w *Workspace) emitProgress(seen, total int) {
	if w.callbacks.OnRoundProgress != nil {
		w.callbacks.OnRoundProgress(seen, total)
	}
}

// exposureSource adapts the workspace to scheduler.Source. Its methods run
// with w.mu held by the calling service.
type exposureSource struct {
	w *Workspace
}

func (s exposureSource) IDs() []string {
	return s.w.store.IDs()
}

func (s exposureSource) RecordExposure(id string) {
	s.w.store.Increment(id)
	s.w.saver.Schedule(s.w.store.Snapshot())
}

// LoadState reads the persisted state under key. It reports false when
// nothing usable is stored; a broken document is logged and ignored so the
// app starts with an empty store.
func LoadState(repo repository.StateRepository, key string, logger *zap.Logger) (domain.Snapshot, bool, error) {
	data, err := repo.LoadState(key)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("failed to load state: %w", err)
	}
	if data == nil {
		logger.Info("No saved state, starting empty", zap.String("key", key))
		return domain.Snapshot{}, false, nil
	}

	state, err := codec.DecodeJSON(data)
	if err != nil {
		logger.Warn("Saved state is unreadable, starting empty",
			zap.String("key", key),
			zap.Error(err),
		)
		return domain.Snapshot{}, false, nil
	}

	logger.Info("Saved state loaded",
		zap.String("key", key),
		zap.Int("entries", len(state.Entries)),
		zap.Int("counters", len(state.Counters)),
	)
	return state, true, nil
}
