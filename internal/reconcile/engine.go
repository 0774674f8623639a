package reconcile

import (
	"fmt"
	"time"

	"vocabdeck/internal/codec"
	"vocabdeck/internal/domain"

	"github.com/cespare/xxhash/v2"
)

// Engine gates restores behind a preview: Commit only succeeds for the
// snapshot and mode that were last previewed. It is not safe for concurrent
// use; callers serialize access.
type Engine struct {
	pending *pendingRestore
}

type pendingRestore struct {
	fingerprint uint64
	mode        domain.RestoreMode
	report      domain.PreviewReport
}

// NewEngine creates an idle engine
func NewEngine() *Engine {
	return &Engine{}
}

// Preview computes the report for snap and remembers it as the pending restore
func (e *Engine) Preview(current []domain.Entry, snap domain.Snapshot, mode domain.RestoreMode) (domain.PreviewReport, error) {
	fp, err := fingerprint(snap, mode)
	if err != nil {
		e.pending = nil
		return domain.PreviewReport{}, err
	}
	report := Preview(current, snap, mode)
	e.pending = &pendingRestore{fingerprint: fp, mode: mode, report: report}
	return report, nil
}

// Pending returns the report of the restore awaiting confirmation
func (e *Engine) Pending() (domain.PreviewReport, bool) {
	if e.pending == nil {
		return domain.PreviewReport{}, false
	}
	return e.pending.report, true
}

// Discard drops the pending restore
func (e *Engine) Discard() {
	e.pending = nil
}

// Commit applies snap to current and clears the pending restore. It fails
// with domain.ErrNoPendingRestore unless the same snapshot and mode were
// previewed.
func (e *Engine) Commit(current domain.Dataset, snap domain.Snapshot, mode domain.RestoreMode, newID func() string, now time.Time) (domain.Dataset, error) {
	if e.pending == nil {
		return domain.Dataset{}, domain.ErrNoPendingRestore
	}
	fp, err := fingerprint(snap, mode)
	if err != nil {
		return domain.Dataset{}, err
	}
	if fp != e.pending.fingerprint || mode != e.pending.mode {
		return domain.Dataset{}, fmt.Errorf("%w: backup or mode differs from the preview", domain.ErrNoPendingRestore)
	}

	result := Apply(current, snap, mode, newID, now)
	e.pending = nil
	return result, nil
}

func fingerprint(snap domain.Snapshot, mode domain.RestoreMode) (uint64, error) {
	data, err := codec.EncodeState(snap)
	if err != nil {
		return 0, err
	}
	d := xxhash.New()
	_, _ = d.Write(data)
	_, _ = d.WriteString(string(mode))
	return d.Sum64(), nil
}
