package domain

import (
	"fmt"
	"strings"
)

// FormatVersion is written into every exported snapshot
const FormatVersion = 1

// Counters maps entry ids to the number of times they were shown
type Counters map[string]int

// Clone returns an independent copy
func (c Counters) Clone() Counters {
	out := make(Counters, len(c))
	for id, n := range c {
		out[id] = n
	}
	return out
}

// Snapshot is a point-in-time copy of all entries and counters.
// The same shape is used for backups and for the persisted state.
type Snapshot struct {
	FormatVersion int      `json:"version"`
	Entries       []Entry  `json:"words"`
	Counters      Counters `json:"counts"`
	ExportedAt    Millis   `json:"updatedAt"`
}

// Dataset is the mutable part of a store: entries and their counters
type Dataset struct {
	Entries  []Entry
	Counters Counters
}

// Clone returns a deep copy of d
func (d Dataset) Clone() Dataset {
	entries := make([]Entry, len(d.Entries))
	copy(entries, d.Entries)
	return Dataset{Entries: entries, Counters: d.Counters.Clone()}
}

// RestoreMode selects how a snapshot is reconciled with the current store
type RestoreMode string

const (
	ModeMerge     RestoreMode = "merge"
	ModeOverwrite RestoreMode = "overwrite"
)

// ParseRestoreMode parses a mode name, defaulting to merge
func ParseRestoreMode(s string) (RestoreMode, error) {
	switch RestoreMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMerge:
		return ModeMerge, nil
	case ModeOverwrite:
		return ModeOverwrite, nil
	default:
		return "", fmt.Errorf("unknown restore mode %q", s)
	}
}

// PreviewReport describes what a restore would do before it is committed
type PreviewReport struct {
	Mode          RestoreMode
	CurrentCount  int
	IncomingCount int
	WillAdd       int
	WillUpdate    int // incoming words that already exist
	WillChange    int // existing words whose content would change
	Dropped       int // incoming entries that fail validation
	ResultCount   int
}

// String renders the report for display
func (r PreviewReport) String() string {
	var b strings.Builder
	if r.Mode == ModeOverwrite {
		fmt.Fprintf(&b, "Mode: overwrite\n")
		fmt.Fprintf(&b, "Current: %d entries, will be replaced entirely\n", r.CurrentCount)
		fmt.Fprintf(&b, "Backup: %d entries\n", r.IncomingCount)
		fmt.Fprintf(&b, "Result: %d entries\n", r.ResultCount)
		if r.Dropped > 0 {
			fmt.Fprintf(&b, "Skipped: %d invalid entries\n", r.Dropped)
		}
		b.WriteString("\n⚠️ Overwrite replaces all current words and counts.")
		return b.String()
	}

	fmt.Fprintf(&b, "Mode: merge\n")
	fmt.Fprintf(&b, "Current: %d entries\n", r.CurrentCount)
	fmt.Fprintf(&b, "Backup: %d entries\n", r.IncomingCount)
	fmt.Fprintf(&b, "Will add: %d\n", r.WillAdd)
	fmt.Fprintf(&b, "Will update: %d (same word, %d with new content)\n", r.WillUpdate, r.WillChange)
	if r.Dropped > 0 {
		fmt.Fprintf(&b, "Skipped: %d invalid entries\n", r.Dropped)
	}
	b.WriteString("\nCounts keep the larger value, they never go down.")
	return b.String()
}

// SaveStatus is the state of the debounced persistence write
type SaveStatus string

const (
	StatusSaving SaveStatus = "saving"
	StatusSaved  SaveStatus = "saved"
	StatusFailed SaveStatus = "failed"
)
