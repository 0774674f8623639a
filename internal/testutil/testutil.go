package testutil

import (
	"fmt"

	"vocabdeck/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestEntry creates a test entry
func NewTestEntry(id, word, pos, translation string) domain.Entry {
	return domain.Entry{
		ID:           id,
		Word:         word,
		PartOfSpeech: pos,
		Translation:  translation,
		CreatedAt:    1700000000000,
	}
}

// NewTestSnapshot creates a snapshot from entries and counters
func NewTestSnapshot(counters domain.Counters, entries ...domain.Entry) domain.Snapshot {
	if counters == nil {
		counters = domain.Counters{}
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return domain.Snapshot{
		FormatVersion: domain.FormatVersion,
		Entries:       entries,
		Counters:      counters,
		ExportedAt:    1700000000000,
	}
}

// SequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
