// Package store holds the in-memory word collection and exposure counters.
// It is not safe for concurrent use; callers serialize access.
package store

import (
	"fmt"
	"time"

	"vocabdeck/internal/domain"

	"github.com/google/uuid"
)

// WordStore owns the entries and their exposure counters
type WordStore struct {
	entries  []domain.Entry
	counters domain.Counters
	newID    func() string
	now      func() time.Time
}

// Option configures a WordStore
type Option func(*WordStore)

// WithIDGenerator replaces the uuid id generator
func WithIDGenerator(fn func() string) Option {
	return func(s *WordStore) { s.newID = fn }
}

// WithClock replaces time.Now
func WithClock(fn func() time.Time) Option {
	return func(s *WordStore) { s.now = fn }
}

// New creates an empty store
func New(opts ...Option) *WordStore {
	s := &WordStore{
		counters: make(domain.Counters),
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a fresh entry id
func (s *WordStore) NewID() string {
	return s.newID()
}

// Now returns the store clock's current time
func (s *WordStore) Now() time.Time {
	return s.now()
}

// Len returns the number of entries
func (s *WordStore) Len() int {
	return len(s.entries)
}

// IDs returns entry ids in insertion order
func (s *WordStore) IDs() []string {
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = e.ID
	}
	return ids
}

// Entries returns a copy of all entries in insertion order
func (s *WordStore) Entries() []domain.Entry {
	out := make([]domain.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Get returns the entry with the given id
func (s *WordStore) Get(id string) (domain.Entry, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.entries[i], true
	}
	return domain.Entry{}, false
}

// FindByWord looks an entry up by case-insensitive word
func (s *WordStore) FindByWord(word string) (domain.Entry, bool) {
	key := domain.WordKey(word)
	for _, e := range s.entries {
		if domain.WordKey(e.Word) == key {
			return e, true
		}
	}
	return domain.Entry{}, false
}

// Add validates and appends a new entry
func (s *WordStore) Add(word, partOfSpeech, translation string) (domain.Entry, error) {
	e, err := validate(word, partOfSpeech, translation)
	if err != nil {
		return domain.Entry{}, err
	}
	if existing, ok := s.FindByWord(e.Word); ok {
		return existing, fmt.Errorf("%w: %q", domain.ErrDuplicateWord, existing.Word)
	}

	e.ID = s.newID()
	e.CreatedAt = domain.MillisOf(s.now())
	s.entries = append(s.entries, e)
	return e, nil
}

// Update replaces the text fields of an existing entry. The id is kept.
func (s *WordStore) Update(id, word, partOfSpeech, translation string) (domain.Entry, error) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	e, err := validate(word, partOfSpeech, translation)
	if err != nil {
		return domain.Entry{}, err
	}
	if existing, ok := s.FindByWord(e.Word); ok && existing.ID != id {
		return existing, fmt.Errorf("%w: %q", domain.ErrDuplicateWord, existing.Word)
	}

	cur := &s.entries[i]
	cur.Word = e.Word
	cur.PartOfSpeech = e.PartOfSpeech
	cur.Translation = e.Translation
	return *cur, nil
}

// Remove deletes an entry. Its counter is kept.
func (s *WordStore) Remove(id string) (domain.Entry, error) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.Entry{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	removed := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return removed, nil
}

// Count returns how many times id was shown
func (s *WordStore) Count(id string) int {
	return s.counters[id]
}

// Increment bumps the exposure counter of id and returns the new value
func (s *WordStore) Increment(id string) int {
	s.counters[id]++
	return s.counters[id]
}

// Dataset returns a deep copy of entries and counters
func (s *WordStore) Dataset() domain.Dataset {
	return domain.Dataset{Entries: s.entries, Counters: s.counters}.Clone()
}

// Replace swaps in a new dataset wholesale
func (s *WordStore) Replace(d domain.Dataset) {
	d = d.Clone()
	if d.Counters == nil {
		d.Counters = make(domain.Counters)
	}
	s.entries = d.Entries
	s.counters = d.Counters
}

// Snapshot returns an immutable copy stamped with the current time
func (s *WordStore) Snapshot() domain.Snapshot {
	d := s.Dataset()
	return domain.Snapshot{
		FormatVersion: domain.FormatVersion,
		Entries:       d.Entries,
		Counters:      d.Counters,
		ExportedAt:    domain.MillisOf(s.now()),
	}
}

func (s *WordStore) indexOf(id string) int {
	for i, e := range s.entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func validate(word, partOfSpeech, translation string) (domain.Entry, error) {
	e, ok := domain.Entry{Word: word, PartOfSpeech: partOfSpeech, Translation: translation}.Normalized()
	if !ok {
		return domain.Entry{}, fmt.Errorf("%w: word, part of speech and translation are all required", domain.ErrValidation)
	}
	if !domain.IsLikelyEnglishWord(e.Word) {
		return domain.Entry{}, fmt.Errorf("%w: %q does not look like an English word", domain.ErrValidation, e.Word)
	}
	return e, nil
}
