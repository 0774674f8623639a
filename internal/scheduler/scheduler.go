// Package scheduler picks the next flashcard to show.
//
// Within a round (until every entry has been shown once) an entry is shown at
// most MaxPerRound times; otherwise selection is uniformly random. Selection
// uses bounded rejection sampling and falls back to an unconstrained sample
// after MaxAttempts misses, so the cap is best effort in pathological cases.
package scheduler

import (
	"math/rand"
	"time"
)

const (
	// MaxPerRound caps how often one entry is shown before the round completes
	MaxPerRound = 5
	// MaxAttempts bounds rejection sampling before the unconstrained fallback
	MaxAttempts = 80
)

// Source is the scheduler's view of the word store
type Source interface {
	// IDs returns the current entry ids
	IDs() []string
	// RecordExposure is called once for every fresh draw
	RecordExposure(id string)
}

// RoundScheduler owns the round state: shuffled deck, per-round counts and
// navigation history
type RoundScheduler struct {
	source Source
	rng    *rand.Rand

	deck     []string
	seen     map[string]struct{}
	perRound map[string]int
	history  []string
	cursor   int
}

// New creates a scheduler reading ids from source. A nil rng is seeded from
// the clock.
func New(source Source, rng *rand.Rand) *RoundScheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &RoundScheduler{source: source, rng: rng}
	s.StartRound(nil)
	return s
}

// StartRound shuffles ids into a fresh deck and clears round state and
// history. It reports false when ids is empty.
func (s *RoundScheduler) StartRound(ids []string) bool {
	s.deck = dedupe(ids)
	s.rng.Shuffle(len(s.deck), func(i, j int) {
		s.deck[i], s.deck[j] = s.deck[j], s.deck[i]
	})
	s.seen = make(map[string]struct{})
	s.perRound = make(map[string]int)
	s.history = nil
	s.cursor = -1
	return len(s.deck) > 0
}

// Reset starts a new round over the source's current ids
func (s *RoundScheduler) Reset() bool {
	return s.StartRound(s.source.IDs())
}

// Empty reports whether there is nothing to schedule
func (s *RoundScheduler) Empty() bool {
	return len(s.deck) == 0
}

// CanSelect reports whether id may be drawn now
func (s *RoundScheduler) CanSelect(id string) bool {
	if s.roundComplete() {
		return true
	}
	return s.perRound[id] < MaxPerRound
}

// Next draws a fresh card, counting the exposure. With no ids it reports
// false and leaves the round as it was.
func (s *RoundScheduler) Next() (string, bool) {
	ids := s.source.IDs()
	if len(ids) == 0 {
		return "", false
	}
	if len(s.deck) != len(ids) || s.roundComplete() {
		s.StartRound(ids)
	}

	id := s.pick()
	s.seen[id] = struct{}{}
	s.perRound[id]++
	s.source.RecordExposure(id)

	if s.cursor < len(s.history)-1 {
		s.history = s.history[:s.cursor+1]
	}
	s.history = append(s.history, id)
	s.cursor = len(s.history) - 1
	return id, true
}

// Back steps to the previous card in history without counting it
func (s *RoundScheduler) Back() (string, bool) {
	if s.cursor <= 0 {
		return "", false
	}
	s.cursor--
	return s.history[s.cursor], true
}

// Forward replays the next card in history, or draws a new one at the end
func (s *RoundScheduler) Forward() (string, bool) {
	if s.cursor < len(s.history)-1 {
		s.cursor++
		return s.history[s.cursor], true
	}
	return s.Next()
}

// Current returns the card under the history cursor
func (s *RoundScheduler) Current() (string, bool) {
	if s.cursor < 0 || s.cursor >= len(s.history) {
		return "", false
	}
	return s.history[s.cursor], true
}

// Progress returns how many distinct entries were shown this round
func (s *RoundScheduler) Progress() (seen, total int) {
	total = len(s.deck)
	seen = len(s.seen)
	if seen > total {
		seen = total
	}
	return seen, total
}

func (s *RoundScheduler) roundComplete() bool {
	return len(s.deck) > 0 && len(s.seen) >= len(s.deck)
}

func (s *RoundScheduler) pick() string {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		id := s.deck[s.rng.Intn(len(s.deck))]
		if s.CanSelect(id) {
			return id
		}
	}
	// relaxed once to avoid stalling
	return s.deck[s.rng.Intn(len(s.deck))]
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
