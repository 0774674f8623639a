// Package reconcile combines a backup snapshot with the current dataset.
//
// Merge unions entries by case-insensitive word, keeping local ids, and
// max-merges counters under their ids so study effort never regresses. Overwrite replaces
// everything. In both modes entries that are empty after normalization are
// skipped.
package reconcile

import (
	"time"

	"vocabdeck/internal/domain"
)

// Apply returns the dataset produced by restoring snap in the given mode
func Apply(current domain.Dataset, snap domain.Snapshot, mode domain.RestoreMode, newID func() string, now time.Time) domain.Dataset {
	if mode == domain.ModeOverwrite {
		return Overwrite(snap, newID, now)
	}
	return Merge(current, snap, newID, now)
}

// Merge folds snap into a copy of current.
//
// A matching word keeps the current id and takes the incoming part of speech
// and translation. A new word keeps its incoming id unless that id is blank
// or already taken, in which case it gets a fresh one. Incoming counters are
// max-merged under their own id, except that an id which was taken by another
// word follows its entry to the resulting id.
func Merge(current domain.Dataset, snap domain.Snapshot, newID func() string, now time.Time) domain.Dataset {
	out := current.Clone()
	if out.Counters == nil {
		out.Counters = make(domain.Counters)
	}
	b := newBuilder(&out, newID, now)
	for _, in := range snap.Entries {
		b.put(in)
	}
	b.mergeCounters(snap.Counters)
	return out
}

// Overwrite builds a dataset from snap alone. Entries are deduplicated by
// word; counters are taken over exactly as they come in.
func Overwrite(snap domain.Snapshot, newID func() string, now time.Time) domain.Dataset {
	out := domain.Dataset{
		Entries:  make([]domain.Entry, 0, len(snap.Entries)),
		Counters: make(domain.Counters, len(snap.Counters)),
	}
	b := newBuilder(&out, newID, now)
	for _, in := range snap.Entries {
		b.put(in)
	}
	for id, n := range snap.Counters {
		if n < 0 {
			n = 0
		}
		out.Counters[id] = n
	}
	return out
}

// Preview reports what restoring snap in mode would do, without side effects
func Preview(current []domain.Entry, snap domain.Snapshot, mode domain.RestoreMode) domain.PreviewReport {
	report := domain.PreviewReport{
		Mode:          mode,
		CurrentCount:  len(current),
		IncomingCount: len(snap.Entries),
	}

	type content struct{ pos, translation string }
	known := make(map[string]content, len(current))
	if mode != domain.ModeOverwrite {
		for _, e := range current {
			known[domain.WordKey(e.Word)] = content{e.PartOfSpeech, e.Translation}
		}
	}

	for _, in := range snap.Entries {
		e, ok := in.Normalized()
		if !ok {
			report.Dropped++
			continue
		}
		key := domain.WordKey(e.Word)
		next := content{e.PartOfSpeech, e.Translation}
		if prev, found := known[key]; found {
			report.WillUpdate++
			if prev != next {
				report.WillChange++
			}
		} else {
			report.WillAdd++
		}
		known[key] = next
	}

	if mode == domain.ModeOverwrite {
		report.ResultCount = len(known)
		report.WillAdd, report.WillUpdate, report.WillChange = 0, 0, 0
	} else {
		report.ResultCount = len(current) + report.WillAdd
	}
	return report
}

// builder appends normalized entries to a dataset while tracking word keys,
// used ids and the incoming ids whose counters move elsewhere
type builder struct {
	out    *domain.Dataset
	newID  func() string
	now    time.Time
	byWord map[string]int
	used   map[string]struct{}
	idMap  map[string]string
}

func newBuilder(out *domain.Dataset, newID func() string, now time.Time) *builder {
	b := &builder{
		out:    out,
		newID:  newID,
		now:    now,
		byWord: make(map[string]int, len(out.Entries)),
		used:   make(map[string]struct{}, len(out.Entries)),
		idMap:  make(map[string]string),
	}
	for i, e := range out.Entries {
		b.byWord[domain.WordKey(e.Word)] = i
		b.used[e.ID] = struct{}{}
	}
	return b
}

func (b *builder) put(in domain.Entry) {
	e, ok := in.Normalized()
	if !ok {
		return
	}
	key := domain.WordKey(e.Word)

	if i, found := b.byWord[key]; found {
		cur := &b.out.Entries[i]
		cur.PartOfSpeech = e.PartOfSpeech
		cur.Translation = e.Translation
		if _, taken := b.used[in.ID]; taken && in.ID != cur.ID {
			b.link(in.ID, cur.ID)
		}
		return
	}

	id := e.ID
	if _, taken := b.used[id]; id == "" || taken {
		id = b.freshID()
	}
	if id != e.ID {
		b.link(e.ID, id)
	}
	e.ID = id
	if e.CreatedAt == 0 {
		e.CreatedAt = domain.MillisOf(b.now)
	}
	b.used[id] = struct{}{}
	b.byWord[key] = len(b.out.Entries)
	b.out.Entries = append(b.out.Entries, e)
	b.keep(id)
}

func (b *builder) freshID() string {
	for {
		id := b.newID()
		if _, taken := b.used[id]; !taken && id != "" {
			return id
		}
	}
}

// keep pins an incoming id that kept its own name so later collisions on it
// cannot redirect its counter
func (b *builder) keep(id string) {
	if _, ok := b.idMap[id]; !ok {
		b.idMap[id] = id
	}
}

// link redirects the counter of an incoming id whose name was taken by
// another word. The first mapping wins.
func (b *builder) link(incoming, resulting string) {
	if incoming == "" {
		return
	}
	if _, ok := b.idMap[incoming]; !ok {
		b.idMap[incoming] = resulting
	}
}

func (b *builder) mergeCounters(incoming domain.Counters) {
	for id, n := range incoming {
		if n < 0 {
			n = 0
		}
		target := id
		if mapped, ok := b.idMap[id]; ok {
			target = mapped
		}
		if cur, ok := b.out.Counters[target]; !ok || n > cur {
			b.out.Counters[target] = n
		}
	}
}
