package store

import (
	"fmt"
	"testing"
	"time"

	"vocabdeck/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *WordStore {
	n := 0
	clock := time.Date(2024, 12, 12, 10, 0, 0, 0, time.UTC)
	return New(
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		WithClock(func() time.Time { return clock }),
	)
}

func TestWordStore_Add(t *testing.T) {
	tests := []struct {
		name          string
		word          string
		pos           string
		translation   string
		expectedError error
	}{
		{
			name:        "valid entry",
			word:        "  apple ",
			pos:         "n.",
			translation: "蘋果",
		},
		{
			name:          "empty word",
			word:          " ",
			pos:           "n.",
			translation:   "蘋果",
			expectedError: domain.ErrValidation,
		},
		{
			name:          "empty translation",
			word:          "apple",
			pos:           "n.",
			translation:   "",
			expectedError: domain.ErrValidation,
		},
		{
			name:          "not an english word",
			word:          "蘋果",
			pos:           "n.",
			translation:   "apple",
			expectedError: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()

			e, err := s.Add(tt.word, tt.pos, tt.translation)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Equal(t, 0, s.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "id-1", e.ID)
			assert.Equal(t, "apple", e.Word)
			assert.Equal(t, domain.MillisOf(time.Date(2024, 12, 12, 10, 0, 0, 0, time.UTC)), e.CreatedAt)
			assert.Equal(t, 1, s.Len())
		})
	}
}

func TestWordStore_AddDuplicate(t *testing.T) {
	s := newTestStore()
	_, err := s.Add("Apple", "n.", "蘋果")
	require.NoError(t, err)

	existing, err := s.Add("apple", "n.", "蘋果2")

	assert.ErrorIs(t, err, domain.ErrDuplicateWord)
	assert.Equal(t, "id-1", existing.ID)
	assert.Equal(t, 1, s.Len())
}

func TestWordStore_Update(t *testing.T) {
	s := newTestStore()
	apple, _ := s.Add("apple", "n.", "蘋果")
	_, _ = s.Add("cat", "n.", "貓")

	updated, err := s.Update(apple.ID, "Apple", "noun", "蘋果 (水果)")
	require.NoError(t, err)
	assert.Equal(t, apple.ID, updated.ID)
	assert.Equal(t, "noun", updated.PartOfSpeech)

	_, err = s.Update(apple.ID, "CAT", "n.", "貓")
	assert.ErrorIs(t, err, domain.ErrDuplicateWord)

	_, err = s.Update("missing", "dog", "n.", "狗")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Update(apple.ID, "apple", "", "x")
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, ok := s.Get(apple.ID)
	require.True(t, ok)
	assert.Equal(t, "Apple", got.Word)
}

func TestWordStore_RemoveKeepsCounter(t *testing.T) {
	s := newTestStore()
	apple, _ := s.Add("apple", "n.", "蘋果")
	s.Increment(apple.ID)
	s.Increment(apple.ID)

	removed, err := s.Remove(apple.ID)
	require.NoError(t, err)
	assert.Equal(t, apple, removed)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 2, s.Count(apple.ID))

	_, err = s.Remove(apple.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWordStore_FindByWord(t *testing.T) {
	s := newTestStore()
	_, _ = s.Add("look up", "v.", "查詢")

	e, ok := s.FindByWord("  LOOK   UP ")
	assert.True(t, ok)
	assert.Equal(t, "look up", e.Word)

	_, ok = s.FindByWord("look")
	assert.False(t, ok)
}

func TestWordStore_DatasetIsACopy(t *testing.T) {
	s := newTestStore()
	apple, _ := s.Add("apple", "n.", "蘋果")
	s.Increment(apple.ID)

	d := s.Dataset()
	d.Entries[0].Word = "changed"
	d.Counters[apple.ID] = 99

	got, _ := s.Get(apple.ID)
	assert.Equal(t, "apple", got.Word)
	assert.Equal(t, 1, s.Count(apple.ID))
}

func TestWordStore_ReplaceAndSnapshot(t *testing.T) {
	s := newTestStore()
	s.Replace(domain.Dataset{
		Entries:  []domain.Entry{{ID: "x", Word: "dog", PartOfSpeech: "n.", Translation: "狗"}},
		Counters: domain.Counters{"x": 3, "orphan": 7},
	})

	assert.Equal(t, []string{"x"}, s.IDs())

	snap := s.Snapshot()
	assert.Equal(t, domain.FormatVersion, snap.FormatVersion)
	assert.Len(t, snap.Entries, 1)
	assert.Equal(t, domain.Counters{"x": 3, "orphan": 7}, snap.Counters)
	assert.NotZero(t, snap.ExportedAt)

	s.Replace(domain.Dataset{})
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.Increment("x"))
}
