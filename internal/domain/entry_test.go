package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already clean",
			input:    "apple",
			expected: "apple",
		},
		{
			name:     "surrounding whitespace",
			input:    "  apple \n",
			expected: "apple",
		},
		{
			name:     "internal whitespace collapsed",
			input:    "look   \t up",
			expected: "look up",
		},
		{
			name:     "only whitespace",
			input:    " \t ",
			expected: "",
		},
		{
			name:     "cjk text kept",
			input:    " 蘋果 ",
			expected: "蘋果",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestWordKey(t *testing.T) {
	assert.Equal(t, WordKey("Apple"), WordKey("  apple "))
	assert.Equal(t, WordKey("LOOK  UP"), WordKey("look up"))
	assert.NotEqual(t, WordKey("apple"), WordKey("apples"))
}

func TestIsLikelyEnglishWord(t *testing.T) {
	tests := []struct {
		name     string
		word     string
		expected bool
	}{
		{name: "simple word", word: "apple", expected: true},
		{name: "phrasal verb", word: "look up", expected: true},
		{name: "apostrophe", word: "don't", expected: true},
		{name: "hyphen", word: "well-known", expected: true},
		{name: "leading digit", word: "1st", expected: false},
		{name: "leading hyphen", word: "-ing", expected: false},
		{name: "chinese", word: "蘋果", expected: false},
		{name: "empty", word: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLikelyEnglishWord(tt.word))
		})
	}
}

func TestEntry_Normalized(t *testing.T) {
	e, ok := Entry{ID: "a", Word: " cat ", PartOfSpeech: "n.", Translation: " 貓  咪 "}.Normalized()
	assert.True(t, ok)
	assert.Equal(t, Entry{ID: "a", Word: "cat", PartOfSpeech: "n.", Translation: "貓 咪"}, e)

	_, ok = Entry{Word: "cat", PartOfSpeech: "  ", Translation: "貓"}.Normalized()
	assert.False(t, ok)
}

func TestEntry_SameContent(t *testing.T) {
	a := Entry{ID: "1", Word: "Cat", PartOfSpeech: "n.", Translation: "貓"}
	assert.True(t, a.SameContent(Entry{ID: "2", Word: "cat", PartOfSpeech: "n.", Translation: "貓"}))
	assert.False(t, a.SameContent(Entry{Word: "cat", PartOfSpeech: "v.", Translation: "貓"}))
}

func TestMillis_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Millis
		wantErr  bool
	}{
		{name: "integer", input: `1700000000000`, expected: 1700000000000},
		{name: "float", input: `1700000000000.7`, expected: 1700000000000},
		{name: "null", input: `null`, expected: 0},
		{name: "string", input: `"soon"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Millis
			err := json.Unmarshal([]byte(tt.input), &m)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, m)
		})
	}
}

func TestMillis_Time(t *testing.T) {
	ts := time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)
	assert.True(t, ts.Equal(MillisOf(ts).Time()))
}

func TestParseRestoreMode(t *testing.T) {
	tests := []struct {
		input    string
		expected RestoreMode
		wantErr  bool
	}{
		{input: "", expected: ModeMerge},
		{input: "merge", expected: ModeMerge},
		{input: " Overwrite ", expected: ModeOverwrite},
		{input: "replace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseRestoreMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestPreviewReport_String(t *testing.T) {
	merge := PreviewReport{Mode: ModeMerge, CurrentCount: 3, IncomingCount: 4, WillAdd: 1, WillUpdate: 3, WillChange: 2}
	text := merge.String()
	assert.Contains(t, text, "Mode: merge")
	assert.Contains(t, text, "Will add: 1")
	assert.Contains(t, text, "Will update: 3 (same word, 2 with new content)")
	assert.NotContains(t, text, "Skipped")

	overwrite := PreviewReport{Mode: ModeOverwrite, CurrentCount: 3, IncomingCount: 5, ResultCount: 4, Dropped: 1}
	text = overwrite.String()
	assert.Contains(t, text, "Mode: overwrite")
	assert.Contains(t, text, "Result: 4 entries")
	assert.Contains(t, text, "Skipped: 1 invalid entries")
	assert.Contains(t, text, "replaces all current words")
}

func TestCounters_Clone(t *testing.T) {
	c := Counters{"a": 1}
	clone := c.Clone()
	clone["a"] = 5
	assert.Equal(t, 1, c["a"])
}
