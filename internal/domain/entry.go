package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Entry is one vocabulary flashcard
type Entry struct {
	ID           string `json:"id"`
	Word         string `json:"word"`
	PartOfSpeech string `json:"pos"`
	Translation  string `json:"zh"`
	CreatedAt    Millis `json:"createdAt"`
}

// ListedWord is an entry together with how many times it was shown
type ListedWord struct {
	Entry
	Exposures int
}

// Millis is a unix timestamp in milliseconds, the unit used by backups
type Millis int64

// MillisOf converts t to Millis
func MillisOf(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time returns m as a time.Time
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

// UnmarshalJSON accepts integers, floats and null
func (m *Millis) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*m = Millis(f)
	return nil
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	englishWord   = regexp.MustCompile(`^[A-Za-z][A-Za-z'’-]*(?:\s+[A-Za-z'’-]+)*$`)
)

// Normalize trims s and collapses internal whitespace to single spaces
func Normalize(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(norm.NFC.String(s)), " ")
}

// WordKey returns the case-insensitive identity of a word
func WordKey(word string) string {
	return cases.Fold().String(Normalize(word))
}

// IsLikelyEnglishWord reports whether word consists of latin letters,
// apostrophes, hyphens and single spaces
func IsLikelyEnglishWord(word string) bool {
	return englishWord.MatchString(word)
}

// Normalized returns a copy of e with normalized text fields and reports
// whether all of them are non-empty
func (e Entry) Normalized() (Entry, bool) {
	e.Word = Normalize(e.Word)
	e.PartOfSpeech = Normalize(e.PartOfSpeech)
	e.Translation = Normalize(e.Translation)
	return e, e.Word != "" && e.PartOfSpeech != "" && e.Translation != ""
}

// SameContent reports whether two entries show the same card
func (e Entry) SameContent(other Entry) bool {
	return WordKey(e.Word) == WordKey(other.Word) &&
		e.PartOfSpeech == other.PartOfSpeech &&
		e.Translation == other.Translation
}
