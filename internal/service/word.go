package service

import (
	"sort"
	"strings"

	"vocabdeck/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const defaultPageSize = 10

// WordService handles adding, editing and listing words
type WordService struct {
	ws *Workspace
}

// NewWordService creates a new word service
func NewWordService(ws *Workspace) *WordService {
	return &WordService{ws: ws}
}

// AddWord adds a new entry. An existing word yields domain.ErrDuplicateWord
// together with the existing entry so the caller can offer to update it.
func (s *WordService) AddWord(word, partOfSpeech, translation string) (domain.Entry, error) {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()

	e, err := s.ws.store.Add(word, partOfSpeech, translation)
	if err != nil {
		return e, err
	}
	s.ws.structuralChangeLocked()
	s.ws.logger.Info("Word added", zap.String("id", e.ID), zap.String("word", e.Word))
	return e, nil
}

// UpdateWord replaces the text of an entry, keeping its id and counter
func (s *WordService) UpdateWord(id, word, partOfSpeech, translation string) (domain.Entry, error) {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()

	e, err := s.ws.store.Update(id, word, partOfSpeech, translation)
	if err != nil {
		return e, err
	}
	s.ws.structuralChangeLocked()
	s.ws.logger.Info("Word updated", zap.String("id", e.ID), zap.String("word", e.Word))
	return e, nil
}

// RemoveWord deletes an entry. Its counter stays in the store.
func (s *WordService) RemoveWord(id string) (domain.Entry, error) {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()

	e, err := s.ws.store.Remove(id)
	if err != nil {
		return e, err
	}
	s.ws.structuralChangeLocked()
	s.ws.logger.Info("Word removed", zap.String("id", e.ID), zap.String("word", e.Word))
	return e, nil
}

// FindWord looks an entry up by case-insensitive word
func (s *WordService) FindWord(word string) (domain.Entry, bool) {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()
	return s.ws.store.FindByWord(word)
}

// GetWord returns the entry with the given id
func (s *WordService) GetWord(id string) (domain.Entry, bool) {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()
	return s.ws.store.Get(id)
}

// Count returns the number of entries
func (s *WordService) Count() int {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()
	return s.ws.store.Len()
}

// ListWords returns entries sorted by word with their exposure counts.
// A non-empty query keeps entries whose word or translation contains it.
func (s *WordService) ListWords(query string) []domain.ListedWord {
	s.ws.mu.Lock()
	entries := s.ws.store.Entries()
	counts := make([]int, len(entries))
	for i, e := range entries {
		counts[i] = s.ws.store.Count(e.ID)
	}
	s.ws.mu.Unlock()

	q := strings.ToLower(domain.Normalize(query))
	out := make([]domain.ListedWord, 0, len(entries))
	for i, e := range entries {
		if q != "" &&
			!strings.Contains(strings.ToLower(e.Word), q) &&
			!strings.Contains(strings.ToLower(e.Translation), q) {
			continue
		}
		out = append(out, domain.ListedWord{Entry: e, Exposures: counts[i]})
	}

	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Word, out[j].Word) < 0
	})
	return out
}

// ListPage returns one page of ListWords and the total number of pages
func (s *WordService) ListPage(query string, page, pageSize int) ([]domain.ListedWord, int) {
	all := s.ListWords(query)

	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if page < 1 {
		page = 1
	}
	totalPages := (len(all) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], totalPages
}
