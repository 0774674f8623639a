package service

import (
	"vocabdeck/internal/domain"
)

// Card is the entry on screen plus round progress
type Card struct {
	Entry domain.Entry
	Seen  int
	Total int
}

// StudyService navigates flashcards
type StudyService struct {
	ws *Workspace
}

// NewStudyService creates a new study service
func NewStudyService(ws *Workspace) *StudyService {
	return &StudyService{ws: ws}
}

// Next draws a fresh card and counts the exposure. It reports false when
// there are no words.
func (s *StudyService) Next() (Card, bool) {
	return s.show(func() (string, bool) { return s.ws.scheduler.Next() })
}

// Back shows the previous card without counting it
func (s *StudyService) Back() (Card, bool) {
	return s.show(func() (string, bool) { return s.ws.scheduler.Back() })
}

// Forward replays the next card in history, drawing a fresh one at the end
func (s *StudyService) Forward() (Card, bool) {
	return s.show(func() (string, bool) { return s.ws.scheduler.Forward() })
}

// Current returns the card under the history cursor
func (s *StudyService) Current() (Card, bool) {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()

	id, ok := s.ws.scheduler.Current()
	if !ok {
		return Card{}, false
	}
	return s.cardLocked(id)
}

// Progress returns how many distinct words were shown this round
func (s *StudyService) Progress() (seen, total int) {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()
	return s.ws.scheduler.Progress()
}

// Exposures returns how many times the entry was shown in total
func (s *StudyService) Exposures(id string) int {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()
	return s.ws.store.Count(id)
}

func (s *StudyService) show(move func() (string, bool)) (Card, bool) {
	s.ws.mu.Lock()
	id, ok := move()
	var card Card
	if ok {
		card, ok = s.cardLocked(id)
	}
	s.ws.mu.Unlock()

	if !ok {
		return Card{}, false
	}
	s.ws.emitCard(card.Entry, card.Seen, card.Total)
	return card, true
}

func (s *StudyService) cardLocked(id string) (Card, bool) {
	entry, ok := s.ws.store.Get(id)
	if !ok {
		return Card{}, false
	}
	seen, total := s.ws.scheduler.Progress()
	return Card{Entry: entry, Seen: seen, Total: total}, true
}
