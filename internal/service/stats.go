package service

import (
	"vocabdeck/internal/domain"

	"go.uber.org/zap"
)

// Summary describes the collection and how much it has been studied
type Summary struct {
	Words          int
	TotalExposures int
	OrphanCounters int
	Unseen         int
	MostSeen       domain.ListedWord
	LeastSeen      domain.ListedWord
}

// StatsService reports study statistics
type StatsService struct {
	ws *Workspace
}

// NewStatsService creates a new stats service
func NewStatsService(ws *Workspace) *StatsService {
	return &StatsService{ws: ws}
}

// Summary computes statistics over the current store. Exposures of removed
// words are not counted in TotalExposures.
func (s *StatsService) Summary() Summary {
	state := s.ws.State()

	var sum Summary
	sum.Words = len(state.Entries)
	live := make(map[string]struct{}, len(state.Entries))
	for i, e := range state.Entries {
		live[e.ID] = struct{}{}
		n := state.Counters[e.ID]
		sum.TotalExposures += n
		if n == 0 {
			sum.Unseen++
		}
		w := domain.ListedWord{Entry: e, Exposures: n}
		if i == 0 || n > sum.MostSeen.Exposures {
			sum.MostSeen = w
		}
		if i == 0 || n < sum.LeastSeen.Exposures {
			sum.LeastSeen = w
		}
	}
	for id := range state.Counters {
		if _, ok := live[id]; !ok {
			sum.OrphanCounters++
		}
	}

	s.ws.logger.Debug("Stats computed",
		zap.Int("words", sum.Words),
		zap.Int("exposures", sum.TotalExposures),
		zap.Int("orphans", sum.OrphanCounters),
	)
	return sum
}
