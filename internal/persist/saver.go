// Package persist writes the study state to a repository with debouncing.
package persist

import (
	"fmt"
	"sync"
	"time"

	"vocabdeck/internal/codec"
	"vocabdeck/internal/domain"
	"vocabdeck/internal/repository"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// DefaultDelay is how long mutations coalesce before one write
const DefaultDelay = 120 * time.Millisecond

// Saver coalesces state writes. Schedule never blocks on storage and never
// returns an error; outcomes are reported through the status callback, which
// runs in order on the saver's own goroutine so callers may hold their locks
// while scheduling.
type Saver struct {
	repo     repository.StateRepository
	key      string
	delay    time.Duration
	logger   *zap.Logger
	onStatus func(domain.SaveStatus)
	now      func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	pending *domain.Snapshot
	status  domain.SaveStatus
	// events queues status changes for the publisher, guarded by mu
	events []domain.SaveStatus
	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}

	closeOnce sync.Once

	// writeMu serializes flushes from the timer and from callers
	writeMu sync.Mutex
	lastSum uint64
	hasSum  bool
}

// NewSaver creates a saver writing under key. onStatus may be nil.
func NewSaver(repo repository.StateRepository, key string, delay time.Duration, logger *zap.Logger, onStatus func(domain.SaveStatus)) *Saver {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Saver{
		repo:     repo,
		key:      key,
		delay:    delay,
		logger:   logger,
		onStatus: onStatus,
		now:      time.Now,
		status:   domain.StatusSaved,
	}
	if onStatus != nil {
		s.wake = make(chan struct{}, 1)
		s.stop = make(chan struct{})
		s.done = make(chan struct{})
		go s.publish()
	}
	return s
}

// Prime records state as already persisted so an unchanged state is not
// written again
func (s *Saver) Prime(state domain.Snapshot) {
	sum, err := contentSum(state)
	if err != nil {
		return
	}
	s.writeMu.Lock()
	s.lastSum, s.hasSum = sum, true
	s.writeMu.Unlock()
}

// Schedule queues state for writing after the debounce delay, replacing any
// state queued earlier
func (s *Saver) Schedule(state domain.Snapshot) {
	s.mu.Lock()
	s.pending = &state
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		_ = s.Flush()
	})
	s.setStatusLocked(domain.StatusSaving)
	s.mu.Unlock()
}

// Flush writes the queued state now. It returns an error wrapping
// domain.ErrPersistenceWrite when the repository fails.
func (s *Saver) Flush() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	state := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if state == nil {
		return nil
	}
	return s.writeLocked(*state)
}

// Close writes the queued state and stops publishing status changes once the
// ones already queued are delivered
func (s *Saver) Close() error {
	err := s.Flush()
	if s.stop != nil {
		s.closeOnce.Do(func() { close(s.stop) })
		<-s.done
	}
	return err
}

// Status returns the outcome of the latest write
func (s *Saver) Status() domain.SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// writeLocked persists state. Callers hold s.writeMu.
func (s *Saver) writeLocked(state domain.Snapshot) error {
	sum, err := contentSum(state)
	if err != nil {
		return s.fail(err)
	}
	if s.hasSum && sum == s.lastSum {
		s.logger.Debug("State unchanged, skipping write", zap.String("key", s.key))
		s.settle(domain.StatusSaved)
		return nil
	}

	state.ExportedAt = domain.MillisOf(s.now())
	data, err := codec.EncodeState(state)
	if err != nil {
		return s.fail(err)
	}
	if err := s.repo.SaveState(s.key, data); err != nil {
		return s.fail(err)
	}

	s.lastSum, s.hasSum = sum, true
	s.logger.Debug("State saved",
		zap.String("key", s.key),
		zap.Int("entries", len(state.Entries)),
		zap.Int("bytes", len(data)),
	)
	s.settle(domain.StatusSaved)
	return nil
}

func (s *Saver) fail(err error) error {
	s.logger.Error("Failed to save state", zap.String("key", s.key), zap.Error(err))
	s.settle(domain.StatusFailed)
	return fmt.Errorf("%w: %v", domain.ErrPersistenceWrite, err)
}

// settle publishes a final status unless another write was queued meanwhile
func (s *Saver) settle(status domain.SaveStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return
	}
	s.setStatusLocked(status)
}

// setStatusLocked records status and queues it for the publisher when it
// changed. Callers hold s.mu.
func (s *Saver) setStatusLocked(status domain.SaveStatus) {
	if s.status == status {
		return
	}
	s.status = status
	if s.wake == nil {
		return
	}
	s.events = append(s.events, status)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// publish delivers queued status changes until Close
func (s *Saver) publish() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.deliver()
		case <-s.stop:
			s.deliver()
			return
		}
	}
}

func (s *Saver) deliver() {
	s.mu.Lock()
	events := s.events
	s.events = nil
	s.mu.Unlock()

	for _, status := range events {
		s.onStatus(status)
	}
}

// contentSum hashes entries and counters, ignoring the timestamp
func contentSum(state domain.Snapshot) (uint64, error) {
	state.ExportedAt = 0
	data, err := codec.EncodeState(state)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}
