package testutil

import (
	"sync"

	"vocabdeck/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockStateRepository is a mock for StateRepository
type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) LoadState(key string) ([]byte, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStateRepository) SaveState(key string, data []byte) error {
	args := m.Called(key, data)
	return args.Error(0)
}

// RecordingSaver captures every scheduled state
type RecordingSaver struct {
	mu     sync.Mutex
	states []domain.Snapshot
}

func (r *RecordingSaver) Schedule(state domain.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

// Count returns how many times Schedule was called
func (r *RecordingSaver) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// Last returns the most recently scheduled state
func (r *RecordingSaver) Last() (domain.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return domain.Snapshot{}, false
	}
	return r.states[len(r.states)-1], true
}

// StatusRecorder collects save status transitions
type StatusRecorder struct {
	mu       sync.Mutex
	statuses []domain.SaveStatus
}

func (r *StatusRecorder) Record(status domain.SaveStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

// All returns the recorded statuses in order
func (r *StatusRecorder) All() []domain.SaveStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SaveStatus, len(r.statuses))
	copy(out, r.statuses)
	return out
}
