package handler

import (
	"sync"

	"vocabdeck/internal/domain"
)

// StatusBoard keeps the latest save status for display
type StatusBoard struct {
	mu     sync.RWMutex
	status domain.SaveStatus
}

// NewStatusBoard creates a board reporting saved
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{status: domain.StatusSaved}
}

// Set records a status change. It matches the saver's status callback.
func (b *StatusBoard) Set(status domain.SaveStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

// Get returns the latest status
func (b *StatusBoard) Get() domain.SaveStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Label renders the status for a message footer
func (b *StatusBoard) Label() string {
	switch b.Get() {
	case domain.StatusSaving:
		return "💾 Saving…"
	case domain.StatusFailed:
		return "⚠️ Save failed, will retry on the next change"
	default:
		return "💾 Saved"
	}
}
