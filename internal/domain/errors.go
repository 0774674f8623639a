package domain

import "errors"

// Sentinel errors. Check with errors.Is.
var (
	ErrValidation       = errors.New("invalid entry")
	ErrDuplicateWord    = errors.New("word already exists")
	ErrNotFound         = errors.New("entry not found")
	ErrEmptyInput       = errors.New("backup code is empty")
	ErrCorruptToken     = errors.New("backup code is corrupt")
	ErrMalformedPayload = errors.New("backup payload is malformed")
	ErrNoPendingRestore = errors.New("no pending restore, preview first")
	ErrPersistenceWrite = errors.New("failed to persist state")
)
