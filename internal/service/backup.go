package service

import (
	"errors"
	"fmt"

	"vocabdeck/internal/codec"
	"vocabdeck/internal/domain"

	"go.uber.org/zap"
)

// BackupService exports backups and restores them in two phases:
// Preview, then Commit with the same code and mode.
type BackupService struct {
	ws    *Workspace
	codec *codec.Codec
}

// NewBackupService creates a new backup service
func NewBackupService(ws *Workspace, c *codec.Codec) *BackupService {
	return &BackupService{ws: ws, codec: c}
}

// ExportToken returns the current state as a backup code
func (s *BackupService) ExportToken() (string, error) {
	return s.codec.EncodeCompact(s.ws.State())
}

// ExportFile returns the current state as a JSON file and its dated name
func (s *BackupService) ExportFile() (string, []byte, error) {
	state := s.ws.State()
	data, err := s.codec.EncodeFile(state)
	if err != nil {
		return "", nil, err
	}
	return codec.FileName(state.ExportedAt.Time()), data, nil
}

// TokenFromFile converts an uploaded JSON backup into a backup code
func (s *BackupService) TokenFromFile(data []byte) (string, error) {
	return s.codec.TokenFromFile(data)
}

// Preview decodes token and reports what restoring it in mode would do.
// A decode failure discards any pending restore.
func (s *BackupService) Preview(token string, mode domain.RestoreMode) (domain.PreviewReport, error) {
	snap, err := s.codec.DecodeCompact(token)

	s.ws.mu.Lock()
	if err != nil {
		s.ws.engine.Discard()
		s.ws.mu.Unlock()
		return domain.PreviewReport{}, err
	}
	report, err := s.ws.engine.Preview(s.ws.store.Entries(), snap, mode)
	s.ws.mu.Unlock()
	if err != nil {
		return domain.PreviewReport{}, err
	}

	s.ws.logger.Info("Restore previewed",
		zap.String("mode", string(mode)),
		zap.Int("incoming", report.IncomingCount),
		zap.Int("will_add", report.WillAdd),
		zap.Int("will_update", report.WillUpdate),
	)
	if s.ws.callbacks.OnRestorePreview != nil {
		s.ws.callbacks.OnRestorePreview(report)
	}
	return report, nil
}

// Commit applies the previewed restore. The store replacement, round reset
// and save scheduling happen under one lock.
func (s *BackupService) Commit(token string, mode domain.RestoreMode) (domain.PreviewReport, error) {
	snap, err := s.codec.DecodeCompact(token)
	if err != nil {
		return domain.PreviewReport{}, err
	}

	s.ws.mu.Lock()
	report, _ := s.ws.engine.Pending()
	result, err := s.ws.engine.Commit(s.ws.store.Dataset(), snap, mode, s.ws.store.NewID, s.ws.store.Now())
	if err != nil {
		s.ws.mu.Unlock()
		return domain.PreviewReport{}, err
	}
	s.ws.store.Replace(result)
	s.ws.structuralChangeLocked()
	seen, total := s.ws.scheduler.Progress()
	s.ws.mu.Unlock()

	s.ws.logger.Info("Restore committed",
		zap.String("mode", string(mode)),
		zap.Int("entries", len(result.Entries)),
	)
	s.ws.emitProgress(seen, total)
	return report, nil
}

// Discard cancels the pending restore
func (s *BackupService) Discard() {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()
	s.ws.engine.Discard()
}

// Pending reports whether a previewed restore awaits confirmation
func (s *BackupService) Pending() (domain.PreviewReport, bool) {
	s.ws.mu.Lock()
	defer s.ws.mu.Unlock()
	return s.ws.engine.Pending()
}

// DescribeError turns decode and restore errors into user-facing text
func DescribeError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrEmptyInput):
		return "The backup code is empty."
	case errors.Is(err, domain.ErrCorruptToken), errors.Is(err, domain.ErrMalformedPayload):
		return "Could not read the backup: the code is malformed or damaged."
	case errors.Is(err, domain.ErrNoPendingRestore):
		return "Preview the backup before restoring it."
	case errors.Is(err, domain.ErrDuplicateWord):
		return "This word already exists."
	case errors.Is(err, domain.ErrValidation):
		return "Word, part of speech and translation are all required, and the word must be English."
	case errors.Is(err, domain.ErrNotFound):
		return "That word no longer exists."
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}
