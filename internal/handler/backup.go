package handler

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"vocabdeck/internal/domain"
	"vocabdeck/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// maxInlineToken is the longest backup code sent as a text message.
// Telegram messages are limited to 4096 characters.
const maxInlineToken = 3800

// handleExport sends the backup code and the backup file
func (h *Handler) handleExport(c tele.Context) error {
	userID := c.Sender().ID
	h.ResetSession(userID)

	token, err := h.backupService.ExportToken()
	if err != nil {
		h.logger.Error("Failed to export backup code", zap.Error(err))
		return h.alert(c, "Could not create the backup.")
	}
	name, data, err := h.backupService.ExportFile()
	if err != nil {
		h.logger.Error("Failed to export backup file", zap.Error(err))
		return h.alert(c, "Could not create the backup.")
	}

	if c.Callback() != nil {
		if err := c.Respond(); err != nil {
			h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
		}
	}

	if len(token) <= maxInlineToken {
		err = c.Send("📤 Backup code. Paste it into 📥 Restore to bring your words back.\n\n<code>"+token+"</code>", tele.ModeHTML)
	} else {
		err = c.Send(&tele.Document{
			File:     tele.FromReader(strings.NewReader(token)),
			FileName: strings.TrimSuffix(name, ".json") + ".txt",
			Caption:  "📤 Backup code (too long for a message)",
		})
	}
	if err != nil {
		return err
	}

	h.logger.Info("Backup exported",
		zap.Int64("user_id", userID),
		zap.Int("token_len", len(token)),
		zap.String("file", name),
	)
	return c.Send(&tele.Document{
		File:     tele.FromReader(bytes.NewReader(data)),
		FileName: name,
		MIME:     "application/json",
		Caption:  "📄 Backup file",
	})
}

// handleRestore asks for a backup code or file
func (h *Handler) handleRestore(c tele.Context) error {
	h.ResetSession(c.Sender().ID)
	h.SetSession(c.Sender().ID, &domain.Session{State: domain.StateWaitingBackup})
	return h.show(c, "📥 Paste a backup code, or upload a backup .json file", cancelMarkup())
}

// handleDocument accepts an uploaded backup file at any point
func (h *Handler) handleDocument(c tele.Context) error {
	userID := c.Sender().ID
	msg := c.Message()
	if msg == nil || msg.Document == nil {
		return nil
	}
	doc := msg.Document
	if doc.FileSize > maxBackupFileSize {
		return c.Send("This file is too large to be a backup.")
	}

	data, err := h.download(&doc.File)
	if err != nil {
		h.logger.Error("Failed to download backup file",
			zap.Error(err),
			zap.Int64("user_id", userID),
			zap.String("file", doc.FileName),
		)
		return c.Send("Could not download the file. Try again.")
	}

	token, err := h.backupService.TokenFromFile(data)
	if err != nil {
		h.logger.Info("Uploaded file is not a backup",
			zap.Int64("user_id", userID),
			zap.String("file", doc.FileName),
			zap.Error(err),
		)
		return c.Send(service.DescribeError(err))
	}
	return h.askMode(c, userID, token)
}

func (h *Handler) download(file *tele.File) ([]byte, error) {
	rc, err := h.fetch(file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBackupFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBackupFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxBackupFileSize)
	}
	return data, nil
}

// askMode stores the backup code and offers the restore modes
func (h *Handler) askMode(c tele.Context, userID int64, token string) error {
	if strings.TrimSpace(token) == "" {
		return c.Send(service.DescribeError(domain.ErrEmptyInput), cancelMarkup())
	}
	h.SetSession(userID, &domain.Session{State: domain.StateChoosingMode, Token: token})

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnMerge, btnOverwrite),
		markup.Row(btnCancel),
	)
	return c.Send("How should the backup be restored?\n\n🔀 Merge adds new words and updates existing ones.\n♻️ Overwrite replaces everything.", markup)
}

// handleMode previews the restore in the chosen mode
func (h *Handler) handleMode(c tele.Context) error {
	userID := c.Sender().ID
	session := h.GetSession(userID)
	if session.State != domain.StateChoosingMode {
		return c.Respond()
	}

	var data string
	if c.Callback() != nil {
		data = cleanCallbackData(c.Callback().Data)
	}
	mode, err := domain.ParseRestoreMode(data)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: err.Error()})
	}

	report, err := h.backupService.Preview(session.Token, mode)
	if err != nil {
		h.SetSession(userID, &domain.Session{State: domain.StateWaitingBackup})
		return h.show(c, service.DescribeError(err)+"\n\nPaste another code or upload a file.", cancelMarkup())
	}

	h.SetSession(userID, &domain.Session{
		State: domain.StateConfirmRestore,
		Token: session.Token,
		Mode:  mode,
	})

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(btnConfirm, btnCancel))
	return h.show(c, "🔍 Restore preview\n\n"+report.String(), markup)
}

// handleConfirm commits the previewed restore. Overwrite asks twice.
func (h *Handler) handleConfirm(c tele.Context) error {
	userID := c.Sender().ID
	session := h.GetSession(userID)
	if session.State != domain.StateConfirmRestore {
		return h.alert(c, service.DescribeError(domain.ErrNoPendingRestore))
	}

	next := *session
	next.Confirmations++
	if next.Confirmations < domain.ConfirmationsNeeded(next.Mode) {
		h.SetSession(userID, &next)
		markup := &tele.ReplyMarkup{}
		markup.Inline(markup.Row(btnConfirm, btnCancel))
		return h.show(c, "⚠️ Overwrite deletes every current word and study count.\n\nTap ✅ again to confirm.", markup)
	}

	report, err := h.backupService.Commit(session.Token, session.Mode)
	h.SetSession(userID, &domain.Session{State: domain.StateIdle})
	if err != nil {
		h.logger.Warn("Restore failed", zap.Error(err), zap.Int64("user_id", userID))
		return h.show(c, service.DescribeError(err), mainMenuMarkup())
	}

	h.logger.Info("Restore completed from chat",
		zap.Int64("user_id", userID),
		zap.String("mode", string(session.Mode)),
		zap.Int("incoming", report.IncomingCount),
	)
	return h.show(c, fmt.Sprintf("✅ Restored. You now have %d words.\n\n%s", h.wordService.Count(), h.status.Label()), mainMenuMarkup())
}

// handleStats shows study statistics
func (h *Handler) handleStats(c tele.Context) error {
	h.ResetSession(c.Sender().ID)
	return h.show(c, renderStats(h.statsService.Summary()), mainMenuMarkup())
}

func renderStats(s service.Summary) string {
	if s.Words == 0 {
		return "📊 No words yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Stats\n\n")
	fmt.Fprintf(&b, "Words: %d\n", s.Words)
	fmt.Fprintf(&b, "Cards shown: %d\n", s.TotalExposures)
	fmt.Fprintf(&b, "Never shown: %d\n", s.Unseen)
	fmt.Fprintf(&b, "Most seen: %s (%d)\n", s.MostSeen.Word, s.MostSeen.Exposures)
	fmt.Fprintf(&b, "Least seen: %s (%d)", s.LeastSeen.Word, s.LeastSeen.Exposures)
	if s.OrphanCounters > 0 {
		fmt.Fprintf(&b, "\nCounts of removed words kept: %d", s.OrphanCounters)
	}
	return b.String()
}
