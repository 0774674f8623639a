package handler

import (
	"errors"
	"fmt"
	"strings"

	"vocabdeck/internal/domain"
	"vocabdeck/internal/service"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleAdd starts the add word flow
func (h *Handler) handleAdd(c tele.Context) error {
	h.ResetSession(c.Sender().ID)
	h.SetSession(c.Sender().ID, &domain.Session{State: domain.StateWaitingWord})
	return h.show(c, "Send the English word", cancelMarkup())
}

// handleText handles all text messages based on the session state
func (h *Handler) handleText(c tele.Context) error {
	userID := c.Sender().ID
	text := domain.Normalize(c.Text())

	// Ignore commands (starting with /)
	if strings.HasPrefix(text, "/") {
		return nil
	}

	session := h.GetSession(userID)

	switch session.State {
	case domain.StateWaitingBackup:
		return h.askMode(c, userID, c.Text())

	case domain.StateChoosingMode, domain.StateConfirmRestore, domain.StateConfirmReplace:
		return c.Send("Please use the buttons above, or /cancel.")

	case domain.StateWaitingPOS:
		next := *session
		next.State = domain.StateWaitingTranslation
		next.PartOfSpeech = text
		h.SetSession(userID, &next)
		return c.Send("Now the translation", cancelMarkup())

	case domain.StateWaitingTranslation:
		next := *session
		next.Translation = text
		return h.saveWord(c, userID, &next)

	default:
		// Idle or waiting for a word: the text is the word
		if !domain.IsLikelyEnglishWord(text) {
			return c.Send("That does not look like an English word. Letters, spaces, hyphens and apostrophes only.", cancelMarkup())
		}
		h.SetSession(userID, &domain.Session{
			State:  domain.StateWaitingPOS,
			EditID: session.EditID,
			Word:   text,
		})
		return c.Send("Part of speech? (n., v., adj., ...)", cancelMarkup())
	}
}

// saveWord adds or updates the entry collected in session
func (h *Handler) saveWord(c tele.Context, userID int64, session *domain.Session) error {
	var (
		entry domain.Entry
		err   error
	)
	if session.EditID != "" {
		entry, err = h.wordService.UpdateWord(session.EditID, session.Word, session.PartOfSpeech, session.Translation)
	} else {
		entry, err = h.wordService.AddWord(session.Word, session.PartOfSpeech, session.Translation)
	}

	switch {
	case err == nil:
		h.logger.Info("Word saved from chat",
			zap.Int64("user_id", userID),
			zap.String("id", entry.ID),
			zap.String("word", entry.Word),
		)
		// Ready for the next word
		h.SetSession(userID, &domain.Session{State: domain.StateWaitingWord})
		return c.Send(fmt.Sprintf("✅ Saved: %s (%s) %s\n\nSend the next word or /start", entry.Word, entry.PartOfSpeech, entry.Translation))

	case errors.Is(err, domain.ErrDuplicateWord) && session.EditID == "":
		session.State = domain.StateConfirmReplace
		session.ReplaceID = entry.ID
		h.SetSession(userID, session)

		markup := &tele.ReplyMarkup{}
		markup.Inline(markup.Row(btnReplace, btnCancel))
		return c.Send(fmt.Sprintf("«%s» already exists (%s · %s). Replace it?", entry.Word, entry.PartOfSpeech, entry.Translation), markup)

	default:
		h.logger.Warn("Failed to save word",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
		h.SetSession(userID, &domain.Session{State: domain.StateWaitingWord, EditID: session.EditID})
		return c.Send(service.DescribeError(err)+"\n\nSend the word again", cancelMarkup())
	}
}

// handleReplace overwrites the existing entry after a duplicate add
func (h *Handler) handleReplace(c tele.Context) error {
	userID := c.Sender().ID
	session := h.GetSession(userID)
	if session.State != domain.StateConfirmReplace || session.ReplaceID == "" {
		return c.Respond()
	}

	next := *session
	next.EditID = session.ReplaceID
	next.ReplaceID = ""
	if err := c.Respond(); err != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(err))
	}
	return h.saveWord(c, userID, &next)
}

// handleEditWord starts editing an entry
func (h *Handler) handleEditWord(c tele.Context, id string) error {
	entry, ok := h.wordService.GetWord(id)
	if !ok {
		return h.alert(c, service.DescribeError(domain.ErrNotFound))
	}
	h.SetSession(c.Sender().ID, &domain.Session{State: domain.StateWaitingWord, EditID: entry.ID})
	return h.show(c, fmt.Sprintf("Editing «%s» (%s · %s)\n\nSend the word", entry.Word, entry.PartOfSpeech, entry.Translation), cancelMarkup())
}

// handleDeleteWord asks before removing an entry
func (h *Handler) handleDeleteWord(c tele.Context, id string) error {
	entry, ok := h.wordService.GetWord(id)
	if !ok {
		return h.alert(c, service.DescribeError(domain.ErrNotFound))
	}
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("🗑 Delete", "delok_"+wordRef(entry.ID)), markup.Data("◀ Keep", "word_"+wordRef(entry.ID))),
	)
	return h.show(c, fmt.Sprintf("Delete «%s»? Its study count is kept.", entry.Word), markup)
}

// handleDeleteConfirmed removes an entry and returns to the list
func (h *Handler) handleDeleteConfirmed(c tele.Context, id string) error {
	entry, err := h.wordService.RemoveWord(id)
	if err != nil {
		return h.alert(c, service.DescribeError(err))
	}
	h.logger.Info("Word removed from chat",
		zap.Int64("user_id", c.Sender().ID),
		zap.String("word", entry.Word),
	)
	return h.showPage(c, 1)
}
