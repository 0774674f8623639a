package handler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"vocabdeck/internal/domain"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const listPageSize = 8

const (
	maxInlineID     = 40
	hashedRefPrefix = "~"
)

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// handleEditError handles errors from c.Edit(). If the message is not
// modified the callback is just acknowledged; otherwise the error is returned
// so the caller can send a new message.
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	// Already edited by another callback
	if strings.Contains(err.Error(), "message is not modified") {
		h.logger.Debug("Message already modified by another callback, acknowledging",
			zap.Int64("user_id", userID),
			zap.String("callback_id", c.Callback().ID),
		)
		_ = c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
		zap.String("callback_id", c.Callback().ID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// show edits the message behind a callback, or sends a new one for commands
func (h *Handler) show(c tele.Context, text string, opts ...interface{}) error {
	if c.Callback() == nil {
		return c.Send(text, opts...)
	}
	if err := c.Edit(text, opts...); err != nil {
		if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
			return nil
		}
		return c.Send(text, opts...)
	}
	return c.Respond()
}

// alert shows a popup for callbacks and a plain message otherwise
func (h *Handler) alert(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}

// handleCallback handles callbacks with no registered button handler
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	// Unregistered buttons arrive with their unique still in Data
	data := cleanCallbackData(callback.Data)
	h.logger.Debug("handleCallback: Processing callback",
		zap.String("data", data),
		zap.String("id", callback.ID),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	key := callback.Unique
	if key == "" {
		key = data
	}
	switch key {
	case btnStudy.Unique:
		return h.handleStudy(c)
	case btnNext.Unique:
		return h.handleNext(c)
	case btnPrev.Unique:
		return h.handlePrev(c)
	case btnList.Unique:
		return h.handleList(c)
	case btnCancel.Unique:
		return h.handleCancel(c)
	case btnMainMenu.Unique:
		return h.handleStart(c)
	}

	switch {
	case strings.HasPrefix(data, "page_"):
		page, err := strconv.Atoi(strings.TrimPrefix(data, "page_"))
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: "Invalid page"})
		}
		return h.showPage(c, page)
	case strings.HasPrefix(data, "word_"):
		return h.handleWordDetail(c, h.resolveRef(strings.TrimPrefix(data, "word_")))
	case strings.HasPrefix(data, "edit_"):
		return h.handleEditWord(c, h.resolveRef(strings.TrimPrefix(data, "edit_")))
	case strings.HasPrefix(data, "delok_"):
		return h.handleDeleteConfirmed(c, h.resolveRef(strings.TrimPrefix(data, "delok_")))
	case strings.HasPrefix(data, "del_"):
		return h.handleDeleteWord(c, h.resolveRef(strings.TrimPrefix(data, "del_")))
	}

	h.logger.Warn("Unhandled callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// wordRef returns the reference for id used in callback data. Telegram
// limits callback data to 64 bytes, so long ids and ids that would not
// survive cleanCallbackData are sent as a hash.
func wordRef(id string) string {
	if len(id) <= maxInlineID && !strings.HasPrefix(id, hashedRefPrefix) && cleanCallbackData(id) == id {
		return id
	}
	return hashedRefPrefix + strconv.FormatUint(xxhash.Sum64String(id), 36)
}

// resolveRef maps a callback reference back to an entry id. An unknown
// hash resolves to "" which no entry has.
func (h *Handler) resolveRef(ref string) string {
	if !strings.HasPrefix(ref, hashedRefPrefix) {
		return ref
	}
	for _, w := range h.wordService.ListWords("") {
		if wordRef(w.ID) == ref {
			return w.ID
		}
	}
	return ""
}

// handleList shows the first page of words
func (h *Handler) handleList(c tele.Context) error {
	h.ResetSession(c.Sender().ID)
	return h.showPage(c, 1)
}

func (h *Handler) showPage(c tele.Context, page int) error {
	words, totalPages := h.wordService.ListPage("", page, listPageSize)
	if len(words) == 0 {
		return h.alert(c, "You have no words yet. Add some first.")
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(words)+2)
	for _, w := range words {
		rows = append(rows, markup.Row(markup.Data(w.Word, "word_"+wordRef(w.ID))))
	}

	if totalPages > 1 {
		navRow := tele.Row{}
		if page > 1 {
			navRow = append(navRow, markup.Data("⬅️", fmt.Sprintf("page_%d", page-1)))
		}
		if page < totalPages {
			navRow = append(navRow, markup.Data("➡️", fmt.Sprintf("page_%d", page+1)))
		}
		rows = append(rows, navRow)
	}
	rows = append(rows, markup.Row(btnMainMenu))
	markup.Inline(rows...)

	return h.show(c, renderPage(words, page, totalPages), markup)
}

func renderPage(words []domain.ListedWord, page, totalPages int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📚 Words (page %d/%d)\n\n", page, totalPages)
	for i, w := range words {
		fmt.Fprintf(&b, "%d. %s (%s) — %s · 👁 %d\n", (page-1)*listPageSize+i+1, w.Word, w.PartOfSpeech, w.Translation, w.Exposures)
	}
	return b.String()
}

// handleWordDetail shows one entry with edit and delete buttons
func (h *Handler) handleWordDetail(c tele.Context, id string) error {
	entry, ok := h.wordService.GetWord(id)
	if !ok {
		return h.alert(c, "That word no longer exists.")
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("✏️ Edit", "edit_"+wordRef(entry.ID)), markup.Data("🗑 Delete", "del_"+wordRef(entry.ID))),
		markup.Row(markup.Data("◀ Back to list", "page_1"), btnMainMenu),
	)

	text := fmt.Sprintf("📝 %s\n\n%s · %s\n\nAdded %s · 👁 %d",
		entry.Word, entry.PartOfSpeech, entry.Translation,
		entry.CreatedAt.Time().Format("2006-01-02"),
		h.studyService.Exposures(entry.ID),
	)
	return h.show(c, text, markup)
}
