package handler

import (
	"fmt"
	"strings"

	"vocabdeck/internal/service"

	tele "gopkg.in/telebot.v3"
)

// handleStudy shows the current card, drawing one if none is on screen
func (h *Handler) handleStudy(c tele.Context) error {
	h.ResetSession(c.Sender().ID)

	card, ok := h.studyService.Current()
	if !ok {
		card, ok = h.studyService.Next()
	}
	if !ok {
		return h.alert(c, "You have no words yet. Add some first.")
	}
	return h.show(c, renderCard(card, false), cardMarkup(false))
}

// handleNext moves forward, drawing a fresh card at the end of history
func (h *Handler) handleNext(c tele.Context) error {
	card, ok := h.studyService.Forward()
	if !ok {
		return h.alert(c, "You have no words yet. Add some first.")
	}
	return h.show(c, renderCard(card, false), cardMarkup(false))
}

// handlePrev steps back in history without counting
func (h *Handler) handlePrev(c tele.Context) error {
	card, ok := h.studyService.Back()
	if !ok {
		return h.alert(c, "This is the first card.")
	}
	return h.show(c, renderCard(card, false), cardMarkup(false))
}

// handleFlip toggles the card side. The button payload is the side to show.
func (h *Handler) handleFlip(c tele.Context) error {
	card, ok := h.studyService.Current()
	if !ok {
		return h.handleStudy(c)
	}
	flipped := c.Callback() != nil && cleanCallbackData(c.Callback().Data) == "1"
	return h.show(c, renderCard(card, flipped), cardMarkup(flipped))
}

func renderCard(card service.Card, flipped bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🃏 %s\n\n", card.Entry.Word)
	if flipped {
		fmt.Fprintf(&b, "%s · %s\n\n", card.Entry.PartOfSpeech, card.Entry.Translation)
	} else {
		b.WriteString("Tap 🔄 to reveal\n\n")
	}
	fmt.Fprintf(&b, "📊 %d / %d", card.Seen, card.Total)
	return b.String()
}

func cardMarkup(flipped bool) *tele.ReplyMarkup {
	side := "1"
	if flipped {
		side = "0"
	}
	flip := btnFlip
	flip.Data = side

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(btnPrev, flip, btnNext),
		markup.Row(btnMainMenu),
	)
	return markup
}
