package handler

import (
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// handleStart handles /start and the menu button
func (h *Handler) handleStart(c tele.Context) error {
	userID := c.Sender().ID

	h.logger.Info("Main menu opened",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	h.ResetSession(userID)
	return h.show(c, h.menuText(), mainMenuMarkup())
}

// handleCancel cancels the current flow and returns to the menu
func (h *Handler) handleCancel(c tele.Context) error {
	h.ResetSession(c.Sender().ID)
	return h.show(c, h.menuText(), mainMenuMarkup())
}

func (h *Handler) menuText() string {
	return fmt.Sprintf("🏠 Main menu\n\n%d words · %s\n\nChoose an action:",
		h.wordService.Count(), h.status.Label())
}
