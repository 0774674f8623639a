package middleware

import (
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// OwnerOnly restricts the bot to a single Telegram user. An ownerID of 0
// lets everyone through.
func OwnerOnly(ownerID int64, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if ownerID == 0 {
				return next(c)
			}

			sender := c.Sender()
			if sender != nil && sender.ID == ownerID {
				return next(c)
			}

			var userID int64
			if sender != nil {
				userID = sender.ID
			}
			logger.Warn("Rejected update from non-owner", zap.Int64("user_id", userID))

			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: "This deck is private."})
			}
			if sender == nil {
				return nil
			}
			return c.Send("This deck is private.")
		}
	}
}
