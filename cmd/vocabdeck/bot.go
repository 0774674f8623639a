package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"

	"vocabdeck/internal/handler"
	"vocabdeck/internal/middleware"
	"vocabdeck/internal/service"
)

func newBotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireBot(); err != nil {
				return err
			}

			a, err := ctx.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := a.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
			}()
			return runBot(cmd.Context(), a)
		},
	}
}

func runBot(ctx context.Context, a *app) error {
	logger := a.logger
	logger.Info("Starting vocabdeck bot")

	bot, err := tele.NewBot(tele.Settings{
		Token:  a.cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			fields := []zap.Field{zap.Error(err)}
			if c != nil && c.Sender() != nil {
				fields = append(fields, zap.Int64("user_id", c.Sender().ID))
			}
			logger.Error("Handler failed", fields...)
		},
	})
	if err != nil {
		return err
	}
	logger.Info("Telegram bot initialized", zap.String("username", bot.Me.Username))

	if a.cfg.BotOwnerID == 0 {
		logger.Warn("BOT_OWNER_ID is not set, anyone can use this bot")
	}
	bot.Use(middleware.OwnerOnly(a.cfg.BotOwnerID, logger))

	h := handler.NewHandler(bot, a.words, a.study, a.backup, a.stats, a.status, logger)
	h.RegisterHandlers()
	logger.Info("Handlers registered")

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		logger.Info("Bot started successfully")
		bot.Start()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, stopping bot...")
		bot.Stop()
		return nil
	})
	g.Go(func() error {
		runStatsJob(gctx, a.stats, logger)
		return nil
	})

	err = g.Wait()
	logger.Info("Bot stopped gracefully")
	return err
}

// runStatsJob logs a study summary at startup and then daily
func runStatsJob(ctx context.Context, stats *service.StatsService, logger *zap.Logger) {
	report := func() {
		s := stats.Summary()
		logger.Info("Study summary",
			zap.Int("words", s.Words),
			zap.Int("exposures", s.TotalExposures),
			zap.Int("unseen", s.Unseen),
			zap.Int("orphan_counters", s.OrphanCounters),
		)
	}
	report()

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stats job stopped")
			return
		case <-ticker.C:
			report()
		}
	}
}
