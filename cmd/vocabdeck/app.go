package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"vocabdeck/internal/codec"
	"vocabdeck/internal/config"
	"vocabdeck/internal/domain"
	"vocabdeck/internal/handler"
	"vocabdeck/internal/persist"
	"vocabdeck/internal/repository"
	"vocabdeck/internal/repository/postgres"
	"vocabdeck/internal/repository/sqlite"
	"vocabdeck/internal/service"
	"vocabdeck/internal/store"
	"vocabdeck/migrations"
)

// app is the wired object graph shared by every command
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	repo   repository.StateRepository
	saver  *persist.Saver
	codec  *codec.Codec
	status *handler.StatusBoard

	words  *service.WordService
	study  *service.StudyService
	backup *service.BackupService
	stats  *service.StatsService

	closeDB func() error
}

func openApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, status: handler.NewStatusBoard()}

	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}

	c, err := codec.New()
	if err != nil {
		_ = a.closeDB()
		return nil, err
	}
	a.codec = c

	state, found, err := service.LoadState(a.repo, cfg.StateKey, logger)
	if err != nil {
		a.codec.Close()
		_ = a.closeDB()
		return nil, err
	}

	callbacks := service.Callbacks{
		OnCardShown: func(e domain.Entry) {
			logger.Debug("Card shown", zap.String("id", e.ID), zap.String("word", e.Word))
		},
		OnRoundProgress: func(seen, total int) {
			logger.Debug("Round progress", zap.Int("seen", seen), zap.Int("total", total))
		},
		OnSaveStatusChanged: a.status.Set,
		OnRestorePreview: func(r domain.PreviewReport) {
			logger.Debug("Restore preview ready",
				zap.String("mode", string(r.Mode)),
				zap.Int("result", r.ResultCount),
			)
		},
	}

	a.saver = persist.NewSaver(a.repo, cfg.StateKey, cfg.SaveDelay, logger, callbacks.OnSaveStatusChanged)
	ws := service.NewWorkspace(store.New(), a.saver, nil, callbacks, logger)
	if found {
		ws.Bootstrap(state)
		a.saver.Prime(ws.State())
	}

	a.words = service.NewWordService(ws)
	a.study = service.NewStudyService(ws)
	a.backup = service.NewBackupService(ws, a.codec)
	a.stats = service.NewStatsService(ws)
	return a, nil
}

func (a *app) openStorage(ctx context.Context) error {
	switch a.cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := connectDatabase(ctx, a.cfg.DSN(), a.logger)
		if err != nil {
			return err
		}
		a.logger.Info("Database connection established")

		if err := runMigrations(db, a.logger); err != nil {
			db.Close()
			return err
		}
		a.repo = postgres.NewStateRepo(db)
		a.closeDB = db.Close

	default:
		db, err := sqlite.Open(a.cfg.Storage.SQLitePath)
		if err != nil {
			return err
		}
		a.logger.Info("Local database opened", zap.String("path", db.Path()))
		a.repo = sqlite.NewStateRepo(db.DB)
		a.closeDB = db.Close
	}
	return nil
}

// Close writes any pending save and releases the storage
func (a *app) Close() error {
	var errs []error
	if err := a.saver.Close(); err != nil {
		errs = append(errs, err)
	}
	a.codec.Close()
	if err := a.closeDB(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(ctx context.Context, dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
		} else if err = db.PingContext(ctx); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
		} else {
			db.SetMaxOpenConns(5)
			db.SetMaxIdleConns(2)
			db.SetConnMaxLifetime(5 * time.Minute)
			return db, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies the embedded schema migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}
	return nil
}
