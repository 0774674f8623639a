package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"vocabdeck/internal/config"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// withApp opens the store for one command and closes it afterwards, flushing
// any pending save
func (c *commandContext) withApp(cmd *cobra.Command, fn func(*app) error) (err error) {
	a, err := c.openApp(cmd, c.quiet())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(a)
}

func (c *commandContext) openApp(cmd *cobra.Command, quiet bool) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel, quiet)
	if err != nil {
		return nil, err
	}
	a, err := openApp(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

func (c *commandContext) quiet() bool {
	return c.verbose == nil || !*c.verbose
}

// newLogger builds the production logger. quiet raises the level to warn so
// interactive commands keep stderr clean.
func newLogger(level string, quiet bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if quiet && lvl.Level() < zapcore.WarnLevel {
		lvl.SetLevel(zapcore.WarnLevel)
	}
	zcfg.Level = lvl
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
