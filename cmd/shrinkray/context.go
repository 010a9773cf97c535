package main

import (
	"log/slog"
	"strings"
	"sync"

	"shrinkray/internal/config"
	"shrinkray/internal/logging"
	"shrinkray/internal/queue"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	var loggerErr error
	c.loggerOnce.Do(func() {
		level := cfg.Logging.Level
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		logger, err := logging.New(logging.Options{
			Level:   level,
			Format:  cfg.Logging.Format,
			Outputs: []string{"stderr"},
		})
		if err != nil {
			loggerErr = err
			return
		}
		c.logger = logger
	})
	if loggerErr != nil {
		return nil, loggerErr
	}
	if c.logger == nil {
		return logging.NewNop(), nil
	}
	return c.logger, nil
}

// withStore opens the queue store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}
