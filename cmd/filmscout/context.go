package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"filmscout/internal/config"
	"filmscout/internal/logging"
	"filmscout/internal/tmdb"
	"filmscout/internal/tools"
)

// Catalog commands only surface warnings unless --log-level says otherwise.
const defaultCLILogLevel = "warn"

type commandContext struct {
	configFlag   *string
	jsonFlag     *bool
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		jsonFlag:     jsonFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
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

// loadConfigUnchecked loads configuration without validation and creates the
// configured directories, for commands that diagnose a broken setup.
func (c *commandContext) loadConfigUnchecked() (*config.Config, error) {
	cfg, _, _, err := config.LoadUnvalidated(c.configPath())
	if err != nil {
		return nil, err
	}
	_ = cfg.EnsureDirectories()
	return cfg, nil
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) logLevel(fallback string) string {
	if c.logLevelFlag != nil {
		if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
			return level
		}
	}
	return fallback
}

// withCatalog builds a short-lived client and tool service for one command.
func (c *commandContext) withCatalog(cmd *cobra.Command, fn func(*tmdb.Client, *tools.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:  c.logLevel(defaultCLILogLevel),
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	client, err := tmdb.NewFromConfig(cfg, tmdb.WithLogger(logger))
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client, tools.New(client, tools.WithLogger(logger)))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
