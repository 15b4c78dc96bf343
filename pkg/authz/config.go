package authz

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/branch-crm/pkg/configuration"
)

// Config captures all inputs necessary to initialize the Casbin enforcer.
// Leaving ModelPath and PolicyPath empty selects the embedded defaults.
type Config struct {
	ModelPath    string
	PolicyPath   string
	FlagPath     string
	FlagMode     Mode
	Logger       *logrus.Logger
	FlagProvider FlagProvider
}

func (c Config) validate() error {
	if (c.ModelPath == "") != (c.PolicyPath == "") {
		return configError("model and policy paths must be provided together")
	}
	if c.FlagPath == "" && c.FlagProvider == nil {
		return configError("missing flag configuration path")
	}
	return nil
}

func (c Config) embedded() bool {
	return c.ModelPath == ""
}

func (c Config) normalized() Config {
	if c.ModelPath != "" {
		c.ModelPath = filepath.Clean(c.ModelPath)
		c.PolicyPath = filepath.Clean(c.PolicyPath)
	}
	if c.FlagPath != "" {
		c.FlagPath = filepath.Clean(c.FlagPath)
	}
	return c
}

// DefaultConfig builds a Config using the global configuration singleton.
func DefaultConfig() Config {
	cfg := configuration.Use()
	return Config{
		ModelPath:  cfg.Authz.ModelPath,
		PolicyPath: cfg.Authz.PolicyPath,
		FlagPath:   cfg.Authz.FlagConfigPath,
		FlagMode:   sanitizeMode(Mode(cfg.Authz.Mode)),
		Logger:     cfg.Logger(),
	}
}
