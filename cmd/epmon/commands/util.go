package commands

import (
	"fmt"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/config"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// loadConfig loads configuration from the global --config flag, falling back
// to the default location without requiring the file to exist. Used by
// management commands that only need database access.
func loadConfig() (*config.Config, error) {
	return config.Load(GetConfigFile())
}
