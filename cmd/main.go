package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/resonance/internal/shared"
	"github.com/urfave/cli/v3"
)

const configEnv = "RESONANCE_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv(configEnv)
	if configPath == "" {
		configPath = "config.toml"
	} else if _, err := os.Stat(configPath); err != nil {
		logger.Warn(shared.ErrMissingConfig.Error()+", using defaults", "env", configEnv, "path", configPath)
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Logging.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "resonance",
		Usage:    "Discover, preview and save music from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	runner.Close()

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
