package main

import (
	"os"

	"github.com/jmylchreest/brightnessd/cmd/brightnessctl/commands"
	"github.com/jmylchreest/brightnessd/internal/config"
	"github.com/jmylchreest/brightnessd/internal/utils"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	// A missing client config yields the defaults.
	cfg, err := config.Load(config.ClientConfigFilename, "")
	if err != nil {
		logger := utils.SetupErrorLogger()
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)

	rootCmd := commands.NewRootCommand(logger, cfg.Server.UnixSocket, version, commit, buildDate)
	if err := rootCmd.ExecuteContext(rootCmd.Context()); err != nil {
		os.Exit(1)
	}
}
