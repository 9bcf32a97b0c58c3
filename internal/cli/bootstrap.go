package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sniperdash/internal/api"
	"sniperdash/internal/config"
	"sniperdash/internal/logging"
)

// bootstrap loads configuration and builds the logger and the backend
// client shared by every subcommand. The closer (log file, if any) must be
// closed by the caller.
func bootstrap(cmd *cobra.Command, component string) (*config.Config, zerolog.Logger, io.Closer, *api.Client, error) {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return nil, zerolog.Logger{}, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, nil, err
	}
	logger := baseLogger.With().Str("component", component).Logger()

	return cfg, logger, closer, api.NewClient(cfg.Backend), nil
}
