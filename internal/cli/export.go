package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sniperdash/internal/export"
)

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Dump reservations, bookings and activity to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, client, err := bootstrap(cmd, "export")
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
				return err
			}

			path, err := export.New(client, cfg.Exports.Path).Export(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("export failed")
				return err
			}

			logger.Info().Str("path", path).Msg("export written")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
