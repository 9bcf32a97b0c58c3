package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sniperdash/internal/models"
	"sniperdash/internal/repository"
)

// newSearchCmd is the one-shot variant of the dashboard's autocomplete:
// same endpoint, same Redis cache, no debounce because there is no typing.
func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search venues by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closer, client, err := bootstrap(cmd, "search")
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer.Close()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Redis.Address != "" {
				redisClient := repository.NewRedisClient(cfg.Redis)
				if err := repository.Ping(ctx, redisClient); err == nil {
					client.UseRedisCache(redisClient, time.Duration(models.VenueCacheTTL)*time.Second)
				}
				defer func() { _ = repository.Close(redisClient) }()
			}

			query := strings.Join(args, " ")
			venues, err := client.SearchVenues(ctx, query)
			if err != nil {
				logger.Error().Err(err).Str("query", query).Msg("venue search failed")
				return err
			}

			if len(venues) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no venues found")
				return nil
			}
			for _, v := range venues {
				line := v.Name
				if v.Neighborhood != "" {
					line += "  " + v.Neighborhood
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", v.VenueID, line)
			}
			return nil
		},
	}
}
