package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"sniperdash/internal/api"
	"sniperdash/internal/clock"
	"sniperdash/internal/config"
	"sniperdash/internal/events"
	"sniperdash/internal/metrics"
	"sniperdash/internal/models"
	"sniperdash/internal/notify"
	"sniperdash/internal/poller"
	"sniperdash/internal/repository"
	"sniperdash/internal/session"
	"sniperdash/internal/ui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the live dashboard against the sniper backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}
}

func runWatch(cmd *cobra.Command) error {
	cfg, logger, closer, client, err := bootstrap(cmd, "watch")
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		go serveMetrics(cfg.Monitoring, &logger)
	}

	if cfg.Redis.Address != "" {
		redisClient := repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, venue search cache disabled")
		} else {
			client.UseRedisCache(redisClient, time.Duration(models.VenueCacheTTL)*time.Second)
		}
		defer func() { _ = repository.Close(redisClient) }()
	}

	bus := events.NewEventBus()
	queue := notify.NewQueue(clock.NewReal(), cfg.Dashboard.NotificationTTL(), bus, &logger)

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		if err := attachTelegramSink(cfg.Telegram, queue, &logger); err != nil {
			logger.Warn().Err(err).Msg("Telegram alerts disabled")
		}
	}

	term := ui.NewTerminal(os.Stdout, queue, &logger)
	if watchlist, err := loadWatchlist(cfg.WatchlistPath); err != nil {
		logger.Warn().Err(err).Str("path", cfg.WatchlistPath).Msg("watchlist not loaded")
	} else {
		term.SetWatchlist(watchlist)
	}
	term.Attach(bus)

	// Session needs the poller for post-mutation refreshes and the poller
	// needs the session's filter; the holder breaks the construction cycle.
	refresher := &pollerRefresher{}
	sess := session.New(client, refresher, queue, bus, &logger)
	p := poller.New(client, sess, bus, cfg.Dashboard.PollInterval(), cfg.Dashboard.ActivityLimit, &logger)
	refresher.p = p

	reportBackendHealth(ctx, client, queue)

	go repaintLoop(ctx, term)

	logger.Info().
		Str("backend", cfg.Backend.BaseURL).
		Dur("interval", cfg.Dashboard.PollInterval()).
		Msg("dashboard started")

	if err := p.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	logger.Info().Msg("Shutdown complete.")
	return nil
}

type pollerRefresher struct {
	p *poller.Poller
}

func (r *pollerRefresher) RefreshReservations(ctx context.Context) {
	if r.p != nil {
		r.p.RefreshReservations(ctx)
	}
}

func (r *pollerRefresher) RefreshAll(ctx context.Context) {
	if r.p != nil {
		r.p.RefreshAll(ctx)
	}
}

// repaintLoop redraws once a second so waiting countdowns tick between
// poll cycles.
func repaintLoop(ctx context.Context, term *ui.Terminal) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			term.Render(now)
		}
	}
}

func serveMetrics(cfg config.MonitoringConfig, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", cfg.PrometheusPort)
	logger.Info().Str("addr", addr).Msg("Prometheus metrics listener started")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics listener error")
	}
}

func attachTelegramSink(cfg config.TelegramConfig, queue *notify.Queue, logger *zerolog.Logger) error {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return err
	}
	botAPI.Debug = cfg.Debug

	retry := notify.RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, MaxDelay: 30 * time.Second, BackoffFactor: 2}
	queue.SetSink(notify.NewTelegramSink(botAPI, cfg.ChatID, retry))
	logger.Info().Msg("Telegram alerts enabled")
	return nil
}

// loadWatchlist reads the pinned venues file. A missing path is not an
// error; the feature is optional.
func loadWatchlist(path string) ([]models.WatchedVenue, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Venues []models.WatchedVenue `yaml:"venues"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return parsed.Venues, nil
}

func reportBackendHealth(ctx context.Context, client *api.Client, queue *notify.Queue) {
	if err := client.Health(ctx); err != nil {
		queue.Error("Backend unreachable: " + err.Error())
		return
	}
	queue.Success("Connected to sniper backend")
}
