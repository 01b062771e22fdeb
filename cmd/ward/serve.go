package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"openward/internal/api"
	"openward/internal/config"
	"openward/internal/database"
	"openward/internal/events"
	"openward/internal/logging"
	"openward/internal/metrics"
	"openward/internal/repository"
	"openward/internal/telegram"
	"openward/shared/reminders"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reminder scheduler, API and alerting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath(cmd))
		},
	}
}

func runServe(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Pretty, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path, logging.Component(&logger, "database"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	bus := events.NewEventBus(logging.Component(&logger, "events"))
	db.WithEventBus(bus)

	var rdb *redis.Client
	var boards repository.BoardRepository = repository.NewMemoryBoardRepository()
	if cfg.Redis.Address != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		boards = repository.NewFailoverBoardRepository(
			repository.NewRedisBoardRepository(rdb, cfg.BoardTTL()),
			boards,
			logging.Component(&logger, "boards"),
		)
	}

	var reminderMetrics *reminders.Metrics
	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		reminderMetrics = reminders.NewMetrics("openward", prometheus.DefaultRegisterer)
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	reminderLogger := logging.NewReminderLogger(logging.Component(&logger, "reminders"))
	sinks := []reminders.Sink{repository.Sink(boards)}

	if cfg.Telegram.Enabled {
		if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
			return fmt.Errorf("telegram.enabled requires bot_token and chat_id")
		}
		bot, err := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
		if err != nil {
			return err
		}
		loc := time.Local
		if cfg.Ward.Timezone != "" {
			if loc, err = time.LoadLocation(cfg.Ward.Timezone); err != nil {
				return fmt.Errorf("ward timezone: %w", err)
			}
		}
		notifier := telegram.NewNotifier(bot, cfg.Telegram.ChatID, cfg.Ward.Name, loc, logging.Component(&logger, "telegram"))
		sinks = append(sinks, reminders.NewAlertSender(notifier, cfg.AlertSenderConfig(), reminderLogger, reminderMetrics))
		logger.Info().Str("bot", bot.Self.UserName).Int64("chat_id", cfg.Telegram.ChatID).Msg("Telegram alerts enabled")
	}

	scheduler, err := reminders.NewScheduler(cfg.SchedulerConfig(), db, reminderLogger, sinks...)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	scheduler.WithMetrics(reminderMetrics)

	bus.Subscribe(events.TypeRecordsChanged, func(e events.Event) error {
		change, err := events.DecodeRecordChange(e)
		if err != nil {
			return err
		}
		metrics.IncRecordWrite(change.Entity, change.Action)
		scheduler.Notify()
		return nil
	})

	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, scheduler, &logger)

	backups := database.NewBackupService(db, cfg.Backup, logging.Component(&logger, "backup"))
	go backups.Start(ctx)

	server := api.NewHTTPServer(cfg.API.Port, db, boards, scheduler, cfg.Ward.Name, logging.Component(&logger, "api"))
	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("API server error")
			stop()
		}
	}()

	logger.Info().Str("ward", cfg.Ward.Name).Str("timezone", scheduler.Location().String()).Msg("Open Ward started")
	scheduler.Start(ctx)
	return nil
}

func startHealthServer(
	ctx context.Context,
	port int,
	db *database.DB,
	rdb *redis.Client,
	scheduler *reminders.Scheduler,
	logger *zerolog.Logger,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		if _, ok := scheduler.Latest(); !ok {
			http.Error(w, "reminders not evaluated", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
