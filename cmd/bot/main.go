package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playslot/internal/api"
	"playslot/internal/audit"
	"playslot/internal/booking"
	"playslot/internal/bot"
	"playslot/internal/config"
	"playslot/internal/google"
	"playslot/internal/hold"
	"playslot/internal/metrics"
	"playslot/internal/slots"
	"playslot/internal/store"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	// .env feeds the ${VAR} placeholders in the YAML config.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("PLAYSLOT_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Fatal().Msg("set telegram.bot_token in config")
	}

	st, err := store.Open(cfg.Store.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open booking store error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	var holds hold.Store
	switch cfg.Holds.Backend {
	case "redis":
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		holds = hold.NewRedisStore(rdb)
	default:
		holds = hold.NewMemoryStore()
	}

	service := booking.NewService(st, holds, slots.NewRandomPicker(), booking.Policy(cfg.Booking.Policy), &logger)

	var auditLog *audit.Log
	if cfg.Audit.Enabled {
		auditLog, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("open audit log error")
		}
		defer auditLog.Close()
		service.WithAudit(auditLog)
	}

	if cfg.Sheets.Enabled {
		mirror, err := google.NewSheetsService(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("sheets mirror disabled")
		} else {
			service.WithMirror(mirror)
		}
	}

	b, err := bot.New(cfg.Telegram.BotToken, cfg.Telegram.Debug, service, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("create bot error")
	}
	if auditLog != nil {
		b.WithAuditLog(auditLog)
	}

	if cfg.API.Enabled {
		srv := api.NewHTTPServer(service, cfg.API.Port, &logger)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("query API error")
			}
		}()
	}

	if cfg.Backup.Enabled {
		backup := store.NewBackupService(cfg.Store.Path, store.BackupConfig{
			Enabled:       true,
			IntervalHours: cfg.Backup.IntervalHours,
			StoragePath:   cfg.Backup.StoragePath,
			RetentionDays: cfg.Backup.RetentionDays,
		}, &logger)
		go backup.Start(ctx)
	}

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	b.StartReminders(ctx)

	logger.Info().Str("policy", cfg.Booking.Policy).Msg("booking bot started")
	b.Start(ctx)
}

func startHealthServer(ctx context.Context, port int, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if rdb != nil {
			ctxPing, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
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

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
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
