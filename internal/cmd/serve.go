package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/trilingua/trilingua/internal/config"
	errwrap "github.com/trilingua/trilingua/internal/errors"
	"github.com/trilingua/trilingua/internal/metrics"
	"github.com/trilingua/trilingua/internal/observability"
	"github.com/trilingua/trilingua/internal/server"
	"github.com/trilingua/trilingua/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the dictionary HTTP server with graceful shutdown support.

Endpoints:
  POST /api/lookup             trilingual dictionary entry
  POST /api/autocomplete       up to three completions
  POST /api/generate-sentence  one example sentence
  GET  /api/models             selectable models

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Re-read the config file and apply the log level`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig

		observability.InitServerLogger(binaryName, cfg.Logging.Level, binaryName)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(binaryName, cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}
		metrics.SetServerStartTime(time.Now().Unix())

		application, err := buildApp(cfg, logger)
		if err != nil {
			return errwrap.WrapConfigInvalid(cmd.Context(), err, "failed to build services")
		}
		if !cfg.AILink.HasAPIKey() {
			logger.Warn("No provider API key configured; dictionary endpoints will answer CONFIG_INVALID")
		}

		logger.Info("Initializing server",
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("metrics", cfg.Metrics.Enabled),
			zap.Int("metrics_port", observability.GetMetricsPort()),
			zap.Float64("rate_limit", cfg.Admission.RateLimit),
			zap.Bool("reference", cfg.Reference.Enabled),
			zap.Bool("auth", cfg.Auth.SharedSecret != ""),
			zap.Int("models", application.models.Len()))

		hm := handlers.NewHealthManager(versionInfo.Version)
		hm.RegisterChecker("api_key", handlers.APIKeyChecker(cfg.AILink))
		hm.RegisterChecker("models", handlers.ModelRegistryChecker(application.models))
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}

		srv := server.New(server.Options{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			SharedSecret:   cfg.Auth.SharedSecret,
			AdminToken:     cfg.Server.AdminToken,
			Health:         hm,
			Dictionary: &handlers.DictionaryHandler{
				Service:         application.dictionary,
				Registry:        application.models,
				APIKeyPresent:   cfg.AILink.HasAPIKey(),
				FreshnessWindow: cfg.Freshness.Window,
			},
		})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: the HTTP server stops before the logger flushes.
		signals.OnShutdown(func(ctx context.Context) error {
			if err := observability.StopMetrics(); err != nil {
				logger.Warn("Metrics exporter did not stop cleanly", zap.Error(err))
			}
			logger.Info("Flushing logger...")
			observability.SyncLoggers()
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			return reloadConfig(ctx, v)
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

// reloadConfig re-reads the config file on SIGHUP. Only the log level takes
// effect without a restart; models, prompts and admission rates are fixed at startup.
func reloadConfig(ctx context.Context, src *viper.Viper) error {
	logger := observability.ServerLogger
	logger.Info("Received SIGHUP: attempting config reload")

	if err := config.ReadFile(src); err != nil {
		logger.Error("Failed to reload config file",
			zap.String("file", src.ConfigFileUsed()),
			zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
	}

	cfg, err := config.Load(src)
	if err != nil {
		logger.Error("Reloaded config is invalid; keeping previous settings", zap.Error(err))
		return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
	}

	observability.InitServerLogger(binaryName, cfg.Logging.Level, binaryName)
	observability.ServerLogger.Info("Configuration reloaded",
		zap.String("file", src.ConfigFileUsed()),
		zap.String("log_level", cfg.Logging.Level))
	return nil
}

func bindServeFlags(target *viper.Viper) {
	_ = target.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = target.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "127.0.0.1", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 5000, "server port")
}
