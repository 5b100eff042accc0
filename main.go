package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"workforce-scheduler/config"
	"workforce-scheduler/metrics"
)

const pushJobName = "workforce_scheduler"

// app carries resolved configuration and shared handles into subcommands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	loc    *time.Location
	wait   bool
	server *http.Server
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{cfg: cfg}
	err = a.rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wfm",
		Short: "Call-center demand forecasting and agent scheduling",
		Long: `wfm forecasts call demand per queue and time slot from historical volumes
and assigns agents to cover it.

Inputs come from CSV files or from the SQLite store filled by 'wfm import'.
Defaults are read from WFM_* environment variables (and .env); flags win.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level: debug|info|warn|error")
	flags.StringVar(&a.cfg.LogFormat, "log-format", a.cfg.LogFormat, "log format: console|json")
	flags.StringVar(&a.cfg.Timezone, "timezone", a.cfg.Timezone, "IANA timezone for timestamps without offset")
	flags.StringVar(&a.cfg.DBPath, "db", a.cfg.DBPath, "SQLite database file")
	flags.IntVar(&a.cfg.Workers, "workers", a.cfg.Workers, "forecast workers (0 = GOMAXPROCS)")
	flags.StringVar(&a.cfg.MetricsAddr, "metrics-addr", a.cfg.MetricsAddr, "address to expose Prometheus metrics (e.g., :9090)")
	flags.StringVar(&a.cfg.PushURL, "push-url", a.cfg.PushURL, "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	flags.BoolVar(&a.wait, "wait", false, "keep process running after completion to allow for metric scraping")

	root.AddCommand(a.forecastCmd())
	root.AddCommand(a.scheduleCmd())
	root.AddCommand(a.importCmd())
	root.AddCommand(a.historyCmd())
	return root
}

// setup validates the merged configuration, configures logging and starts
// the metrics server when requested.
func (a *app) setup() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	a.loc = loc

	a.logger = newLogger(a.cfg.LogLevel, a.cfg.LogFormat)
	if a.cfg.MetricsAddr != "" {
		a.startMetricsServer()
	}
	return nil
}

func newLogger(levelName, format string) zerolog.Logger {
	level, err := zerolog.ParseLevel(levelName)
	invalid := err != nil || levelName == ""
	if invalid {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger = logger.With().Timestamp().Str("service", "wfm").Logger()
	if invalid {
		logger.Warn().Str("level", levelName).Msg("invalid log level, using info")
	}
	return logger
}

func (a *app) startMetricsServer() {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok","service":"wfm"}`)
	})

	a.server = &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info().Str("addr", a.cfg.MetricsAddr).Msg("metrics server listening on /metrics")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("metrics server error")
		}
	}()
}

// finish pushes metrics and, with --wait, blocks until interrupted.
func (a *app) finish(ctx context.Context) error {
	if a.cfg.PushURL != "" {
		if err := push.New(a.cfg.PushURL, pushJobName).Gatherer(metrics.Registry).Push(); err != nil {
			a.logger.Error().Err(err).Str("url", a.cfg.PushURL).Msg("error pushing to Pushgateway")
		} else {
			a.logger.Info().Str("url", a.cfg.PushURL).Msg("metrics pushed to Pushgateway")
		}
	}

	if a.server == nil {
		return nil
	}
	if a.wait {
		a.logger.Info().Msg("process kept alive for metric scraping, press Ctrl+C to exit")
		<-ctx.Done()
		a.logger.Info().Msg("exiting")
	} else if a.cfg.PushURL == "" {
		// short grace period for a final scrape
		time.Sleep(100 * time.Millisecond)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
