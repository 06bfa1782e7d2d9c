package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/robfig/cron/v3"

	"muhurta/internal/compose"
	"muhurta/internal/config"
	appLog "muhurta/internal/log"
	"muhurta/internal/metrics"
	"muhurta/internal/refresh"
	"muhurta/internal/session"
	"muhurta/internal/store"
	"muhurta/internal/web"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	debug      bool
}

func main() {
	appLog.Info("muhurta starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if err := conf.Validate(); err != nil {
		appLog.Error("invalid config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	level := appLog.ParseLevel(conf.LogLevel)
	if flags.debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"data_source", conf.DataSource,
		"city", conf.City,
		"year", conf.Year,
		"refresh", conf.RefreshCron,
		"fold_mode", conf.FoldMode,
		"ics_count", len(conf.ICS),
		"availability_count", len(conf.Availability),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("muhurta failed", err)
		os.Exit(1)
	}
	appLog.Info("muhurta exiting")
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	m := metrics.New()

	st, err := store.Open(conf.StateDir)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			appLog.Error("failed to close state store", err)
		}
	}()

	sess := session.New(session.Options{
		WindowDays: conf.WindowDays,
		FoldMode:   compose.ParseFoldMode(conf.FoldMode),
		Metrics:    m,
		OnChange:   st.Persist,
	})

	ref, err := refresh.New(conf, sess, m)
	if err != nil {
		return err
	}

	saved, err := st.Load()
	switch {
	case err == nil:
		city, year := sess.Restore(saved)
		if conf.HasDataset(city, year) {
			ref.Select(city, year)
		}
		appLog.Info("compose state restored", "city", city, "year", year, "conditions", len(saved.Conditions))
	case errors.Is(err, store.ErrNoState):
	default:
		appLog.Error("failed to load compose state", err)
	}

	if err := ref.Reload(ctx, "", 0); err != nil {
		if flags.once {
			return err
		}
		// The server still starts; a scheduled or API reload may succeed.
		appLog.Error("initial load failed", err)
	}

	if flags.once {
		return printOnce(sess)
	}

	c := cron.New()
	_, err = c.AddFunc(conf.RefreshCron, func() {
		if err := ref.Reload(ctx, "", 0); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	appLog.Info("Cron started", "schedule", conf.RefreshCron)
	defer func() {
		<-c.Stop().Done()
	}()

	srv := web.NewServer(conf, sess, m, ref.Reload)
	return srv.ListenAndServe(ctx)
}

// printOnce writes the composed windows and good-only slots of the loaded
// dataset to stdout.
func printOnce(sess *session.Session) error {
	composed, err := sess.Compose()
	if err != nil {
		return err
	}
	slots, err := sess.GoodOnly(sess.View().Start, nil)
	if err != nil {
		return err
	}
	out := map[string]any{
		"info":    sess.Info(),
		"compose": composed,
		"slots":   slots,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Load once, print compose and good-only slots as JSON, and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
