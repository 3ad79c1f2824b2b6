package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"calpicker/internal/config"
	"calpicker/internal/events"
	appLog "calpicker/internal/log"
	"calpicker/internal/metrics"
	"calpicker/internal/today"
	"calpicker/internal/tui"
	"calpicker/internal/web"
)

// flagConfig holds CLI flag values that override the config file.
type flagConfig struct {
	configPath string
	listen     string
	date       string
	layout     string
	eventsFile string
	logFile    string
	animation  time.Duration
	debug      bool
	noTUI      bool
}

func main() {
	flags := parseFlags()
	if err := run(flags); err != nil {
		// The TUI may have redirected logs; failures always reach stderr.
		appLog.SetOutput(os.Stderr)
		appLog.Error("calpicker failed", err)
		os.Exit(1)
	}
}

func run(flags flagConfig) error {
	conf, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}

	// CLI flags override config file values if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.layout != "" {
		conf.Layout = flags.layout
	}
	if flags.eventsFile != "" {
		conf.EventsFile = flags.eventsFile
	}
	if flags.debug {
		conf.LogLevel = "debug"
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	level, _ := appLog.ParseLevel(conf.LogLevel)
	appLog.SetLevel(level)

	// The TUI owns the terminal, so log lines go to a file or nowhere.
	if !flags.noTUI {
		out := io.Discard
		if flags.logFile != "" {
			f, err := os.OpenFile(flags.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		appLog.SetOutput(out)
	}

	appLog.Info("calpicker starting", "version", "0.1.0")
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"layout", conf.Layout,
		"selection", conf.Selection,
		"weekday_symbols", conf.WeekdaySymbols,
		"cache_capacity", conf.Cache.Capacity,
		"cache_radius", conf.Cache.Radius,
		"today_cron", conf.TodayCron,
		"events_file", conf.EventsFile,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var store *events.Store
	if conf.EventsFile != "" {
		evs, err := events.LoadFile(conf.EventsFile)
		if err != nil {
			return err
		}
		store = events.NewStore(evs)
		appLog.Info("events loaded", "path", conf.EventsFile, "count", store.Len())
	}

	wopts, err := conf.WidgetOptions()
	if err != nil {
		return err
	}
	wopts.Metrics = m
	if flags.date != "" {
		d, err := time.ParseInLocation("2006-01-02", flags.date, wopts.Location)
		if err != nil {
			return errors.New("-date must be YYYY-MM-DD")
		}
		wopts.InitialDate = d
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 1)
	if conf.Listen != "" {
		srv, err := web.NewServer(conf, web.Options{Store: store, Gatherer: reg, Metrics: m})
		if err != nil {
			return err
		}
		go func() { errCh <- srv.Run(ctx) }()
	}

	if flags.noTUI {
		return serveOnly(ctx, conf, errCh)
	}

	model, err := tui.New(tui.Options{Widget: wopts, Store: store, Animation: flags.animation})
	if err != nil {
		return err
	}
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	watcher, err := today.New(wopts.Location, conf.TodayCron, func() {
		appLog.Debug("day rollover")
		program.Send(tui.TodayMsg{})
	})
	if err != nil {
		return err
	}
	watcher.Start()
	defer watcher.Stop()
	appLog.Debug("next today refresh", "at", watcher.NextAfter(time.Now()))

	_, err = program.Run()
	cancel()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := model.Err(); err != nil {
		return err
	}
	if conf.Listen != "" {
		if err := <-errCh; err != nil {
			return err
		}
	}
	appLog.Info("calpicker exiting", "selected", len(model.Widget().Selected()))
	return nil
}

// serveOnly runs just the HTTP API until ctx is cancelled.
func serveOnly(ctx context.Context, conf *config.Config, errCh <-chan error) error {
	if conf.Listen == "" {
		return errors.New("-no-tui needs a listen address")
	}
	appLog.Info("serving API only", "listen", conf.Listen)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return <-errCh
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "calpicker.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.date, "date", "", "Initial date, YYYY-MM-DD (default today)")
	flag.StringVar(&cfg.layout, "layout", "", "Initial layout: month or week (overrides config if set)")
	flag.StringVar(&cfg.eventsFile, "events", "", "Local .ics file to show on the grid (overrides config if set)")
	flag.StringVar(&cfg.logFile, "log-file", "", "Write logs here while the TUI runs (default: discard)")
	flag.DurationVar(&cfg.animation, "animation", 150*time.Millisecond, "Page transition length; 0 disables it")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")
	flag.BoolVar(&cfg.noTUI, "no-tui", false, "Serve the HTTP API only")

	flag.Parse()

	return cfg
}
