package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/jeongseonghan/baseband/internal/monitor"
	"github.com/jeongseonghan/baseband/internal/sim"
)

func main() {
	configPath := flag.String("config", "", "Sweep configuration file (YAML)")
	listen := flag.String("listen", "", "Serve live results on this address")
	out := flag.String("out", "", "Write the results CSV to this file")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	seed := flag.Int64("seed", 0, "Override the configured random seed")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "linksim",
	})
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal("unknown log level", "level", *logLevel)
	}
	logger.SetLevel(level)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}
	cfg, err := sim.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", "err", err)
	}
	if flag.CommandLine.Changed("seed") {
		cfg.Seed = *seed
	}

	runner, err := sim.NewRunner(cfg, logger)
	if err != nil {
		logger.Fatal("configure sweep", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mon *monitor.Monitor
	var emit func(sim.Point)
	if *listen != "" {
		mon = monitor.New(logger)
		emit = mon.Publish
		go func() {
			if err := mon.Serve(*listen); err != nil {
				logger.Error("monitor", "err", err)
			}
		}()
	}

	points, err := runner.Run(ctx, emit)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("sweep interrupted", "completed", len(points))
	case err != nil:
		logger.Fatal("sweep", "err", err)
	}
	if mon != nil {
		mon.Done()
	}

	if *out != "" {
		if err := writeCSVFile(*out, points); err != nil {
			logger.Fatal("write results", "err", err)
		}
		logger.Info("results written", "path", *out, "points", len(points))
	}

	// Keep serving finished results until interrupted.
	if mon != nil && ctx.Err() == nil {
		logger.Info("sweep done, monitor still serving", "addr", *listen)
		<-ctx.Done()
	}
}

func writeCSVFile(path string, points []sim.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sim.WriteCSV(f, points); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
