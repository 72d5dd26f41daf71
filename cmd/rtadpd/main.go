// Command rtadpd runs one Supervisor instance: the real-time waveform
// acquisition/processing pipeline's process entrypoint.
package main

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/waveacq/rtadp/internal/config"
	"github.com/waveacq/rtadp/internal/nlog"
	"github.com/waveacq/rtadp/internal/supervisor"
)

func main() {
	configPath := flag.StringP("config", "c", "", "path to the Supervisor configuration record (JSON)")
	logLevel := flag.String("log-level", "", "override the configured log level (debug|info|warn|error)")
	flag.Parse()

	if *configPath == "" {
		nlog.Fatalln("rtadpd: --config (-c) is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		nlog.Fatalln("rtadpd: invalid configuration:", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	configureLogging(cfg)

	sup := supervisor.New(cfg)
	if err := sup.Start(context.Background()); err != nil {
		nlog.Fatalln("rtadpd: failed to start supervisor:", errors.WithStack(err))
	}
	sup.RegisterSignals()

	nlog.Infoln("rtadpd: running as", cfg.ProcessName)
	select {} // the signal handler drives shutdown; block forever here
}

func configureLogging(cfg *config.Config) {
	level := parseLevel(cfg.LogLevel)
	if cfg.LogPath == "" {
		nlog.Configure(os.Stderr, level, cfg.LogMode)
		return
	}
	f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		nlog.Fatalln("rtadpd: failed to open log path", cfg.LogPath, ":", err)
	}
	nlog.Configure(f, level, cfg.LogMode)
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
