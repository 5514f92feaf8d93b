// Package main provides the stream recorder entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bassstation/internal/app/recorder"
	"github.com/osa030/bassstation/internal/infra/config"
	"github.com/osa030/bassstation/internal/infra/logger"
)

var (
	app        = kingpin.New("recorder", "Record the live radio stream to an MP3 file")
	configPath = app.Flag("config", "Path to config file (default: built-in defaults)").String()
	streamURL  = app.Flag("url", "Stream URL (overrides config)").String()
	duration   = app.Flag("duration", "Recording length (overrides config)").Duration()
	outputDir  = app.Flag("out", "Output directory (overrides config)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{Output: "stdout", Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	var cfg *config.Config
	if *configPath != "" {
		zlog.Info().Msgf("Loading config from %s", *configPath)
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Recording failed: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the recording. Using a separate function ensures deferred
// calls run before exit.
func run(cfg *config.Config) error {
	rc := recorder.Config{
		StreamURL:  cfg.Recorder.StreamURL,
		Duration:   cfg.Recorder.Duration(),
		ChunkSize:  cfg.Recorder.ChunkSize,
		OutputDir:  cfg.Recorder.OutputDir,
		FilePrefix: cfg.Recorder.FilePrefix,
	}
	if *streamURL != "" {
		rc.StreamURL = *streamURL
	}
	if *duration > 0 {
		rc.Duration = *duration
	}
	if *outputDir != "" {
		rc.OutputDir = *outputDir
	}

	// No client timeout; the recorder bounds the request by its duration
	client := &http.Client{}
	rec, err := recorder.New(client, rc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Info().Msgf("Recording %s for %v", rc.StreamURL, rc.Duration.Round(time.Second))
	res, err := rec.Record(ctx)
	if err != nil {
		return err
	}

	if res.Interrupted {
		zlog.Warn().Msg("Recording stopped by signal")
	}
	zlog.Info().Msgf("Saved %s (%.2f MiB, %v, ~%.0f kbps)",
		res.Path, res.SizeMiB(), res.Elapsed.Round(time.Second), res.BitrateKbps)
	return nil
}
