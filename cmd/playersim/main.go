// Package main provides the scenario player entry point.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bassstation/internal/app/footer"
	"github.com/osa030/bassstation/internal/app/notification"
	"github.com/osa030/bassstation/internal/app/playback"
	"github.com/osa030/bassstation/internal/app/scenario"
	"github.com/osa030/bassstation/internal/infra/config"
	"github.com/osa030/bassstation/internal/infra/logger"
	"github.com/osa030/bassstation/internal/infra/ui"
)

var (
	app        = kingpin.New("playersim", "Replay scripted audio player sessions")
	configPath = app.Flag("config", "Path to config file (default: built-in defaults)").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	runCmd       = app.Command("run", "Run scenario files")
	scenarioPath = runCmd.Arg("scenario", "Scenario YAML files").Required().ExistingFiles()
	distance     = runCmd.Flag("scroll-distance", "Simulated distance to the page bottom in px").Default("1000").Float64()
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

	failed := 0
	for _, path := range *scenarioPath {
		if err := run(cfg, path); err != nil {
			zlog.Error().Msgf("Scenario %s failed: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		closer.Close()
		os.Exit(1)
	}
}

// run replays one scenario file with the footer controller subscribed to
// player events.
func run(cfg *config.Config, path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	notifier := notification.NewManager()
	defer notifier.Close()

	base := playback.Config{
		ReadinessThreshold: playback.ReadyState(cfg.Player.ReadinessThreshold),
		PlayTimeout:        cfg.Player.PlayTimeout(),
	}
	sess, err := scenario.NewSession(sc.PlayerConfig(base), sc.StartMs, playback.WithNotifier(notifier))
	if err != nil {
		return err
	}

	var footerView ui.Indicator
	ctrl, err := footer.New(sess.Player, footer.StaticViewport(*distance), &footerView, footer.Config{
		GracePeriod:  cfg.Footer.GracePeriod(),
		HideDelay:    cfg.Footer.HideDelay(),
		NearBottomPx: cfg.Footer.NearBottomPx,
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()
	notifier.Subscribe(ctrl)
	ctrl.Check()

	report, err := sess.Run(sc)
	if report != nil {
		for _, step := range report.Steps {
			snap := step.Snapshot
			title := ""
			if snap.Track != nil {
				title = snap.Track.DisplayTitle()
			}
			zlog.Info().Msgf("[%02d] %-28s state=%-7s playing=%-5t seeking=%-5t volume=%.2f muted=%t error=%t track=%q",
				step.Index, step.Name, snap.State, snap.Playing, snap.Seeking, snap.Volume, snap.Muted, snap.HasError, title)
			if step.Err != nil {
				zlog.Info().Msgf("     allowed error: %v", step.Err)
			}
		}
	}
	zlog.Info().Msgf("Footer visible=%t notifications=%d", footerView.Visible(), notifier.SequenceNo())
	return err
}
