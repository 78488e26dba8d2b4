package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jfmyers9/radiomoe/internal/archive"
	"github.com/jfmyers9/radiomoe/internal/config"
	"github.com/jfmyers9/radiomoe/internal/meta"
	"github.com/jfmyers9/radiomoe/pkg/listenmoe"
)

var (
	listenStation  string
	listenLagMS    int64
	listenLogFile  string
	listenLogLevel string
	listenDataDir  string
)

// archiveRetention bounds how far back the history command can look.
const archiveRetention = 30 * 24 * time.Hour

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Follow the metadata gateway and announce track changes",
	Long: `Connect to the LISTEN.moe metadata gateway and follow track changes.

Each track is announced when it becomes audible to the listener, taking
the configured playback lag into account, and recorded in the local
track archive for the now and history commands.

The connection is kept alive with heartbeats and re-established with a
backoff after failures. The command runs in the foreground and logs to
stderr by default; use --log-file for a file (useful under a service
manager).`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().StringVar(&listenStation, "station", "", "Station to tune in to: jpop or kpop (default: from config)")
	listenCmd.Flags().Int64Var(&listenLagMS, "lag-ms", -1, "Playback lag in milliseconds (default: from config)")
	listenCmd.Flags().StringVar(&listenLogFile, "log-file", "", "Log file path (default: stderr)")
	listenCmd.Flags().StringVar(&listenLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	listenCmd.Flags().StringVar(&listenDataDir, "data-dir", "", "Data directory for the track archive (default: ~/.local/share/radiomoe)")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if listenStation != "" {
		cfg.Station = listenStation
	}
	if listenDataDir != "" {
		cfg.DataDir = listenDataDir
	}
	if listenLagMS >= 0 {
		cfg.LagMS = listenLagMS
	}

	station, err := listenmoe.ParseStation(cfg.Station)
	if err != nil {
		return err
	}

	logger := setupLogger(listenLogFile, listenLogLevel)
	logger.Info().
		Str("version", version).
		Str("station", station.String()).
		Int64("lag_ms", cfg.LagMS).
		Msg("Starting radiomoe")

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}

	tracks, err := archive.Open(filepath.Join(dataDir, "tracks.db"))
	if err != nil {
		return fmt.Errorf("failed to open track archive: %w", err)
	}
	defer tracks.Close()

	if removed, err := tracks.Cleanup(context.Background(), archiveRetention); err != nil {
		logger.Warn().Err(err).Msg("Failed to cleanup archive")
	} else if removed > 0 {
		logger.Debug().Int64("removed", removed).Msg("Pruned old archive entries")
	}

	// The audio engine owns this in the full application; here it is
	// seeded from config and stays fixed.
	lagMS := new(atomic.Int64)
	lagMS.Store(cfg.LagMS)

	announced := make(chan listenmoe.TrackInfo, 16)
	controller := meta.NewController(station, announced, lagMS, logger)
	defer controller.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Handle first signal gracefully, second signal forces exit
	go func() {
		<-sigChan
		logger.Info().Msg("Shutdown signal received, initiating graceful shutdown")
		cancel()

		<-sigChan
		logger.Warn().Msg("Second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	controller.Start()

	for {
		select {
		case <-ctx.Done():
			controller.Stop()
			logger.Info().Msg("Stopped")
			return nil
		case track := <-announced:
			logger.Info().
				Str("artist", track.Artist).
				Str("title", track.Title).
				Int("duration", track.Duration).
				Msg("Now playing")
			if _, err := tracks.Add(ctx, station, track); err != nil {
				logger.Error().Err(err).Msg("Failed to archive track")
			}
		}
	}
}

// setupLogger creates a logger with the specified configuration
func setupLogger(logFile, logLevel string) zerolog.Logger {
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output *os.File
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			output = os.Stderr
		} else {
			output = f
		}
	} else {
		output = os.Stderr
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}
