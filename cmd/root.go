// Package cmd implements the voicevault command line interface.
package cmd

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voicevault/voicevault/internal/archive"
	"github.com/voicevault/voicevault/internal/capture"
	"github.com/voicevault/voicevault/internal/conf"
	"github.com/voicevault/voicevault/internal/datastore"
	"github.com/voicevault/voicevault/internal/logging"
	"github.com/voicevault/voicevault/internal/notification"
)

var configPath string

// RootCommand creates and returns the root command
func RootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voicevault",
		Short: "Personal voice-recording archive",
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(
		serveCommand(),
		recordCommand(),
		listCommand(),
		cutCommand(),
		devicesCommand(),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		settings, err := conf.Load(configPath)
		if err != nil {
			return err
		}
		logging.Init(logLevel(settings))
		return nil
	}

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return RootCommand().Execute()
}

func logLevel(settings *conf.Settings) slog.Level {
	if settings.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(settings.Main.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// app bundles the wired core services for the commands.
type app struct {
	settings *conf.Settings
	store    datastore.Interface
	notifier *notification.Service
	archive  *archive.Service
	capture  *capture.Manager
}

// buildApp wires the core: store, entry cache (loaded, possibly degraded to
// ephemeral mode), capture manager and notification service.
func buildApp(cmd *cobra.Command) (*app, error) {
	settings := conf.Setting()

	notifier := notification.NewService(&notification.ServiceConfig{
		Debug: settings.Debug,
	})

	store := datastore.NewSQLiteStore(settings)
	archiveSvc := archive.NewService(store, notifier, "playback")
	if err := archiveSvc.Load(cmd.Context()); err != nil {
		notifier.Stop()
		return nil, err
	}

	captureMgr := capture.NewManager(capture.NewMalgoAcquirer(settings), archiveSvc)

	return &app{
		settings: settings,
		store:    store,
		notifier: notifier,
		archive:  archiveSvc,
		capture:  captureMgr,
	}, nil
}

func (a *app) close() {
	a.archive.Close()
	a.notifier.Stop()
	if err := a.store.Close(); err != nil {
		logging.Error("failed to close store", "error", err)
	}
}
