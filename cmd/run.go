package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"scenecast/internal/config"
	"scenecast/internal/encoders"
	"scenecast/internal/events"
	"scenecast/internal/logging"
	"scenecast/internal/pipeline"
	"scenecast/internal/session"
)

// CreateRunCmd creates the run command.
func CreateRunCmd() *cobra.Command {
	var configFile string
	var logJSON bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless compositing session",
		Long: `Builds the compositing and streaming graph from a session config file and runs it ` +
			`without the HTTP API. Handles encoder selection, scene layout, output attachment and ` +
			`adaptive bitrate until interrupted.`,
		Run: func(_ *cobra.Command, _ []string) {
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("run")

			sessionConfig, err := config.LoadSession(configFile)
			if err != nil {
				logger.Error("Failed to load session config", "error", err, "config", configFile)
				os.Exit(1)
			}

			sess, err := session.New(session.Options{
				Graph:  pipeline.NewMemoryGraph(),
				Config: sessionConfig,
				Bus:    events.New(),
				Probe:  encoders.NewSysfsProbe(),
				Logger: logging.GetLogger("session"),
			})
			if err != nil {
				logger.Error("Failed to create session", "error", err)
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := sess.Start(ctx); err != nil {
				logger.Error("Failed to start session", "error", err)
				os.Exit(1)
			}
			logger.Info("Session running",
				"config", configFile,
				"encoder", sess.EncoderMode().String(),
				"scenes", len(sessionConfig.Scenes),
				"outputs", len(sessionConfig.Destinations))

			if watch {
				watcher := config.NewWatcher(configFile, config.LoadSession, logging.GetLogger("config"))
				watcher.OnReload(func(cfg *config.SessionConfig) {
					sess.ReloadGeometry(cfg)
				})
				if err := watcher.Start(); err != nil {
					logger.Warn("Failed to watch session config", "error", err)
				} else {
					defer watcher.Stop()
				}
			}

			<-ctx.Done()
			logger.Info("Shutting down session")
			sess.Stop()
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "session.toml", "Path to session config file")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Output logs in JSON format")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload source geometry when the config file changes")

	return cmd
}
