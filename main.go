package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/danielgtaylor/huma/v2/humacli"
	"scenecast/cmd"
	"scenecast/internal/api"
	"scenecast/internal/config"
	"scenecast/internal/encoders"
	"scenecast/internal/events"
	"scenecast/internal/logging"
	"scenecast/internal/metrics"
	"scenecast/internal/pipeline"
	"scenecast/internal/session"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Session settings
	SessionConfigFile string `help:"Session definition file (scenes, destinations, overlay)" default:"session.toml" toml:"session.config_file" env:"SESSION_CONFIG_FILE"`
	SessionWatch      bool   `help:"Reload source geometry when the session file changes" default:"false" toml:"session.watch" env:"SESSION_WATCH"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingScenes    string `help:"Scene switcher logging level" default:"info" toml:"logging.scenes" env:"LOGGING_SCENES"`
	LoggingEncoders  string `help:"Encoder selection logging level" default:"info" toml:"logging.encoders" env:"LOGGING_ENCODERS"`
	LoggingStreaming string `help:"Streaming controller logging level" default:"info" toml:"logging.streaming" env:"LOGGING_STREAMING"`
	LoggingOverlays  string `help:"Overlay logging level" default:"info" toml:"logging.overlays" env:"LOGGING_OVERLAYS"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"scenes":    opts.LoggingScenes,
				"encoders":  opts.LoggingEncoders,
				"streaming": opts.LoggingStreaming,
				"overlays":  opts.LoggingOverlays,
				"api":       opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")

		sessionConfig, err := config.LoadSession(opts.SessionConfigFile)
		if err != nil {
			logger.Error("Failed to load session config", "error", err, "config", opts.SessionConfigFile)
			os.Exit(1)
		}

		eventBus := events.New()

		sess, err := session.New(session.Options{
			Graph:  pipeline.NewMemoryGraph(),
			Config: sessionConfig,
			Bus:    eventBus,
			Probe:  encoders.NewSysfsProbe(),
			Logger: logging.GetLogger("session"),
		})
		if err != nil {
			logger.Error("Failed to create session", "error", err)
			os.Exit(1)
		}

		collector := metrics.NewCollector(eventBus,
			func() float64 { return float64(sess.Controller().BytesSent()) },
			func() float64 { return float64(sess.Controller().CurrentBitrate()) },
		)

		server := api.NewServer(&api.Options{
			Session:        sess,
			MetricsHandler: collector.Handler(),
			Logger:         logging.GetLogger("api"),
		})

		var watcher *config.Watcher[*config.SessionConfig]
		if opts.SessionWatch {
			watcher = config.NewWatcher(opts.SessionConfigFile, config.LoadSession, logging.GetLogger("config"))
			watcher.OnReload(func(cfg *config.SessionConfig) {
				sess.ReloadGeometry(cfg)
			})
		}

		hooks.OnStart(func() {
			if startErr := sess.Start(context.Background()); startErr != nil {
				logger.Error("Failed to start session", "error", startErr)
				os.Exit(1)
			}
			logger.Info("Session started",
				"encoder", sess.EncoderMode().String(),
				"scenes", len(sessionConfig.Scenes),
				"outputs", len(sessionConfig.Destinations))

			if watcher != nil {
				if watchErr := watcher.Start(); watchErr != nil {
					logger.Warn("Failed to watch session config", "error", watchErr)
				}
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if watcher != nil {
				if stopErr := watcher.Stop(); stopErr != nil {
					logger.Warn("Error stopping config watcher", "error", stopErr)
				}
			}
			sess.Stop()
			collector.Close()
		})
	})

	cli.Root().AddCommand(cmd.CreateRunCmd())
	cli.Root().AddCommand(cmd.CreateValidateCmd())

	cli.Run()
}
