// Package logging provides structured slog logging with per-module log
// levels. Output goes to stdout (text or json) and to the systemd journal
// when one is listening. Initialize once at startup, then fetch module
// loggers with GetLogger:
//
//	logging.Initialize(logging.Config{Level: "info", Format: "text"})
//	logger := logging.GetLogger("scenes")
//	logger.Info("Scene activated", "scene", name)
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu              sync.Mutex
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    = Config{Level: "info", Format: "text"}
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Initialize sets up the logging system and re-levels any loggers created
// before the config was available.
func Initialize(config Config) {
	mu.Lock()
	defer mu.Unlock()

	globalConfig = config

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(levelFor(module, config))
		moduleLoggers[module] = slog.New(newHandler(config.Format, levelVar)).With("module", module)
	}

	defaultVar := &slog.LevelVar{}
	defaultVar.Set(parseLevel(config.Level))
	slog.SetDefault(slog.New(newHandler(config.Format, defaultVar)))
}

// GetLogger returns the logger for a module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(levelFor(module, globalConfig))

	logger := slog.New(newHandler(globalConfig.Format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// SetModuleLevel changes a module's level at runtime.
func SetModuleLevel(module, level string) {
	mu.Lock()
	defer mu.Unlock()
	if levelVar, ok := moduleLevelVars[module]; ok {
		levelVar.Set(parseLevel(level))
	}
}

// levelFor resolves the effective level for a module: module override
// first, global level otherwise.
func levelFor(module string, config Config) slog.Level {
	if override, ok := config.Modules[module]; ok {
		return parseLevel(override)
	}
	return parseLevel(config.Level)
}

// newHandler builds the handler chain: stdout always, journal when a
// journald socket is present.
func newHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	if IsJournalAvailable() {
		return newTeeHandler(stdout, NewJournalHandler(level))
	}
	return stdout
}

// parseLevel converts a level name to slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
