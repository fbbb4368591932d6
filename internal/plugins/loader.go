// Package plugins loads externally supplied capabilities from shared
// objects. The loader is an untrusted boundary: a plugin that fails to
// open, lacks the entry symbol, or errors during OnLoad is skipped and
// logged, never fatal to the session.
package plugins

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"

	"scenecast/internal/pipeline"
)

// EntrySymbol is the exported symbol every plugin must provide, with type
// func() Capability.
const EntrySymbol = "NewCapability"

// Capability is the stable interface plugins implement.
type Capability interface {
	// OnLoad runs once after the plugin is opened, before it sees the
	// graph. An error here rejects the plugin.
	OnLoad() error
	// Attach hands the plugin the pipeline facade.
	Attach(g pipeline.Graph) error
}

// Loader discovers and holds loaded capabilities for one session.
type Loader struct {
	dir    string
	logger *slog.Logger
	loaded []loadedPlugin
}

type loadedPlugin struct {
	path       string
	capability Capability
}

// NewLoader creates a loader over a plugin directory.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// LoadAll opens every *.so file in the plugin directory. Per-file failures
// are logged and skipped; only a missing directory is an error.
func (l *Loader) LoadAll() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("plugin directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".so" {
			continue
		}
		path := filepath.Join(l.dir, entry.Name())
		c, err := open(path)
		if err != nil {
			l.logger.Warn("Skipping plugin", "path", path, "error", err)
			continue
		}
		if err := c.OnLoad(); err != nil {
			l.logger.Warn("Plugin rejected during OnLoad", "path", path, "error", err)
			continue
		}
		l.loaded = append(l.loaded, loadedPlugin{path: path, capability: c})
		l.logger.Info("Plugin loaded", "path", path)
	}
	return nil
}

// AttachAll hands the graph to every loaded capability. Attach failures
// are aggregated into the return but do not stop later plugins.
func (l *Loader) AttachAll(g pipeline.Graph) error {
	var firstErr error
	for _, p := range l.loaded {
		if err := p.capability.Attach(g); err != nil {
			l.logger.Warn("Plugin attach failed", "path", p.path, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("attach %s: %w", p.path, err)
			}
		}
	}
	return firstErr
}

// Count returns how many plugins are loaded.
func (l *Loader) Count() int { return len(l.loaded) }

func open(path string) (Capability, error) {
	lib, err := plugin.Open(path)
	if err != nil {
		return nil, err
	}
	sym, err := lib.Lookup(EntrySymbol)
	if err != nil {
		return nil, err
	}
	entry, ok := sym.(func() Capability)
	if !ok {
		return nil, fmt.Errorf("symbol %s has type %T, want func() Capability", EntrySymbol, sym)
	}
	c := entry()
	if c == nil {
		return nil, fmt.Errorf("symbol %s returned nil capability", EntrySymbol)
	}
	return c, nil
}
