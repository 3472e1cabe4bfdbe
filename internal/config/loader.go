package config

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Engine defaults applied when the file leaves a setting unset.
const (
	DefaultWorkers          = 8
	DefaultQueueDepth       = 1000
	DefaultRequestTimeoutMs = 2000
)

// Loader reads a hierarchy YAML file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *HierarchyConfig
	onChange []func(*HierarchyConfig)
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the watched file path.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *HierarchyConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the watcher reloads the file.
func (l *Loader) OnChange(fn func(*HierarchyConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the file on changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hierarchy watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("hierarchy watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					cfg, err := l.Reload()
					if err != nil {
						slog.Warn("hierarchy reload failed, keeping previous", "path", l.path, "err", err)
						continue
					}
					l.mu.RLock()
					callbacks := make([]func(*HierarchyConfig), len(l.onChange))
					copy(callbacks, l.onChange)
					l.mu.RUnlock()
					for _, fn := range callbacks {
						fn(cfg)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("hierarchy watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

// Reload forces an immediate re-read of the file. OnChange callbacks are not
// invoked; the caller applies the returned config itself.
func (l *Loader) Reload() (*HierarchyConfig, error) {
	cfg, err := Load(l.path)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Load reads and parses a hierarchy file without watching it.
func Load(path string) (*HierarchyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hierarchy %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse hierarchy %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML (or JSON) document and applies engine defaults.
func Parse(data []byte) (*HierarchyConfig, error) {
	var cfg HierarchyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = DefaultWorkers
	}
	if cfg.Engine.QueueDepth == 0 {
		cfg.Engine.QueueDepth = DefaultQueueDepth
	}
	if cfg.Engine.RequestTimeoutMs == 0 {
		cfg.Engine.RequestTimeoutMs = DefaultRequestTimeoutMs
	}
	return &cfg, nil
}
