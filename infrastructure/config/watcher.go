// This file implements hot reloading of configuration in development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches configuration files and hot reloads the configuration.
// It is only active in development; elsewhere it is a passive holder for
// the initial configuration.
type Watcher struct {
	config    *Config
	callbacks []func(*Config)
	mu        sync.RWMutex
	logger    *zap.Logger
	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewWatcher creates a configuration watcher around the initial config.
func NewWatcher(initial *Config, logger *zap.Logger) (*Watcher, error) {
	w := &Watcher{
		config:    initial,
		callbacks: make([]func(*Config), 0),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}

	// Only enable hot reloading in development
	if !initial.IsDevelopment() {
		logger.Info("Configuration hot reloading disabled",
			zap.String("environment", initial.Environment),
		)
		return w, nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = fsWatcher

	if err := w.watchConfigFiles(); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch config files: %w", err)
	}

	go w.watchLoop()

	logger.Info("Configuration hot reloading enabled",
		zap.String("environment", initial.Environment),
		zap.String("config_dir", ConfigDir()),
	)

	return w, nil
}

// watchConfigFiles adds the overlay directory and the .env file to the
// watcher.
func (w *Watcher) watchConfigFiles() error {
	configDir := ConfigDir()

	if _, err := os.Stat(configDir); err == nil {
		err := filepath.Walk(configDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip files we can't access
			}
			if info.IsDir() || isConfigFile(path) {
				if err := w.watcher.Add(path); err != nil {
					w.logger.Warn("Failed to watch file",
						zap.String("path", path),
						zap.Error(err),
					)
				} else {
					w.logger.Debug("Watching config file",
						zap.String("path", path),
					)
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk config directory: %w", err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := w.watcher.Add(".env"); err != nil {
			w.logger.Warn("Failed to watch env file", zap.Error(err))
		}
	}

	return nil
}

// watchLoop monitors for file changes and triggers reloads.
func (w *Watcher) watchLoop() {
	defer w.watcher.Close()

	// Debounce timer to avoid multiple rapid reloads
	var debounceTimer *time.Timer
	const debounceDelay = 500 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isConfigFile(event.Name) {
				continue
			}

			w.logger.Info("Configuration file changed",
				zap.String("file", event.Name),
				zap.String("operation", event.Op.String()),
			)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				w.reload()
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))

		case <-w.stopCh:
			w.logger.Info("Stopping configuration watcher")
			return
		}
	}
}

// reload re-runs the full load sequence and swaps the configuration in when
// it changed and validates.
func (w *Watcher) reload() {
	w.logger.Info("Reloading configuration...")

	newConfig, err := LoadConfig()
	if err != nil {
		w.logger.Error("Invalid configuration after reload", zap.Error(err))
		return
	}

	w.mu.Lock()
	oldConfig := w.config
	if configsEqual(oldConfig, newConfig) {
		w.mu.Unlock()
		w.logger.Debug("Configuration unchanged after reload")
		return
	}
	w.config = newConfig
	w.mu.Unlock()

	w.logConfigChanges(oldConfig, newConfig)
	w.notifyCallbacks(newConfig)

	w.logger.Info("Configuration reloaded successfully",
		zap.Int("callbacks_notified", len(w.callbacks)),
	)
}

// OnChange registers a callback to be called when configuration changes.
func (w *Watcher) OnChange(callback func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, callback)
	w.mu.Unlock()
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Stop stops the configuration watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

// notifyCallbacks runs callbacks in goroutines so a slow consumer cannot
// block the watch loop.
func (w *Watcher) notifyCallbacks(newConfig *Config) {
	w.mu.RLock()
	callbacks := make([]func(*Config), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for i, callback := range callbacks {
		go func(idx int, cb func(*Config)) {
			defer func() {
				if r := recover(); r != nil {
					w.logger.Error("Config change callback panicked",
						zap.Int("callback_index", idx),
						zap.Any("panic", r),
					)
				}
			}()
			cb(newConfig)
		}(i, callback)
	}
}

// configsEqual compares the hot-reloadable parts of two configurations.
func configsEqual(a, b *Config) bool {
	return a.Logging.Level == b.Logging.Level &&
		a.LLM.Provider == b.LLM.Provider &&
		a.LLM.Model == b.LLM.Model &&
		a.LLM.Temperature == b.LLM.Temperature &&
		a.LLM.MaxTokens == b.LLM.MaxTokens &&
		a.Limits == b.Limits
}

// logConfigChanges logs what changed between configurations.
func (w *Watcher) logConfigChanges(old, new *Config) {
	changes := make([]string, 0)

	if old.Logging.Level != new.Logging.Level {
		changes = append(changes, fmt.Sprintf("log level: %s -> %s", old.Logging.Level, new.Logging.Level))
	}
	if old.LLM.Model != new.LLM.Model {
		changes = append(changes, fmt.Sprintf("model: %s -> %s", old.LLM.Model, new.LLM.Model))
	}
	if old.Limits != new.Limits {
		changes = append(changes, fmt.Sprintf("limits: %+v -> %+v", old.Limits, new.Limits))
	}

	if len(changes) > 0 {
		w.logger.Info("Configuration changes detected",
			zap.Strings("changes", changes),
		)
	}
}

// isConfigFile checks if a file is a configuration file.
func isConfigFile(path string) bool {
	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".env":
		return true
	}
	return filepath.Base(path) == ".env"
}
