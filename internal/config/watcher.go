package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ravnco/userdemo/internal/logging"
)

// Watcher monitors the .env file in the data directory and applies
// log-level and log-format changes at runtime. Other settings require a
// restart.
type Watcher struct {
	mu       sync.RWMutex
	config   *Config
	envPath  string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
}

// NewWatcher creates a watcher for the config's .env file.
func NewWatcher(cfg *Config) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:   cfg,
		envPath:  filepath.Join(cfg.DataDir, ".env"),
		watcher:  watcher,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching. The containing directory is watched so the file
// can be created or replaced atomically after startup.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.envPath)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	go w.watchForChanges()
	log.Info().Str("envPath", w.envPath).Msg("Watching .env for logging changes")
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	select {
	case <-w.stopChan:
		return
	default:
		close(w.stopChan)
	}
	w.watcher.Close()
}

func (w *Watcher) watchForChanges() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != ".env" {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			// Debounce: wait for the write to complete.
			time.Sleep(100 * time.Millisecond)
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Config watcher error")
		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) reload() {
	env, err := godotenv.Read(w.envPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("file", w.envPath).Msg("Failed to re-read .env file")
		}
		return
	}

	level := env["USERDEMO_LOG_LEVEL"]
	format := env["USERDEMO_LOG_FORMAT"]

	if level == "" && format == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if level != "" && level != w.config.LogLevel {
		log.Info().Str("old", w.config.LogLevel).Str("new", level).Msg("Applying log level change")
		w.config.LogLevel = level
		logging.SetLevel(level)
	}
	if format != "" && format != w.config.LogFormat {
		log.Info().Str("old", w.config.LogFormat).Str("new", format).Msg("Applying log format change")
		w.config.LogFormat = format
		logging.Init(logging.Config{
			Format:    w.config.LogFormat,
			Level:     w.config.LogLevel,
			Component: "userdemo",
		})
	}
}

// LoggingSettings returns the current log level and format, synchronized
// with watcher-applied updates.
func (w *Watcher) LoggingSettings() (level, format string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config.LogLevel, w.config.LogFormat
}
