package backend

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/avsync"
	"github.com/dweymouth/duoplay/backend/mediaprovider/httpsource"
	"github.com/dweymouth/duoplay/sharedutil"
	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

type AppConfig struct {
	AllowMultiInstance bool
	LogLevel           string
	// Log to this file instead of stderr, if set.
	LogFile string
}

type LocalPlaybackConfig struct {
	AudioDeviceName     string
	InMemoryCacheSizeMB int
	Volume              int
}

type PlaybackConfig struct {
	Loop bool
}

type SyncConfig struct {
	ReadyPollIntervalMS    int
	PositionPollIntervalMS int
	DriftToleranceSecs     float64
	SettleSecs             float64
}

type ItemSourceConfig struct {
	URL string
	// Look up the API token in the system keyring.
	UseKeyring bool
	// Only video streams of this MIME type are offered. Empty allows any.
	VideoMimeType string
	RetryMax      int
	TimeoutSecs   int
}

type Config struct {
	Application   AppConfig
	LocalPlayback LocalPlaybackConfig
	Playback      PlaybackConfig
	Sync          SyncConfig
	ItemSource    ItemSourceConfig
}

func DefaultConfig() *Config {
	return &Config{
		Application: AppConfig{
			AllowMultiInstance: false,
			LogLevel:           "info",
		},
		LocalPlayback: LocalPlaybackConfig{
			// "auto" is the name to pass to MPV for autoselecting the output device
			AudioDeviceName:     "auto",
			InMemoryCacheSizeMB: 60,
			Volume:              100,
		},
		Sync: SyncConfig{
			ReadyPollIntervalMS:    350,
			PositionPollIntervalMS: 250,
			DriftToleranceSecs:     0.25,
			SettleSecs:             3,
		},
		ItemSource: ItemSourceConfig{
			URL:           httpsource.DefaultURL,
			UseKeyring:    true,
			VideoMimeType: httpsource.DefaultVideoMime,
			RetryMax:      2,
			TimeoutSecs:   15,
		},
	}
}

// Normalize clamps out-of-range values and normalizes the item source URL.
func (c *Config) Normalize() {
	d := DefaultConfig()
	c.LocalPlayback.Volume = sharedutil.Clamp(c.LocalPlayback.Volume, 0, 100)
	c.LocalPlayback.InMemoryCacheSizeMB = sharedutil.Clamp(c.LocalPlayback.InMemoryCacheSizeMB, 10, 500)
	if c.Sync.ReadyPollIntervalMS <= 0 {
		c.Sync.ReadyPollIntervalMS = d.Sync.ReadyPollIntervalMS
	}
	if c.Sync.PositionPollIntervalMS <= 0 {
		c.Sync.PositionPollIntervalMS = d.Sync.PositionPollIntervalMS
	}
	if c.Sync.DriftToleranceSecs <= 0 {
		c.Sync.DriftToleranceSecs = d.Sync.DriftToleranceSecs
	}
	if c.Sync.SettleSecs <= 0 {
		c.Sync.SettleSecs = d.Sync.SettleSecs
	}
	c.ItemSource.URL = NormalizeServerURL(c.ItemSource.URL)
	if c.ItemSource.URL == "" {
		c.ItemSource.URL = d.ItemSource.URL
	}
	c.ItemSource.RetryMax = max(c.ItemSource.RetryMax, 0)
}

// AVSync returns the synchronization core settings.
func (c SyncConfig) AVSync(logger *log.Logger) avsync.Config {
	return avsync.Config{
		ReadyPollInterval: time.Duration(c.ReadyPollIntervalMS) * time.Millisecond,
		DriftTolerance:    c.DriftToleranceSecs,
		SettlePeriod:      c.SettleSecs,
		Logger:            logger,
	}
}

func ReadConfigFile(fsys afero.Fs, filepath string) (*Config, error) {
	f, err := fsys.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := DefaultConfig()
	if err := toml.NewDecoder(f).Decode(c); err != nil {
		return nil, err
	}
	c.Normalize()
	return c, nil
}

// LoadConfig reads the config file at path. If it is missing, the defaults
// are returned with firstLaunch set. If it cannot be parsed it is copied to
// "<path>.bak" and the defaults are returned.
func LoadConfig(fsys afero.Fs, path string, logger *log.Logger) (cfg *Config, firstLaunch bool) {
	cfg, err := ReadConfigFile(fsys, path)
	if err == nil {
		return cfg, false
	}
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), true
	}
	logger.Error("error reading app config file", "path", path, "err", err)
	backup := path + ".bak"
	logger.Warn("config file may be malformed, backing it up", "backup", backup)
	if b, err := afero.ReadFile(fsys, path); err == nil {
		if err := afero.WriteFile(fsys, backup, b, 0644); err != nil {
			logger.Error("failed to back up config file", "err", err)
		}
	}
	return DefaultConfig(), false
}

var writeLock sync.Mutex

func (c *Config) WriteConfigFile(fsys afero.Fs, filepath string) error {
	if !writeLock.TryLock() {
		return nil // another write in progress
	}
	defer writeLock.Unlock()

	b, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return afero.WriteFile(fsys, filepath, b, 0644)
}

// WatchConfigFile calls onChange with the re-read config whenever the file at
// path is written, until ctx is cancelled. Unparseable revisions are skipped.
func WatchConfigFile(ctx context.Context, fsys afero.Fs, path string, logger *log.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// editors often replace the file, so watch the directory
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "err", err)
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				cfg, err := ReadConfigFile(fsys, path)
				if err != nil {
					logger.Warn("ignoring unreadable config revision", "err", err)
					continue
				}
				logger.Debug("config file changed", "path", path)
				onChange(cfg)
			}
		}
	}()
	return nil
}
