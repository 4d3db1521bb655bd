package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/20after4/configdir"
	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/avsync"
	"github.com/dweymouth/duoplay/backend/ipc"
	"github.com/dweymouth/duoplay/backend/mediaprovider/httpsource"
	"github.com/dweymouth/duoplay/backend/player/mpv"
	"github.com/spf13/afero"
)

const (
	configFile  = "config.toml"
	portableDir = "duoplay_portable"

	// KeyringTokenUser is the keyring user under which the item source token is stored.
	KeyringTokenUser = "itemsource-token"
)

var ErrAnotherInstance = errors.New("another instance is running")

type App struct {
	Config       *Config
	Loop         *avsync.Loop
	Session      *avsync.Session
	Audio        *mpv.AudioSurface
	Video        *mpv.VideoSurface
	Source       *httpsource.Source
	MPRISHandler *MPRISHandler
	Refs         *RefList

	// Called on the session loop with the "elapsed / duration" readout
	// whenever the clock moves. Set in main.
	OnReadout func(readout string)

	appName      string
	configDir    string
	portableMode bool
	fs           afero.Fs
	log          *log.Logger
	logCloser    io.Closer

	isFirstLaunch bool
	bgrndCtx      context.Context
	cancel        context.CancelFunc

	ipcServer *http.Server
	quitOnce  sync.Once
	quit      chan struct{}
}

// StartupApp initializes the surfaces and the synchronization session and
// starts the OS integrations. If another instance is already running, refs
// are handed over to it and ErrAnotherInstance is returned.
func StartupApp(appName, displayAppName string, refs []string) (*App, error) {
	var confDir string
	portableMode := false
	if p := checkPortablePath(); p != "" {
		confDir = path.Join(p, "config")
		portableMode = true
	} else {
		confDir = configdir.LocalConfig(appName)
	}
	// ensure config dir exists
	configdir.MakePath(confDir)

	a := &App{
		appName:      appName,
		configDir:    confDir,
		portableMode: portableMode,
		fs:           afero.NewOsFs(),
		quit:         make(chan struct{}),
	}
	a.readConfig()

	logger, closer, err := NewLogger(a.fs, a.Config.Application)
	if err != nil {
		return nil, err
	}
	a.log, a.logCloser = logger, closer

	if !a.Config.Application.AllowMultiInstance {
		if cli, err := ipc.Connect(); err == nil {
			a.log.Info("Another instance is running. Handing over", "refs", len(refs))
			for _, ref := range refs {
				if err := cli.Open(ref); err != nil {
					a.log.Error("failed to hand over item", "ref", ref, "err", err)
				}
			}
			cli.Show()
			closer.Close()
			return nil, ErrAnotherInstance
		}
	}

	a.log.Info("Starting", "app", appName, "portable", portableMode)
	a.log.Info("Using config dir", "dir", confDir)

	a.bgrndCtx, a.cancel = context.WithCancel(context.Background())

	if err := a.initMPV(); err != nil {
		return nil, err
	}
	a.setupSource()
	a.Refs = NewRefList(refs)

	a.MPRISHandler = NewMPRISHandler(displayAppName)
	a.Loop = avsync.NewLoop()
	a.Session = avsync.NewSession(a.Config.Sync.AVSync(a.log), avsync.Deps{
		Audio:          a.Audio,
		Video:          a.Video,
		NowPlaying:     newSleepGuard(a.MPRISHandler),
		Visibility:     a.Video,
		Source:         a.Source,
		Scheduler:      a.Loop,
		Dispatch:       a.Loop.Dispatch,
		DispatchLatest: a.Loop.DispatchLatest,
		Hooks: avsync.Hooks{
			Advance:  a.advance,
			Previous: a.previous,
			Ended:    a.advance,
		},
	})
	a.Loop.Do(func() {
		a.Session.Transport.SetLoop(a.Config.Playback.Loop)
		a.Session.OnTimeUpdate(func(pos, dur float64) {
			if a.OnReadout != nil {
				a.OnReadout(avsync.FormatReadout(pos, dur))
			}
		})
	})

	a.setupMPRIS()
	if err := a.startIPC(); err != nil {
		a.log.Warn("IPC unavailable", "err", err)
	}
	if err := WatchConfigFile(a.bgrndCtx, a.fs, a.configFilePath(), a.log.WithPrefix("config"), a.applyConfigChange); err != nil {
		a.log.Warn("not watching config file", "err", err)
	}
	return a, nil
}

// Start begins playback of the first ref, if any.
func (a *App) Start() {
	a.Loop.Do(func() {
		a.Session.Transport.Play()
		a.advance()
	})
}

// Wait blocks until a quit is requested.
func (a *App) Wait() <-chan struct{} {
	return a.quit
}

// Quit requests shutdown. Safe to call more than once, from any goroutine.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

func (a *App) IsFirstLaunch() bool {
	return a.isFirstLaunch
}

func (a *App) IsPortableMode() bool {
	return a.portableMode
}

func checkPortablePath() string {
	if p, err := os.Executable(); err == nil {
		pdirPath := path.Join(filepath.Dir(p), portableDir)
		if s, err := os.Stat(pdirPath); err == nil && s.IsDir() {
			return pdirPath
		}
	}
	return ""
}

func (a *App) readConfig() {
	cfg, first := LoadConfig(a.fs, a.configFilePath(), log.Default())
	a.Config = cfg
	a.isFirstLaunch = first
}

func (a *App) initMPV() error {
	c := a.Config.LocalPlayback
	opts := mpv.Options{
		ClientName: a.appName,
		MaxCacheMB: c.InMemoryCacheSizeMB,
		Logger:     a.log,
	}

	a.Audio = mpv.NewAudioSurface(opts)
	a.Audio.PositionPollInterval = time.Duration(a.Config.Sync.PositionPollIntervalMS) * time.Millisecond
	a.Audio.SetVolume(float64(c.Volume) / 100)
	if err := a.Audio.Init(); err != nil {
		return fmt.Errorf("failed to initialize audio surface: %w", err)
	}

	a.Video = mpv.NewVideoSurface(opts)
	if err := a.Video.Init(); err != nil {
		a.Audio.Destroy()
		return fmt.Errorf("failed to initialize video surface: %w", err)
	}

	devs, err := a.Audio.ListAudioDevices()
	if err != nil {
		return err
	}
	desiredDevice := c.AudioDeviceName
	var desiredDeviceAvailable bool
	for _, dev := range devs {
		if dev.Name == desiredDevice {
			desiredDeviceAvailable = true
			break
		}
	}
	if !desiredDeviceAvailable {
		// Keep the setting, the device may be available on a later run
		// (e.g. an unplugged USB audio device).
		a.log.Warn("configured audio device unavailable, using default", "device", desiredDevice)
		desiredDevice = "auto"
	}
	return a.Audio.SetAudioDevice(desiredDevice)
}

func (a *App) setupSource() {
	c := a.Config.ItemSource
	var token string
	if c.UseKeyring && !a.portableMode {
		t, err := httpsource.TokenFromKeyring(a.appName, KeyringTokenUser)
		if err != nil {
			a.log.Warn("error reading keyring credentials", "err", err)
		}
		token = t
	}
	a.Source = httpsource.New(httpsource.Options{
		URL:       c.URL,
		Token:     token,
		VideoMime: c.VideoMimeType,
		RetryMax:  c.RetryMax,
		Timeout:   time.Duration(c.TimeoutSecs) * time.Second,
		Logger:    a.log,
	})
	go func() {
		ctx, cancel := context.WithTimeout(a.bgrndCtx, 5*time.Second)
		defer cancel()
		if err := a.Source.Ping(ctx); err != nil {
			a.log.Warn("item source unreachable", "url", c.URL, "err", err)
		}
	}()
}

func (a *App) setupMPRIS() {
	a.MPRISHandler.VolumeChanged(a.Audio.Volume())
	a.MPRISHandler.LoopChanged(a.Config.Playback.Loop)
	a.MPRISHandler.OnRaise = func() error { a.Show(); return nil }
	a.MPRISHandler.OnQuit = func() error {
		go a.Quit()
		return nil
	}
	a.MPRISHandler.OnSetVolume = func(v float64) { a.SetVolume(v) }
	a.MPRISHandler.OnSetLoop = func(l bool) { a.SetLoop(&l) }
	a.MPRISHandler.Start()
}

func (a *App) startIPC() error {
	listener, err := ipc.Listen()
	if err != nil {
		return err
	}
	a.ipcServer = ipc.NewServer(a, a, a.log)
	go func() {
		if err := a.ipcServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
			a.log.Error("IPC server stopped", "err", err)
		}
	}()
	return nil
}

// applies live-editable settings from a re-read config file
func (a *App) applyConfigChange(cfg *Config) {
	if cfg.LocalPlayback.Volume != a.volumePct() {
		a.SetVolume(float64(cfg.LocalPlayback.Volume) / 100)
	}
	loop := cfg.Playback.Loop
	a.SetLoop(&loop)
}

// session hooks, invoked on the loop

func (a *App) advance() {
	ref, ok := a.Refs.Next()
	if !ok {
		a.log.Info("reached end of item list")
		a.Session.Transport.Pause()
		return
	}
	a.Session.Open(a.bgrndCtx, ref)
}

func (a *App) previous() {
	ref, ok := a.Refs.Previous()
	if !ok {
		a.Session.Transport.SeekTo(0)
		return
	}
	a.Session.Open(a.bgrndCtx, ref)
}

// ipc.PlaybackHandler implementation

var _ ipc.PlaybackHandler = (*App)(nil)

func (a *App) Open(ref string) error {
	a.Loop.Do(func() {
		a.Refs.Insert(ref)
		a.Session.Open(a.bgrndCtx, ref)
	})
	return nil
}

func (a *App) Play() error {
	return a.onLoop(func() { a.Session.Transport.Play() })
}

func (a *App) Pause() error {
	return a.onLoop(func() { a.Session.Transport.Pause() })
}

func (a *App) PlayPause() error {
	return a.onLoop(func() { a.Session.Transport.TogglePlay() })
}

func (a *App) Next() error {
	return a.onLoop(func() { a.Session.Transport.Skip() })
}

func (a *App) Previous() error {
	return a.onLoop(func() { a.Session.Transport.Previous() })
}

func (a *App) SeekTo(secs float64) error {
	return a.onLoop(func() { a.Session.Transport.OnScrub(secs) })
}

func (a *App) SeekBy(secs float64) error {
	return a.onLoop(func() { a.Session.Transport.SeekBy(secs) })
}

func (a *App) SetLoop(on *bool) (bool, error) {
	var loop bool
	err := a.onLoop(func() {
		if on == nil {
			loop = a.Session.Transport.ToggleLoop()
		} else {
			a.Session.Transport.SetLoop(*on)
			loop = *on
		}
	})
	if err == nil {
		a.Config.Playback.Loop = loop
		a.MPRISHandler.LoopChanged(loop)
	}
	return loop, err
}

func (a *App) SetVolume(vol float64) (float64, error) {
	var applied float64
	err := a.onLoop(func() { applied = a.Session.Transport.SetVolume(vol) })
	if err == nil {
		a.Config.LocalPlayback.Volume = int(math.Round(applied * 100))
		a.MPRISHandler.VolumeChanged(applied)
	}
	return applied, err
}

func (a *App) Status() ipc.Status {
	var st ipc.Status
	a.Loop.Do(func() {
		s := a.Session.State()
		st = ipc.Status{
			ItemID:   s.Item.ID,
			Playing:  s.Active[avsync.AudioSurface],
			Position: s.Position,
			Duration: s.Duration,
			Readout:  a.Session.Readout(),
			Volume:   a.Session.Clock.Volume(),
			Loop:     s.Loop,
			Visible:  s.Visible,
		}
		if item := a.Session.Item(); item != nil {
			st.Title = item.Title
		}
	})
	return st
}

// ipc.WindowHandler implementation

func (a *App) Show() {
	a.Video.SetVisible(true)
}

func (a *App) Hide() {
	a.Video.SetVisible(false)
}

var errShuttingDown = errors.New("shutting down")

// runs f on the session loop, failing if the loop has stopped
func (a *App) onLoop(f func()) error {
	ran := false
	a.Loop.Do(func() {
		f()
		ran = true
	})
	if !ran {
		return errShuttingDown
	}
	return nil
}

func (a *App) volumePct() int {
	var vol float64
	a.Loop.Do(func() { vol = a.Session.Clock.Volume() })
	return int(math.Round(vol * 100))
}

func (a *App) Shutdown() {
	a.log.Info("Running shutdown tasks...")
	a.MPRISHandler.Shutdown()
	if a.ipcServer != nil {
		a.ipcServer.Close()
		ipc.DestroyConn()
	}
	a.Config.LocalPlayback.Volume = a.volumePct()
	a.Loop.Do(func() { a.Session.Transport.Pause() })
	a.Loop.Stop()
	<-a.Loop.Done()
	SetSystemSleepDisabled(false)
	a.cancel()
	a.Audio.Destroy()
	a.Video.Destroy()
	if err := a.SaveConfigFile(); err != nil {
		a.log.Error("failed to write config file", "err", err)
	}
	a.logCloser.Close()
}

func (a *App) SaveConfigFile() error {
	return a.Config.WriteConfigFile(a.fs, a.configFilePath())
}

func (a *App) configFilePath() string {
	return path.Join(a.configDir, configFile)
}
