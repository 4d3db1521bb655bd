package mpv

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/player"
	"github.com/supersonic-app/go-mpv"
)

// Error returned by many surface functions if called before the surface has been initialized.
var ErrUnitialized error = errors.New("mpv surface uninitialized")

// reply userdata of observed properties
const (
	propPausedForCache uint64 = iota + 1
	propEOFReached
	propWindowMinimized
)

// Options common to both surfaces.
type Options struct {
	// Name the surface reports to the system audio API / window manager.
	ClientName string
	// Upper bound of the in-memory demuxer cache.
	MaxCacheMB int

	Logger *log.Logger
}

// surface is the mpv handle and event plumbing shared by the audio and video surfaces.
type surface struct {
	mpv         *mpv.Mpv
	initialized bool
	opts        Options
	log         *log.Logger

	mutex   sync.Mutex
	src     string
	stalled bool

	events     *player.BufferEventsCallbackImpl
	onProperty func(id uint64, src string)

	bgCancel context.CancelFunc
}

func (s *surface) configure(name string, opts Options, events *player.BufferEventsCallbackImpl) {
	l := opts.Logger
	if l == nil {
		l = log.Default()
	}
	s.opts = opts
	s.log = l.WithPrefix("mpv/" + name)
	s.events = events
}

// init creates and initializes the mpv instance with the surface-specific
// options applied after the common ones.
func (s *surface) init(options [][2]string, observe map[uint64]string) error {
	if s.initialized {
		return nil
	}
	m := mpv.Create()

	m.SetOptionString("idle", "yes")
	m.SetOptionString("keep-open", "yes")
	m.SetOptionString("pause", "yes")
	m.SetOptionString("force-seekable", "yes")
	m.SetOptionString("terminal", "no")

	// limit in-memory cache size
	if s.opts.MaxCacheMB > 0 {
		maxBackMB := s.opts.MaxCacheMB / 3
		maxForwardMB := maxBackMB + maxBackMB
		m.SetOptionString("demuxer-max-bytes", fmt.Sprintf("%dMiB", maxForwardMB))
		m.SetOptionString("demuxer-max-back-bytes", fmt.Sprintf("%dMiB", maxBackMB))
	}
	for _, o := range options {
		if err := m.SetOptionString(o[0], o[1]); err != nil {
			s.log.Warn("failed to set mpv option", "option", o[0], "value", o[1], "err", err)
		}
	}

	m.ObserveProperty(propPausedForCache, "paused-for-cache", mpv.FORMAT_FLAG)
	for id, name := range observe {
		m.ObserveProperty(id, name, mpv.FORMAT_FLAG)
	}

	if err := m.Initialize(); err != nil {
		return fmt.Errorf("error initializing mpv: %s", err.Error())
	}
	s.mpv = m

	ctx, cancel := context.WithCancel(context.Background())
	go s.eventHandler(ctx)
	s.bgCancel = cancel
	s.initialized = true
	return nil
}

func (s *surface) load(url string) error {
	if !s.initialized {
		return ErrUnitialized
	}
	// the pause flag persists across files; a new file must not start on its own
	if err := s.mpv.SetProperty("pause", mpv.FORMAT_FLAG, true); err != nil {
		return err
	}
	s.mutex.Lock()
	s.src = url
	s.stalled = false
	s.mutex.Unlock()
	return s.mpv.Command([]string{"loadfile", url, "replace"})
}

func (s *surface) setPaused(paused bool) error {
	if !s.initialized {
		return ErrUnitialized
	}
	return s.mpv.SetProperty("pause", mpv.FORMAT_FLAG, paused)
}

func (s *surface) seek(secs float64) error {
	if !s.initialized {
		return ErrUnitialized
	}
	target := fmt.Sprintf("%0.3f", secs)
	return s.mpv.Command([]string{"seek", target, "absolute"})
}

// playbackTime returns false if mpv has no position (nothing loaded).
func (s *surface) playbackTime() (float64, bool) {
	if !s.initialized {
		return 0, false
	}
	pos, err := s.mpv.GetProperty("playback-time", mpv.FORMAT_DOUBLE)
	if err != nil || pos == nil {
		return 0, false
	}
	return pos.(float64), true
}

func (s *surface) flag(name string) bool {
	v, err := s.mpv.GetProperty(name, mpv.FORMAT_FLAG)
	if err != nil || v == nil {
		return false
	}
	return v.(bool)
}

func (s *surface) currentSrc() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.src
}

func (s *surface) destroy() {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	if s.initialized {
		s.mpv.Command([]string{"stop"})
		s.mpv.TerminateDestroy()
		s.initialized = false
	}
}

// handles a change of paused-for-cache, firing rebuffer/buffer-end on edges
func (s *surface) cacheStateChanged(src string) {
	stalled := s.flag("paused-for-cache")
	s.mutex.Lock()
	changed := stalled != s.stalled
	s.stalled = stalled
	s.mutex.Unlock()
	if !changed {
		return
	}
	if stalled {
		s.log.Debug("stalled on cache", "src", src)
		s.events.InvokeOnBufferStart(src)
	} else {
		s.events.InvokeOnBufferEnd(src)
	}
}

func (s *surface) eventHandler(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			e := s.mpv.WaitEvent(1 /*timeout seconds*/)
			src := s.currentSrc()
			switch e.Event_Id {
			case mpv.EVENT_FILE_LOADED:
				s.log.Debug("file loaded", "src", src)
				s.events.InvokeOnReady(src)
			case mpv.EVENT_PROPERTY_CHANGE:
				if e.Reply_Userdata == propPausedForCache {
					s.cacheStateChanged(src)
				} else if s.onProperty != nil {
					s.onProperty(e.Reply_Userdata, src)
				}
			}
		}
	}
}
