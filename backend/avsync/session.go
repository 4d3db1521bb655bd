package avsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/mediaprovider"
	"github.com/dweymouth/duoplay/backend/player"
	"github.com/dweymouth/duoplay/sharedutil"
)

var ErrNoSource = errors.New("no item source configured")

// Deps are the collaborators of a Session. Audio, Video and Scheduler are
// required; the rest may be nil.
type Deps struct {
	Audio      player.AudioSurface
	Video      player.VideoSurface
	NowPlaying NowPlaying
	Visibility VisibilitySignal
	Source     mediaprovider.ItemSource
	Hooks      Hooks
	Scheduler  Scheduler

	// Dispatch runs f on the goroutine that owns the session. Surface and OS
	// callbacks are routed through it. Nil means callbacks already arrive
	// on the owning goroutine.
	Dispatch func(f func())
	// DispatchLatest is Dispatch for high-rate events, where a queued event
	// of the same kind may be replaced by a newer one. Nil means Dispatch.
	DispatchLatest func(kind string, f func())
}

// Session is the synchronization core for one player. All methods must be
// called on the goroutine that owns it (see Deps.Dispatch).
type Session struct {
	state State
	log   *log.Logger

	audio      player.AudioSurface
	video      player.VideoSurface
	nowPlaying NowPlaying
	source     mediaprovider.ItemSource
	dispatch   func(func())
	latest     func(string, func())

	Clock      *PlaybackClock
	Gate       *BufferGate
	Drift      *DriftCorrector
	Visibility *VisibilityGate
	Transport  *TransportController

	item       *mediaprovider.Item
	src        [numSurfaces]string
	pendingRef ItemKey
}

func NewSession(cfg Config, deps Deps) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		log:        cfg.Logger.WithPrefix("session"),
		audio:      deps.Audio,
		video:      deps.Video,
		nowPlaying: deps.NowPlaying,
		source:     deps.Source,
		dispatch:   deps.Dispatch,
		latest:     deps.DispatchLatest,
	}
	if s.nowPlaying == nil {
		s.nowPlaying = nopNowPlaying{}
	}
	if s.dispatch == nil {
		s.dispatch = func(f func()) { f() }
	}
	if s.latest == nil {
		s.latest = func(_ string, f func()) { s.dispatch(f) }
	}

	s.Visibility = newVisibilityGate(&s.state, cfg.Logger.WithPrefix("visibility"))
	s.Drift = newDriftCorrector(&s.state, s.video, cfg)
	s.Clock = newPlaybackClock(&s.state, s.audio, s.nowPlaying, s.Drift, cfg.Logger.WithPrefix("clock"))
	s.Gate = newBufferGate(&s.state, s.Clock, s.video, deps.Scheduler, cfg)
	s.Transport = newTransportController(&s.state, s.Clock, s.Gate, s.video, deps.Hooks, cfg.Logger.WithPrefix("transport"))

	s.wireSurfaces()
	if deps.Visibility != nil {
		deps.Visibility.OnVisibilityChange(func(visible bool) {
			s.dispatch(func() { s.Visibility.SetVisible(visible) })
		})
	}
	s.nowPlaying.RegisterTransportHandlers(s.Transport.Handlers().wrapped(s.dispatch))
	return s
}

func (s *Session) wireSurfaces() {
	s.audio.OnReady(s.readinessHandler(AudioSurface, TriggerLoadReady))
	s.audio.OnBufferEnd(s.readinessHandler(AudioSurface, TriggerBufferEnd))
	s.audio.OnBufferStart(s.readinessHandler(AudioSurface, TriggerRebuffer))
	s.video.OnReady(s.readinessHandler(VideoSurface, TriggerLoadReady))
	s.video.OnBufferEnd(s.readinessHandler(VideoSurface, TriggerBufferEnd))
	s.video.OnBufferStart(s.readinessHandler(VideoSurface, TriggerRebuffer))

	s.audio.OnTimeUpdate(func(src string, pos float64) {
		s.latest("timeupdate", func() { s.handleTimeUpdate(src, pos) })
	})
	s.audio.OnEnded(func(src string) {
		s.dispatch(func() { s.handleEnded(src) })
	})
}

func (s *Session) readinessHandler(surface Surface, trig Trigger) func(string) {
	return func(src string) {
		s.dispatch(func() { s.handleReadiness(surface, trig, src) })
	}
}

// State returns a copy of the session state.
func (s *Session) State() State {
	return s.state
}

// Item returns the currently loaded item, or nil.
func (s *Session) Item() *mediaprovider.Item {
	return s.item
}

// Readout returns the "elapsed / duration" display string.
func (s *Session) Readout() string {
	return FormatReadout(s.state.Position, s.state.Duration)
}

// OnTimeUpdate registers a listener for clock position changes.
func (s *Session) OnTimeUpdate(cb func(pos, dur float64)) {
	s.Clock.OnTimeUpdate(cb)
}

// Open resolves ref through the item source in the background and loads the
// result. A resolution that completes after another Open or LoadItem is
// discarded.
func (s *Session) Open(ctx context.Context, ref string) {
	if s.source == nil {
		s.log.Error("cannot open item", "ref", ref, "err", ErrNoSource)
		s.LoadItem(nil)
		return
	}
	key := newItemKey(ref)
	s.pendingRef = key
	s.log.Debug("resolving item", "ref", ref)
	go func() {
		item, err := s.source.Resolve(ctx, ref)
		s.dispatch(func() {
			if s.pendingRef != key {
				s.log.Debug("dropping stale resolution", "ref", ref)
				return
			}
			if err != nil {
				s.log.Error("failed to resolve item", "ref", ref, "err", err)
				item = nil
			}
			s.LoadItem(item)
		})
	}()
}

// LoadItem makes item the current item. All per-item state is reset; the
// playback intent carries over, so a playing session keeps playing once the
// new item's surfaces are ready. An item without candidate streams is
// reported as ended straight away.
func (s *Session) LoadItem(item *mediaprovider.Item) {
	s.pendingRef = ItemKey{}
	s.Gate.Cancel()
	if s.state.Active[AudioSurface] {
		s.Clock.Pause()
	}
	s.video.SetPlaying(false)
	s.Drift.resetStats()

	id, duration := "", 0.0
	if item != nil {
		id, duration = item.ID, item.Duration
	}
	s.state.reset(newItemKey(id), duration)
	s.item = item
	s.src = [numSurfaces]string{}

	if item == nil || len(item.Streams) == 0 {
		s.log.Warn("item has no candidate streams", "item", s.state.Item)
		s.Transport.invoke("ended", s.Transport.hooks.Ended)
		return
	}

	audio, video := mediaprovider.SelectStreams(item.Streams)
	if audio != nil {
		s.src[AudioSurface] = audio.URL
		if err := s.audio.Load(audio.URL); err != nil {
			s.log.Error("audio surface failed to load", "item", s.state.Item, "err", err)
		}
	} else {
		s.log.Warn("no audio stream", "item", s.state.Item)
	}
	if video != nil {
		s.src[VideoSurface] = video.URL
		if err := s.video.Load(video.URL); err != nil {
			s.log.Error("video surface failed to load", "item", s.state.Item, "err", err)
		}
	} else {
		s.log.Warn("no video stream", "item", s.state.Item)
	}
	s.log.Info("loaded item", "item", s.state.Item, "title", item.Title)

	s.nowPlaying.SetMetadata(metadataForItem(item))
	s.Clock.publishPosition()
	s.Clock.notify()

	if s.state.Intent {
		s.Gate.RequestResume()
	}
}

func (s *Session) handleReadiness(surface Surface, trig Trigger, src string) {
	if src == "" || src != s.src[surface] {
		s.log.Debug("dropping stale surface event", "surface", surface, "trigger", trig, "src", src)
		return
	}
	prev := s.state.Readiness[surface]
	next := trig.Next()
	s.state.Readiness[surface] = next
	if prev != next {
		s.log.Debug("surface readiness", "surface", surface, "trigger", trig, "readiness", next)
	}
	if next == Ready {
		s.Gate.Check()
	} else {
		s.Gate.Rearm()
	}
}

func (s *Session) handleTimeUpdate(src string, pos float64) {
	if src == "" || src != s.src[AudioSurface] {
		return
	}
	s.Clock.Tick(pos)
}

func (s *Session) handleEnded(src string) {
	if src == "" || src != s.src[AudioSurface] {
		s.log.Debug("dropping stale end of media", "src", src)
		return
	}
	s.Transport.OnEnd()
}

func metadataForItem(item *mediaprovider.Item) Metadata {
	return Metadata{
		ID:     item.ID,
		Title:  item.Title,
		Artist: item.Artist,
		Artwork: sharedutil.MapSlice(item.Thumbnails, func(t mediaprovider.Thumbnail) Artwork {
			a := Artwork{URL: t.URL, Type: "image/jpeg"}
			if t.Width > 0 && t.Height > 0 {
				a.Sizes = fmt.Sprintf("%dx%d", t.Width, t.Height)
			}
			return a
		}),
	}
}
