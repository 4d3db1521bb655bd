package avsync

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/mediaprovider"
	"github.com/dweymouth/duoplay/backend/player"
)

var errPlayRejected = errors.New("play rejected")

type fakeAudio struct {
	player.AudioCallbackImpl

	calls *[]string

	src     string
	loads   []string
	playing bool
	plays   int
	pos     float64
	vol     float64

	rejectPlay bool
	onPlay     func()
}

var _ player.AudioSurface = (*fakeAudio)(nil)

func (a *fakeAudio) Load(url string) error {
	a.src = url
	a.loads = append(a.loads, url)
	a.playing = false
	a.pos = 0
	return nil
}

func (a *fakeAudio) Play() error {
	if a.onPlay != nil {
		a.onPlay()
	}
	if a.rejectPlay {
		return errPlayRejected
	}
	a.plays++
	a.playing = true
	*a.calls = append(*a.calls, "audio:play")
	return nil
}

func (a *fakeAudio) Pause() {
	a.playing = false
	*a.calls = append(*a.calls, "audio:pause")
}

func (a *fakeAudio) CurrentTime() float64 { return a.pos }

func (a *fakeAudio) SetCurrentTime(secs float64) {
	a.pos = secs
	*a.calls = append(*a.calls, fmt.Sprintf("audio:seek:%g", secs))
}

func (a *fakeAudio) Volume() float64       { return a.vol }
func (a *fakeAudio) SetVolume(vol float64) { a.vol = vol }
func (a *fakeAudio) ready()                { a.InvokeOnReady(a.src) }
func (a *fakeAudio) rebuffer()             { a.InvokeOnBufferStart(a.src) }
func (a *fakeAudio) bufferEnd()            { a.InvokeOnBufferEnd(a.src) }
func (a *fakeAudio) tick(pos float64)      { a.pos = pos; a.InvokeOnTimeUpdate(a.src, pos) }
func (a *fakeAudio) end()                  { a.InvokeOnEnded(a.src) }

type fakeVideo struct {
	player.BufferEventsCallbackImpl

	calls *[]string

	src     string
	mounted bool
	playing bool
	pos     float64
	seeks   []float64
}

var _ player.VideoSurface = (*fakeVideo)(nil)

func (v *fakeVideo) Load(url string) error {
	v.src = url
	v.mounted = true
	v.pos = 0
	return nil
}

func (v *fakeVideo) SeekTo(secs float64) {
	v.pos = secs
	v.seeks = append(v.seeks, secs)
	*v.calls = append(*v.calls, fmt.Sprintf("video:seek:%g", secs))
}

func (v *fakeVideo) CurrentTime() (float64, bool) {
	return v.pos, v.mounted
}

func (v *fakeVideo) SetPlaying(playing bool) {
	v.playing = playing
}

func (v *fakeVideo) ready()     { v.InvokeOnReady(v.src) }
func (v *fakeVideo) rebuffer()  { v.InvokeOnBufferStart(v.src) }
func (v *fakeVideo) bufferEnd() { v.InvokeOnBufferEnd(v.src) }

type fakeNowPlaying struct {
	metadata  []Metadata
	states    []PlaybackState
	positions []PositionState
	handlers  TransportHandlers
}

func (n *fakeNowPlaying) SetMetadata(m Metadata)                        { n.metadata = append(n.metadata, m) }
func (n *fakeNowPlaying) SetPlaybackState(s PlaybackState)              { n.states = append(n.states, s) }
func (n *fakeNowPlaying) SetPositionState(p PositionState)              { n.positions = append(n.positions, p) }
func (n *fakeNowPlaying) RegisterTransportHandlers(h TransportHandlers) { n.handlers = h }

func (n *fakeNowPlaying) lastState() PlaybackState {
	if len(n.states) == 0 {
		return PlaybackStatePaused
	}
	return n.states[len(n.states)-1]
}

type fakeVisibility struct {
	cb func(bool)
}

func (f *fakeVisibility) OnVisibilityChange(cb func(bool)) { f.cb = cb }

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler is a manually advanced clock.
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d, firing due timers in order.
func (s *fakeScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		due := s.pending()
		sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
		if len(due) == 0 || due[0].at > target {
			break
		}
		t := due[0]
		s.now = t.at
		t.fired = true
		t.f()
	}
	s.now = target
}

// FireStopped runs the callbacks of stopped timers, as if they had already
// been delivered when Stop was called.
func (s *fakeScheduler) FireStopped() {
	for _, t := range s.timers {
		if t.stopped && !t.fired {
			t.fired = true
			t.f()
		}
	}
}

func (s *fakeScheduler) pending() []*fakeTimer {
	var p []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			p = append(p, t)
		}
	}
	return p
}

func (s *fakeScheduler) Pending() int {
	return len(s.pending())
}

type harness struct {
	s     *Session
	audio *fakeAudio
	video *fakeVideo
	np    *fakeNowPlaying
	vis   *fakeVisibility
	sched *fakeScheduler
	calls []string

	advanced, previous, ended int
}

func newHarness() *harness {
	h := &harness{
		np:    &fakeNowPlaying{},
		vis:   &fakeVisibility{},
		sched: &fakeScheduler{},
	}
	h.audio = &fakeAudio{calls: &h.calls, vol: 1}
	h.video = &fakeVideo{calls: &h.calls}
	h.s = NewSession(Config{Logger: log.New(io.Discard)}, Deps{
		Audio:      h.audio,
		Video:      h.video,
		NowPlaying: h.np,
		Visibility: h.vis,
		Scheduler:  h.sched,
		Hooks: Hooks{
			Advance:  func() { h.advanced++ },
			Previous: func() { h.previous++ },
			Ended:    func() { h.ended++ },
		},
	})
	return h
}

// plays the item and brings both surfaces to Ready, leaving the gate Armed
func (h *harness) startPlaying(item *mediaprovider.Item) {
	h.s.LoadItem(item)
	h.audio.ready()
	h.video.ready()
	h.s.Transport.Play()
}

func testItem(id string) *mediaprovider.Item {
	return &mediaprovider.Item{
		ID:       id,
		Title:    "Title " + id,
		Artist:   "Artist",
		Duration: 125,
		Thumbnails: []mediaprovider.Thumbnail{
			{URL: "https://img/" + id + ".jpg", Width: 480, Height: 360},
		},
		Streams: []mediaprovider.Stream{
			{URL: id + "/audio-lo", Kind: mediaprovider.MediaKindAudio, Bitrate: 64_000},
			{URL: id + "/video", Kind: mediaprovider.MediaKindVideo, Bitrate: 2_500_000},
			{URL: id + "/audio-hi", Kind: mediaprovider.MediaKindAudio, Bitrate: 160_000},
		},
	}
}
