package avsync

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/player"
	"github.com/dweymouth/duoplay/sharedutil"
)

// PlaybackClock owns the audio surface and is the sole source of truth for
// the playback position. All time-based decisions are derived from it.
type PlaybackClock struct {
	state      *State
	audio      player.AudioSurface
	nowPlaying NowPlaying
	drift      *DriftCorrector
	log        *log.Logger

	onTimeUpdate []func(pos, dur float64)
}

func newPlaybackClock(state *State, audio player.AudioSurface, np NowPlaying, drift *DriftCorrector, l *log.Logger) *PlaybackClock {
	return &PlaybackClock{
		state:      state,
		audio:      audio,
		nowPlaying: np,
		drift:      drift,
		log:        l,
	}
}

// Registers a callback invoked with the clock position and duration on every
// tick and seek.
func (c *PlaybackClock) OnTimeUpdate(cb func(pos, dur float64)) {
	c.onTimeUpdate = append(c.onTimeUpdate, cb)
}

func (c *PlaybackClock) Position() float64 { return c.state.Position }

func (c *PlaybackClock) Duration() float64 { return c.state.Duration }

// Resume asks the audio surface to play. A rejection is logged and leaves
// the playback intent untouched so that a later user gesture can retry.
func (c *PlaybackClock) Resume() bool {
	if err := c.audio.Play(); err != nil {
		c.log.Warn("audio surface rejected play", "item", c.state.Item, "err", err)
		c.state.Active[AudioSurface] = false
		return false
	}
	c.state.Active[AudioSurface] = true
	c.nowPlaying.SetPlaybackState(PlaybackStatePlaying)
	return true
}

func (c *PlaybackClock) Pause() {
	c.audio.Pause()
	c.state.Active[AudioSurface] = false
	c.nowPlaying.SetPlaybackState(PlaybackStatePaused)
}

// Seek moves the audio surface to pos, clamped to [0, Duration].
// The upper bound is only applied when the duration is known.
func (c *PlaybackClock) Seek(pos float64) {
	if math.IsNaN(pos) {
		return
	}
	pos = math.Max(pos, 0)
	if c.state.Duration > 0 {
		pos = math.Min(pos, c.state.Duration)
	}
	c.audio.SetCurrentTime(pos)
	c.state.Position = pos
	c.publishPosition()
	c.notify()
}

// Tick is fed by the audio surface's progress signal.
func (c *PlaybackClock) Tick(pos float64) {
	c.state.Position = pos
	c.publishPosition()
	c.drift.Correct(pos)
	c.notify()
}

// SetVolume clamps vol to [0, 1], applies it to the audio surface and
// returns the applied value. The video surface is never a sound source.
func (c *PlaybackClock) SetVolume(vol float64) float64 {
	if math.IsNaN(vol) {
		return c.audio.Volume()
	}
	vol = sharedutil.Clamp(vol, 0, 1)
	c.audio.SetVolume(vol)
	return vol
}

func (c *PlaybackClock) Volume() float64 {
	return c.audio.Volume()
}

func (c *PlaybackClock) publishPosition() {
	c.nowPlaying.SetPositionState(PositionState{
		Duration:     c.state.Duration,
		PlaybackRate: 1,
		Position:     c.state.Position,
	})
}

func (c *PlaybackClock) notify() {
	for _, cb := range c.onTimeUpdate {
		cb(c.state.Position, c.state.Duration)
	}
}
