package avsync

import (
	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/player"
)

// Hooks are the external item-navigation collaborators. Any may be nil.
type Hooks struct {
	// Advance to the next item (user skip).
	Advance func()
	// Go back to the previous item.
	Previous func()
	// The current item ended, or could not be played at all.
	Ended func()
}

// TransportController owns the playback intent and translates user
// transport actions into clock and gate operations. None of its
// operations fail from the caller's perspective.
type TransportController struct {
	state *State
	clock *PlaybackClock
	gate  *BufferGate
	video player.VideoSurface
	hooks Hooks
	log   *log.Logger
}

func newTransportController(state *State, clock *PlaybackClock, gate *BufferGate, video player.VideoSurface, hooks Hooks, l *log.Logger) *TransportController {
	return &TransportController{
		state: state,
		clock: clock,
		gate:  gate,
		video: video,
		hooks: hooks,
		log:   l,
	}
}

func (t *TransportController) Intent() bool {
	return t.state.Intent
}

func (t *TransportController) TogglePlay() {
	if t.state.Intent {
		t.Pause()
	} else {
		t.Play()
	}
}

func (t *TransportController) Play() {
	t.state.Intent = true
	t.gate.RequestResume()
}

func (t *TransportController) Pause() {
	t.state.Intent = false
	t.halt()
}

// Skip stops the surfaces and asks for the next item. The intent is kept,
// so a playing session resumes once the next item is ready.
func (t *TransportController) Skip() {
	t.halt()
	t.invoke("advance", t.hooks.Advance)
}

func (t *TransportController) Previous() {
	t.halt()
	t.invoke("previous", t.hooks.Previous)
}

// OnEnd handles the audio surface reaching the end of the media.
func (t *TransportController) OnEnd() {
	if t.state.Loop {
		t.log.Debug("looping", "item", t.state.Item)
		t.clock.Seek(0)
		// the video surface pauses itself at its own end of file
		if t.state.Intent && t.gate.State() == GateArmed {
			t.clock.Resume()
			t.state.Active[VideoSurface] = true
			t.video.SetPlaying(true)
		}
		return
	}
	t.state.Active[AudioSurface] = false
	t.invoke("ended", t.hooks.Ended)
}

// OnScrub pauses, then seeks. Resuming is left to an explicit user action.
func (t *TransportController) OnScrub(pos float64) {
	t.Pause()
	t.clock.Seek(pos)
}

// SeekTo seeks without touching the playback intent (OS transport seeks).
func (t *TransportController) SeekTo(pos float64) {
	t.clock.Seek(pos)
}

func (t *TransportController) SeekBy(offset float64) {
	t.clock.Seek(t.state.Position + offset)
}

// SetVolume clamps vol to [0, 1] and returns the applied value.
func (t *TransportController) SetVolume(vol float64) float64 {
	return t.clock.SetVolume(vol)
}

func (t *TransportController) SetLoop(loop bool) {
	t.state.Loop = loop
}

func (t *TransportController) ToggleLoop() bool {
	t.state.Loop = !t.state.Loop
	return t.state.Loop
}

func (t *TransportController) Loop() bool {
	return t.state.Loop
}

// Handlers returns the transport actions exposed to the OS now-playing surface.
func (t *TransportController) Handlers() TransportHandlers {
	return TransportHandlers{
		Play:     t.Play,
		Pause:    t.Pause,
		Next:     t.Skip,
		Previous: t.Previous,
		SeekTo:   t.SeekTo,
		SeekBy:   t.SeekBy,
	}
}

func (t *TransportController) halt() {
	t.gate.Cancel()
	t.clock.Pause()
	t.state.Active[VideoSurface] = false
	t.video.SetPlaying(false)
}

func (t *TransportController) invoke(name string, hook func()) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("hook panicked", "hook", name, "err", r)
		}
	}()
	hook()
}
