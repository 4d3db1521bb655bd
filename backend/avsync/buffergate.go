package avsync

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/player"
	"github.com/dweymouth/duoplay/backend/util"
)

type GateState int

const (
	GateIdle GateState = iota
	GateWaiting
	GateArmed
)

func (g GateState) String() string {
	switch g {
	case GateIdle:
		return "idle"
	case GateWaiting:
		return "waiting"
	case GateArmed:
		return "armed"
	default:
		return "unknown"
	}
}

// BufferGate holds back playback until both surfaces report Ready,
// re-checking on a fixed interval, and re-arms if either surface rebuffers.
// At most one poll chain is outstanding at any time.
type BufferGate struct {
	state    *State
	clock    *PlaybackClock
	video    player.VideoSurface
	sched    Scheduler
	interval time.Duration
	log      *log.Logger

	gate     GateState
	timer    Timer
	chainKey ItemKey
	chainSeq int
	waited   util.Stopwatch
	arms     int
}

func newBufferGate(state *State, clock *PlaybackClock, video player.VideoSurface, sched Scheduler, cfg Config) *BufferGate {
	return &BufferGate{
		state:    state,
		clock:    clock,
		video:    video,
		sched:    sched,
		interval: cfg.ReadyPollInterval,
		log:      cfg.Logger.WithPrefix("gate"),
	}
}

func (g *BufferGate) State() GateState {
	return g.gate
}

// Arms returns how many times the gate has transitioned to Armed.
func (g *BufferGate) Arms() int {
	return g.arms
}

// RequestResume resumes playback now if both surfaces are ready, otherwise
// starts waiting for them. A no-op while a poll chain is outstanding.
func (g *BufferGate) RequestResume() {
	switch g.gate {
	case GateWaiting:
		return
	case GateArmed:
		// already resumed; retry a play the audio surface rejected earlier
		if !g.state.Active[AudioSurface] {
			g.clock.Resume()
		}
		return
	}
	if g.state.BothReady() {
		g.arm()
		return
	}
	g.wait()
}

// Check arms a waiting gate immediately if both surfaces have become ready,
// without waiting for the next poll.
func (g *BufferGate) Check() {
	if g.gate == GateWaiting && g.state.BothReady() {
		g.arm()
	}
}

// Rearm holds playback after a surface reported a rebuffer mid-playback.
// Playback intent is left as it is; the gate resumes once both are ready again.
func (g *BufferGate) Rearm() {
	if g.gate != GateArmed {
		return
	}
	g.log.Debug("rebuffer, holding playback", "item", g.state.Item)
	g.clock.Pause()
	g.state.Active[VideoSurface] = false
	g.video.SetPlaying(false)
	g.wait()
}

// Cancel drops any outstanding poll chain and returns the gate to Idle.
func (g *BufferGate) Cancel() {
	g.stopTimer()
	g.waited.Reset()
	g.gate = GateIdle
}

func (g *BufferGate) wait() {
	g.gate = GateWaiting
	g.chainKey = g.state.Item
	g.chainSeq++
	g.waited.Reset()
	g.waited.Start()
	g.schedule()
}

func (g *BufferGate) schedule() {
	key, seq := g.chainKey, g.chainSeq
	g.timer = g.sched.AfterFunc(g.interval, func() { g.poll(key, seq) })
}

// a poll that fired after its chain was superseded must not act
func (g *BufferGate) poll(key ItemKey, seq int) {
	if key != g.state.Item || seq != g.chainSeq || g.gate != GateWaiting {
		g.log.Debug("dropping stale poll", "chain", key, "item", g.state.Item, "gate", g.gate)
		return
	}
	g.timer = nil
	if !g.state.Intent {
		g.gate = GateIdle
		return
	}
	if g.state.BothReady() {
		g.arm()
		return
	}
	g.schedule()
}

func (g *BufferGate) arm() {
	g.stopTimer()
	g.waited.Stop()
	g.gate = GateArmed
	g.arms++
	g.log.Debug("both surfaces ready, resuming", "item", g.state.Item, "waited", g.waited.Elapsed())

	g.clock.Resume()
	g.state.Active[VideoSurface] = true
	g.video.SetPlaying(true)
}

func (g *BufferGate) stopTimer() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
