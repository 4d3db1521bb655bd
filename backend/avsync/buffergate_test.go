package avsync

import (
	"math/rand"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBufferGate(t *testing.T) {
	Convey("Given a loaded item", t, func() {
		h := newHarness()
		h.s.LoadItem(testItem("a"))

		Convey("Resume with neither surface ready waits instead of playing", func() {
			h.s.Transport.Play()
			So(h.audio.plays, ShouldEqual, 0)
			So(h.s.Gate.State(), ShouldEqual, GateWaiting)
			So(h.sched.Pending(), ShouldEqual, 1)

			Convey("Polling keeps waiting while only audio is ready", func() {
				h.audio.ready()
				h.sched.Advance(time.Second)
				So(h.audio.plays, ShouldEqual, 0)
				So(h.s.Gate.State(), ShouldEqual, GateWaiting)
				So(h.sched.Pending(), ShouldEqual, 1)

				Convey("and plays exactly once when video becomes ready", func() {
					h.video.ready()
					So(h.audio.plays, ShouldEqual, 1)
					So(h.s.Gate.State(), ShouldEqual, GateArmed)
					So(h.video.playing, ShouldBeTrue)
					So(h.s.State().Active, ShouldResemble, [numSurfaces]bool{true, true})
					So(h.sched.Pending(), ShouldEqual, 0)

					h.sched.Advance(5 * time.Second)
					So(h.audio.plays, ShouldEqual, 1)
				})
			})

			Convey("Repeated resume requests share one poll chain", func() {
				h.s.Transport.Play()
				h.s.Transport.Play()
				h.s.Gate.RequestResume()
				So(h.sched.Pending(), ShouldEqual, 1)

				h.sched.Advance(2 * time.Second)
				So(h.sched.Pending(), ShouldEqual, 1)
			})

			Convey("Pausing cancels the poll chain", func() {
				h.s.Transport.Pause()
				So(h.s.Gate.State(), ShouldEqual, GateIdle)
				So(h.sched.Pending(), ShouldEqual, 0)

				h.audio.ready()
				h.video.ready()
				So(h.audio.plays, ShouldEqual, 0)
			})

			Convey("A superseded poll does not start a second chain", func() {
				h.s.Transport.Pause()
				h.s.Transport.Play()
				So(h.sched.Pending(), ShouldEqual, 1)

				h.sched.FireStopped()
				So(h.sched.Pending(), ShouldEqual, 1)
			})
		})

		Convey("Resume with both surfaces ready plays immediately", func() {
			h.audio.ready()
			h.video.bufferEnd()
			h.s.Transport.Play()
			So(h.audio.plays, ShouldEqual, 1)
			So(h.s.Gate.State(), ShouldEqual, GateArmed)
			So(h.sched.Pending(), ShouldEqual, 0)
		})

		Convey("A rebuffer while playing holds playback until ready again", func() {
			h.audio.ready()
			h.video.ready()
			h.s.Transport.Play()

			h.video.rebuffer()
			So(h.audio.playing, ShouldBeFalse)
			So(h.video.playing, ShouldBeFalse)
			So(h.s.Gate.State(), ShouldEqual, GateWaiting)
			So(h.s.Transport.Intent(), ShouldBeTrue)
			So(h.np.lastState(), ShouldEqual, PlaybackStatePaused)

			h.sched.Advance(time.Second)
			So(h.audio.plays, ShouldEqual, 1)

			h.video.bufferEnd()
			So(h.audio.plays, ShouldEqual, 2)
			So(h.s.Gate.Arms(), ShouldEqual, 2)
			So(h.video.playing, ShouldBeTrue)
		})

		Convey("A rebuffer while paused does not touch playback", func() {
			h.audio.ready()
			h.video.ready()
			h.audio.rebuffer()
			So(h.s.Gate.State(), ShouldEqual, GateIdle)
			So(h.sched.Pending(), ShouldEqual, 0)
			So(h.s.State().Readiness[AudioSurface], ShouldEqual, NotReady)
		})

		Convey("A poll chain of a previous item never resumes the new one", func() {
			h.s.Transport.Play()
			h.s.LoadItem(testItem("b"))
			So(h.sched.Pending(), ShouldEqual, 1)

			h.sched.FireStopped()
			So(h.sched.Pending(), ShouldEqual, 1)
			So(h.audio.plays, ShouldEqual, 0)
		})
	})
}

// For arbitrary sequences of readiness events and resume requests, the audio
// surface is only ever told to play while both surfaces are ready, and at
// most once per arming of the gate.
func TestBufferGate_ReadinessGating(t *testing.T) {
	Convey("Random readiness event sequences", t, func() {
		rng := rand.New(rand.NewSource(42))
		for run := 0; run < 200; run++ {
			h := newHarness()
			h.s.LoadItem(testItem("random"))
			violations := 0
			h.audio.onPlay = func() {
				if !h.s.State().BothReady() {
					violations++
				}
			}

			for step := 0; step < 40; step++ {
				switch rng.Intn(8) {
				case 0:
					h.audio.ready()
				case 1:
					h.video.ready()
				case 2:
					h.audio.rebuffer()
				case 3:
					h.video.rebuffer()
				case 4:
					h.video.bufferEnd()
				case 5:
					h.s.Transport.TogglePlay()
				case 6:
					h.s.Transport.Play()
				case 7:
					h.sched.Advance(time.Duration(rng.Intn(700)) * time.Millisecond)
				}
				So(h.sched.Pending(), ShouldBeLessThanOrEqualTo, 1)
			}

			So(violations, ShouldEqual, 0)
			So(h.audio.plays, ShouldBeLessThanOrEqualTo, h.s.Gate.Arms())
		}
	})
}
