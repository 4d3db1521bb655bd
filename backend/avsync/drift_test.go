package avsync

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDriftCorrector(t *testing.T) {
	Convey("Given a playing item", t, func() {
		h := newHarness()
		h.startPlaying(testItem("d"))

		Convey("Drift within tolerance is left alone", func() {
			for _, videoPos := range []float64{10, 9.75, 10.25, 10.1, 9.9} {
				h.video.pos = videoPos
				h.audio.tick(10)
			}
			So(h.video.seeks, ShouldBeEmpty)
			So(h.s.Drift.Stats().Corrections, ShouldEqual, 0)
		})

		Convey("Video behind the clock is seeked forward to it", func() {
			h.video.pos = 9.7
			h.audio.tick(10)
			So(h.video.seeks, ShouldResemble, []float64{10})
		})

		Convey("Video ahead of the clock is seeked back to it", func() {
			h.video.pos = 42
			h.audio.tick(20)
			So(h.video.seeks, ShouldResemble, []float64{20})
			So(h.s.Drift.Stats().LastDrift, ShouldAlmostEqual, 22)
		})

		Convey("The audio surface is never seeked by drift correction", func() {
			h.calls = nil
			h.video.pos = 100
			h.audio.tick(10)
			So(h.calls, ShouldResemble, []string{"video:seek:10"})
		})

		Convey("Nothing is corrected during the settle period", func() {
			h.video.pos = 0
			h.audio.tick(2.99)
			So(h.video.seeks, ShouldBeEmpty)
			h.audio.tick(3)
			So(h.video.seeks, ShouldResemble, []float64{3})
		})

		Convey("Nothing is corrected while the video cannot report a position", func() {
			h.video.mounted = false
			h.audio.tick(30)
			So(h.video.seeks, ShouldBeEmpty)
		})

		Convey("Every out of tolerance tick issues exactly one seek", func() {
			h.video.pos = 0
			h.audio.tick(10)
			h.video.pos = 0
			h.audio.tick(11)
			So(h.video.seeks, ShouldResemble, []float64{10, 11})
			So(h.s.Drift.Stats().Corrections, ShouldEqual, 2)
		})
	})
}

func TestDriftCorrector_Visibility(t *testing.T) {
	Convey("While backgrounded", t, func() {
		h := newHarness()
		h.startPlaying(testItem("v"))
		h.vis.cb(false)
		So(h.s.Visibility.Visible(), ShouldBeFalse)

		Convey("no corrective seek is issued regardless of drift", func() {
			for _, drift := range []float64{0.3, 5, -8, 600} {
				h.video.pos = 10 + drift
				h.audio.tick(10)
			}
			So(h.video.seeks, ShouldBeEmpty)
		})

		Convey("the clock keeps ticking", func() {
			h.audio.tick(12.5)
			So(h.s.Clock.Position(), ShouldEqual, 12.5)
			So(h.audio.playing, ShouldBeTrue)
			So(h.np.positions[len(h.np.positions)-1].Position, ShouldEqual, 12.5)
		})

		Convey("returning to the foreground corrects on the next tick, even for a large drift", func() {
			h.video.pos = 10
			h.audio.tick(70)
			So(h.video.seeks, ShouldBeEmpty)

			h.vis.cb(true)
			h.audio.tick(71)
			So(h.video.seeks, ShouldResemble, []float64{71})
		})
	})
}
