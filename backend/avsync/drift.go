package avsync

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/player"
)

type DriftStats struct {
	Corrections int
	// Drift measured at the last corrective seek (video minus audio).
	LastDrift float64
	MaxDrift  float64
}

// DriftCorrector resyncs the video surface to the authoritative clock.
// It only ever seeks the video surface.
type DriftCorrector struct {
	state     *State
	video     player.VideoSurface
	tolerance float64
	settle    float64
	log       *log.Logger

	stats DriftStats
}

func newDriftCorrector(state *State, video player.VideoSurface, cfg Config) *DriftCorrector {
	return &DriftCorrector{
		state:     state,
		video:     video,
		tolerance: cfg.DriftTolerance,
		settle:    cfg.SettlePeriod,
		log:       cfg.Logger.WithPrefix("drift"),
	}
}

// Correct compares the video position against audioPos and issues a
// corrective video seek if they have drifted apart. Returns whether a
// seek was issued.
func (d *DriftCorrector) Correct(audioPos float64) bool {
	if !d.state.Visible || audioPos < d.settle {
		return false
	}
	videoPos, ok := d.video.CurrentTime()
	if !ok {
		return false
	}
	drift := videoPos - audioPos
	if drift >= -d.tolerance && drift <= d.tolerance {
		return false
	}

	d.video.SeekTo(audioPos)
	d.stats.Corrections++
	d.stats.LastDrift = drift
	if math.Abs(drift) > math.Abs(d.stats.MaxDrift) {
		d.stats.MaxDrift = drift
	}
	d.log.Debug("corrective seek", "item", d.state.Item, "audio", audioPos, "drift", drift)
	return true
}

func (d *DriftCorrector) Stats() DriftStats {
	return d.stats
}

func (d *DriftCorrector) resetStats() {
	d.stats = DriftStats{}
}
