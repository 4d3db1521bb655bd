package avsync

import (
	"fmt"
	"math"
)

type HMS struct {
	Hours, Minutes, Seconds int
}

// SplitHMS splits secs into whole hours, minutes and seconds.
// Negative and NaN inputs are treated as zero.
func SplitHMS(secs float64) HMS {
	if math.IsNaN(secs) || secs < 0 {
		secs = 0
	}
	s := int(math.Floor(secs))
	return HMS{Hours: s / 3600, Minutes: (s % 3600) / 60, Seconds: s % 60}
}

func (h HMS) format(withHours bool) string {
	if withHours {
		return fmt.Sprintf("%02d:%02d:%02d", h.Hours, h.Minutes, h.Seconds)
	}
	return fmt.Sprintf("%02d:%02d", h.Minutes, h.Seconds)
}

// FormatTime formats secs as MM:SS, or HH:MM:SS when there is an hours component.
func FormatTime(secs float64) string {
	h := SplitHMS(secs)
	return h.format(h.Hours != 0)
}

// FormatReadout formats the "elapsed / duration" readout. Both sides use the
// hours form if either one needs it, so the columns line up.
func FormatReadout(pos, dur float64) string {
	p, d := SplitHMS(pos), SplitHMS(dur)
	withHours := p.Hours != 0 || d.Hours != 0
	return p.format(withHours) + " / " + d.format(withHours)
}
