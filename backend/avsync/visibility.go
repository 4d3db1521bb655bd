package avsync

import "github.com/charmbracelet/log"

// VisibilityGate tracks whether the presentation is in the foreground.
// Drift correction is suspended while backgrounded; the clock keeps running.
type VisibilityGate struct {
	state *State
	log   *log.Logger
}

func newVisibilityGate(state *State, l *log.Logger) *VisibilityGate {
	state.Visible = true
	return &VisibilityGate{state: state, log: l}
}

func (v *VisibilityGate) SetVisible(visible bool) {
	if v.state.Visible == visible {
		return
	}
	v.state.Visible = visible
	if visible {
		v.log.Debug("foreground, drift correction resumes on next tick")
	} else {
		v.log.Debug("background, drift correction suspended")
	}
}

func (v *VisibilityGate) Visible() bool {
	return v.state.Visible
}
