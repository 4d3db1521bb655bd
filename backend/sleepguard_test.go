package backend

import (
	"testing"

	"github.com/dweymouth/duoplay/backend/avsync"
)

func TestSleepGuard(t *testing.T) {
	m := NewMPRISHandler("duoplay")
	var calls []bool
	g := newSleepGuard(m)
	g.setDisabled = func(d bool) { calls = append(calls, d) }

	g.SetMetadata(avsync.Metadata{ID: "abc"})
	g.SetPlaybackState(avsync.PlaybackStatePlaying)
	g.SetPlaybackState(avsync.PlaybackStatePaused)

	if len(calls) != 2 || !calls[0] || calls[1] {
		t.Errorf("calls = %v, want [true false]", calls)
	}
	if st, _ := m.PlaybackStatus(); st != "Paused" {
		t.Errorf("state not forwarded, got %v", st)
	}
}
