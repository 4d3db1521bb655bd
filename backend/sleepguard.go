package backend

import "github.com/dweymouth/duoplay/backend/avsync"

// sleepGuard keeps the system awake while the session is playing and
// forwards everything to the wrapped now-playing surface.
type sleepGuard struct {
	avsync.NowPlaying
	setDisabled func(bool)
}

func newSleepGuard(np avsync.NowPlaying) *sleepGuard {
	return &sleepGuard{NowPlaying: np, setDisabled: SetSystemSleepDisabled}
}

func (g *sleepGuard) SetPlaybackState(state avsync.PlaybackState) {
	g.setDisabled(state == avsync.PlaybackStatePlaying)
	g.NowPlaying.SetPlaybackState(state)
}
