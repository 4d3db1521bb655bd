package avsync

// PlaybackState is the playback state published to the OS now-playing surface.
type PlaybackState int

const (
	PlaybackStatePaused PlaybackState = iota
	PlaybackStatePlaying
)

func (p PlaybackState) String() string {
	if p == PlaybackStatePlaying {
		return "playing"
	}
	return "paused"
}

type Artwork struct {
	URL   string
	Sizes string // "WxH"
	Type  string
}

type Metadata struct {
	// Identifies the item; stable across reloads of the same item.
	ID      string
	Title   string
	Artist  string
	Album   string
	Artwork []Artwork
}

type PositionState struct {
	Duration     float64
	PlaybackRate float64
	Position     float64
}

// TransportHandlers are the actions an OS now-playing surface
// (media keys, lock screen, MPRIS) may invoke.
type TransportHandlers struct {
	Play     func()
	Pause    func()
	Next     func()
	Previous func()
	SeekTo   func(secs float64)
	SeekBy   func(offset float64)
}

// wrapped returns a copy of the handlers that run through dispatch.
func (h TransportHandlers) wrapped(dispatch func(func())) TransportHandlers {
	return TransportHandlers{
		Play:     func() { dispatch(h.Play) },
		Pause:    func() { dispatch(h.Pause) },
		Next:     func() { dispatch(h.Next) },
		Previous: func() { dispatch(h.Previous) },
		SeekTo:   func(secs float64) { dispatch(func() { h.SeekTo(secs) }) },
		SeekBy:   func(off float64) { dispatch(func() { h.SeekBy(off) }) },
	}
}

// NowPlaying is the OS media-session integration.
type NowPlaying interface {
	SetMetadata(Metadata)
	SetPlaybackState(PlaybackState)
	SetPositionState(PositionState)
	RegisterTransportHandlers(TransportHandlers)
}

// VisibilitySignal reports whether the presentation surface is visible.
type VisibilitySignal interface {
	OnVisibilityChange(func(visible bool))
}

type nopNowPlaying struct{}

func (nopNowPlaying) SetMetadata(Metadata)                        {}
func (nopNowPlaying) SetPlaybackState(PlaybackState)              {}
func (nopNowPlaying) SetPositionState(PositionState)              {}
func (nopNowPlaying) RegisterTransportHandlers(TransportHandlers) {}
