package mediaprovider

import (
	"github.com/dweymouth/duoplay/sharedutil"
	"github.com/samber/lo"
)

// StreamsOfKind returns the candidates of the given kind, in source order.
func StreamsOfKind(streams []Stream, kind MediaKind) []Stream {
	return sharedutil.FilterSlice(streams, func(s Stream) bool {
		return s.Kind == kind && s.URL != ""
	})
}

// BestStream returns the highest-bitrate candidate of the given kind, or nil
// if there is none. On equal bitrates the later candidate wins.
func BestStream(streams []Stream, kind MediaKind) *Stream {
	candidates := StreamsOfKind(streams, kind)
	if len(candidates) == 0 {
		return nil
	}
	best := lo.MaxBy(candidates, func(a, b Stream) bool {
		return a.Bitrate >= b.Bitrate
	})
	return &best
}

// SelectStreams applies the default quality policy: highest bitrate of each kind.
func SelectStreams(streams []Stream) (audio, video *Stream) {
	return BestStream(streams, MediaKindAudio), BestStream(streams, MediaKindVideo)
}
