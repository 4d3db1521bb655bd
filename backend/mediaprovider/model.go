package mediaprovider

import "github.com/charlievieth/strcase"

type MediaKind int

const (
	MediaKindUnknown MediaKind = iota
	MediaKindAudio
	MediaKindVideo
)

func (k MediaKind) String() string {
	switch k {
	case MediaKindAudio:
		return "audio"
	case MediaKindVideo:
		return "video"
	default:
		return "unknown"
	}
}

// KindFromMimeType classifies a stream by its MIME type,
// e.g. `video/mp4; codecs="avc1.640028"` or `AUDIO/webm`.
func KindFromMimeType(mimeType string) MediaKind {
	switch {
	case strcase.HasPrefix(mimeType, "video/"):
		return MediaKindVideo
	case strcase.HasPrefix(mimeType, "audio/"):
		return MediaKindAudio
	default:
		return MediaKindUnknown
	}
}

// Stream is one candidate encoding of an item.
type Stream struct {
	URL      string
	MimeType string
	Kind     MediaKind
	Bitrate  int
}

type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// Item is a resolved media item with its candidate streams.
type Item struct {
	ID         string
	Title      string
	Artist     string
	Duration   float64 // seconds
	Thumbnails []Thumbnail
	Streams    []Stream
}
