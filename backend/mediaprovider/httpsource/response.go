package httpsource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charlievieth/strcase"
	"github.com/dweymouth/duoplay/backend/mediaprovider"
	"github.com/dweymouth/duoplay/sharedutil"
)

type formatsResponse struct {
	Video struct {
		Formats      []format     `json:"formats"`
		VideoDetails videoDetails `json:"videoDetails"`
	} `json:"video"`
}

type format struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Bitrate  int    `json:"bitrate"`
}

type videoDetails struct {
	VideoID       string  `json:"videoId"`
	Title         string  `json:"title"`
	LengthSeconds seconds `json:"lengthSeconds"`
	Author        struct {
		Name string `json:"name"`
	} `json:"author"`
	Thumbnails []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"thumbnails"`
}

// seconds accepts both JSON numbers and numeric strings.
type seconds float64

func (s *seconds) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*s = seconds(f)
	return nil
}

func parseFormatsResponse(resp *http.Response, ref, videoMime string) (*mediaprovider.Item, error) {
	if resp.StatusCode == http.StatusNotFound {
		return nil, mediaprovider.ErrNotFound
	} else if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from item source: status %d", resp.StatusCode)
	}

	var parsed formatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode item source response: %w", err)
	}
	return toItem(parsed, ref, videoMime)
}

var errNoDetails = errors.New("item source response has no video details")

func toItem(r formatsResponse, ref, videoMime string) (*mediaprovider.Item, error) {
	d := r.Video.VideoDetails
	if d.Title == "" && len(r.Video.Formats) == 0 {
		return nil, errNoDetails
	}
	id := d.VideoID
	if id == "" {
		id = ref
	}
	item := &mediaprovider.Item{
		ID:       id,
		Title:    d.Title,
		Artist:   d.Author.Name,
		Duration: float64(d.LengthSeconds),
	}
	for _, t := range d.Thumbnails {
		item.Thumbnails = append(item.Thumbnails, mediaprovider.Thumbnail{URL: t.URL, Width: t.Width, Height: t.Height})
	}
	item.Streams = sharedutil.FilterMapSlice(r.Video.Formats, func(f format) (mediaprovider.Stream, bool) {
		kind := mediaprovider.KindFromMimeType(f.MimeType)
		switch {
		case kind == mediaprovider.MediaKindUnknown || f.URL == "":
			return mediaprovider.Stream{}, false
		case kind == mediaprovider.MediaKindVideo && videoMime != "" && !strcase.Contains(f.MimeType, videoMime):
			return mediaprovider.Stream{}, false
		}
		return mediaprovider.Stream{URL: f.URL, MimeType: f.MimeType, Kind: kind, Bitrate: f.Bitrate}, true
	})
	return item, nil
}
