package ipc

import (
	"fmt"
	"net/url"
)

const (
	PingPath      = "/ping"
	StatusPath    = "/status"
	OpenPath      = "/item/open" // ?ref=<item reference>
	PlayPath      = "/transport/play"
	PlayPausePath = "/transport/playpause"
	PausePath     = "/transport/pause"
	PreviousPath  = "/transport/previous"
	NextPath      = "/transport/next"
	SeekToPath    = "/transport/seek-to" // ?s=<seconds>
	SeekByPath    = "/transport/seek-by" // ?s=<+/- seconds>
	LoopPath      = "/transport/loop"    // ?on=<bool>, toggles if omitted
	VolumePath    = "/volume"            // ?v=<0-1>
	ShowPath      = "/window/show"
	HidePath      = "/window/hide"
	QuitPath      = "/window/quit"
)

type Response struct {
	Error string `json:"error"`
}

// Status is the snapshot returned by StatusPath.
type Status struct {
	ItemID   string  `json:"itemId"`
	Title    string  `json:"title"`
	Playing  bool    `json:"playing"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Readout  string  `json:"readout"`
	Volume   float64 `json:"volume"`
	Loop     bool    `json:"loop"`
	Visible  bool    `json:"visible"`
}

func SeekToSecondsPath(secs float64) string {
	return fmt.Sprintf("%s?s=%0.2f", SeekToPath, secs)
}

func SeekBySecondsPath(secs float64) string {
	return fmt.Sprintf("%s?s=%0.2f", SeekByPath, secs)
}

func SetVolumePath(vol float64) string {
	return fmt.Sprintf("%s?v=%0.2f", VolumePath, vol)
}

func SetLoopPath(on bool) string {
	return fmt.Sprintf("%s?on=%t", LoopPath, on)
}

func BuildOpenPath(ref string) string {
	return fmt.Sprintf("%s?ref=%s", OpenPath, url.QueryEscape(ref))
}
