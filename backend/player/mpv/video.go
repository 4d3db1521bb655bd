package mpv

import (
	"sync"

	"github.com/dweymouth/duoplay/backend/player"
	"github.com/supersonic-app/go-mpv"
)

var _ player.VideoSurface = (*VideoSurface)(nil)

// VideoSurface renders the video stream of an item in its own window.
// It never produces sound; its position is telemetry only.
type VideoSurface struct {
	player.BufferEventsCallbackImpl
	surface

	// Window title.
	Title string

	visLock      sync.Mutex
	onVisibility func(bool)
	minimized    bool
}

func NewVideoSurface(opts Options) *VideoSurface {
	v := &VideoSurface{Title: opts.ClientName}
	v.configure("video", opts, &v.BufferEventsCallbackImpl)
	v.onProperty = v.propertyChanged
	return v
}

// Initializes the surface and opens its window.
func (v *VideoSurface) Init() error {
	options := [][2]string{
		{"aid", "no"},
		{"mute", "yes"},
		{"force-window", "yes"},
		{"osc", "no"},
		{"input-default-bindings", "no"},
	}
	if v.Title != "" {
		options = append(options, [2]string{"title", v.Title})
	}
	return v.init(options, map[uint64]string{propWindowMinimized: "window-minimized"})
}

func (v *VideoSurface) Load(url string) error {
	return v.load(url)
}

func (v *VideoSurface) SeekTo(secs float64) {
	if err := v.seek(secs); err != nil {
		v.log.Warn("seek failed", "pos", secs, "err", err)
	}
}

func (v *VideoSurface) CurrentTime() (float64, bool) {
	return v.playbackTime()
}

func (v *VideoSurface) SetPlaying(playing bool) {
	if err := v.setPaused(!playing); err != nil && err != ErrUnitialized {
		v.log.Warn("failed to set playing", "playing", playing, "err", err)
	}
}

// Registers a callback invoked when the window is minimized (false)
// or restored (true).
func (v *VideoSurface) OnVisibilityChange(cb func(visible bool)) {
	v.visLock.Lock()
	defer v.visLock.Unlock()
	v.onVisibility = cb
}

// Destroy the surface and close its window.
func (v *VideoSurface) Destroy() {
	v.destroy()
}

func (v *VideoSurface) propertyChanged(id uint64, _ string) {
	if id != propWindowMinimized {
		return
	}
	minimized := v.flag("window-minimized")
	v.visLock.Lock()
	changed := minimized != v.minimized
	v.minimized = minimized
	cb := v.onVisibility
	v.visLock.Unlock()
	if changed && cb != nil {
		cb(!minimized)
	}
}

// SetVisible minimizes (false) or restores (true) the window.
// The change is reported back through OnVisibilityChange.
func (v *VideoSurface) SetVisible(visible bool) {
	if !v.initialized {
		return
	}
	if err := v.mpv.SetProperty("window-minimized", mpv.FORMAT_FLAG, !visible); err != nil {
		v.log.Warn("failed to set window visibility", "visible", visible, "err", err)
	}
}
