package mpv

import (
	"context"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/dweymouth/duoplay/backend/player"
	"github.com/supersonic-app/go-mpv"
)

// Information about a specific audio device.
// Returned by ListAudioDevices.
type AudioDevice struct {
	// The name of the audio device.
	// This is the string to pass to SetAudioDevice.
	Name string

	// The description of the audio device.
	// This is the friendly string that should be used in UIs.
	Description string
}

var _ player.AudioSurface = (*AudioSurface)(nil)

// AudioSurface plays the audio stream of an item. It is the authoritative
// playback clock.
type AudioSurface struct {
	player.AudioCallbackImpl
	surface

	// How often the position is reported while playing.
	PositionPollInterval time.Duration

	pollCancel context.CancelFunc

	stateLock   sync.Mutex
	vol         int // 0-100
	playing     bool
	eofReported bool
}

func NewAudioSurface(opts Options) *AudioSurface {
	a := &AudioSurface{
		PositionPollInterval: 250 * time.Millisecond,
		vol:                  -1, // use 100 in Init
	}
	a.configure("audio", opts, &a.BufferEventsCallbackImpl)
	a.onProperty = a.propertyChanged
	return a
}

// Initializes the surface and makes it ready for playback.
func (a *AudioSurface) Init() error {
	if a.vol < 0 {
		a.vol = 100
	}
	options := [][2]string{
		{"video", "no"},
		{"audio-display", "no"},
		{"volume", strconv.Itoa(a.vol)},
	}
	if a.opts.ClientName != "" {
		options = append(options, [2]string{"audio-client-name", a.opts.ClientName})
	}
	if err := a.init(options, map[uint64]string{propEOFReached: "eof-reached"}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.pollCancel = cancel
	go a.positionPoller(ctx)
	return nil
}

func (a *AudioSurface) Load(url string) error {
	a.stateLock.Lock()
	a.playing = false
	a.eofReported = false
	a.stateLock.Unlock()
	return a.load(url)
}

func (a *AudioSurface) Play() error {
	if err := a.setPaused(false); err != nil {
		return err
	}
	a.stateLock.Lock()
	a.playing = true
	a.stateLock.Unlock()
	return nil
}

func (a *AudioSurface) Pause() {
	if err := a.setPaused(true); err != nil {
		a.log.Warn("failed to pause", "err", err)
	}
	a.stateLock.Lock()
	a.playing = false
	a.stateLock.Unlock()
}

func (a *AudioSurface) CurrentTime() float64 {
	pos, _ := a.playbackTime()
	return pos
}

func (a *AudioSurface) SetCurrentTime(secs float64) {
	a.stateLock.Lock()
	a.eofReported = false
	a.stateLock.Unlock()
	if err := a.seek(secs); err != nil {
		a.log.Warn("seek failed", "pos", secs, "err", err)
	}
}

// Volume returns the volume as a fraction in [0, 1].
func (a *AudioSurface) Volume() float64 {
	a.stateLock.Lock()
	defer a.stateLock.Unlock()
	if a.vol < 0 {
		return 1
	}
	return float64(a.vol) / 100
}

// Sets the volume as a fraction in [0, 1].
// Unlike most surface functions, SetVolume can be called before Init,
// to set the initial volume on startup.
func (a *AudioSurface) SetVolume(vol float64) {
	v := int(math.Round(math.Max(0, math.Min(1, vol)) * 100))
	if a.initialized {
		if err := a.mpv.SetProperty("volume", mpv.FORMAT_INT64, int64(v)); err != nil {
			a.log.Warn("failed to set volume", "err", err)
			return
		}
	}
	a.stateLock.Lock()
	a.vol = v
	a.stateLock.Unlock()
}

// List available audio devices.
func (a *AudioSurface) ListAudioDevices() ([]AudioDevice, error) {
	if !a.initialized {
		return nil, ErrUnitialized
	}
	n, err := a.mpv.GetProperty("audio-device-list", mpv.FORMAT_NODE)
	if err != nil {
		return nil, err
	}
	nodeArr := n.(*mpv.Node).Data.([]*mpv.Node)

	devices := make([]AudioDevice, len(nodeArr))
	for i, node := range nodeArr {
		dev := node.Data.(map[string]*mpv.Node)
		name := dev["name"].Data.(string)
		desc := dev["description"].Data.(string)
		devices[i] = AudioDevice{Name: name, Description: desc}
	}
	return devices, nil
}

func (a *AudioSurface) SetAudioDevice(deviceName string) error {
	if !a.initialized {
		return ErrUnitialized
	}
	return a.mpv.SetPropertyString("audio-device", deviceName)
}

// Destroy the surface.
func (a *AudioSurface) Destroy() {
	if a.pollCancel != nil {
		a.pollCancel()
	}
	a.destroy()
}

func (a *AudioSurface) isPlaying() bool {
	a.stateLock.Lock()
	defer a.stateLock.Unlock()
	return a.playing
}

func (a *AudioSurface) propertyChanged(id uint64, src string) {
	if id != propEOFReached || !a.flag("eof-reached") {
		return
	}
	a.stateLock.Lock()
	already := a.eofReported
	a.eofReported = true
	a.playing = false
	a.stateLock.Unlock()
	if !already {
		a.log.Debug("end of media", "src", src)
		a.InvokeOnEnded(src)
	}
}

func (a *AudioSurface) positionPoller(ctx context.Context) {
	pollingTick := time.NewTicker(a.PositionPollInterval)
	defer pollingTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollingTick.C:
			if !a.isPlaying() {
				continue
			}
			if pos, ok := a.playbackTime(); ok {
				a.InvokeOnTimeUpdate(a.currentSrc(), pos)
			}
		}
	}
}
