package player

// BufferEvents is implemented by every surface. Each event carries the URL of
// the media the surface had loaded when the event fired, so that consumers can
// drop events that belong to a previously loaded item.
type BufferEvents interface {
	// Load-ready: the surface has loaded enough to start playback.
	OnReady(func(src string))
	// Rebuffer: the surface has stalled waiting on its cache.
	OnBufferStart(func(src string))
	// Buffer-end-after-stall: the surface has enough data again.
	OnBufferEnd(func(src string))
}

// AudioSurface is the authoritative playback clock.
type AudioSurface interface {
	BufferEvents

	// Load replaces the current media. The surface must not start
	// playing until Play is called.
	Load(url string) error

	// Play may be rejected by the environment (e.g. output device policy).
	Play() error
	Pause()

	CurrentTime() float64
	SetCurrentTime(secs float64)

	// Volume as a fraction in [0, 1].
	Volume() float64
	SetVolume(vol float64)

	// Registers a callback invoked on the surface's native progress signal.
	OnTimeUpdate(func(src string, pos float64))
	// Registers a callback invoked when the surface reaches the end of the media.
	OnEnded(func(src string))
}

// VideoSurface is a muted, visuals-only surface. It is never a sound source
// and its position is telemetry only.
type VideoSurface interface {
	BufferEvents

	Load(url string) error
	SeekTo(secs float64)

	// CurrentTime returns false if the surface cannot report a
	// position (nothing mounted or loaded yet).
	CurrentTime() (float64, bool)

	SetPlaying(playing bool)
}

// BufferEventsCallbackImpl stores the BufferEvents callbacks for embedding
// into surface implementations.
type BufferEventsCallbackImpl struct {
	onReady       func(string)
	onBufferStart func(string)
	onBufferEnd   func(string)
}

// Registers a callback which is invoked when the surface reports it is ready to play.
func (b *BufferEventsCallbackImpl) OnReady(cb func(string)) {
	b.onReady = cb
}

// Registers a callback which is invoked when the surface stalls on its cache.
func (b *BufferEventsCallbackImpl) OnBufferStart(cb func(string)) {
	b.onBufferStart = cb
}

// Registers a callback which is invoked when the surface recovers from a stall.
func (b *BufferEventsCallbackImpl) OnBufferEnd(cb func(string)) {
	b.onBufferEnd = cb
}

func (b *BufferEventsCallbackImpl) InvokeOnReady(src string) {
	if b.onReady != nil {
		b.onReady(src)
	}
}

func (b *BufferEventsCallbackImpl) InvokeOnBufferStart(src string) {
	if b.onBufferStart != nil {
		b.onBufferStart(src)
	}
}

func (b *BufferEventsCallbackImpl) InvokeOnBufferEnd(src string) {
	if b.onBufferEnd != nil {
		b.onBufferEnd(src)
	}
}

// AudioCallbackImpl adds the audio-only callbacks.
type AudioCallbackImpl struct {
	BufferEventsCallbackImpl

	onTimeUpdate func(string, float64)
	onEnded      func(string)
}

// Registers a callback which is invoked on every position update while playing.
func (a *AudioCallbackImpl) OnTimeUpdate(cb func(string, float64)) {
	a.onTimeUpdate = cb
}

// Registers a callback which is invoked when playback reaches the end of the media.
func (a *AudioCallbackImpl) OnEnded(cb func(string)) {
	a.onEnded = cb
}

func (a *AudioCallbackImpl) InvokeOnTimeUpdate(src string, pos float64) {
	if a.onTimeUpdate != nil {
		a.onTimeUpdate(src, pos)
	}
}

func (a *AudioCallbackImpl) InvokeOnEnded(src string) {
	if a.onEnded != nil {
		a.onEnded(src)
	}
}
