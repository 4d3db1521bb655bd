package avsync

// Surface names one of the two playback surfaces.
type Surface int

const (
	AudioSurface Surface = iota
	VideoSurface

	numSurfaces = 2
)

func (s Surface) String() string {
	switch s {
	case AudioSurface:
		return "audio"
	case VideoSurface:
		return "video"
	default:
		return "unknown"
	}
}

// Readiness is the buffering readiness of a single surface.
type Readiness int

const (
	NotReady Readiness = iota
	Ready
)

func (r Readiness) String() string {
	if r == Ready {
		return "ready"
	}
	return "not-ready"
}

// Trigger is a surface event that feeds the readiness transition rule.
// TriggerLoadReady and TriggerBufferEnd are semantically identical.
type Trigger int

const (
	TriggerLoadReady Trigger = iota
	TriggerBufferEnd
	TriggerRebuffer
)

func (t Trigger) String() string {
	switch t {
	case TriggerLoadReady:
		return "load-ready"
	case TriggerBufferEnd:
		return "buffer-end"
	case TriggerRebuffer:
		return "rebuffer"
	default:
		return "unknown"
	}
}

// Next returns the readiness a surface moves to on this trigger.
func (t Trigger) Next() Readiness {
	if t == TriggerRebuffer {
		return NotReady
	}
	return Ready
}
