package avsync

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ItemKey identifies one load of a media item. Every load gets a fresh
// generation, so reloading the same item still invalidates stale work.
type ItemKey struct {
	ID         string
	Generation uuid.UUID
}

func newItemKey(id string) ItemKey {
	return ItemKey{ID: id, Generation: uuid.New()}
}

func (k ItemKey) IsZero() bool {
	return k.Generation == uuid.Nil
}

func (k ItemKey) String() string {
	if k.IsZero() {
		return "<none>"
	}
	return k.ID + "#" + k.Generation.String()[:8]
}

// State is the session-scoped state shared by all components of a Session.
// It is only ever mutated on the session's dispatch goroutine.
type State struct {
	Item ItemKey

	// Whether the user wants playback active. Not the same as actually playing.
	Intent bool

	Readiness [numSurfaces]Readiness
	// Whether each surface is currently told to play.
	Active [numSurfaces]bool

	// Authoritative clock, in seconds. Always sourced from the audio surface.
	Position float64
	Duration float64

	Loop    bool
	Visible bool
}

// BothReady reports whether every surface has signalled Ready.
func (s State) BothReady() bool {
	for _, r := range s.Readiness {
		if r != Ready {
			return false
		}
	}
	return true
}

// resets the per-item parts of the state; Intent, Loop and Visible carry over
func (s *State) reset(key ItemKey, duration float64) {
	s.Item = key
	s.Readiness = [numSurfaces]Readiness{}
	s.Active = [numSurfaces]bool{}
	s.Position = 0
	s.Duration = duration
}

// Config holds the tunables of the synchronization core.
type Config struct {
	// Interval at which a waiting BufferGate re-checks surface readiness.
	ReadyPollInterval time.Duration
	// Drift (seconds) tolerated between the video surface and the clock.
	DriftTolerance float64
	// Audio position (seconds) below which no corrective seeks are issued.
	// Zero or less means the default.
	SettlePeriod float64

	Logger *log.Logger
}

func DefaultConfig() Config {
	return Config{
		ReadyPollInterval: 350 * time.Millisecond,
		DriftTolerance:    0.25,
		SettlePeriod:      3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReadyPollInterval <= 0 {
		c.ReadyPollInterval = d.ReadyPollInterval
	}
	if c.DriftTolerance <= 0 {
		c.DriftTolerance = d.DriftTolerance
	}
	if c.SettlePeriod <= 0 {
		c.SettlePeriod = d.SettlePeriod
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}
