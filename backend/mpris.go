package backend

import (
	"encoding/base32"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/dweymouth/duoplay/backend/avsync"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
)

const (
	dbusTrackIDPrefix = "/Duoplay/Item/"
	noTrackObjectPath = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

	// position jumps larger than this are reported as seeks
	seekThresholdSecs = 1.5
)

var (
	_ types.OrgMprisMediaPlayer2Adapter                 = (*MPRISHandler)(nil)
	_ types.OrgMprisMediaPlayer2PlayerAdapter           = (*MPRISHandler)(nil)
	_ types.OrgMprisMediaPlayer2PlayerAdapterLoopStatus = (*MPRISHandler)(nil)
	_ avsync.NowPlaying                                 = (*MPRISHandler)(nil)
)

var (
	errNotSupported = errors.New("not supported")
	errNoHandler    = errors.New("no transport handler registered")
)

// MPRISHandler publishes the session's now-playing state over D-Bus and
// forwards MPRIS transport commands to the registered handlers.
// Getters only read cached state, so D-Bus callbacks never wait on the session.
type MPRISHandler struct {
	// Function called if the player is requested to quit through MPRIS.
	// Should *asynchronously* start shutdown and return immediately true if a shutdown will happen.
	OnQuit func() error

	// Function called if the player is requested to bring its UI to the front.
	OnRaise func() error

	// Called with the requested volume in [0, 1].
	OnSetVolume func(vol float64)

	// Called with the requested loop mode.
	OnSetLoop func(loop bool)

	connErr    error
	playerName string
	s          *server.Server
	evt        *events.EventHandler

	lock         sync.Mutex
	handlers     avsync.TransportHandlers
	metadata     avsync.Metadata
	curTrackPath string // empty for no track
	state        avsync.PlaybackState
	position     avsync.PositionState
	volume       float64
	loop         bool
}

func NewMPRISHandler(playerName string) *MPRISHandler {
	m := &MPRISHandler{playerName: playerName, connErr: errors.New("not started"), volume: 1}
	m.s = server.NewServer(playerName, m, m)
	m.evt = events.NewEventHandler(m.s)
	return m
}

// Starts listening for MPRIS events.
func (m *MPRISHandler) Start() {
	m.connErr = nil
	go func() {
		// exits early with err if unable to establish D-Bus connection
		m.connErr = m.s.Listen()
	}()
}

// Stops listening for MPRIS events and releases any D-Bus resources.
func (m *MPRISHandler) Shutdown() {
	if m.connErr == nil {
		m.s.Stop()
		m.connErr = errors.New("stopped")
	}
}

// avsync.NowPlaying implementation

func (m *MPRISHandler) SetMetadata(md avsync.Metadata) {
	m.lock.Lock()
	m.metadata = md
	if md.ID == "" {
		m.curTrackPath = ""
	} else {
		m.curTrackPath = dbusTrackIDPrefix + encodeTrackId(md.ID)
	}
	m.lock.Unlock()
	if m.connErr == nil {
		m.evt.Player.OnTitle()
	}
}

func (m *MPRISHandler) SetPlaybackState(state avsync.PlaybackState) {
	m.lock.Lock()
	changed := m.state != state
	m.state = state
	m.lock.Unlock()
	if changed && m.connErr == nil {
		m.evt.Player.OnPlayPause()
	}
}

func (m *MPRISHandler) SetPositionState(pos avsync.PositionState) {
	m.lock.Lock()
	jumped := math.Abs(pos.Position-m.position.Position) > seekThresholdSecs
	m.position = pos
	m.lock.Unlock()
	if jumped && m.connErr == nil {
		m.evt.Player.OnSeek(secondsToMicroseconds(pos.Position))
	}
}

func (m *MPRISHandler) RegisterTransportHandlers(h avsync.TransportHandlers) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.handlers = h
}

// VolumeChanged updates the published volume, in [0, 1].
func (m *MPRISHandler) VolumeChanged(vol float64) {
	m.lock.Lock()
	m.volume = vol
	m.lock.Unlock()
	if m.connErr == nil {
		m.evt.Player.OnVolume()
	}
}

// LoopChanged updates the cached loop status read by LoopStatus.
func (m *MPRISHandler) LoopChanged(loop bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.loop = loop
}

func (m *MPRISHandler) transport() avsync.TransportHandlers {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.handlers
}

// OrgMprisMediaPlayer2Adapter implementation

func (m *MPRISHandler) Identity() (string, error) {
	return m.playerName, nil
}

func (m *MPRISHandler) CanQuit() (bool, error) {
	return m.OnQuit != nil, nil
}

func (m *MPRISHandler) Quit() error {
	if m.OnQuit != nil {
		return m.OnQuit()
	}
	return errors.New("no quit handler added")
}

func (m *MPRISHandler) CanRaise() (bool, error) {
	return m.OnRaise != nil, nil
}

func (m *MPRISHandler) Raise() error {
	if m.OnRaise != nil {
		return m.OnRaise()
	}
	return errors.New("no raise handler added")
}

func (m *MPRISHandler) HasTrackList() (bool, error) {
	return false, nil
}

func (m *MPRISHandler) SupportedUriSchemes() ([]string, error) {
	return nil, nil
}

func (m *MPRISHandler) SupportedMimeTypes() ([]string, error) {
	return nil, nil
}

// OrgMprisMediaPlayer2PlayerAdapter implementation

func (m *MPRISHandler) Next() error {
	return invoke(m.transport().Next)
}

func (m *MPRISHandler) Previous() error {
	return invoke(m.transport().Previous)
}

func (m *MPRISHandler) Pause() error {
	return invoke(m.transport().Pause)
}

func (m *MPRISHandler) PlayPause() error {
	st, _ := m.PlaybackStatus()
	if st == types.PlaybackStatusPlaying {
		return m.Pause()
	}
	return m.Play()
}

// Stop pauses; a session has no stopped state.
func (m *MPRISHandler) Stop() error {
	return m.Pause()
}

func (m *MPRISHandler) Play() error {
	return invoke(m.transport().Play)
}

func (m *MPRISHandler) Seek(offset types.Microseconds) error {
	// MPRIS seek command is relative to current position
	h := m.transport()
	if h.SeekBy == nil {
		return errNoHandler
	}
	h.SeekBy(microsecondsToSeconds(offset))
	return nil
}

func (m *MPRISHandler) SetPosition(trackId string, position types.Microseconds) error {
	m.lock.Lock()
	cur := m.curTrackPath
	h := m.handlers
	m.lock.Unlock()
	if cur != trackId {
		return nil
	}
	if h.SeekTo == nil {
		return errNoHandler
	}
	h.SeekTo(microsecondsToSeconds(position))
	return nil
}

func (m *MPRISHandler) OpenUri(uri string) error {
	return errNotSupported
}

func (m *MPRISHandler) PlaybackStatus() (types.PlaybackStatus, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.curTrackPath == "" {
		return types.PlaybackStatusStopped, nil
	}
	switch m.state {
	case avsync.PlaybackStatePlaying:
		return types.PlaybackStatusPlaying, nil
	case avsync.PlaybackStatePaused:
		return types.PlaybackStatusPaused, nil
	}
	return "", errors.New("unknown playback status")
}

func (m *MPRISHandler) LoopStatus() (types.LoopStatus, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.loop {
		return types.LoopStatusTrack, nil
	}
	return types.LoopStatusNone, nil
}

func (m *MPRISHandler) SetLoopStatus(status types.LoopStatus) error {
	if m.OnSetLoop == nil {
		return errNotSupported
	}
	switch status {
	case types.LoopStatusTrack, types.LoopStatusPlaylist:
		m.OnSetLoop(true)
	case types.LoopStatusNone:
		m.OnSetLoop(false)
	default:
		return errors.New("unknown loop status")
	}
	return nil
}

func (m *MPRISHandler) Rate() (float64, error) {
	return 1, nil
}

func (m *MPRISHandler) SetRate(float64) error {
	return errNotSupported
}

func (m *MPRISHandler) Metadata() (types.Metadata, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	trackObjPath := noTrackObjectPath
	if m.curTrackPath != "" {
		trackObjPath = m.curTrackPath
	}
	md := types.Metadata{
		TrackId: dbus.ObjectPath(trackObjPath),
		Length:  secondsToMicroseconds(m.position.Duration),
		Title:   m.metadata.Title,
		Album:   m.metadata.Album,
	}
	if m.metadata.Artist != "" {
		md.Artist = []string{m.metadata.Artist}
	}
	if art := largestArtwork(m.metadata.Artwork); art != nil {
		md.ArtUrl = art.URL
	}
	return md, nil
}

func (m *MPRISHandler) Volume() (float64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.volume, nil
}

func (m *MPRISHandler) SetVolume(v float64) error {
	if m.OnSetVolume == nil {
		return errNotSupported
	}
	m.OnSetVolume(v)
	return nil
}

func (m *MPRISHandler) Position() (int64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return int64(secondsToMicroseconds(m.position.Position)), nil
}

func (m *MPRISHandler) MinimumRate() (float64, error) {
	return 1, nil
}

func (m *MPRISHandler) MaximumRate() (float64, error) {
	return 1, nil
}

func (m *MPRISHandler) CanGoNext() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanGoPrevious() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanPlay() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanPause() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanSeek() (bool, error) {
	return true, nil
}

func (m *MPRISHandler) CanControl() (bool, error) {
	return true, nil
}

func invoke(f func()) error {
	if f == nil {
		return errNoHandler
	}
	f()
	return nil
}

// picks the artwork with the largest "WxH" area, or the last one if no sizes are known
func largestArtwork(art []avsync.Artwork) *avsync.Artwork {
	var best *avsync.Artwork
	bestArea := -1
	for i := range art {
		area := artworkArea(art[i].Sizes)
		if area >= bestArea {
			best, bestArea = &art[i], area
		}
	}
	return best
}

func artworkArea(sizes string) int {
	var w, h int
	if _, err := fmt.Sscanf(sizes, "%dx%d", &w, &h); err != nil {
		return 0
	}
	return w * h
}

func microsecondsToSeconds(m types.Microseconds) float64 {
	return float64(m) / 1_000_000
}

func secondsToMicroseconds(s float64) types.Microseconds {
	return types.Microseconds(s * 1_000_000)
}

func encodeTrackId(id string) string {
	data := []byte(id)
	return base32.StdEncoding.WithPadding('0').EncodeToString(data)
}
