package ipc

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

type fakePlayback struct {
	calls   []string
	opened  string
	seekTo  float64
	seekBy  float64
	volume  float64
	loop    bool
	failing error
}

func (f *fakePlayback) record(name string) error {
	f.calls = append(f.calls, name)
	return f.failing
}

func (f *fakePlayback) Open(ref string) error {
	f.opened = ref
	return f.record("open")
}

func (f *fakePlayback) Play() error      { return f.record("play") }
func (f *fakePlayback) Pause() error     { return f.record("pause") }
func (f *fakePlayback) PlayPause() error { return f.record("playpause") }
func (f *fakePlayback) Next() error      { return f.record("next") }
func (f *fakePlayback) Previous() error  { return f.record("previous") }

func (f *fakePlayback) SeekTo(secs float64) error {
	f.seekTo = secs
	return f.record("seek-to")
}

func (f *fakePlayback) SeekBy(secs float64) error {
	f.seekBy = secs
	return f.record("seek-by")
}

func (f *fakePlayback) SetLoop(on *bool) (bool, error) {
	if on == nil {
		f.loop = !f.loop
	} else {
		f.loop = *on
	}
	return f.loop, f.record("loop")
}

func (f *fakePlayback) SetVolume(vol float64) (float64, error) {
	f.volume = min(max(vol, 0), 1)
	return f.volume, f.record("volume")
}

func (f *fakePlayback) Status() Status {
	return Status{Title: "Clip", Position: 65, Duration: 125, Readout: "01:05 / 02:05", Volume: f.volume, Loop: f.loop}
}

type fakeWindow struct {
	shown, hidden int
	quit          chan struct{}
}

func (f *fakeWindow) Show() { f.shown++ }
func (f *fakeWindow) Hide() { f.hidden++ }
func (f *fakeWindow) Quit() { close(f.quit) }

func newTestClient(t *testing.T) (*Client, *fakePlayback, *fakeWindow) {
	t.Helper()
	pb := &fakePlayback{volume: 1}
	wd := &fakeWindow{quit: make(chan struct{})}
	srv := NewServer(pb, wd, log.New(io.Discard))
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	addr := ts.Listener.Addr().String()
	c := newClient(func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	})
	return c, pb, wd
}

func TestSimpleEndpoints(t *testing.T) {
	c, pb, wd := newTestClient(t)

	if err := c.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	for _, f := range []func() error{c.Play, c.Pause, c.PlayPause, c.Next, c.Previous} {
		if err := f(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	want := []string{"play", "pause", "playpause", "next", "previous"}
	if strings.Join(pb.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", pb.calls, want)
	}

	c.Show()
	c.Hide()
	c.Hide()
	if wd.shown != 1 || wd.hidden != 2 {
		t.Errorf("shown=%d hidden=%d, want 1 and 2", wd.shown, wd.hidden)
	}

	if err := c.Quit(); err != nil {
		t.Fatalf("quit: %v", err)
	}
	<-wd.quit
}

func TestParameterizedEndpoints(t *testing.T) {
	c, pb, _ := newTestClient(t)

	if err := c.SeekTo(42.5); err != nil {
		t.Fatal(err)
	}
	if pb.seekTo != 42.5 {
		t.Errorf("seekTo = %v, want 42.5", pb.seekTo)
	}
	if err := c.SeekBy(-10); err != nil {
		t.Fatal(err)
	}
	if pb.seekBy != -10 {
		t.Errorf("seekBy = %v, want -10", pb.seekBy)
	}

	vol, err := c.SetVolume(1.7)
	if err != nil {
		t.Fatal(err)
	}
	if vol != 1 {
		t.Errorf("applied volume = %v, want 1", vol)
	}

	loop, err := c.SetLoop(nil)
	if err != nil || !loop {
		t.Errorf("toggle loop = %v, %v; want true", loop, err)
	}
	off := false
	loop, err = c.SetLoop(&off)
	if err != nil || loop {
		t.Errorf("set loop = %v, %v; want false", loop, err)
	}

	ref := "https://www.youtube.com/watch?v=abc&t=1"
	if err := c.Open(ref); err != nil {
		t.Fatal(err)
	}
	if pb.opened != ref {
		t.Errorf("opened %q, want %q", pb.opened, ref)
	}

	st, err := c.Status()
	if err != nil {
		t.Fatal(err)
	}
	if st.Readout != "01:05 / 02:05" || st.Title != "Clip" {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestErrors(t *testing.T) {
	c, pb, _ := newTestClient(t)

	if err := c.makeSimpleRequest("POST", SeekToPath, nil); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Errorf("expected missing parameter error, got %v", err)
	}
	if err := c.makeSimpleRequest("POST", SeekToPath+"?s=abc", nil); err == nil {
		t.Error("expected parse error")
	}
	if err := c.makeSimpleRequest("GET", "/no/such/path", nil); err == nil {
		t.Error("expected not found error")
	}

	pb.failing = errors.New("surface unavailable")
	if err := c.Play(); err == nil || err.Error() != "surface unavailable" {
		t.Errorf("expected handler error, got %v", err)
	}
}
