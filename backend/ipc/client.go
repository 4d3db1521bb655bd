package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var ErrPingFail = errors.New("ping failed")

type Client struct {
	httpC http.Client
}

// Connect attempts to connect to the IPC socket as client.
func Connect() (*Client, error) {
	conn, err := Dial()
	if err != nil {
		return nil, fmt.Errorf("dial error: %w", err)
	}
	client := newClient(func(context.Context, string, string) (net.Conn, error) {
		return conn, nil
	})
	if err := client.Ping(); err != nil {
		return nil, err
	}
	return client, nil
}

func newClient(dial func(ctx context.Context, network, addr string) (net.Conn, error)) *Client {
	return &Client{httpC: http.Client{
		Transport: &http.Transport{DialContext: dial},
	}}
}

func (c *Client) Ping() error {
	if c.makeSimpleRequest(http.MethodGet, PingPath, nil) != nil {
		return ErrPingFail
	}
	return nil
}

func (c *Client) Open(ref string) error {
	return c.makeSimpleRequest(http.MethodPost, BuildOpenPath(ref), nil)
}

func (c *Client) Play() error {
	return c.makeSimpleRequest(http.MethodPost, PlayPath, nil)
}

func (c *Client) Pause() error {
	return c.makeSimpleRequest(http.MethodPost, PausePath, nil)
}

func (c *Client) PlayPause() error {
	return c.makeSimpleRequest(http.MethodPost, PlayPausePath, nil)
}

func (c *Client) Next() error {
	return c.makeSimpleRequest(http.MethodPost, NextPath, nil)
}

func (c *Client) Previous() error {
	return c.makeSimpleRequest(http.MethodPost, PreviousPath, nil)
}

func (c *Client) SeekTo(secs float64) error {
	return c.makeSimpleRequest(http.MethodPost, SeekToSecondsPath(secs), nil)
}

func (c *Client) SeekBy(secs float64) error {
	return c.makeSimpleRequest(http.MethodPost, SeekBySecondsPath(secs), nil)
}

// SetVolume returns the volume applied by the player.
func (c *Client) SetVolume(vol float64) (float64, error) {
	var v struct {
		Volume float64 `json:"volume"`
	}
	err := c.makeSimpleRequest(http.MethodPost, SetVolumePath(vol), &v)
	return v.Volume, err
}

// SetLoop sets the loop mode, or toggles it if on is nil.
func (c *Client) SetLoop(on *bool) (bool, error) {
	path := LoopPath
	if on != nil {
		path = SetLoopPath(*on)
	}
	var l struct {
		Loop bool `json:"loop"`
	}
	err := c.makeSimpleRequest(http.MethodPost, path, &l)
	return l.Loop, err
}

func (c *Client) Status() (Status, error) {
	var s Status
	err := c.makeSimpleRequest(http.MethodGet, StatusPath, &s)
	return s, err
}

func (c *Client) Show() error {
	return c.makeSimpleRequest(http.MethodPost, ShowPath, nil)
}

func (c *Client) Hide() error {
	return c.makeSimpleRequest(http.MethodPost, HidePath, nil)
}

func (c *Client) Quit() error {
	return c.makeSimpleRequest(http.MethodPost, QuitPath, nil)
}

// makeSimpleRequest decodes a successful response body into out, if non-nil.
func (c *Client) makeSimpleRequest(method string, path string, out any) error {
	var resp *http.Response
	var err error
	switch method {
	case http.MethodGet:
		resp, err = c.httpC.Get("http://duoplay" + path)
	case http.MethodPost:
		resp, err = c.httpC.Post("http://duoplay"+path, "application/json", nil)
	default:
		return fmt.Errorf("unsupported method %s", method)
	}
	if err != nil {
		return fmt.Errorf("http err: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var r Response
		json.NewDecoder(resp.Body).Decode(&r)
		if r.Error == "" {
			r.Error = resp.Status
		}
		return errors.New(r.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
