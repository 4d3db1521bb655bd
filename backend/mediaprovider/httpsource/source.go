// Package httpsource resolves item refs against a "formats" HTTP endpoint
// that returns the candidate streams and details of a remote video.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dweymouth/duoplay/backend/mediaprovider"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/zalando/go-keyring"
)

const (
	DefaultURL       = "http://localhost:3001/youtube"
	DefaultVideoMime = "video/mp4"

	// request header carrying the ref to resolve
	refHeader = "url"
)

var _ mediaprovider.Server = (*Source)(nil)

type Options struct {
	URL string
	// Bearer token sent with every request, if set.
	Token string
	// Only video streams whose MIME type contains this are offered.
	// Empty allows any video stream.
	VideoMime string
	RetryMax  int
	Timeout   time.Duration
	Logger    *log.Logger
}

type Source struct {
	url       string
	token     string
	videoMime string
	client    *retryablehttp.Client
}

func New(opts Options) *Source {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	l := opts.Logger
	if l == nil {
		l = log.Default()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = leveledLogger{l.WithPrefix("itemsource")}

	return &Source{
		url:       opts.URL,
		token:     opts.Token,
		videoMime: opts.VideoMime,
		client:    client,
	}
}

// TokenFromKeyring reads the item source token stored under service/user.
// A missing entry is not an error.
func TokenFromKeyring(service, user string) (string, error) {
	tok, err := keyring.Get(service, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return tok, err
}

// StoreToken saves the item source token in the system keyring.
func StoreToken(service, user, token string) error {
	if token == "" {
		err := keyring.Delete(service, user)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return keyring.Set(service, user, token)
}

func (s *Source) Resolve(ctx context.Context, ref string) (*mediaprovider.Item, error) {
	req, err := s.newRequest(ctx, http.MethodGet)
	if err != nil {
		return nil, err
	}
	req.Header.Set(refHeader, ref)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}
	defer resp.Body.Close()

	return parseFormatsResponse(resp, ref, s.videoMime)
}

// Ping checks that the item source is reachable. Any response that is not
// a server error counts.
func (s *Source) Ping(ctx context.Context) error {
	req, err := s.newRequest(ctx, http.MethodHead)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("item source unavailable: status %d", resp.StatusCode)
	}
	return nil
}

func (s *Source) newRequest(ctx context.Context, method string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	req.Header.Add("User-Agent", "duoplay")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	return req, nil
}

// adapts charmbracelet/log to retryablehttp.LeveledLogger
type leveledLogger struct {
	l *log.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.l.Error(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.l.Debug(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.l.Debug(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.l.Warn(msg, kv...) }
