package mediaprovider

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("item not found")

// ItemSource resolves a user-supplied reference (e.g. a video page URL)
// into a playable item.
type ItemSource interface {
	Resolve(ctx context.Context, ref string) (*Item, error)
}

// Server is an ItemSource backed by a remote service that can be health checked.
type Server interface {
	ItemSource
	Ping(ctx context.Context) error
}
