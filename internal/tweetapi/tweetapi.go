// Package tweetapi defines the contract against the external tweet
// media proxy API the Fetcher's Twitter adapter calls. The proxy
// service itself is out of scope.
package tweetapi

import "context"

// MediaKind distinguishes the media items a tweet can carry.
type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaGIF   MediaKind = "gif"
	MediaPhoto MediaKind = "photo"
)

// MediaItem is one direct-downloadable asset extracted from a tweet.
type MediaItem struct {
	Kind         MediaKind
	URL          string
	ThumbnailURL string // optional, empty if the proxy didn't supply one
}

// Client is the contract the Fetcher's tweet adapter requires.
type Client interface {
	// Resolve takes a tweet URL and returns its media items in the
	// tweet's original display order.
	Resolve(ctx context.Context, tweetURL string) ([]MediaItem, error)
}
