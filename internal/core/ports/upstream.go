package ports

import (
	"context"

	"github.com/handyflix/streamproxy/internal/core/domain/catalog"
)

// UpstreamClient issues requests against the external content API. Each call
// maps to exactly one HTTP GET; retry, if any, is the caller's business.
type UpstreamClient interface {
	FetchHomepage(ctx context.Context) (*catalog.Envelope, error)
	Search(ctx context.Context, query string) (*catalog.Envelope, error)
	GetInfo(ctx context.Context, id string) (*catalog.Envelope, error)
	// GetSources fetches the stream source list. Season and episode are
	// forwarded as query parameters only when positive.
	GetSources(ctx context.Context, id string, season, episode int) (*catalog.Envelope, error)
	// DownloadURL builds the absolute upstream URL for the download proxy;
	// trailing is the path remainder after /api/download/ including any
	// query string.
	DownloadURL(trailing string) string
}
