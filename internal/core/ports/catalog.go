package ports

import (
	"context"

	"github.com/handyflix/streamproxy/internal/core/domain/catalog"
)

// CatalogService is the cache-aside proxy facade HTTP handlers talk to.
// Homepage, Search and Info return the normalized response (cached or fresh);
// a returned error is always an upstream failure and maps to the uniform
// error envelope at the transport layer.
type CatalogService interface {
	Homepage(ctx context.Context) (*catalog.Response, error)
	Search(ctx context.Context, query string) (*catalog.Response, error)
	Info(ctx context.Context, id string) (*catalog.Response, error)
	// Sources is never cached; stream URLs may be signed and short-lived.
	Sources(ctx context.Context, id string, season, episode int) ([]catalog.Source, error)
	DownloadURL(trailing string) string
}
