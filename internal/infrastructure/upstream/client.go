package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/handyflix/streamproxy/configs"
	"github.com/handyflix/streamproxy/internal/core/domain/catalog"
	"github.com/handyflix/streamproxy/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// Error is the typed failure for any upstream problem: transport errors,
// non-2xx statuses and undecodable bodies all surface as *Error so route
// handlers can fold them into the uniform error envelope.
type Error struct {
	Op     string // upstream operation, e.g. "search"
	Status int    // HTTP status when one was received, else 0
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Shared transport: keep-alives on, HTTP/2 attempted, sane handshake
// timeouts. One transport serves all upstream calls.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Client talks to the external content API. One GET per operation, no
// internal retry; backoff is the caller's concern.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logrus.Logger
}

func NewClient(cfg *config.UpstreamConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: defaultTransport.Clone(),
		},
		logger: logger,
	}
}

// FetchHomepage implements ports.UpstreamClient.
func (c *Client) FetchHomepage(ctx context.Context) (*catalog.Envelope, error) {
	return c.getEnvelope(ctx, "homepage", "/api/homepage")
}

// Search implements ports.UpstreamClient.
func (c *Client) Search(ctx context.Context, query string) (*catalog.Envelope, error) {
	return c.getEnvelope(ctx, "search", "/api/search/"+url.PathEscape(query))
}

// GetInfo implements ports.UpstreamClient.
func (c *Client) GetInfo(ctx context.Context, id string) (*catalog.Envelope, error) {
	return c.getEnvelope(ctx, "info", "/api/info/"+url.PathEscape(id))
}

// GetSources implements ports.UpstreamClient. Season and episode ride along
// as query parameters only when positive; zero or negative means absent.
func (c *Client) GetSources(ctx context.Context, id string, season, episode int) (*catalog.Envelope, error) {
	params := url.Values{}
	if season > 0 {
		params.Set("season", strconv.Itoa(season))
	}
	if episode > 0 {
		params.Set("episode", strconv.Itoa(episode))
	}
	path := "/api/sources/" + url.PathEscape(id)
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.getEnvelope(ctx, "sources", path)
}

// DownloadURL implements ports.UpstreamClient.
func (c *Client) DownloadURL(trailing string) string {
	return c.baseURL + "/api/download/" + trailing
}

func (c *Client) getEnvelope(ctx context.Context, op, path string) (*catalog.Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{"op": op, "path": path}).Debug("upstream request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: op, Status: resp.StatusCode}
	}

	var env catalog.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	return &env, nil
}

var _ ports.UpstreamClient = (*Client)(nil)
