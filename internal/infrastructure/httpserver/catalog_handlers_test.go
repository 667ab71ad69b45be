package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/handyflix/streamproxy/internal/core/domain/catalog"
	"github.com/handyflix/streamproxy/internal/core/ports"
	"github.com/handyflix/streamproxy/internal/infrastructure/health"
	"github.com/handyflix/streamproxy/internal/infrastructure/httpserver"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type catalogMock struct {
	homepageFn func(ctx context.Context) (*catalog.Response, error)
	searchFn   func(ctx context.Context, query string) (*catalog.Response, error)
	infoFn     func(ctx context.Context, id string) (*catalog.Response, error)
	sourcesFn  func(ctx context.Context, id string, season, episode int) ([]catalog.Source, error)
}

func (m *catalogMock) Homepage(ctx context.Context) (*catalog.Response, error) {
	if m.homepageFn != nil {
		return m.homepageFn(ctx)
	}
	return &catalog.Response{Status: 200, Success: true, Data: json.RawMessage(`{}`)}, nil
}

func (m *catalogMock) Search(ctx context.Context, query string) (*catalog.Response, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return &catalog.Response{Status: 200, Success: true, Results: json.RawMessage(`{}`)}, nil
}

func (m *catalogMock) Info(ctx context.Context, id string) (*catalog.Response, error) {
	if m.infoFn != nil {
		return m.infoFn(ctx, id)
	}
	return &catalog.Response{Status: 200, Success: true, Results: json.RawMessage(`{}`)}, nil
}

func (m *catalogMock) Sources(ctx context.Context, id string, season, episode int) ([]catalog.Source, error) {
	if m.sourcesFn != nil {
		return m.sourcesFn(ctx, id, season, episode)
	}
	return []catalog.Source{}, nil
}

func (m *catalogMock) DownloadURL(trailing string) string {
	return "https://upstream.example/api/download/" + trailing
}

var _ ports.CatalogService = (*catalogMock)(nil)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestServer(t *testing.T, mock *catalogMock, checkers ...ports.HealthChecker) *httpserver.Server {
	t.Helper()
	cfg := &httpserver.ServerConfig{Host: "127.0.0.1", Port: "0"}
	return httpserver.NewServer(cfg, testLogger(), httpserver.ServerDeps{
		Catalog:        mock,
		HealthCheckers: checkers,
	})
}

func do(srv *httpserver.Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func TestGetHomepage_Success(t *testing.T) {
	mock := &catalogMock{homepageFn: func(ctx context.Context) (*catalog.Response, error) {
		return &catalog.Response{Status: 200, Success: true, Data: json.RawMessage(`{"operatingList":[]}`)}, nil
	}}
	rec := do(newTestServer(t, mock), http.MethodGet, "/api/homepage")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":200,"success":true,"data":{"operatingList":[]}}`, rec.Body.String())
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGetHomepage_Failure(t *testing.T) {
	mock := &catalogMock{homepageFn: func(ctx context.Context) (*catalog.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}}
	rec := do(newTestServer(t, mock), http.MethodGet, "/api/homepage")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"status":500,"success":false,"message":"Failed to fetch homepage content","error":"dial tcp: connection refused"}`, rec.Body.String())
}

func TestSearch_DecodesPathParam(t *testing.T) {
	var got string
	mock := &catalogMock{searchFn: func(ctx context.Context, query string) (*catalog.Response, error) {
		got = query
		return &catalog.Response{Status: 200, Success: true, Results: json.RawMessage(`{"items":[]}`)}, nil
	}}
	rec := do(newTestServer(t, mock), http.MethodGet, "/api/search/dark%20knight")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "dark knight", got)
}

func TestSearch_EndToEndShape(t *testing.T) {
	mock := &catalogMock{searchFn: func(ctx context.Context, query string) (*catalog.Response, error) {
		require.Equal(t, "batman", query)
		return &catalog.Response{Status: 200, Success: true, Results: json.RawMessage(`{"items":[{"subjectId":"42","title":"Batman"}]}`)}, nil
	}}
	rec := do(newTestServer(t, mock), http.MethodGet, "/api/search/batman")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":200,"success":true,"results":{"items":[{"subjectId":"42","title":"Batman"}]}}`, rec.Body.String())
}

func TestGetInfo_FailureEnvelope(t *testing.T) {
	mock := &catalogMock{infoFn: func(ctx context.Context, id string) (*catalog.Response, error) {
		require.Equal(t, "42", id)
		return nil, errors.New("boom")
	}}
	rec := do(newTestServer(t, mock), http.MethodGet, "/api/info/42")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"status":500,"success":false,"message":"Failed to fetch movie/series info","error":"boom"}`, rec.Body.String())
}

func TestGetSources_Shape(t *testing.T) {
	mock := &catalogMock{sourcesFn: func(ctx context.Context, id string, season, episode int) ([]catalog.Source, error) {
		require.Equal(t, "9", id)
		require.Equal(t, 2, season)
		require.Equal(t, 5, episode)
		return []catalog.Source{{
			ID:          json.RawMessage(`1`),
			Quality:     "480p",
			DownloadURL: "https://x/1",
			StreamURL:   "https://x/1",
			OriginalURL: "https://y/1",
			Size:        "100",
			Format:      "mp4",
		}}, nil
	}}
	rec := do(newTestServer(t, mock), http.MethodGet, "/api/sources/9?season=2&episode=5")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":200,"success":true,"results":[{"id":1,"quality":"480p","download_url":"https://x/1","stream_url":"https://x/1","original_url":"https://y/1","size":100,"format":"mp4"}]}`, rec.Body.String())
}

func TestGetSources_EmptyList(t *testing.T) {
	rec := do(newTestServer(t, &catalogMock{}), http.MethodGet, "/api/sources/9")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":200,"success":true,"results":[]}`, rec.Body.String())
}

func TestGetSources_InvalidSeasonEpisodeTreatedAbsent(t *testing.T) {
	var gotSeason, gotEpisode int
	mock := &catalogMock{sourcesFn: func(ctx context.Context, id string, season, episode int) ([]catalog.Source, error) {
		gotSeason, gotEpisode = season, episode
		return []catalog.Source{}, nil
	}}
	rec := do(newTestServer(t, mock), http.MethodGet, "/api/sources/9?season=abc&episode=")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, gotSeason)
	require.Zero(t, gotEpisode)
}

func TestDownloadRedirect(t *testing.T) {
	rec := do(newTestServer(t, &catalogMock{}), http.MethodGet, "/api/download/movies/42/file.mp4?sig=abc&exp=99")

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://upstream.example/api/download/movies/42/file.mp4?sig=abc&exp=99", rec.Header().Get("Location"))
}

func TestOptionsPreflightShortCircuits(t *testing.T) {
	srv := newTestServer(t, &catalogMock{})
	for _, target := range []string{
		"/api/homepage",
		"/api/search/batman",
		"/api/info/42",
		"/api/sources/42",
		"/api/download/movies/42/file.mp4",
	} {
		rec := do(srv, http.MethodOptions, target)

		require.Equal(t, http.StatusOK, rec.Code, "OPTIONS %s", target)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "OPTIONS %s", target)
		require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "OPTIONS", "OPTIONS %s", target)
	}
}

type checkerStub struct {
	name string
	err  error
}

func (c *checkerStub) Name() string                    { return c.name }
func (c *checkerStub) Check(ctx context.Context) error { return c.err }

func TestHealth_DegradedOnUnhealthyChecker(t *testing.T) {
	srv := newTestServer(t, &catalogMock{}, &checkerStub{name: "cache", err: errors.New("down")})
	rec := do(srv, http.MethodGet, "/health")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "degraded", body["status"])
}

func TestHealth_DisabledCheckerDoesNotDegrade(t *testing.T) {
	srv := newTestServer(t, &catalogMock{}, &checkerStub{name: "cache", err: health.ErrDisabled})
	rec := do(srv, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
	deps, ok := body["dependencies"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "disabled", deps["cache"])
}

func TestHealth_HealthyWithoutCheckers(t *testing.T) {
	rec := do(newTestServer(t, &catalogMock{}), http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body["status"])
}
