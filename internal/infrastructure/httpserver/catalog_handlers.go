package httpserver

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/handyflix/streamproxy/internal/core/domain/catalog"
	"github.com/labstack/echo/v4"
)

// Route-specific messages of the uniform failure envelope. The frontend
// surfaces these verbatim, so the wording is part of the contract.
const (
	msgHomepageFailed = "Failed to fetch homepage content"
	msgSearchFailed   = "Failed to search content"
	msgInfoFailed     = "Failed to fetch movie/series info"
	msgSourcesFailed  = "Failed to fetch streaming sources"
	msgDownloadFailed = "Failed to redirect download"
)

func (s *Server) getHomepage(c echo.Context) error {
	resp, err := s.catalog.Homepage(c.Request().Context())
	if err != nil {
		s.logger.WithError(err).Error("homepage error")
		return c.JSON(http.StatusInternalServerError, catalog.NewErrorResponse(msgHomepageFailed, err))
	}
	return c.JSON(resp.Status, resp)
}

func (s *Server) search(c echo.Context) error {
	query := c.Param("query")
	if unescaped, err := url.PathUnescape(query); err == nil {
		query = unescaped
	}
	resp, err := s.catalog.Search(c.Request().Context(), query)
	if err != nil {
		s.logger.WithError(err).WithField("query", query).Error("search error")
		return c.JSON(http.StatusInternalServerError, catalog.NewErrorResponse(msgSearchFailed, err))
	}
	return c.JSON(resp.Status, resp)
}

func (s *Server) getInfo(c echo.Context) error {
	movieID := c.Param("movieId")
	resp, err := s.catalog.Info(c.Request().Context(), movieID)
	if err != nil {
		s.logger.WithError(err).WithField("movie_id", movieID).Error("info error")
		return c.JSON(http.StatusInternalServerError, catalog.NewErrorResponse(msgInfoFailed, err))
	}
	return c.JSON(resp.Status, resp)
}

func (s *Server) getSources(c echo.Context) error {
	movieID := c.Param("movieId")
	season := intQueryParam(c, "season")
	episode := intQueryParam(c, "episode")

	sources, err := s.catalog.Sources(c.Request().Context(), movieID, season, episode)
	if err != nil {
		s.logger.WithError(err).WithField("movie_id", movieID).Error("sources error")
		return c.JSON(http.StatusInternalServerError, catalog.NewErrorResponse(msgSourcesFailed, err))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":  http.StatusOK,
		"success": true,
		"results": sources,
	})
}

// downloadRedirect forwards the browser straight to the upstream download
// proxy. No caching, no transformation; the trailing path and query are
// reassembled exactly as received.
func (s *Server) downloadRedirect(c echo.Context) error {
	trailing := c.Param("*")
	if rawQuery := c.Request().URL.RawQuery; rawQuery != "" {
		trailing += "?" + rawQuery
	}
	if err := c.Redirect(http.StatusFound, s.catalog.DownloadURL(trailing)); err != nil {
		s.logger.WithError(err).Error("download redirect error")
		return c.JSON(http.StatusInternalServerError, catalog.NewErrorResponse(msgDownloadFailed, err))
	}
	return nil
}

func intQueryParam(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}
