package httpserver

import "github.com/labstack/echo/v4"

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api", apiCORS)
	api.GET("/homepage", s.getHomepage)
	api.GET("/search/:query", s.search)
	api.GET("/info/:movieId", s.getInfo)
	api.GET("/sources/:movieId", s.getSources)
	api.GET("/download/*", s.downloadRedirect)
	// Preflight for every API route. The download wildcard node needs its
	// own OPTIONS registration: the router resolves OPTIONS requests on
	// that node before it would fall back to the group-level wildcard.
	api.OPTIONS("/*", func(c echo.Context) error { return nil })
	api.OPTIONS("/download/*", func(c echo.Context) error { return nil })

	s.setupStaticRoutes()
}
