package httpserver

import (
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// setupStaticRoutes wires the page server: every browser-facing page plus
// the asset tree. API routes are registered first and take precedence.
func (s *Server) setupStaticRoutes() {
	root := s.config.StaticRoot
	if root == "" {
		return
	}

	pages := s.echo.Group("", staticCacheControl)

	pages.File("/", filepath.Join(root, "index.html"))
	pages.File("/search", filepath.Join(root, "search.html"))
	pages.File("/details", filepath.Join(root, "details.html"))
	pages.File("/player", filepath.Join(root, "player.html"))
	pages.File("/category/:name", filepath.Join(root, "category.html"))
	pages.File("/robots.txt", filepath.Join(root, "robots.txt"))
	pages.File("/sitemap.xml", filepath.Join(root, "sitemap.xml"))
	pages.File("/manifest.json", filepath.Join(root, "manifest.json"))

	pages.Static("/", root)
}

// staticCacheControl disables HTTP caching for revisable sources (html, js,
// css) so clients pick up deploys immediately, and lets images and other
// assets cache for a day.
func staticCacheControl(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		path := c.Request().URL.Path
		if isRevisable(path) {
			h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		} else {
			h.Set("Cache-Control", "public, max-age=86400")
		}
		return next(c)
	}
}

func isRevisable(path string) bool {
	if path == "/" || !strings.Contains(filepath.Base(path), ".") {
		// Extensionless page routes serve HTML.
		return true
	}
	switch filepath.Ext(path) {
	case ".html", ".js", ".css":
		return true
	}
	return false
}
