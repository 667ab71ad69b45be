package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/handyflix/streamproxy/internal/infrastructure/health"
	"github.com/labstack/echo/v4"
)

// Health check handler. A disabled dependency (cache never configured) is
// reported but does not degrade the overall status.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)
	overall := "healthy"
	for _, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		switch err := hc.Check(ctx); {
		case err == nil:
			deps[hc.Name()] = "healthy"
		case errors.Is(err, health.ErrDisabled):
			deps[hc.Name()] = "disabled"
		default:
			deps[hc.Name()] = "unhealthy"
			if overall == "healthy" {
				overall = "degraded"
			}
		}
	}

	body := map[string]interface{}{
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"service":      "streamproxy",
		"dependencies": deps,
	}
	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, body)
}
