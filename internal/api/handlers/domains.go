package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"jobsnap/internal/workers"
)

// DomainStatsHandler exposes rate limiter state for one target domain
func DomainStatsHandler(limiter *workers.RateLimiter) echo.HandlerFunc {
	return func(c echo.Context) error {
		domain := c.Param("domain")
		return c.JSON(http.StatusOK, map[string]interface{}{
			"domain": domain,
			"stats":  limiter.GetDomainStats(domain),
		})
	}
}

// AllDomainStatsHandler exposes rate limiter state for every tracked domain
func AllDomainStatsHandler(limiter *workers.RateLimiter) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"domains": limiter.GetAllStats(),
		})
	}
}
