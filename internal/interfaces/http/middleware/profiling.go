package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling labels
const (
	ProfilingLabelRoute   = "route"
	ProfilingLabelMethod  = "method"
	ProfilingLabelCompany = "company_id"
)

// Profiling tags CPU samples taken while a request runs with its route,
// method and company, so profiles can be filtered per endpoint.
// Unmatched routes are not labelled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := []string{
			ProfilingLabelRoute, route,
			ProfilingLabelMethod, c.Request.Method,
		}
		if company := GetJWTCompanyID(c); company != "" {
			labels = append(labels, ProfilingLabelCompany, company)
		}
		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(labels...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
