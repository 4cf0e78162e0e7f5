package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func labelsOf(ctx context.Context) map[string]string {
	out := map[string]string{}
	pprof.ForLabels(ctx, func(k, v string) bool {
		out[k] = v
		return true
	})
	return out
}

func TestProfiling_Labels(t *testing.T) {
	var got map[string]string
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTCompanyIDKey, "company-1")
		c.Next()
	}, Profiling(true))
	router.GET("/bills/:id", func(c *gin.Context) {
		got = labelsOf(c.Request.Context())
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bills/42", nil))

	assert.Equal(t, "/bills/:id", got[ProfilingLabelRoute])
	assert.Equal(t, http.MethodGet, got[ProfilingLabelMethod])
	assert.Equal(t, "company-1", got[ProfilingLabelCompany])
}

func TestProfiling_Disabled(t *testing.T) {
	var got map[string]string
	router := gin.New()
	router.Use(Profiling(false))
	router.GET("/bills/:id", func(c *gin.Context) {
		got = labelsOf(c.Request.Context())
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bills/42", nil))
	assert.Empty(t, got)
}
