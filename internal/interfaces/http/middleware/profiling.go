package middleware

import (
	"context"
	"strings"

	"github.com/bizledger/backend/internal/domain/finance"
	"github.com/bizledger/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingConfig holds configuration for the profiling middleware.
type ProfilingConfig struct {
	Enabled bool
	// SkipPathPrefixes are never labelled (health checks, docs)
	SkipPathPrefixes []string
}

// DefaultProfilingConfig returns default profiling middleware configuration.
func DefaultProfilingConfig() ProfilingConfig {
	return ProfilingConfig{
		Enabled:          true,
		SkipPathPrefixes: []string{"/health", "/swagger"},
	}
}

// Profiling attaches Pyroscope labels to the request so profiles can be
// filtered by route, method and document type:
//
//	route=/api/v1/documents/:type/:id/payments method=POST document_type=invoice
func Profiling(cfg ProfilingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	labels := map[string]string{
		telemetry.ProfilingLabelMethod: c.Request.Method,
		telemetry.ProfilingLabelRoute:  c.FullPath(),
	}
	// Only known variants, so a crafted path cannot blow up cardinality
	if docType := finance.DocumentType(c.Param("type")); docType.IsValid() {
		labels[telemetry.ProfilingLabelDocumentType] = string(docType)
	}
	return labels
}
