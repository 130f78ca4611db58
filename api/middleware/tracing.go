package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go/ext"

	"github.com/relocrm/leadstack/internal/tracing"
)

// entityParams are the route parameters that identify the record a request acts on.
var entityParams = []string{"id", "token"}

// TracingMiddleware opens one span per request, named after the route pattern so
// /v1/emails/:id groups all emails together.
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(
			c.Request.Context(),
			c.Request.Method+" "+c.FullPath(),
			c.Request.Header,
		)
		defer span.Finish()

		tracing.SetDefaultServiceSpanTags(ctx, span)
		tracing.TagComponentRest(span)
		ext.HTTPMethod.Set(span, c.Request.Method)
		ext.HTTPUrl.Set(span, c.Request.URL.Path)
		for _, param := range entityParams {
			if value := c.Param(param); value != "" {
				tracing.TagEntity(span, value)
				break
			}
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		ext.HTTPStatusCode.Set(span, uint16(status))
		if status >= 500 {
			ext.Error.Set(span, true)
		}
		if len(c.Errors) > 0 {
			span.LogKV("event", "error", "gin.errors", c.Errors.String())
		}
	}
}
