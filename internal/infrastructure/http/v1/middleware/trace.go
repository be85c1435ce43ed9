package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appctx "estoque/internal/core/context"
)

const (
	HeaderRequestID  = "X-Request-ID"
	HeaderTraceID    = "X-Trace-ID"
	HeaderOperatorID = "X-Operator-ID"
)

// Trace middleware adds request tracing context.
// Extracts or generates trace IDs for distributed tracing.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		traceID := c.GetHeader(HeaderTraceID)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		trace := &appctx.TraceContext{
			TraceID:   traceID,
			RequestID: requestID,
		}

		ctx := appctx.WithTrace(c.Request.Context(), trace)
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}

// Operator records who issued the request. The header is set by a trusted
// upstream (reverse proxy or desktop shell); it is not an authentication
// mechanism. Requests without it run as "system".
func Operator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if opID := strings.TrimSpace(c.GetHeader(HeaderOperatorID)); opID != "" {
			ctx := appctx.WithOperator(c.Request.Context(), &appctx.Operator{ID: opID})
			c.Request = c.Request.WithContext(ctx)
			c.Set("operator_id", opID)
		}
		c.Next()
	}
}
