package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by /health/info.
const Version = "0.1.0"

// ReadinessChecker reports whether a backing store accepts traffic.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checker ReadinessChecker
	storage string
}

// NewHealthHandler creates a new health handler. A nil checker means the
// service runs on the in-memory store and is always ready.
func NewHealthHandler(checker ReadinessChecker, storage string) *HealthHandler {
	return &HealthHandler{checker: checker, storage: storage}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.checker != nil {
		if err := h.checker.Check(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": map[string]string{
					"database": "unhealthy: " + err.Error(),
				},
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": map[string]string{
			"database": "healthy",
		},
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":     "estoque",
		"version": Version,
		"storage": h.storage,
	})
}
