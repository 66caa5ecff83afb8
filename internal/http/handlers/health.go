package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
}

// create a new instance of the health handler; nil checks are skipped
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(checks))

	for name, check := range checks {
		if check != nil {
			active[name] = check
		}
	}

	return &HealthHandler{checks: active, timeout: time.Second}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	ready := true

	for name, check := range h.checks {
		if err := check(cctx); err != nil {
			results[name] = "down"
			ready = false
			continue
		}
		results[name] = "up"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": results})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": results})
}
