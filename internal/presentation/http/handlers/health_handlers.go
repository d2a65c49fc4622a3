package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandlers reports process readiness
type HealthHandlers struct {
	db         *sql.DB
	modelsPath string
}

// NewHealthHandlers creates health handlers
func NewHealthHandlers(db *sql.DB, modelsPath string) *HealthHandlers {
	return &HealthHandlers{db: db, modelsPath: modelsPath}
}

// GetHealth handles GET /healthz
func (h *HealthHandlers) GetHealth(c *gin.Context) {
	checks := gin.H{"database": "ok", "models": "ok"}
	healthy := true

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.db == nil || h.db.PingContext(ctx) != nil {
		checks["database"] = "unavailable"
		healthy = false
	}
	if info, err := os.Stat(h.modelsPath); err != nil || !info.IsDir() {
		checks["models"] = "missing"
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"success": healthy, "value": checks})
}
