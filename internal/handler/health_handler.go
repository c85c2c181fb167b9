// internal/handler/health_handler.go
package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-terminal/internal/config"
	"serial-terminal/internal/service"
	"serial-terminal/internal/utils"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	db       *sql.DB
	terminal *service.TerminalService
	config   *config.Config
	logger   *utils.ServiceLogger
	started  time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *sql.DB, terminal *service.TerminalService, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:       db,
		terminal: terminal,
		config:   config,
		logger:   utils.NewServiceLogger(logger, "health-handler"),
		started:  time.Now(),
	}
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.HealthCheck)
	router.GET("/ready", h.ReadinessCheck)
	router.GET("/live", h.LivenessCheck)
}

// HealthCheck performs general health check
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.started).String(),
		Checks:    make(map[string]CheckResult),
	}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		health.Status = "unhealthy"
		health.Checks["database"] = CheckResult{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	} else {
		health.Checks["database"] = CheckResult{
			Status:  "healthy",
			Message: "Database connection OK",
		}
	}

	status := h.terminal.Status()
	connMessage := "No serial connection open"
	if status.IsConnected {
		connMessage = "Serial connection open"
	}
	health.Checks["serial_connection"] = CheckResult{
		Status:  "healthy",
		Message: connMessage,
		Data: map[string]interface{}{
			"connected":      status.IsConnected,
			"port":           status.PortName,
			"bytes_sent":     status.BytesSent,
			"bytes_received": status.BytesReceived,
		},
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// ReadinessCheck for orchestrator readiness probes
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		h.logger.Error("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database not available",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck reports that the process can respond
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
