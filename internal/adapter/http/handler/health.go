package handler

import (
	"net/http"

	"card-terminal/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// HealthCheck returns a handler that pings each dependency. The terminal
// state is reported alongside but never marks the service unhealthy.
func HealthCheck(terminal ports.TerminalService, checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		body := gin.H{
			"status":       status,
			"dependencies": deps,
		}
		if terminal != nil {
			body["terminal"] = terminal.State().String()
		}
		c.JSON(httpCode, body)
	}
}
