package handler

import (
	"card-terminal/internal/adapter/http/middleware"
	"card-terminal/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	Terminal       ports.TerminalService
	TokenSvc       ports.TokenService   // nil = authentication disabled
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	// RateLimits overrides DefaultRateLimitRules. Groups missing from the
	// map are not limited.
	RateLimits     map[string]middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(64 << 10))

	r.GET("/health", HealthCheck(deps.Terminal, deps.HealthCheckers...))

	swagger := r.Group("/swagger")
	{
		swagger.GET("", SwaggerUI)
		swagger.GET("/spec", SwaggerSpec)
	}

	rules := deps.RateLimits
	if rules == nil {
		rules = middleware.DefaultRateLimitRules()
	}

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- JWT-authenticated routes (operator console) ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	h := NewTerminalHandler(deps.Terminal)

	terminal := v1.Group("/terminal", jwtAuth)
	{
		terminal.GET("/state", rl("read"), h.GetState)
		terminal.GET("/locations", rl("read"), h.ListLocations)
		terminal.GET("/devices", rl("read"), h.ListDevices)

		terminal.POST("/location", rl("lifecycle"), h.SelectLocation)
		terminal.POST("/device", rl("lifecycle"), h.SelectDevice)
		terminal.POST("/reconnect", rl("lifecycle"), h.Reconnect)
		terminal.POST("/forget", rl("lifecycle"), h.Forget)
		terminal.POST("/update", rl("lifecycle"), h.InstallUpdate)
		terminal.POST("/cancel", rl("lifecycle"), h.Cancel)

		terminal.POST("/charges", rl("charges"), h.Charge)
	}

	return r
}
