// internal/routes/routes.go
package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-terminal/internal/config"
	"serial-terminal/internal/handler"
	"serial-terminal/internal/middleware"
	"serial-terminal/internal/model"
	"serial-terminal/internal/repository"
	"serial-terminal/internal/service"
	"serial-terminal/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config   *config.Config
	logger   *zap.Logger
	db       *sql.DB
	terminal *service.TerminalService
	sessions repository.SessionRepository
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db *sql.DB,
	terminal *service.TerminalService,
	sessions repository.SessionRepository,
) *Router {
	return &Router{
		config:   config,
		logger:   logger,
		db:       db,
		terminal: terminal,
		sessions: sessions,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	defaults := r.serialDefaults()

	healthHandler := handler.NewHealthHandler(r.db, r.terminal, r.config, r.logger)
	terminalHandler := handler.NewTerminalHandler(r.terminal, defaults, r.logger)
	sessionHandler := handler.NewSessionHandler(r.sessions, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.terminal, r.logger)

	healthHandler.RegisterRoutes(router.Group(""))

	apiV1 := router.Group("/api/v1")
	terminalHandler.RegisterRoutes(apiV1)
	sessionHandler.RegisterRoutes(apiV1)

	wsHandler.RegisterRoutes(router.Group("/ws"))

	r.logger.Info("All routes configured successfully")
}

// serialDefaults translates the configured serial defaults into a
// validated config; malformed settings fall back to the library default.
func (r *Router) serialDefaults() model.SerialConfig {
	defaults := model.SerialConfig{
		BaudRate:      r.config.Serial.BaudRate,
		DataBits:      r.config.Serial.DataBits,
		Parity:        model.Parity(r.config.Serial.Parity),
		StopBits:      model.StopBits(r.config.Serial.StopBits),
		FlowControl:   model.FlowControl(r.config.Serial.FlowControl),
		ReadTimeoutMs: r.config.Serial.ReadTimeoutMs,
	}
	if err := defaults.Validate(); err != nil {
		r.logger.Warn("Invalid serial defaults in config, using built-in defaults",
			zap.Error(err),
		)
		return model.DefaultSerialConfig()
	}
	return defaults
}
