// internal/handler/session_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-terminal/internal/model"
	"serial-terminal/internal/repository"
	"serial-terminal/internal/utils"
)

// SessionHandler handles named serial configuration presets
type SessionHandler struct {
	sessions repository.SessionRepository
	logger   *utils.ServiceLogger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions repository.SessionRepository, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   utils.NewServiceLogger(logger, "session-handler"),
	}
}

// RegisterRoutes registers session routes
func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/sessions")
	{
		sessions.GET("", h.ListSessions)
		sessions.POST("", h.SaveSession)
		sessions.GET("/:name", h.GetSession)
		sessions.DELETE("/:name", h.DeleteSession)
	}
}

// ListSessions returns all saved presets
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessions.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list sessions", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Sessions listed", gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// SaveSessionRequest names a preset and its serial configuration
type SaveSessionRequest struct {
	Name   string             `json:"name" binding:"required"`
	Config model.SerialConfig `json:"config" binding:"required"`
}

// SaveSession creates or updates a preset
func (h *SessionHandler) SaveSession(c *gin.Context) {
	var req SaveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	session := model.Session{Name: req.Name, Config: req.Config}
	if err := h.sessions.Save(c.Request.Context(), session); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to save session", err)
		return
	}

	h.logger.Info("Session saved", zap.String("name", req.Name))
	utils.SuccessResponse(c, http.StatusCreated, "Session saved", session)
}

// GetSession returns the preset with the given name
func (h *SessionHandler) GetSession(c *gin.Context) {
	name := c.Param("name")

	session, err := h.sessions.Get(c.Request.Context(), name)
	if err == repository.ErrSessionNotFound {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", err)
		return
	}
	if err != nil {
		h.logger.Error("Failed to get session", zap.String("name", name), zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to get session", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session found", session)
}

// DeleteSession removes the preset with the given name
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	name := c.Param("name")

	err := h.sessions.Delete(c.Request.Context(), name)
	if err == repository.ErrSessionNotFound {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", err)
		return
	}
	if err != nil {
		h.logger.Error("Failed to delete session", zap.String("name", name), zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to delete session", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session deleted", nil)
}
