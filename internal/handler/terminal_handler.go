// internal/handler/terminal_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"serial-terminal/internal/discovery"
	"serial-terminal/internal/model"
	"serial-terminal/internal/service"
	"serial-terminal/internal/utils"
)

// TerminalHandler handles connection, send and terminal settings requests
type TerminalHandler struct {
	terminal *service.TerminalService
	defaults model.SerialConfig
	logger   *utils.ServiceLogger
}

// NewTerminalHandler creates a new terminal handler. defaults fill in
// serial parameters the client omits on connect.
func NewTerminalHandler(terminal *service.TerminalService, defaults model.SerialConfig, logger *zap.Logger) *TerminalHandler {
	return &TerminalHandler{
		terminal: terminal,
		defaults: defaults,
		logger:   utils.NewServiceLogger(logger, "terminal-handler"),
	}
}

// RegisterRoutes registers terminal routes
func (h *TerminalHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ports", h.ListPorts)

	connection := router.Group("/connection")
	{
		connection.POST("/open", h.OpenConnection)
		connection.POST("/close", h.CloseConnection)
		connection.GET("/status", h.ConnectionStatus)
	}

	terminal := router.Group("/terminal")
	{
		terminal.POST("/send", h.Send)
		terminal.GET("/logs", h.GetLogs)
		terminal.DELETE("/logs", h.ClearLogs)
		terminal.POST("/logs/export", h.ExportLogs)
		terminal.PUT("/log-limit", h.SetLogLimit)
	}

	settings := router.Group("/settings")
	{
		settings.PUT("/segmentation", h.SetSegmentation)
		settings.PUT("/display-format", h.SetDisplayFormat)
		settings.PUT("/encoding", h.SetEncoding)
		settings.PUT("/special-chars", h.SetSpecialChars)
		settings.PUT("/timestamps", h.SetTimestamps)
	}

	recording := router.Group("/recording")
	{
		recording.POST("/text/start", h.StartTextRecording)
		recording.POST("/text/stop", h.StopTextRecording)
		recording.POST("/raw/start", h.StartRawRecording)
		recording.POST("/raw/stop", h.StopRawRecording)
		recording.GET("/status", h.RecordingStatus)
	}
}

// ListPorts enumerates serial ports available on the host
func (h *TerminalHandler) ListPorts(c *gin.Context) {
	ports, err := discovery.ListPorts()
	if err != nil {
		h.logger.Error("Failed to list serial ports", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list serial ports", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Serial ports listed", gin.H{
		"ports": ports,
		"count": len(ports),
	})
}

// OpenConnectionRequest is the connect payload. Omitted serial
// parameters fall back to the configured defaults.
type OpenConnectionRequest struct {
	PortName string              `json:"port_name" binding:"required"`
	Config   *model.SerialConfig `json:"config,omitempty"`
}

// OpenConnection opens a serial connection
func (h *TerminalHandler) OpenConnection(c *gin.Context) {
	var req OpenConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg := h.defaults
	if req.Config != nil {
		cfg = *req.Config
	}

	if err := h.terminal.Connect(req.PortName, cfg); err != nil {
		h.logger.Error("Failed to open connection",
			zap.String("port", req.PortName),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to open connection", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Connection opened", h.terminal.Status())
}

// CloseConnection closes the active serial connection
func (h *TerminalHandler) CloseConnection(c *gin.Context) {
	if err := h.terminal.Disconnect(); err != nil {
		h.logger.Error("Failed to close connection", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to close connection", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Connection closed", h.terminal.Status())
}

// ConnectionStatus returns the current connection state
func (h *TerminalHandler) ConnectionStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Connection status", h.terminal.Status())
}

// Send transmits a payload on the open connection
func (h *TerminalHandler) Send(c *gin.Context) {
	var req service.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := h.terminal.Send(req)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to send data", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Data sent", entry)
}

// GetLogs returns the log snapshot
func (h *TerminalHandler) GetLogs(c *gin.Context) {
	logs := h.terminal.Logs()
	utils.SuccessResponse(c, http.StatusOK, "Terminal logs", gin.H{
		"entries": logs,
		"count":   len(logs),
		"limit":   h.terminal.LogLimit(),
	})
}

// ClearLogs empties the log store
func (h *TerminalHandler) ClearLogs(c *gin.Context) {
	h.terminal.ClearLogs()
	utils.SuccessResponse(c, http.StatusOK, "Terminal logs cleared", nil)
}

// ExportLogsRequest selects export destination and format
type ExportLogsRequest struct {
	Directory string             `json:"directory"`
	Format    model.ExportFormat `json:"format" binding:"required"`
}

// ExportLogs writes the log snapshot to a file
func (h *TerminalHandler) ExportLogs(c *gin.Context) {
	var req ExportLogsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.terminal.ExportLogs(req.Directory, req.Format)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to export logs", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Logs exported", result)
}

// SetLogLimitRequest sets the log store capacity
type SetLogLimitRequest struct {
	Limit int `json:"limit" binding:"required"`
}

// SetLogLimit resizes the log store. Out-of-range limits are clamped
// and the applied capacity is returned.
func (h *TerminalHandler) SetLogLimit(c *gin.Context) {
	var req SetLogLimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	applied := h.terminal.SetLogLimit(req.Limit)
	utils.SuccessResponse(c, http.StatusOK, "Log limit updated", gin.H{
		"requested": req.Limit,
		"applied":   applied,
	})
}

// SetSegmentation updates frame segmentation settings
func (h *TerminalHandler) SetSegmentation(c *gin.Context) {
	var req model.FrameSegmentationConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.terminal.SetSegmentation(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid segmentation settings", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Segmentation updated", h.terminal.Segmentation())
}

// SetDisplayFormatRequest selects hex or text rendering
type SetDisplayFormatRequest struct {
	Format model.ReceiveFormat `json:"format" binding:"required"`
}

// SetDisplayFormat switches between hex and text rendering
func (h *TerminalHandler) SetDisplayFormat(c *gin.Context) {
	var req SetDisplayFormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.terminal.SetDisplayFormat(req.Format); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid display format", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Display format updated", h.terminal.DisplayConfig())
}

// SetEncodingRequest selects the text rendering encoding
type SetEncodingRequest struct {
	Encoding model.TextEncoding `json:"encoding" binding:"required"`
}

// SetEncoding switches the text rendering encoding
func (h *TerminalHandler) SetEncoding(c *gin.Context) {
	var req SetEncodingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.terminal.SetTextEncoding(req.Encoding); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid text encoding", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Text encoding updated", h.terminal.DisplayConfig())
}

// SetSpecialChars replaces control-character visualization toggles
func (h *TerminalHandler) SetSpecialChars(c *gin.Context) {
	var req model.SpecialCharConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.terminal.SetSpecialChars(req)
	utils.SuccessResponse(c, http.StatusOK, "Special character settings updated", h.terminal.DisplayConfig())
}

// SetTimestampsRequest toggles timestamp rendering
type SetTimestampsRequest struct {
	Show *bool `json:"show" binding:"required"`
}

// SetTimestamps toggles timestamp rendering on new entries
func (h *TerminalHandler) SetTimestamps(c *gin.Context) {
	var req SetTimestampsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.terminal.SetShowTimestamps(*req.Show)
	utils.SuccessResponse(c, http.StatusOK, "Timestamp settings updated", h.terminal.DisplayConfig())
}

// StartTextRecording starts the text recording session
func (h *TerminalHandler) StartTextRecording(c *gin.Context) {
	path, err := h.terminal.StartTextRecording()
	if err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "Failed to start text recording", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Text recording started", gin.H{"file_path": path})
}

// StopTextRecording stops the text recording session
func (h *TerminalHandler) StopTextRecording(c *gin.Context) {
	h.terminal.StopTextRecording()
	utils.SuccessResponse(c, http.StatusOK, "Text recording stopped", h.terminal.RecordingStatus())
}

// StartRawRecording starts the raw recording session
func (h *TerminalHandler) StartRawRecording(c *gin.Context) {
	path, err := h.terminal.StartRawRecording()
	if err != nil {
		utils.ErrorResponse(c, http.StatusConflict, "Failed to start raw recording", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Raw recording started", gin.H{"file_path": path})
}

// StopRawRecording stops the raw recording session
func (h *TerminalHandler) StopRawRecording(c *gin.Context) {
	h.terminal.StopRawRecording()
	utils.SuccessResponse(c, http.StatusOK, "Raw recording stopped", h.terminal.RecordingStatus())
}

// RecordingStatus reports both recording sessions
func (h *TerminalHandler) RecordingStatus(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Recording status", h.terminal.RecordingStatus())
}
