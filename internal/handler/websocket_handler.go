// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"serial-terminal/internal/service"
	"serial-terminal/internal/utils"
)

// WebSocketHandler manages WebSocket connections for real-time terminal
// updates. Every client receives the full event stream: log entries,
// connection status changes, log clears and recording state.
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	terminal    *service.TerminalService
	logger      *utils.ServiceLogger
	eventBus    *EventBus
}

// NewWebSocketHandler creates a new WebSocket handler and wires it into
// the terminal service as its event sink.
func NewWebSocketHandler(terminal *service.TerminalService, logger *zap.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// The service binds to loopback; origin checking is left to
			// the CORS layer on the REST side
			return true
		},
	}

	connections := NewConnectionManager()
	handler := &WebSocketHandler{
		upgrader:    upgrader,
		connections: connections,
		terminal:    terminal,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
		eventBus:    NewEventBus(connections, logger),
	}

	go handler.eventBus.Start()
	terminal.SetEventSink(handler.eventBus)

	return handler
}

// RegisterRoutes registers WebSocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/terminal", h.HandleTerminalConnection)
}

// HandleTerminalConnection upgrades the request and attaches the client
// to the terminal event stream.
func (h *WebSocketHandler) HandleTerminalConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 256),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.sendInitialState(client)
	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// sendInitialState pushes the current connection and recording state so
// a fresh client renders without polling first.
func (h *WebSocketHandler) sendInitialState(client *Client) {
	h.sendMessage(client, &WebSocketMessage{
		Type:      string(service.EventStatus),
		Data:      h.terminal.Status(),
		Timestamp: time.Now(),
	})
	h.sendMessage(client, &WebSocketMessage{
		Type:      string(service.EventRecording),
		Data:      h.terminal.RecordingStatus(),
		Timestamp: time.Now(),
	})
}

// handleClientRead handles reading messages from WebSocket client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
		h.logger.Info("WebSocket client disconnected",
			zap.String("client_id", client.ID),
		)
	}()

	client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.logger.Error("Failed to parse WebSocket message",
				zap.Error(err),
				zap.String("client_id", client.ID),
			)
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite handles writing messages to WebSocket client
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages. The stream is
// one-directional apart from keepalives and state refresh requests;
// sends go through the REST API.
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		})
	case "refresh":
		h.sendInitialState(client)
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
	}
}

// sendMessage marshals a message onto the client's send queue
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- payload:
	default:
		h.logger.Warn("Client send queue full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}
