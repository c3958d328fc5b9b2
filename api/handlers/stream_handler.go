package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/app"
	"github.com/yourusername/mediagrab/internal/domain"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second

	// wsCancelMessage is the client text message that cancels the download
	wsCancelMessage = "cancel"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins, the API carries no credentials
	},
}

// WSMessage is one event sent over the WebSocket
type WSMessage struct {
	Event string `json:"event"`
	Data  gin.H  `json:"data"`
}

// StreamHandler pushes download progress over SSE or WebSocket
type StreamHandler struct {
	publisher *app.Publisher
	logger    *zap.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(publisher *app.Publisher, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		publisher: publisher,
		logger:    logger,
	}
}

// SSE handles GET /api/stream
func (h *StreamHandler) SSE(c *gin.Context) {
	req, err := streamRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stream := h.publisher.Start(c.Request.Context(), req, callerOf(c), app.StreamOptions{Probe: true})
	defer stream.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-stream.Events():
			if !ok {
				return false
			}
			name, payload := eventPayload(event)
			c.SSEvent(name, payload)
			return !event.IsTerminal()
		case <-clientGone:
			h.logger.Info("SSE client disconnected", zap.String("url", req.URL))
			return false
		}
	})
}

// WebSocket handles GET /api/ws. The client may send "cancel" to stop the download.
func (h *StreamHandler) WebSocket(c *gin.Context) {
	req, err := streamRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	stream := h.publisher.Start(c.Request.Context(), req, callerOf(c), app.StreamOptions{Probe: true})
	defer stream.Close()

	h.logger.Info("WebSocket client connected",
		zap.String("url", req.URL),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Read messages from client until it goes away
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage && strings.TrimSpace(string(data)) == wsCancelMessage {
				h.logger.Info("Download cancelled by client", zap.String("url", req.URL))
				stream.Cancel()
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-stream.Events():
			if !ok {
				return
			}
			if err := h.writeEvent(conn, event); err != nil {
				h.logger.Warn("Failed to send event", zap.Error(err))
				return
			}
			if event.IsTerminal() {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteTimeout))
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}

		case <-clientGone:
			h.logger.Info("WebSocket client disconnected", zap.String("url", req.URL))
			return
		}
	}
}

func (h *StreamHandler) writeEvent(conn *websocket.Conn, event domain.Event) error {
	name, payload := eventPayload(event)
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(WSMessage{Event: name, Data: payload})
}
