package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 1 << 16
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsRequest 一次表单提交
type wsRequest struct {
	ID    string          `json:"id"`
	Input json.RawMessage `json:"input"`
}

// wsReply 预测结果或错误
type wsReply struct {
	ID         string           `json:"id,omitempty"`
	Type       string           `json:"type"`
	Prediction *predictResponse `json:"prediction,omitempty"`
	Error      *errorResponse   `json:"error,omitempty"`
}

// wsClient WebSocket客户端
type wsClient struct {
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	clientID string
	logger   *zap.Logger
}

// handlePredictWS 处理WebSocket连接：每条消息是一次提交，按顺序处理
func (h *handlers) handlePredictWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn:     conn,
		send:     make(chan []byte, 16),
		done:     make(chan struct{}),
		clientID: GetRequestID(r.Context()),
	}
	client.logger = h.logger.With(zap.String("client_id", client.clientID))
	client.logger.Debug("websocket client connected")

	go client.writePump()
	client.readPump(h)
}

// writePump WebSocket写入泵
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("websocket write error", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump WebSocket读取泵
func (c *wsClient) readPump(h *handlers) {
	defer func() {
		close(c.send)
		c.logger.Debug("websocket client disconnected")
	}()

	c.conn.SetReadLimit(wsMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket error", zap.Error(err))
			}
			return
		}

		reply := h.predictMessage(data)
		payload, err := json.Marshal(reply)
		if err != nil {
			c.logger.Error("encode websocket reply", zap.Error(err))
			continue
		}
		select {
		case c.send <- payload:
		case <-c.done:
			return
		}
	}
}

func (h *handlers) predictMessage(data []byte) wsReply {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsReply{Type: "error", Error: &errorResponse{Error: "invalid JSON message"}}
	}
	raw := []byte(req.Input)
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	start := time.Now()
	pred, err := h.predictJSON(context.Background(), raw)
	if err == nil {
		resp := newPredictResponse(pred, start)
		return wsReply{ID: req.ID, Type: "prediction", Prediction: &resp}
	}
	_, payload := errorPayload(err)
	return wsReply{ID: req.ID, Type: "error", Error: &payload}
}
