package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studentpass/ml"
)

func dialPredictWS(t *testing.T, svc *ml.Service) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(newTestHandler(t, svc))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/predict"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestPredictWebSocket(t *testing.T) {
	conn := dialPredictWS(t, shippedService(t))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":    "first",
		"input": map[string]any{"exam_score": 70, "participation": "Medium"},
	}))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "first", reply.ID)
	assert.Equal(t, "prediction", reply.Type)
	require.NotNil(t, reply.Prediction)
	assert.Equal(t, "Pass", reply.Prediction.Prediction)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"id":    "second",
		"input": map[string]any{"exam_score": 20},
	}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "second", reply.ID)
	require.NotNil(t, reply.Prediction)
	assert.Equal(t, "Fail", reply.Prediction.Prediction)
}

func TestPredictWebSocketErrors(t *testing.T) {
	conn := dialPredictWS(t, shippedService(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var reply wsReply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	require.NotNil(t, reply.Error)

	require.NoError(t, conn.WriteJSON(map[string]any{"id": "bad", "input": map[string]any{"age": 99}}))
	reply = wsReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "bad", reply.ID)
	assert.Equal(t, "error", reply.Type)
	require.NotNil(t, reply.Error)
	assert.Equal(t, "validation", reply.Error.Kind)

	// the connection keeps serving after a rejected submission
	require.NoError(t, conn.WriteJSON(map[string]any{"id": "ok"}))
	reply = wsReply{}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "prediction", reply.Type)
}
