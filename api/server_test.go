package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"chat-relay/repositories"
	"chat-relay/runtime"
)

func newTestServer(t *testing.T) (*Server, *runtime.ConnectionRegistry, *repositories.MessageLog, *gin.Engine) {
	t.Helper()
	req := require.New(t)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	connections := runtime.NewConnectionRegistry()
	rooms := runtime.NewRoomRegistry()
	registry := runtime.NewRegistry(log)
	messages := repositories.NewMessageLog(db, log)
	server := NewServer(log, connections, rooms, registry, messages, nil)

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	server.Register(engine, func(c *gin.Context) { c.Status(http.StatusOK) })
	return server, connections, messages, engine
}

func get(t *testing.T, engine *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(recorder, request)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return recorder, body
}

func TestHealth_Reports_Running(t *testing.T) {
	req := require.New(t)
	_, _, _, engine := newTestServer(t)

	recorder, body := get(t, engine, "/")

	req.Equal(http.StatusOK, recorder.Code)
	req.Equal("running", body["status"])
	req.NotEmpty(body["timestamp"])
}

func TestListUsers_Returns_Bound_Users(t *testing.T) {
	req := require.New(t)
	_, connections, _, engine := newTestServer(t)
	connections.Bind("u1", "c1", "Alice")

	recorder, body := get(t, engine, "/users")

	req.Equal(http.StatusOK, recorder.Code)
	users, ok := body["users"].([]any)
	req.True(ok)
	req.Len(users, 1)
	user := users[0].(map[string]any)
	req.Equal("u1", user["id"])
	req.Equal("Alice", user["name"])
}

func TestListMessages_Unknown_Room_Is_Empty(t *testing.T) {
	req := require.New(t)
	_, _, _, engine := newTestServer(t)

	recorder, body := get(t, engine, "/messages/room_u1_u2")

	req.Equal(http.StatusOK, recorder.Code)
	req.Equal("room_u1_u2", body["roomId"])
	messages, ok := body["messages"].([]any)
	req.True(ok)
	req.Empty(messages)
}

func TestListMessages_Returns_Room_History(t *testing.T) {
	req := require.New(t)
	_, _, messages, engine := newTestServer(t)
	_, err := messages.Append("room_u1_u2", "u1", "Alice", "hello", "")
	req.NoError(err)

	recorder, body := get(t, engine, "/messages/room_u1_u2")

	req.Equal(http.StatusOK, recorder.Code)
	listed, ok := body["messages"].([]any)
	req.True(ok)
	req.Len(listed, 1)
	req.Equal("hello", listed[0].(map[string]any)["text"])
}

func TestSearch_Disabled_Returns_NotFound(t *testing.T) {
	req := require.New(t)
	_, _, _, engine := newTestServer(t)

	recorder, _ := get(t, engine, "/messages/room_u1_u2/search?q=hello")

	req.Equal(http.StatusNotFound, recorder.Code)
}

func TestDebug_Counts_State(t *testing.T) {
	req := require.New(t)
	_, connections, messages, engine := newTestServer(t)
	connections.Bind("u1", "c1", "Alice")
	_, err := messages.Append("room_u1_u2", "u1", "Alice", "hello", "")
	req.NoError(err)

	recorder, body := get(t, engine, "/debug")

	req.Equal(http.StatusOK, recorder.Code)
	req.EqualValues(1, body["totalUsers"])
	req.EqualValues(0, body["totalRooms"])
	req.EqualValues(1, body["totalMessages"])
}
