package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tossemideia/synctube/internal/v1/model"
	"github.com/tossemideia/synctube/internal/v1/registry"
	"github.com/tossemideia/synctube/internal/v1/room"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeConn struct{ count int }

func (f *fakeConn) Send(model.UserID, string, any)      {}
func (f *fakeConn) Broadcast(string, any, model.UserID) {}
func (f *fakeConn) Count() int                          { return f.count }

func testHandler() *Handler {
	reg := registry.New(nil, func(model.RoomID) room.ConnectionRegistry { return &fakeConn{} }, room.DefaultConfig())
	return NewHandler(reg)
}

func TestCreateRoom(t *testing.T) {
	h := testHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/rooms", nil)

	h.CreateRoom(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "room_id")
}

func TestGetRoom_Missing(t *testing.T) {
	h := testHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/rooms/nope", nil)
	c.Params = gin.Params{{Key: "roomId", Value: "nope"}}

	h.GetRoom(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRoom_Found(t *testing.T) {
	h := testHandler()
	created := h.rooms.CreateRoom()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/rooms/"+string(created.ID()), nil)
	c.Params = gin.Params{{Key: "roomId", Value: string(created.ID())}}

	h.GetRoom(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(created.ID()))
}

func TestListRooms(t *testing.T) {
	h := testHandler()
	h.rooms.CreateRoom()
	h.rooms.CreateRoom()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/rooms", nil)

	h.ListRooms(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListRooms_ExcludesEmptyRooms(t *testing.T) {
	h := testHandler()
	empty := h.rooms.CreateRoom()
	occupied := h.rooms.CreateRoom()
	occupied.Conn().(*fakeConn).count = 1

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/rooms", nil)

	h.ListRooms(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(occupied.ID()))
	assert.NotContains(t, w.Body.String(), string(empty.ID()))
}

func TestSummarize_IncludesHostNameAndCurrentVideo(t *testing.T) {
	h := testHandler()
	created := h.rooms.CreateRoom()
	alice := created.AddUser("Alice")
	_, _, err := created.AddVideo(context.Background(), alice.UserID, "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)

	summary := summarize(created)

	assert.Equal(t, "Alice", summary.HostName)
	require.NotNil(t, summary.CurrentVideo)
}
