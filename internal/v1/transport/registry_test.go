package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tossemideia/synctube/internal/v1/model"
)

func newTestClient(id model.UserID) (*Client, *fakeConn) {
	fc := &fakeConn{}
	c := newClient(fc, id, "room1")
	return c, fc
}

func TestRegistry_SendToKnownUser(t *testing.T) {
	reg := NewRegistry()
	c, _ := newTestClient("u1")
	reg.register(c)

	reg.Send("u1", "sync", map[string]any{"ok": true})

	require.Len(t, c.send, 1)
}

func TestRegistry_SendToUnknownUserIsNoop(t *testing.T) {
	reg := NewRegistry()
	assert.NotPanics(t, func() {
		reg.Send("ghost", "sync", map[string]any{})
	})
}

func TestRegistry_BroadcastExcludesGivenUser(t *testing.T) {
	reg := NewRegistry()
	a, _ := newTestClient("a")
	b, _ := newTestClient("b")
	reg.register(a)
	reg.register(b)

	reg.Broadcast("user_left", map[string]any{}, "a")

	assert.Len(t, a.send, 0)
	assert.Len(t, b.send, 1)
}

func TestRegistry_CountReflectsRegistrations(t *testing.T) {
	reg := NewRegistry()
	assert.Equal(t, 0, reg.Count())

	c1, _ := newTestClient("u1")
	c2, _ := newTestClient("u2")
	reg.register(c1)
	reg.register(c2)
	assert.Equal(t, 2, reg.Count())

	reg.unregister("u1")
	assert.Equal(t, 1, reg.Count())
}

func TestRegistry_UnregisterClosesSendChannel(t *testing.T) {
	reg := NewRegistry()
	c, _ := newTestClient("u1")
	reg.register(c)

	reg.unregister("u1")

	_, ok := <-c.send
	assert.False(t, ok, "send channel should be closed")
}

func TestRegistry_UnregisterTwiceIsSafe(t *testing.T) {
	reg := NewRegistry()
	c, _ := newTestClient("u1")
	reg.register(c)

	reg.unregister("u1")
	assert.NotPanics(t, func() { reg.unregister("u1") })
}
