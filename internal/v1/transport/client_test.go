package transport

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory stand-in for *websocket.Conn satisfying
// wsConnection, letting Client be exercised without a real socket.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	closed  bool
	readQ   [][]byte
	readErr error
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.readQ) == 0 {
		if f.readErr != nil {
			return 0, nil, f.readErr
		}
		return 0, nil, errors.New("no more messages")
	}
	msg := f.readQ[0]
	f.readQ = f.readQ[1:]
	return websocket.TextMessage, msg, nil
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), data...)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) messages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.written...)
}

func TestClient_EnqueueFramesAsEnvelope(t *testing.T) {
	fc := &fakeConn{}
	c := newClient(fc, "u1", "room1")

	c.enqueue("sync", map[string]any{"server_time": 123})

	require.Len(t, c.send, 1)
	raw := <-c.send

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, "sync", env.Type)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, float64(123), payload["server_time"])
}

func TestClient_EnqueueDropsWhenBufferFull(t *testing.T) {
	fc := &fakeConn{}
	c := newClient(fc, "u1", "room1")

	for i := 0; i < cap(c.send)+10; i++ {
		c.enqueue("sync", map[string]any{"i": i})
	}

	assert.Equal(t, cap(c.send), len(c.send))
}

func TestClient_WritePumpDrainsAndClosesOnChannelClose(t *testing.T) {
	fc := &fakeConn{}
	c := newClient(fc, "u1", "room1")

	c.enqueue("sync", map[string]any{"a": 1})
	c.enqueue("sync", map[string]any{"a": 2})

	done := make(chan struct{})
	go func() {
		c.writePump()
		close(done)
	}()

	close(c.send)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writePump did not exit after send channel closed")
	}

	assert.GreaterOrEqual(t, len(fc.messages()), 2)
	assert.True(t, fc.closed)
}

func TestClient_ReadPumpForwardsTextFramesAndRunsOnCloseOnce(t *testing.T) {
	fc := &fakeConn{readQ: [][]byte{[]byte(`{"type":"ping"}`), []byte(`{"type":"pong"}`)}}
	c := newClient(fc, "u1", "room1")

	var received []string
	var mu sync.Mutex
	onCloseCalls := 0

	c.readPump(func(raw []byte) {
		mu.Lock()
		received = append(received, string(raw))
		mu.Unlock()
	}, func() {
		onCloseCalls++
	})

	assert.Equal(t, []string{`{"type":"ping"}`, `{"type":"pong"}`}, received)
	assert.Equal(t, 1, onCloseCalls)
	assert.True(t, fc.closed)
}
