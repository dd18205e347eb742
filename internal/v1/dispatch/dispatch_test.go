package dispatch

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tossemideia/synctube/internal/v1/model"
	"github.com/tossemideia/synctube/internal/v1/room"
)

type fakeOracle struct{}

func (fakeOracle) Lookup(ctx context.Context, ref string) (string, string, error) {
	return "Title", "thumb.jpg", nil
}

type frame struct {
	userID model.UserID
	typ    string
	payload any
}

type fakeRegistry struct {
	mu    sync.Mutex
	sent  []frame
	count int
}

func (f *fakeRegistry) Send(userID model.UserID, frameType string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, frame{userID: userID, typ: frameType, payload: payload})
}

func (f *fakeRegistry) Broadcast(frameType string, payload any, exclude model.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, frame{typ: frameType, payload: payload})
}

func (f *fakeRegistry) Count() int { return f.count }

func (f *fakeRegistry) errorsFor(userID model.UserID) []room.ErrorPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []room.ErrorPayload
	for _, fr := range f.sent {
		if fr.typ == room.FrameError && fr.userID == userID {
			out = append(out, fr.payload.(room.ErrorPayload))
		}
	}
	return out
}

func newRoom(reg *fakeRegistry) *room.Room {
	return room.New("testroom", fakeOracle{}, reg, room.DefaultConfig())
}

func TestHandle_MissingType(t *testing.T) {
	reg := &fakeRegistry{count: 1}
	r := newRoom(reg)
	alice := r.AddUser("Alice")

	Handle(context.Background(), r, reg, alice.UserID, []byte(`{}`))

	errs := reg.errorsFor(alice.UserID)
	require.Len(t, errs, 1)
	assert.Equal(t, room.CodeMissingType, errs[0].Code)
}

func TestHandle_UnknownType(t *testing.T) {
	reg := &fakeRegistry{count: 1}
	r := newRoom(reg)
	alice := r.AddUser("Alice")

	Handle(context.Background(), r, reg, alice.UserID, []byte(`{"type":"teleport"}`))

	errs := reg.errorsFor(alice.UserID)
	require.Len(t, errs, 1)
	assert.Equal(t, room.CodeUnknownType, errs[0].Code)
}

func TestHandle_MalformedJSONDroppedSilently(t *testing.T) {
	reg := &fakeRegistry{count: 1}
	r := newRoom(reg)
	alice := r.AddUser("Alice")

	Handle(context.Background(), r, reg, alice.UserID, []byte(`not json`))

	assert.Empty(t, reg.errorsFor(alice.UserID))
}

func TestHandle_AddVideo(t *testing.T) {
	reg := &fakeRegistry{count: 1}
	r := newRoom(reg)
	alice := r.AddUser("Alice")

	raw, _ := json.Marshal(map[string]string{"type": "add_video", "url": "https://youtu.be/dQw4w9WgXcQ"})
	Handle(context.Background(), r, reg, alice.UserID, raw)

	assert.Empty(t, reg.errorsFor(alice.UserID))
	state, ok := r.GetFullState(alice.UserID)
	require.True(t, ok)
	assert.Len(t, state.Queue, 1)
}

func TestHandle_AddVideoInvalidURL(t *testing.T) {
	reg := &fakeRegistry{count: 1}
	r := newRoom(reg)
	alice := r.AddUser("Alice")

	raw, _ := json.Marshal(map[string]string{"type": "add_video", "url": "garbage"})
	Handle(context.Background(), r, reg, alice.UserID, raw)

	errs := reg.errorsFor(alice.UserID)
	require.Len(t, errs, 1)
	assert.Equal(t, room.CodeInvalidURL, errs[0].Code)
}

func TestHandle_PlayRequiresHost(t *testing.T) {
	reg := &fakeRegistry{count: 2}
	r := newRoom(reg)
	alice := r.AddUser("Alice")
	bob := r.AddUser("Bob")

	raw, _ := json.Marshal(map[string]string{"type": "add_video", "url": "https://youtu.be/dQw4w9WgXcQ"})
	Handle(context.Background(), r, reg, alice.UserID, raw)

	Handle(context.Background(), r, reg, bob.UserID, []byte(`{"type":"play"}`))
	errs := reg.errorsFor(bob.UserID)
	require.Len(t, errs, 1)
	assert.Equal(t, room.CodePlayFailed, errs[0].Code)

	Handle(context.Background(), r, reg, alice.UserID, []byte(`{"type":"play"}`))
	assert.Empty(t, reg.errorsFor(alice.UserID))
}

func TestHandle_VideoEndedAdvances(t *testing.T) {
	reg := &fakeRegistry{count: 1}
	r := newRoom(reg)
	alice := r.AddUser("Alice")

	raw, _ := json.Marshal(map[string]string{"type": "add_video", "url": "https://youtu.be/dQw4w9WgXcQ"})
	Handle(context.Background(), r, reg, alice.UserID, raw)

	Handle(context.Background(), r, reg, alice.UserID, []byte(`{"type":"video_ended"}`))

	state, _ := r.GetFullState(alice.UserID)
	assert.Empty(t, state.Queue)
}

func TestHandle_SyncReportIsNoop(t *testing.T) {
	reg := &fakeRegistry{count: 1}
	r := newRoom(reg)
	alice := r.AddUser("Alice")

	Handle(context.Background(), r, reg, alice.UserID, []byte(`{"type":"sync_report"}`))
	assert.Empty(t, reg.errorsFor(alice.UserID))
}
