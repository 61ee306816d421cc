package hub

import (
	"encoding/json"
	"testing"
	"time"

	"drawboard/internal/board"
	"drawboard/internal/models"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := New(board.New(), 16)
	h.Start()
	t.Cleanup(h.Shutdown)
	return h
}

// testSession builds a session with no underlying connection; the hub only
// touches the send channel, so the pumps are not needed here.
func testSession(h *Hub, id models.Identity) *Session {
	return &Session{
		ID:       ksuid.New().String(),
		Identity: id,
		Send:     make(chan []byte, h.sendBuffer),
		hub:      h,
	}
}

func join(t *testing.T, h *Hub, id models.Identity) *Session {
	t.Helper()
	s := testSession(h, id)
	h.Register(s)
	msg := recv(t, s)
	require.Equal(t, "history", msg["type"], "admission must start with a snapshot")
	return s
}

func recv(t *testing.T, s *Session) map[string]any {
	t.Helper()
	select {
	case data, ok := <-s.Send:
		require.True(t, ok, "send channel closed")
		var msg map[string]any
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func assertSilent(t *testing.T, s *Session) {
	t.Helper()
	assert.Empty(t, s.Send, "expected no message for this session")
}

var (
	aliceID = models.Identity{UserID: "alice", DisplayName: "Alice", Color: "#ff0000"}
	bobID   = models.Identity{UserID: "bob", DisplayName: "Bob", Color: "#0000ff"}
)

func drawEvent(points ...models.Point) *ClientEvent {
	if len(points) == 0 {
		points = []models.Point{{X: 1, Y: 2}}
	}
	return &ClientEvent{Type: EventStroke, Stroke: &models.Stroke{Points: points}}
}

func TestStrokeFansOutToOthersOnly(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Dispatch(a, drawEvent())

	msg := recv(t, b)
	assert.Equal(t, "stroke", msg["type"])
	stroke := msg["stroke"].(map[string]any)
	assert.Equal(t, "alice", stroke["userId"], "author stamped from the session identity")
	assert.NotEmpty(t, stroke["id"])

	assertSilent(t, a)
}

func TestMalformedStrokeRepliesToRequesterOnly(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Dispatch(a, &ClientEvent{Type: EventStroke, Stroke: &models.Stroke{}})

	msg := recv(t, a)
	assert.Equal(t, "error", msg["type"])
	assertSilent(t, b)
}

func TestUndoBroadcastsRemovalToEveryone(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Dispatch(a, drawEvent())
	drawn := recv(t, b)
	strokeID := drawn["stroke"].(map[string]any)["id"]

	h.Dispatch(a, &ClientEvent{Type: EventUndo})

	// Author included: the server's view is authoritative.
	for _, s := range []*Session{a, b} {
		msg := recv(t, s)
		assert.Equal(t, "remove-stroke", msg["type"])
		assert.Equal(t, strokeID, msg["id"])
	}
}

func TestUndoEmptyRepliesToRequesterOnly(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Dispatch(a, &ClientEvent{Type: EventUndo})

	msg := recv(t, a)
	assert.Equal(t, "undo-empty", msg["type"])
	assertSilent(t, b)
}

func TestRedoBroadcastsRestoredStroke(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Dispatch(a, drawEvent())
	recv(t, b)
	h.Dispatch(a, &ClientEvent{Type: EventUndo})
	recv(t, a)
	recv(t, b)

	h.Dispatch(a, &ClientEvent{Type: EventRedo})

	for _, s := range []*Session{a, b} {
		msg := recv(t, s)
		assert.Equal(t, "stroke", msg["type"])
	}

	h.Dispatch(a, &ClientEvent{Type: EventRedo})
	msg := recv(t, a)
	assert.Equal(t, "redo-empty", msg["type"])
	assertSilent(t, b)
}

// brokenCanvas forces the ledger/index-inconsistency outcome on redo.
type brokenCanvas struct {
	*board.Board
}

func (c *brokenCanvas) Redo(string) (*models.Stroke, error) {
	return nil, board.ErrBrokenRedo
}

func TestRedoFailedRepliesToRequesterOnly(t *testing.T) {
	h := New(&brokenCanvas{board.New()}, 16)
	h.Start()
	t.Cleanup(h.Shutdown)

	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Dispatch(a, &ClientEvent{Type: EventRedo})

	msg := recv(t, a)
	assert.Equal(t, "redo-failed", msg["type"])
	assertSilent(t, b)
}

func TestClearEchoesEmptyHistoryToAll(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Dispatch(a, drawEvent())
	recv(t, b)

	h.Dispatch(b, &ClientEvent{Type: EventClear})

	for _, s := range []*Session{a, b} {
		msg := recv(t, s)
		assert.Equal(t, "history", msg["type"])
		assert.Empty(t, msg["strokes"])
	}
}

func TestCursorNeverEchoesToMover(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Dispatch(a, &ClientEvent{Type: EventCursor, Cursor: &models.CursorState{X: 10, Y: 20}})

	msg := recv(t, b)
	assert.Equal(t, "cursor", msg["type"])
	assert.Equal(t, "alice", msg["userId"])
	assert.Equal(t, "Alice", msg["userName"])
	assert.Equal(t, float64(10), msg["x"])
	assert.Equal(t, float64(20), msg["y"])

	assertSilent(t, a)
}

func TestLateJoinerGetsFullHistory(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	witness := join(t, h, bobID)

	h.Dispatch(a, drawEvent())
	h.Dispatch(a, drawEvent())
	// Once the witness has both strokes, they are applied to the board.
	recv(t, witness)
	recv(t, witness)

	b := testSession(h, models.Identity{UserID: "carol", DisplayName: "Carol"})
	h.Register(b)

	msg := recv(t, b)
	require.Equal(t, "history", msg["type"])
	assert.Len(t, msg["strokes"], 2)
}

func TestDisconnectBroadcastsPresenceRemoval(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	h.Unregister(a)

	msg := recv(t, b)
	assert.Equal(t, "user-left", msg["type"])
	assert.Equal(t, "alice", msg["userId"])
	assert.Equal(t, a.ID, msg["sessionId"])

	// Removal is idempotent.
	h.Unregister(a)
	assertSilent(t, b)
}

func TestErrorForDroppedSessionIsDiscarded(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	// The hub drops a and closes its send channel.
	h.Unregister(a)
	msg := recv(t, b)
	require.Equal(t, "user-left", msg["type"])

	// A decode failure from a's read goroutine can still be in flight
	// after the drop. It must be discarded by the loop, not panic the
	// process on a's closed channel.
	_, err := DecodeClientEvent([]byte(`{"type":"teleport"}`))
	require.Error(t, err)
	h.DispatchError(a, err)

	// The loop is still alive and serving everyone else.
	h.Dispatch(b, drawEvent())
	h.Dispatch(b, &ClientEvent{Type: EventUndo})
	msg = recv(t, b)
	assert.Equal(t, "remove-stroke", msg["type"])
}

func TestDecodeErrorRepliesThroughTheLoop(t *testing.T) {
	h := newTestHub(t)
	a := join(t, h, aliceID)
	b := join(t, h, bobID)

	_, err := DecodeClientEvent([]byte(`{"type":"teleport"}`))
	require.Error(t, err)
	h.DispatchError(a, err)

	msg := recv(t, a)
	assert.Equal(t, "error", msg["type"])
	assertSilent(t, b)
}
