package board

import (
	"testing"

	"drawboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = models.Identity{UserID: "alice", DisplayName: "Alice", Color: "#ff0000"}
	bob   = models.Identity{UserID: "bob", DisplayName: "Bob", Color: "#0000ff"}
)

func draw(t *testing.T, b *Board, who models.Identity) *models.Stroke {
	t.Helper()
	stroke, err := b.SubmitStroke(who, &models.Stroke{
		Points: []models.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
	})
	require.NoError(t, err)
	return stroke
}

func ids(strokes []*models.Stroke) []string {
	out := make([]string, len(strokes))
	for i, s := range strokes {
		out[i] = s.ID
	}
	return out
}

func TestSubmitStampsAuthorFromIdentity(t *testing.T) {
	b := New()

	stroke, err := b.SubmitStroke(alice, &models.Stroke{
		AuthorID:   "forged",
		AuthorName: "Mallory",
		Points:     []models.Point{{X: 0, Y: 0}},
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", stroke.AuthorID)
	assert.Equal(t, "Alice", stroke.AuthorName)
	assert.Equal(t, "#ff0000", stroke.Color, "color defaults to the identity hint")
	assert.Equal(t, float64(defaultStrokeWidth), stroke.Width)
}

func TestSubmitRejectsMalformedStroke(t *testing.T) {
	b := New()

	_, err := b.SubmitStroke(alice, &models.Stroke{})
	assert.ErrorIs(t, err, ErrMalformedStroke)
	assert.Empty(t, b.Snapshot())
}

func TestSubmitAssignsDistinctIDs(t *testing.T) {
	b := New()

	s1 := draw(t, b, alice)
	s2 := draw(t, b, alice)
	assert.NotEqual(t, s1.ID, s2.ID, "back-to-back strokes never share an id")
}

func TestUndoEmptyStackLeavesCanvasAlone(t *testing.T) {
	b := New()
	draw(t, b, bob)

	_, err := b.Undo("alice")
	assert.ErrorIs(t, err, ErrEmptyStack)
	assert.Len(t, b.Snapshot(), 1)
}

func TestUndoIsPerAuthor(t *testing.T) {
	b := New()
	a1 := draw(t, b, alice)
	b1 := draw(t, b, bob) // visually more recent than a1

	undone, err := b.Undo("alice")
	require.NoError(t, err)
	assert.Equal(t, a1.ID, undone.ID, "undo retracts the caller's stroke, not the newest one")
	assert.Equal(t, []string{b1.ID}, ids(b.Snapshot()))
}

func TestRedoRestoresOwnStrokeOnly(t *testing.T) {
	b := New()
	a1 := draw(t, b, alice)
	draw(t, b, bob)

	_, err := b.Undo("alice")
	require.NoError(t, err)

	_, err = b.Redo("bob")
	assert.ErrorIs(t, err, ErrEmptyStack, "bob cannot redo alice's undone stroke")

	restored, err := b.Redo("alice")
	require.NoError(t, err)
	assert.Equal(t, a1.ID, restored.ID)
}

func TestNewDrawClearsRedo(t *testing.T) {
	b := New()
	draw(t, b, alice)
	_, err := b.Undo("alice")
	require.NoError(t, err)

	draw(t, b, alice)

	_, err = b.Redo("alice")
	assert.ErrorIs(t, err, ErrEmptyStack)
}

func TestRedoWithGhostIDSignalsBroken(t *testing.T) {
	b := New()
	draw(t, b, bob)

	// A redo id that never made it into the index: the ledger and index
	// disagree, which Redo must surface as a recoverable warning.
	b.ledger.PushRedo("alice", "ghost")

	_, err := b.Redo("alice")
	assert.ErrorIs(t, err, ErrBrokenRedo)
	assert.Len(t, b.Snapshot(), 1, "a broken redo must not touch the canvas")

	// The ghost id was consumed; the stack is empty again.
	_, err = b.Redo("alice")
	assert.ErrorIs(t, err, ErrEmptyStack)
}

func TestClearDistributesToOwners(t *testing.T) {
	b := New()
	a1 := draw(t, b, alice)
	b1 := draw(t, b, bob)
	a2 := draw(t, b, alice)

	b.Clear()
	assert.Empty(t, b.Snapshot())

	// Each owner redoes exactly their own strokes, newest first.
	r, err := b.Redo("alice")
	require.NoError(t, err)
	assert.Equal(t, a2.ID, r.ID)

	r, err = b.Redo("bob")
	require.NoError(t, err)
	assert.Equal(t, b1.ID, r.ID)

	r, err = b.Redo("alice")
	require.NoError(t, err)
	assert.Equal(t, a1.ID, r.ID)

	_, err = b.Redo("alice")
	assert.ErrorIs(t, err, ErrEmptyStack)
}

// The full two-user session walkthrough: draw, undo to empty, redo, a second
// participant drawing and clearing, then recovering from the clear.
func TestTwoUserSessionWalkthrough(t *testing.T) {
	b := New()

	// A draws s1.
	s1 := draw(t, b, alice)
	assert.Equal(t, []string{s1.ID}, ids(b.Snapshot()))

	// A undoes: canvas empty, s1 waiting on A's redo stack.
	undone, err := b.Undo("alice")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, undone.ID)
	assert.Empty(t, b.Snapshot())

	// A undoes again: nothing to do, no state change.
	_, err = b.Undo("alice")
	assert.ErrorIs(t, err, ErrEmptyStack)
	assert.Empty(t, b.Snapshot())

	// A redoes: s1 back at the end of the log.
	restored, err := b.Redo("alice")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, restored.ID)
	assert.Equal(t, []string{s1.ID}, ids(b.Snapshot()))

	// B draws s2.
	s2 := draw(t, b, bob)
	assert.Equal(t, []string{s1.ID, s2.ID}, ids(b.Snapshot()))

	// B clears: both strokes parked on their owners' redo stacks.
	b.Clear()
	assert.Empty(t, b.Snapshot())

	// B redoes: only s2 comes back.
	restored, err = b.Redo("bob")
	require.NoError(t, err)
	assert.Equal(t, s2.ID, restored.ID)
	assert.Equal(t, []string{s2.ID}, ids(b.Snapshot()))

	// A's stroke is still recoverable by A alone.
	restored, err = b.Redo("alice")
	require.NoError(t, err)
	assert.Equal(t, s1.ID, restored.ID)
	assert.Equal(t, []string{s2.ID, s1.ID}, ids(b.Snapshot()))
}
