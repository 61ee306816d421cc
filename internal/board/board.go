package board

import (
	"fmt"
	"sync"

	"drawboard/internal/models"
)

const defaultStrokeWidth = 3

// Board is the authoritative whiteboard state machine: the stroke store
// plus the undo/redo ledger behind one mutex. Each operation holds the lock
// for its whole handler, so events apply strictly one at a time and the
// store/ledger invariants never see a half-applied mutation. The hub feeds
// events through a single goroutine anyway; the mutex makes the board safe
// to call directly as well (tests, future admin surfaces).
type Board struct {
	mu     sync.Mutex
	store  *Store
	ledger *Ledger
}

func New() *Board {
	return &Board{
		store:  NewStore(),
		ledger: NewLedger(),
	}
}

// Snapshot returns the visible strokes in draw order.
func (b *Board) Snapshot() []*models.Stroke {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Snapshot()
}

// SubmitStroke accepts a drawing from the given authenticated identity.
// The author fields are stamped from the identity, never from the client
// payload, and the finalized stroke (server-assigned id included) is what
// gets broadcast — not the client's raw proposal.
func (b *Board) SubmitStroke(who models.Identity, proposed *models.Stroke) (*models.Stroke, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stroke := &models.Stroke{
		ID:         proposed.ID,
		AuthorID:   who.UserID,
		AuthorName: who.DisplayName,
		Color:      proposed.Color,
		Width:      proposed.Width,
		Points:     proposed.Points,
	}
	if stroke.Color == "" {
		stroke.Color = who.Color
	}
	if stroke.Color == "" {
		stroke.Color = "#000"
	}
	if stroke.Width <= 0 {
		stroke.Width = defaultStrokeWidth
	}

	finalized, err := b.store.Append(stroke)
	if err != nil {
		return nil, err
	}
	b.ledger.RecordDraw(who.UserID, finalized.ID)
	return finalized, nil
}

// Undo retracts the requesting user's most recent visible stroke and
// reports which stroke was removed. It never touches another user's
// strokes, even ones drawn more recently on the shared canvas.
func (b *Board) Undo(userID string) (*models.Stroke, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.ledger.PopUndo(userID)
	if !ok {
		return nil, ErrEmptyStack
	}
	stroke, ok := b.store.RemoveFromLog(id)
	if !ok {
		// Undo stacks only ever hold visible strokes; reaching this means
		// the ledger and log disagree.
		return nil, fmt.Errorf("undo %s: stroke not in canvas log", id)
	}
	b.ledger.PushRedo(userID, id)
	return stroke, nil
}

// Redo restores the requesting user's most recently undone stroke,
// re-appending it at the current end of the canvas log.
func (b *Board) Redo(userID string) (*models.Stroke, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id, ok := b.ledger.PopRedo(userID)
	if !ok {
		return nil, ErrEmptyStack
	}
	stroke, ok := b.store.Restore(id)
	if !ok {
		return nil, fmt.Errorf("redo %s: %w", id, ErrBrokenRedo)
	}
	b.ledger.PushUndo(userID, id)
	return stroke, nil
}

// Clear empties the canvas and distributes every removed stroke to its
// author's redo stack, so each participant can bring back exactly their own
// work afterwards.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := b.store.Reset()
	b.ledger.DistributeClear(removed)
}
