package board

import "drawboard/internal/models"

// Ledger tracks per-user undo/redo history as LIFO stacks of stroke ids,
// layered over the store. Undo is strictly per-author: a user's stack holds
// only ids of strokes that user drew, so concurrent submissions by other
// users never reorder it.
//
// Invariants the board maintains through this type:
//   - Undo stack entries are always in the canvas log.
//   - Redo stack entries are never in the canvas log but always indexed.
//   - A new draw by a user invalidates that user's previously undone work.
type Ledger struct {
	undo map[string][]string
	redo map[string][]string
}

func NewLedger() *Ledger {
	return &Ledger{
		undo: make(map[string][]string),
		redo: make(map[string][]string),
	}
}

// RecordDraw registers a freshly accepted stroke for its author and clears
// the author's redo stack (the standard new-action-clears-redo law).
func (l *Ledger) RecordDraw(userID, strokeID string) {
	l.undo[userID] = append(l.undo[userID], strokeID)
	delete(l.redo, userID)
}

// PopUndo removes and returns the user's most recent visible stroke id.
func (l *Ledger) PopUndo(userID string) (string, bool) {
	return pop(l.undo, userID)
}

// PopRedo removes and returns the user's most recently undone stroke id.
func (l *Ledger) PopRedo(userID string) (string, bool) {
	return pop(l.redo, userID)
}

// PushUndo records a restored stroke as the user's newest visible one.
func (l *Ledger) PushUndo(userID, strokeID string) {
	l.undo[userID] = append(l.undo[userID], strokeID)
}

// PushRedo records an undone stroke as the user's newest retracted one.
func (l *Ledger) PushRedo(userID, strokeID string) {
	l.redo[userID] = append(l.redo[userID], strokeID)
}

// UndoDepth reports how many strokes the user could currently undo.
func (l *Ledger) UndoDepth(userID string) int {
	return len(l.undo[userID])
}

// RedoDepth reports how many strokes the user could currently redo.
func (l *Ledger) RedoDepth(userID string) int {
	return len(l.redo[userID])
}

// DistributeClear hands every stroke removed by a clear back to its
// author's redo stack. The strokes arrive in prior canvas order, so pushing
// in iteration order leaves each author's stack with their later strokes on
// top: a subsequent redo restores the author's newest stroke first.
//
// All undo stacks are emptied: nothing is left in the canvas log, so there
// is nothing left to undo.
func (l *Ledger) DistributeClear(removed []*models.Stroke) {
	l.undo = make(map[string][]string)
	for _, stroke := range removed {
		l.redo[stroke.AuthorID] = append(l.redo[stroke.AuthorID], stroke.ID)
	}
}

func pop(stacks map[string][]string, userID string) (string, bool) {
	stack := stacks[userID]
	if len(stack) == 0 {
		return "", false
	}
	top := stack[len(stack)-1]
	stacks[userID] = stack[:len(stack)-1]
	return top, true
}
