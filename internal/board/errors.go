package board

import "errors"

// Per-request failures. All of these are local to the requesting session:
// the request is answered (or dropped) and the session stays open.
var (
	// ErrEmptyStack means undo/redo was requested with nothing to act on.
	ErrEmptyStack = errors.New("history stack is empty")

	// ErrBrokenRedo means a redo popped an id that no longer resolves in the
	// all-strokes index. Index entries are never removed outside a full
	// reset, so this signals a ledger/index inconsistency. It is reported to
	// the requester as a recoverable warning, never treated as fatal.
	ErrBrokenRedo = errors.New("redo stroke missing from index")

	// ErrMalformedStroke means the submitted stroke had no points.
	ErrMalformedStroke = errors.New("stroke has no points")
)
