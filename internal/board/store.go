package board

import (
	"drawboard/internal/models"

	"github.com/google/uuid"
)

// Store holds the authoritative canvas state:
//
//   - the canvas log: the ordered strokes currently visible to every client;
//     insertion order is redraw/z-order and no id appears twice at once
//   - the all-strokes index: every stroke ever accepted, kept for the life
//     of the process so a redo can resurrect a stroke after it leaves the
//     log; entries only vanish on a full Reset of the index itself
//
// Store does no locking of its own. All mutation is funneled through the
// board's single serialized apply path.
type Store struct {
	log   []*models.Stroke
	index map[string]*models.Stroke
}

func NewStore() *Store {
	return &Store{
		index: make(map[string]*models.Stroke),
	}
}

// Snapshot returns a copy of the canvas log in draw order. Used once per
// newly admitted session for the full-state resync, and on clear.
func (s *Store) Snapshot() []*models.Stroke {
	out := make([]*models.Stroke, len(s.log))
	copy(out, s.log)
	return out
}

// Append validates the stroke, finalizes its id and records it at the end
// of the canvas log. A client-proposed id is kept only if it is non-empty
// and not already known to the index; otherwise the server assigns a random
// UUID. Timestamp-derived ids are deliberately not used here: they collide
// under rapid multi-stroke bursts from one connection.
func (s *Store) Append(stroke *models.Stroke) (*models.Stroke, error) {
	if len(stroke.Points) == 0 {
		return nil, ErrMalformedStroke
	}

	if stroke.ID == "" {
		stroke.ID = uuid.NewString()
	} else if _, taken := s.index[stroke.ID]; taken {
		stroke.ID = uuid.NewString()
	}

	s.log = append(s.log, stroke)
	s.index[stroke.ID] = stroke
	return stroke, nil
}

// RemoveFromLog takes the stroke with the given id out of the canvas log,
// preserving the order of the remaining strokes. The stroke stays in the
// index so a later Restore can bring it back.
func (s *Store) RemoveFromLog(id string) (*models.Stroke, bool) {
	for i, stroke := range s.log {
		if stroke.ID == id {
			s.log = append(s.log[:i], s.log[i+1:]...)
			return stroke, true
		}
	}
	return nil, false
}

// Restore re-appends an indexed stroke at the current end of the canvas
// log. Re-appending at the end rather than the stroke's original position
// is deliberate: redo changes z-order.
func (s *Store) Restore(id string) (*models.Stroke, bool) {
	stroke, ok := s.index[id]
	if !ok {
		return nil, false
	}
	for _, live := range s.log {
		if live.ID == id {
			// Already visible; restoring again would duplicate it.
			return nil, false
		}
	}
	s.log = append(s.log, stroke)
	return stroke, true
}

// Reset atomically empties the canvas log and returns the removed strokes
// in their prior order, so clear can hand each one back to its author's
// redo stack. The index is untouched.
func (s *Store) Reset() []*models.Stroke {
	removed := s.log
	s.log = nil
	return removed
}

// Len reports the number of currently visible strokes.
func (s *Store) Len() int {
	return len(s.log)
}
