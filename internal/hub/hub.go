package hub

import (
	"errors"
	"log"

	"drawboard/internal/board"
	"drawboard/internal/models"

	mapset "github.com/deckarep/golang-set/v2"
)

// Canvas is what the hub needs from the whiteboard state machine. Defined
// here, consumer-side; satisfied by board.Board.
type Canvas interface {
	Snapshot() []*models.Stroke
	SubmitStroke(who models.Identity, proposed *models.Stroke) (*models.Stroke, error)
	Undo(userID string) (*models.Stroke, error)
	Redo(userID string) (*models.Stroke, error)
	Clear()
}

// frame is one unit of work for the run loop: a decoded client event, or a
// decode failure that needs an error reply.
type frame struct {
	session   *Session
	event     *ClientEvent
	decodeErr error
}

// Hub is the session registry and broadcast router. Every state-changing
// event from every connection funnels through one run loop goroutine, which
// is the serialization point the board's consistency rests on: events apply
// strictly one at a time, and the order they apply is the order their
// broadcasts are queued. Network reads and writes stay asynchronous in the
// per-session pumps; only the application of events is single-file.
type Hub struct {
	board      Canvas
	sessions   mapset.Set[*Session]
	register   chan *Session
	unregister chan *Session
	frames     chan *frame
	done       chan struct{}
	sendBuffer int
}

func New(b Canvas, sendBuffer int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Hub{
		board:      b,
		sessions:   mapset.NewSet[*Session](),
		register:   make(chan *Session),
		unregister: make(chan *Session),
		frames:     make(chan *frame, 256),
		done:       make(chan struct{}),
		sendBuffer: sendBuffer,
	}
}

// Start launches the run loop.
func (h *Hub) Start() {
	log.Println("✓ whiteboard hub started")
	go h.run()
}

// Shutdown stops the loop and closes every live connection.
func (h *Hub) Shutdown() {
	log.Println("shutting down whiteboard hub...")
	close(h.done)
}

// Register admits an already-authenticated session into the hub.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- s:
	case <-h.done:
		// Hub is already gone; close the connection instead of leaking it.
		if s.Conn != nil {
			s.Conn.Close()
		}
	}
}

// Unregister removes a session; safe to call more than once.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Dispatch hands a decoded client event to the run loop.
func (h *Hub) Dispatch(s *Session, ev *ClientEvent) {
	select {
	case h.frames <- &frame{session: s, event: ev}:
	case <-h.done:
	}
}

// DispatchError routes a per-frame failure back to its session through the
// loop, so replies and broadcasts stay on the single ordered path.
func (h *Hub) DispatchError(s *Session, err error) {
	select {
	case h.frames <- &frame{session: s, decodeErr: err}:
	case <-h.done:
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return
		case s := <-h.register:
			h.handleRegister(s)
		case s := <-h.unregister:
			h.handleUnregister(s)
		case f := <-h.frames:
			h.handleFrame(f)
		}
	}
}

func (h *Hub) handleRegister(s *Session) {
	h.sessions.Add(s)

	// Full-state resync: the one-shot history snapshot is what makes late
	// joiners consistent, there is no incremental catch-up.
	h.deliver(s, encodeHistory(h.board.Snapshot()))

	log.Printf("session %s joined (%s, %d online)", s.ID, s.Identity.DisplayName, h.sessions.Cardinality())
}

func (h *Hub) handleUnregister(s *Session) {
	if !h.sessions.Contains(s) {
		return
	}
	h.removeSession(s)
	h.broadcast(encodeUserLeft(s), nil)
	log.Printf("session %s left (%s, %d online)", s.ID, s.Identity.DisplayName, h.sessions.Cardinality())
}

func (h *Hub) handleFrame(f *frame) {
	s := f.session
	if !h.sessions.Contains(s) {
		// Queued behind the session's own removal.
		return
	}

	if f.decodeErr != nil {
		h.deliver(s, encodeError(f.decodeErr.Error()))
		return
	}

	switch f.event.Type {
	case EventStroke:
		finalized, err := h.board.SubmitStroke(s.Identity, f.event.Stroke)
		if err != nil {
			h.deliver(s, encodeError(err.Error()))
			return
		}
		// The author already rendered it locally; everyone else gets the
		// server-finalized stroke, not the raw client payload.
		h.broadcast(encodeStroke(finalized), s)

	case EventUndo:
		removed, err := h.board.Undo(s.Identity.UserID)
		switch {
		case errors.Is(err, board.ErrEmptyStack):
			h.deliver(s, encodeNotice(EventUndoEmpty))
		case err != nil:
			h.deliver(s, encodeError(err.Error()))
		default:
			// Author included: the server is authoritative, the author's
			// own view gets corrected too.
			h.broadcast(encodeRemoveStroke(removed.ID), nil)
		}

	case EventRedo:
		restored, err := h.board.Redo(s.Identity.UserID)
		switch {
		case errors.Is(err, board.ErrEmptyStack):
			h.deliver(s, encodeNotice(EventRedoEmpty))
		case errors.Is(err, board.ErrBrokenRedo):
			h.deliver(s, encodeNotice(EventRedoFailed))
		case err != nil:
			h.deliver(s, encodeError(err.Error()))
		default:
			h.broadcast(encodeStroke(restored), nil)
		}

	case EventClear:
		h.board.Clear()
		h.broadcast(encodeHistory(nil), nil)

	case EventCursor:
		pos := *f.event.Cursor
		s.Cursor = &pos
		// Presence only, never echoed back to the mover.
		h.broadcast(encodeCursor(s, pos), s)
	}
}

// deliver queues a message for one session, dropping the session if its
// buffer is full.
func (h *Hub) deliver(s *Session, message []byte) {
	if !s.trySend(message) {
		h.dropSlow(s)
	}
}

// broadcast queues a message for every session except the given one.
func (h *Hub) broadcast(message []byte, except *Session) {
	var slow []*Session
	h.sessions.Each(func(s *Session) bool {
		if s == except {
			return false
		}
		if !s.trySend(message) {
			slow = append(slow, s)
		}
		return false
	})
	for _, s := range slow {
		h.dropSlow(s)
	}
}

func (h *Hub) dropSlow(s *Session) {
	if !h.sessions.Contains(s) {
		return
	}
	log.Printf("session %s send buffer full, dropping connection", s.ID)
	h.removeSession(s)
	h.broadcast(encodeUserLeft(s), nil)
}

func (h *Hub) removeSession(s *Session) {
	h.sessions.Remove(s)
	close(s.Send)
	if s.Conn != nil {
		s.Conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.sessions.Each(func(s *Session) bool {
		close(s.Send)
		if s.Conn != nil {
			s.Conn.Close()
		}
		return false
	})
	h.sessions.Clear()
	log.Println("✓ whiteboard hub shutdown complete")
}
