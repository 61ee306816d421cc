package hub

import (
	"encoding/json"
	"fmt"

	"drawboard/internal/models"
)

// EventType tags every message crossing a connection. The set is closed:
// inbound frames with an unknown type are rejected at decode time instead
// of being trusted as arbitrary payload shapes.
type EventType string

const (
	// Client -> server.
	EventStroke EventType = "stroke" // also server -> others with the finalized stroke
	EventUndo   EventType = "undo"
	EventRedo   EventType = "redo"
	EventClear  EventType = "clear"
	EventCursor EventType = "cursor" // also server -> others with position + identity

	// Server -> client.
	EventHistory      EventType = "history"
	EventRemoveStroke EventType = "remove-stroke"
	EventUserLeft     EventType = "user-left"
	EventUndoEmpty    EventType = "undo-empty"
	EventRedoEmpty    EventType = "redo-empty"
	EventRedoFailed   EventType = "redo-failed"
	EventError        EventType = "error"
)

// ClientEvent is a decoded, validated inbound frame.
type ClientEvent struct {
	Type   EventType           `json:"type"`
	Stroke *models.Stroke      `json:"stroke,omitempty"`
	Cursor *models.CursorState `json:"cursor,omitempty"`
}

// DecodeClientEvent parses an inbound frame and enforces the payload each
// event type requires. Undo, redo and clear carry no payload at all.
func DecodeClientEvent(data []byte) (*ClientEvent, error) {
	var ev ClientEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch ev.Type {
	case EventStroke:
		if ev.Stroke == nil {
			return nil, fmt.Errorf("stroke event without stroke payload")
		}
	case EventCursor:
		if ev.Cursor == nil {
			return nil, fmt.Errorf("cursor event without position payload")
		}
	case EventUndo, EventRedo, EventClear:
		// No payload.
	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return &ev, nil
}

// Outbound frames. These marshal infallibly (plain structs, no channels or
// cycles), so encoders return the bytes directly.

type historyMessage struct {
	Type    EventType        `json:"type"`
	Strokes []*models.Stroke `json:"strokes"`
}

func encodeHistory(strokes []*models.Stroke) []byte {
	if strokes == nil {
		strokes = []*models.Stroke{}
	}
	msg, _ := json.Marshal(historyMessage{Type: EventHistory, Strokes: strokes})
	return msg
}

type strokeMessage struct {
	Type   EventType      `json:"type"`
	Stroke *models.Stroke `json:"stroke"`
}

func encodeStroke(stroke *models.Stroke) []byte {
	msg, _ := json.Marshal(strokeMessage{Type: EventStroke, Stroke: stroke})
	return msg
}

type removeStrokeMessage struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"`
}

func encodeRemoveStroke(id string) []byte {
	msg, _ := json.Marshal(removeStrokeMessage{Type: EventRemoveStroke, ID: id})
	return msg
}

type cursorMessage struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Color     string    `json:"color"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
}

func encodeCursor(s *Session, pos models.CursorState) []byte {
	msg, _ := json.Marshal(cursorMessage{
		Type:      EventCursor,
		SessionID: s.ID,
		UserID:    s.Identity.UserID,
		UserName:  s.Identity.DisplayName,
		Color:     s.Identity.Color,
		X:         pos.X,
		Y:         pos.Y,
	})
	return msg
}

type userLeftMessage struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
}

func encodeUserLeft(s *Session) []byte {
	msg, _ := json.Marshal(userLeftMessage{
		Type:      EventUserLeft,
		SessionID: s.ID,
		UserID:    s.Identity.UserID,
	})
	return msg
}

type noticeMessage struct {
	Type EventType `json:"type"`
}

func encodeNotice(t EventType) []byte {
	msg, _ := json.Marshal(noticeMessage{Type: t})
	return msg
}

type errorMessage struct {
	Type   EventType `json:"type"`
	Reason string    `json:"reason"`
}

func encodeError(reason string) []byte {
	msg, _ := json.Marshal(errorMessage{Type: EventError, Reason: reason})
	return msg
}
