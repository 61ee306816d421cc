package models

// Point is a single 2-D coordinate in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one completed freehand drawing action. Strokes are immutable
// once accepted by the board: the points are frozen at submission time and
// the author fields are stamped by the server, never taken from the client.
type Stroke struct {
	ID         string  `json:"id"`
	AuthorID   string  `json:"userId"`
	AuthorName string  `json:"userName"`
	Color      string  `json:"color"`
	Width      float64 `json:"width"`
	Points     []Point `json:"points"`
}

// Identity is the authenticated principal behind a connection, as resolved
// by the identity service during admission.
type Identity struct {
	UserID      string `json:"id"`
	DisplayName string `json:"name"`
	Color       string `json:"color"`
}

// CursorState is the last reported pointer position for a session.
// It is ephemeral presence data: overwritten on every move, dropped on
// disconnect, never part of the canvas state.
type CursorState struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
