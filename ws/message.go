package ws

import "encoding/json"

// InboundEnvelope is the generic envelope for all client-to-server messages.
// The Type field is used for routing; Raw holds the full JSON payload.
type InboundEnvelope struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// UnmarshalJSON implements custom unmarshaling to capture the raw payload.
func (e *InboundEnvelope) UnmarshalJSON(data []byte) error {
	type typeOnly struct {
		Type string `json:"type"`
	}
	var t typeOnly
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	e.Type = t.Type
	e.Raw = json.RawMessage(data)
	return nil
}

// --- Client-to-Server message payloads ---

// JoinMsg declares the player id and picks a board. An empty name gets a
// generated id; an empty board id selects the default board.
type JoinMsg struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Board string `json:"board,omitempty"`
}

// FlipMsg flips one card. The reply arrives as a flip_result once the flip
// resolves, which may be after a wait for a card held by another player.
type FlipMsg struct {
	Type string `json:"type"`
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

// LookMsg requests a board snapshot.
type LookMsg struct {
	Type string `json:"type"`
}

// WatchMsg starts a stream of board messages, one per board change.
type WatchMsg struct {
	Type string `json:"type"`
}

// UnwatchMsg stops the stream started by WatchMsg.
type UnwatchMsg struct {
	Type string `json:"type"`
}

// MapMsg rewrites card symbols on the board. Symbols absent from
// Replacements keep their value.
type MapMsg struct {
	Type         string            `json:"type"`
	Replacements map[string]string `json:"replacements"`
}

// --- Server-to-Client messages ---

// JoinedMsg confirms a join and carries the board geometry.
type JoinedMsg struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
	BoardID  string `json:"boardId"`
	Rows     int    `json:"rows"`
	Cols     int    `json:"cols"`
	Snapshot string `json:"snapshot"`
}

// BoardMsg carries a snapshot in the look wire format.
type BoardMsg struct {
	Type     string `json:"type"`
	Snapshot string `json:"snapshot"`
}

// FlipResultMsg reports the outcome of a FlipMsg.
type FlipResultMsg struct {
	Type     string `json:"type"`
	Ok       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Snapshot string `json:"snapshot,omitempty"`
}

// MapResultMsg reports the outcome of a MapMsg.
type MapResultMsg struct {
	Type  string `json:"type"`
	Ok    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ErrorMsg is sent when a client message is invalid.
type ErrorMsg struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
