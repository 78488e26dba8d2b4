package listenmoe

import "encoding/json"

// Gateway operation codes.
const (
	OpHello        = 0  // server -> client, carries the heartbeat interval
	OpDispatch     = 1  // server -> client, event payload in D, type in T
	OpHeartbeat    = 9  // client -> server
	OpHeartbeatAck = 10 // server -> client, informational only
)

// EventTrackUpdate is the dispatch event type carrying a track payload.
const EventTrackUpdate = "TRACK_UPDATE"

// Envelope is the protocol's uniform message wrapper.
type Envelope struct {
	Op int             `json:"op"`
	T  string          `json:"t,omitempty"`
	D  json.RawMessage `json:"d,omitempty"`
}

// Hello is the payload of an OpHello envelope.
type Hello struct {
	Heartbeat int64 `json:"heartbeat"` // interval in milliseconds
}

// DecodeHello extracts the heartbeat interval from a hello envelope.
func DecodeHello(d json.RawMessage) (Hello, error) {
	var h Hello
	err := json.Unmarshal(d, &h)
	return h, err
}
