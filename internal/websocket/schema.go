package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventPong      Event = "pong"
	EventProctor   Event = "proctoring_event"
	EventStreamEnd Event = "stream_end"
)

// ProctorEventResponse relays one proctoring observation to a watching
// recruiter.
type ProctorEventResponse struct {
	Event      Event  `json:"event"`
	AttemptID  int    `json:"attempt_id"`
	EventType  string `json:"event_type"`
	Detail     string `json:"detail"`
	OccurredAt string `json:"occurred_at"`
}

// StreamEndResponse tells the recruiter the attempt has finished.
type StreamEndResponse struct {
	Event  Event  `json:"event"`
	Reason string `json:"reason"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
