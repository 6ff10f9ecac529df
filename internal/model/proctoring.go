package model

import "time"

// SnapshotEntry records one webcam snapshot captured during an attempt.
type SnapshotEntry struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// ProctoringData aggregates everything the session controller observed.
// The client sends its copy with the end request; the server merges it
// with what it recorded itself.
type ProctoringData struct {
	Snapshots          []SnapshotEntry `json:"snapshots"`
	TabSwitches        int             `json:"tab_switches"`
	FullscreenWarnings int             `json:"fullscreen_warnings"`
	Remarks            []string        `json:"remarks"`
	ForcedTermination  bool            `json:"forced_termination"`
	TerminationReason  string          `json:"termination_reason"`
}

// EndAssessmentRequest is the body of the end call.
type EndAssessmentRequest struct {
	ProctoringData ClientProctoringData `json:"proctoring_data"`
}

// ClientProctoringData is the client-side view of proctoring counters.
// It has no snapshot list; snapshots are uploaded separately.
type ClientProctoringData struct {
	TabSwitches        int      `json:"tab_switches"`
	FullscreenWarnings int      `json:"fullscreen_warnings"`
	Remarks            []string `json:"remarks"`
	ForcedTermination  bool     `json:"forced_termination"`
	TerminationReason  string   `json:"termination_reason"`
}

// ProctoringEvent is a single proctoring observation queued for
// asynchronous persistence.
type ProctoringEvent struct {
	AttemptID  int       `json:"attempt_id"`
	EventType  string    `json:"event_type"`
	Detail     string    `json:"detail"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Proctoring event types persisted to the events table.
const (
	EventTabSwitch        = "tab_switch"
	EventFullscreenExit   = "fullscreen_exit"
	EventClipboardBlocked = "clipboard_blocked"
	EventSnapshot         = "snapshot"
	EventRemark           = "remark"
	EventTermination      = "termination"
)
