package dialog

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Session identifies one upstream conversation. Sessions are created per
// exchange and never reused; the upstream owns their lifecycle.
type Session struct {
	ID        string
	CreatedAt time.Time
}

// Stage is a step of a single relay exchange.
type Stage string

const (
	StageCreated           Stage = "created"
	StageMessageSent       Stage = "message_sent"
	StageProcessing        Stage = "processing"
	StageTranscriptFetched Stage = "transcript_fetched"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunTimedOut  RunStatus = "timed_out"
	RunFailed    RunStatus = "failed"
)

// RunOutcome is the terminal state of one backend run.
type RunOutcome struct {
	RunID  string
	Status RunStatus
	// Reason is set for failed runs.
	Reason string
}

func (o RunOutcome) Completed() bool {
	return o.Status == RunCompleted
}

// Content block types carrying readable text.
const (
	BlockText    = "text"
	BlockRefusal = "refusal"
)

type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type TranscriptEntry struct {
	ID      string         `json:"id,omitempty"`
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Transcript is ordered as the backend returns it, newest entry first.
type Transcript []TranscriptEntry
