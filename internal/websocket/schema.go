package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer     Action = "answer"
	ActionCheckpoint Action = "checkpoint"
	ActionSubmit     Action = "submit"
	ActionPing       Action = "ping"
)

// RequestPayload is the single message shape for all client actions; unused
// fields stay at their zero value for actions that do not need them.
type RequestPayload struct {
	Action           Action `json:"action"`
	QuestionID       string `json:"question_id,omitempty"`
	SelectedOption   string `json:"selected_option,omitempty"`
	TimeTakenSeconds int    `json:"time_taken_seconds,omitempty"`
	RemainingSeconds int    `json:"remaining_time_seconds,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError        Event = "error"
	EventSaved        Event = "saved"
	EventCheckpointed Event = "checkpointed"
	EventSubmitted    Event = "submitted"
	EventPong         Event = "pong"
)

type SavedResponse struct {
	Event      Event  `json:"event"`
	QuestionID string `json:"question_id"`
}

type CheckpointedResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_time_seconds"`
}

type SubmittedResponse struct {
	Event  Event `json:"event"`
	Score  int   `json:"score"`
	Passed bool  `json:"passed"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
