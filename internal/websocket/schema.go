package websocket

import "github.com/zhakasov-bm/lms-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a monitor client message.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventAttempt  Event = "attempt"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse is sent once when a monitor connects.
type SnapshotResponse struct {
	Event    Event           `json:"event"`
	QuizID   int64           `json:"quizId"`
	Total    int             `json:"total"`
	Attempts []model.Attempt `json:"attempts"`
}

// AttemptResponse forwards one attempt lifecycle event.
type AttemptResponse struct {
	Event   Event              `json:"event"`
	Attempt model.AttemptEvent `json:"attempt"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
