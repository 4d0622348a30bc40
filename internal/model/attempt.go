package model

import "time"

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

// Attempt is a learner's single attempt record for a quiz.
type Attempt struct {
	ID          int64         `json:"id"`
	QuizID      int64         `json:"quizId"`
	UserID      int64         `json:"userId"`
	Status      AttemptStatus `json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
	SubmittedAt *time.Time    `json:"submittedAt"`
	Score       int           `json:"score"`
	MaxScore    int           `json:"maxScore"`
}

// AnswerRecord is the persisted answer of one question within an attempt,
// together with the options the learner selected.
type AnswerRecord struct {
	ID         int64   `json:"id"`
	AttemptID  int64   `json:"attemptId"`
	QuestionID int64   `json:"questionId"`
	OptionIDs  []int64 `json:"optionIds"`
}

// AnswerInput is one submitted answer.
type AnswerInput struct {
	QuestionID        int64   `json:"questionId" binding:"required"`
	SelectedOptionIDs []int64 `json:"selectedOptionIds"`
}

// SubmitAttemptRequest is the payload for submitting an attempt.
type SubmitAttemptRequest struct {
	Answers []AnswerInput `json:"answers" binding:"required,dive"`
}

// AttemptResult is returned after a successful submission.
type AttemptResult struct {
	AttemptID   int64         `json:"attemptId"`
	Status      AttemptStatus `json:"status"`
	Score       int           `json:"score"`
	MaxScore    int           `json:"maxScore"`
	SubmittedAt *time.Time    `json:"submittedAt"`
	// Passed is only set when the quiz has a passing score.
	Passed *bool `json:"passed,omitempty"`
}

// BestScoreResponse is returned by the best-score endpoint.
type BestScoreResponse struct {
	ModuleID  int64 `json:"moduleId"`
	QuizID    int64 `json:"quizId"`
	BestScore int   `json:"bestScore"`
}

// AttemptEventType names the kind of attempt lifecycle event.
type AttemptEventType string

const (
	AttemptEventStarted   AttemptEventType = "attempt_started"
	AttemptEventReset     AttemptEventType = "attempt_reset"
	AttemptEventSubmitted AttemptEventType = "attempt_submitted"
)

// AttemptEvent is broadcast on the quiz monitor channel.
type AttemptEvent struct {
	Type      AttemptEventType `json:"type"`
	QuizID    int64            `json:"quizId"`
	AttemptID int64            `json:"attemptId"`
	UserID    int64            `json:"userId"`
	Status    AttemptStatus    `json:"status"`
	Score     int              `json:"score"`
	MaxScore  int              `json:"maxScore"`
	At        time.Time        `json:"at"`
}
