package model

import "time"

type QuestionType string

const (
	QuestionTypeSingle QuestionType = "SINGLE"
	QuestionTypeMulti  QuestionType = "MULTI"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	return t == QuestionTypeSingle || t == QuestionTypeMulti
}

// Question is a single quiz question. Options is populated by list reads only.
type Question struct {
	ID        int64        `json:"id"`
	QuizID    int64        `json:"quizId"`
	Type      QuestionType `json:"type"`
	Text      string       `json:"text"`
	Points    int          `json:"points"`
	Rank      int          `json:"rank"`
	Options   []Option     `json:"options,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Option is one selectable answer of a question.
type Option struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"questionId"`
	Text       string    `json:"text"`
	IsCorrect  bool      `json:"isCorrect"`
	Rank       int       `json:"rank"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// QuestionPatch is a partial update of a question.
type QuestionPatch struct {
	Type   *QuestionType
	Text   *string
	Points *int
}

func (p QuestionPatch) IsEmpty() bool {
	return p.Type == nil && p.Text == nil && p.Points == nil
}

// OptionPatch is a partial update of an option.
type OptionPatch struct {
	Text      *string
	IsCorrect *bool
}

func (p OptionPatch) IsEmpty() bool {
	return p.Text == nil && p.IsCorrect == nil
}

// RankItem assigns a rank to one sibling record in a reorder request.
type RankItem struct {
	ID   int64 `json:"id"`
	Rank int   `json:"rank"`
}

// AddQuestionRequest is the payload for adding a question to a quiz.
type AddQuestionRequest struct {
	Type   string `json:"type" binding:"required,question_type"`
	Text   string `json:"text" binding:"required,min=1,max=2000"`
	Points *int   `json:"points" binding:"omitempty,min=1"`
}

// UpdateQuestionRequest is the payload for a partial question update.
type UpdateQuestionRequest struct {
	Type   *string `json:"type" binding:"omitempty,question_type"`
	Text   *string `json:"text" binding:"omitempty,min=1,max=2000"`
	Points *int    `json:"points" binding:"omitempty,min=1"`
}

// Patch converts the request into a QuestionPatch.
func (r UpdateQuestionRequest) Patch() QuestionPatch {
	p := QuestionPatch{Text: r.Text, Points: r.Points}
	if r.Type != nil {
		t := QuestionType(*r.Type)
		p.Type = &t
	}
	return p
}

// AddOptionRequest is the payload for adding an option to a question.
type AddOptionRequest struct {
	Text      string `json:"text" binding:"required,min=1,max=1000"`
	IsCorrect *bool  `json:"isCorrect"`
}

// UpdateOptionRequest is the payload for a partial option update.
type UpdateOptionRequest struct {
	Text      *string `json:"text" binding:"omitempty,min=1,max=1000"`
	IsCorrect *bool   `json:"isCorrect"`
}

func (r UpdateOptionRequest) Patch() OptionPatch {
	return OptionPatch{Text: r.Text, IsCorrect: r.IsCorrect}
}

// ReorderRequest carries the complete new ordering of a sibling set.
type ReorderRequest struct {
	Items []RankItem `json:"items" binding:"required"`
}
