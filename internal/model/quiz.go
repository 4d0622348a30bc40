package model

import "time"

// Quiz is the single quiz attached to a course module.
type Quiz struct {
	ID           int64     `json:"id"`
	ModuleID     int64     `json:"moduleId"`
	Title        string    `json:"title"`
	IsPublished  bool      `json:"isPublished"`
	TimeLimitSec *int      `json:"timeLimitSec"`
	AttemptLimit *int      `json:"attemptLimit"`
	PassingScore *int      `json:"passingScore"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DefaultQuizTitle is used when a quiz is created implicitly for a module.
const DefaultQuizTitle = "Quiz"

// QuizPatch carries a partial update of quiz settings. Nil fields are left untouched.
type QuizPatch struct {
	Title        *string
	TimeLimitSec *int
	AttemptLimit *int
	PassingScore *int
}

// IsEmpty reports whether the patch changes nothing.
func (p QuizPatch) IsEmpty() bool {
	return p.Title == nil && p.TimeLimitSec == nil && p.AttemptLimit == nil && p.PassingScore == nil
}

// UpdateQuizRequest is the payload for updating quiz settings.
type UpdateQuizRequest struct {
	Title        *string `json:"title" binding:"omitempty,min=1,max=255"`
	TimeLimitSec *int    `json:"timeLimitSec" binding:"omitempty,min=1"`
	AttemptLimit *int    `json:"attemptLimit" binding:"omitempty,min=0"`
	PassingScore *int    `json:"passingScore" binding:"omitempty,min=0"`
}

// Patch converts the request into a QuizPatch.
func (r UpdateQuizRequest) Patch() QuizPatch {
	return QuizPatch{
		Title:        r.Title,
		TimeLimitSec: r.TimeLimitSec,
		AttemptLimit: r.AttemptLimit,
		PassingScore: r.PassingScore,
	}
}

// PublishRequest toggles the publication state of a quiz.
type PublishRequest struct {
	IsPublished *bool `json:"isPublished" binding:"required"`
}

// QuizView is the read model returned to learners and staff. Correctness
// flags on options are only populated for staff.
type QuizView struct {
	ID           int64          `json:"id"`
	ModuleID     int64          `json:"moduleId"`
	Title        string         `json:"title"`
	IsPublished  bool           `json:"isPublished"`
	TimeLimitSec *int           `json:"timeLimitSec"`
	AttemptLimit *int           `json:"attemptLimit"`
	PassingScore *int           `json:"passingScore"`
	Questions    []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID      int64        `json:"id"`
	Type    QuestionType `json:"type"`
	Text    string       `json:"text"`
	Points  int          `json:"points"`
	Rank    int          `json:"rank"`
	Options []OptionView `json:"options"`
}

type OptionView struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Rank      int    `json:"rank"`
	IsCorrect *bool  `json:"isCorrect,omitempty"`
}

// NewQuizView assembles a view from a quiz and its questions (with options,
// rank ordered). withAnswers controls whether correctness flags are exposed.
func NewQuizView(q *Quiz, questions []Question, withAnswers bool) *QuizView {
	view := &QuizView{
		ID:           q.ID,
		ModuleID:     q.ModuleID,
		Title:        q.Title,
		IsPublished:  q.IsPublished,
		TimeLimitSec: q.TimeLimitSec,
		AttemptLimit: q.AttemptLimit,
		PassingScore: q.PassingScore,
		Questions:    make([]QuestionView, 0, len(questions)),
	}

	for _, qu := range questions {
		qv := QuestionView{
			ID:      qu.ID,
			Type:    qu.Type,
			Text:    qu.Text,
			Points:  qu.Points,
			Rank:    qu.Rank,
			Options: make([]OptionView, 0, len(qu.Options)),
		}
		for _, o := range qu.Options {
			ov := OptionView{ID: o.ID, Text: o.Text, Rank: o.Rank}
			if withAnswers {
				correct := o.IsCorrect
				ov.IsCorrect = &correct
			}
			qv.Options = append(qv.Options, ov)
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}
