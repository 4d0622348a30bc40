package repository

import (
	"context"
	"errors"
	"time"

	"github.com/zhakasov-bm/lms-backend/internal/model"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("unique constraint violation")
)

// Queries is the data access surface of the quiz engine. The same methods
// run against the pool or inside a transaction.
//
// Lock* reads take a row lock that is held until the enclosing transaction
// ends; outside a transaction they behave like plain reads.
type Queries interface {
	ModuleExists(ctx context.Context, moduleID int64) (bool, error)

	GetQuiz(ctx context.Context, id int64) (*model.Quiz, error)
	LockQuiz(ctx context.Context, id int64) (*model.Quiz, error)
	GetQuizByModule(ctx context.Context, moduleID int64) (*model.Quiz, error)
	// InsertQuizOrFetch creates the quiz of a module, or returns the existing one.
	InsertQuizOrFetch(ctx context.Context, moduleID int64, title string) (*model.Quiz, error)
	UpdateQuiz(ctx context.Context, id int64, patch model.QuizPatch) (*model.Quiz, error)
	SetQuizPublished(ctx context.Context, id int64, published bool) (*model.Quiz, error)

	// ListQuestions returns the questions of a quiz with their options, both rank ordered.
	ListQuestions(ctx context.Context, quizID int64) ([]model.Question, error)
	ListQuestionIDs(ctx context.Context, quizID int64) ([]int64, error)
	GetQuestion(ctx context.Context, id int64) (*model.Question, error)
	LockQuestion(ctx context.Context, id int64) (*model.Question, error)
	// InsertQuestion appends q at rank max+1 and fills ID, Rank and timestamps.
	InsertQuestion(ctx context.Context, q *model.Question) error
	UpdateQuestion(ctx context.Context, id int64, patch model.QuestionPatch) (*model.Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	SetQuestionRanks(ctx context.Context, quizID int64, items []model.RankItem) error
	// RenumberQuestions rewrites the ranks of a quiz's questions to 1..N keeping their order.
	RenumberQuestions(ctx context.Context, quizID int64) error

	ListOptionIDs(ctx context.Context, questionID int64) ([]int64, error)
	GetOption(ctx context.Context, id int64) (*model.Option, error)
	// InsertOption appends o at rank max+1 and fills ID, Rank and timestamps.
	InsertOption(ctx context.Context, o *model.Option) error
	UpdateOption(ctx context.Context, id int64, patch model.OptionPatch) (*model.Option, error)
	DeleteOption(ctx context.Context, id int64) error
	SetOptionRanks(ctx context.Context, questionID int64, items []model.RankItem) error
	RenumberOptions(ctx context.Context, questionID int64) error

	GetAttempt(ctx context.Context, id int64) (*model.Attempt, error)
	LockAttempt(ctx context.Context, id int64) (*model.Attempt, error)
	FindAttempt(ctx context.Context, quizID, userID int64) (*model.Attempt, error)
	// InsertAttempt creates an in-progress attempt. A second attempt for the
	// same quiz and user fails with ErrConflict.
	InsertAttempt(ctx context.Context, quizID, userID int64, startedAt time.Time) (*model.Attempt, error)
	ResetAttempt(ctx context.Context, id int64, startedAt time.Time) (*model.Attempt, error)
	CompleteAttempt(ctx context.Context, id int64, score, maxScore int, submittedAt time.Time) (*model.Attempt, error)
	ListAttempts(ctx context.Context, quizID int64, limit, offset int) ([]model.Attempt, int, error)
	MaxSubmittedScore(ctx context.Context, quizID, userID int64) (int, error)

	DeleteAnswers(ctx context.Context, attemptID int64) error
	InsertAnswer(ctx context.Context, attemptID, questionID int64, optionIDs []int64) (*model.AnswerRecord, error)
	ListAnswers(ctx context.Context, attemptID int64) ([]model.AnswerRecord, error)
}

// Store adds transactions to Queries. fn runs with a Queries bound to the
// transaction; a non-nil return rolls everything back.
type Store interface {
	Queries
	Transaction(ctx context.Context, fn func(q Queries) error) error
}
