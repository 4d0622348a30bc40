package service

import (
	"context"

	"github.com/zhakasov-bm/lms-backend/internal/model"
)

// QuizViewCache stores learner views of published quizzes.
// Get returns nil, nil on a miss. Set is a no-op when the quiz was
// invalidated after gen was taken from Generation.
type QuizViewCache interface {
	GetLearnerView(ctx context.Context, quizID int64) (*model.QuizView, error)
	Generation(ctx context.Context, quizID int64) (int64, error)
	SetLearnerView(ctx context.Context, view *model.QuizView, gen int64) error
	InvalidateLearnerView(ctx context.Context, quizID int64) error
}

// AttemptPublisher broadcasts attempt lifecycle events to quiz monitors.
type AttemptPublisher interface {
	PublishAttemptEvent(ctx context.Context, ev model.AttemptEvent) error
}

type nopViewCache struct{}

func (nopViewCache) GetLearnerView(context.Context, int64) (*model.QuizView, error) { return nil, nil }
func (nopViewCache) Generation(context.Context, int64) (int64, error)               { return 0, nil }
func (nopViewCache) SetLearnerView(context.Context, *model.QuizView, int64) error   { return nil }
func (nopViewCache) InvalidateLearnerView(context.Context, int64) error             { return nil }

type nopPublisher struct{}

func (nopPublisher) PublishAttemptEvent(context.Context, model.AttemptEvent) error { return nil }
