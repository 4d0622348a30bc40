package service

import (
	"errors"
	"fmt"

	"github.com/zhakasov-bm/lms-backend/internal/repository"
)

// Error classes. Every error returned by the quiz services wraps one of them
// or is an unexpected persistence failure.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
)

var (
	ErrModuleNotFound   = fmt.Errorf("module %w", ErrNotFound)
	ErrQuizNotFound     = fmt.Errorf("quiz %w", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	ErrOptionNotFound   = fmt.Errorf("option %w", ErrNotFound)
	ErrAttemptNotFound  = fmt.Errorf("attempt %w", ErrNotFound)

	ErrNotAttemptOwner     = fmt.Errorf("%w: attempt belongs to another user", ErrForbidden)
	ErrAlreadySubmitted    = fmt.Errorf("%w: you already submitted this quiz", ErrForbidden)
	ErrAttemptLimitReached = fmt.Errorf("%w: attempt limit reached", ErrForbidden)

	ErrNoFieldsToUpdate    = fmt.Errorf("%w: no fields to update", ErrValidation)
	ErrInvalidReorder      = fmt.Errorf("%w: invalid reorder payload", ErrValidation)
	ErrAttemptSubmitted    = fmt.Errorf("%w: attempt already submitted", ErrValidation)
	ErrQuizEmpty           = fmt.Errorf("%w: quiz has no questions", ErrValidation)
	ErrInvalidOption       = fmt.Errorf("%w: invalid optionId for question", ErrValidation)
	ErrInvalidQuestionType = fmt.Errorf("%w: unknown question type", ErrValidation)
)

// PublishError reports the first question that keeps a quiz from being published.
// Rank is 0 when the quiz itself is empty.
type PublishError struct {
	Rank   int
	Reason string
}

func (e *PublishError) Error() string {
	if e.Rank == 0 {
		return e.Reason
	}
	return fmt.Sprintf("question #%d %s", e.Rank, e.Reason)
}

func (e *PublishError) Unwrap() error { return ErrValidation }

// mapNotFound replaces repository.ErrNotFound with the given domain error.
func mapNotFound(err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return err
}
