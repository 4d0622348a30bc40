package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/repository"
)

// AttemptService handles the attempt lifecycle: start, staff reset, submit
// and score lookups.
type AttemptService struct {
	store  repository.Store
	events AttemptPublisher
	log    zerolog.Logger
	now    func() time.Time
}

// NewAttemptService creates a new AttemptService. events may be nil.
func NewAttemptService(store repository.Store, events AttemptPublisher, log zerolog.Logger) *AttemptService {
	if events == nil {
		events = nopPublisher{}
	}
	return &AttemptService{
		store:  store,
		events: events,
		log:    log.With().Str("component", "attempt_service").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Start returns the caller's attempt for a published quiz, creating it when
// absent. Staff callers restart a submitted attempt; learners are refused.
func (s *AttemptService) Start(ctx context.Context, quizID, userID int64, role model.Role) (*model.Attempt, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, mapNotFound(err, ErrQuizNotFound)
	}
	if !quiz.IsPublished {
		return nil, ErrQuizNotFound
	}

	existing, err := s.store.FindAttempt(ctx, quizID, userID)
	switch {
	case err == nil:
		if existing.Status != model.AttemptStatusSubmitted {
			return existing, nil
		}
		if !role.IsStaff() {
			return nil, ErrAlreadySubmitted
		}
		return s.reset(ctx, existing.ID)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("find attempt: %w", err)
	}

	if !role.IsStaff() && quiz.AttemptLimit != nil && *quiz.AttemptLimit <= 0 {
		return nil, ErrAttemptLimitReached
	}

	attempt, created, err := s.getOrCreateAttempt(ctx, quizID, userID)
	if err != nil {
		return nil, err
	}
	if created {
		s.emit(ctx, model.AttemptEventStarted, attempt)
	}
	return attempt, nil
}

// getOrCreateAttempt inserts a new attempt. When a concurrent request wins the
// insert, the winner's row is read back and returned instead; created reports
// which of the two happened.
func (s *AttemptService) getOrCreateAttempt(ctx context.Context, quizID, userID int64) (attempt *model.Attempt, created bool, err error) {
	attempt, err = s.store.InsertAttempt(ctx, quizID, userID, s.now())
	if err == nil {
		return attempt, true, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, false, fmt.Errorf("insert attempt: %w", err)
	}

	attempt, err = s.store.FindAttempt(ctx, quizID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("re-read attempt after conflict: %w", err)
	}
	s.log.Debug().Int64("quiz_id", quizID).Int64("user_id", userID).Msg("Attempt insert lost race, using existing row")
	return attempt, false, nil
}

// reset clears a submitted attempt's answers and puts it back in progress.
func (s *AttemptService) reset(ctx context.Context, attemptID int64) (*model.Attempt, error) {
	var (
		attempt *model.Attempt
		changed bool
	)
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		current, err := q.LockAttempt(ctx, attemptID)
		if err != nil {
			return mapNotFound(err, ErrAttemptNotFound)
		}
		// Another restart may have committed first.
		if current.Status != model.AttemptStatusSubmitted {
			attempt = current
			return nil
		}

		if err := q.DeleteAnswers(ctx, attemptID); err != nil {
			return err
		}
		if attempt, err = q.ResetAttempt(ctx, attemptID, s.now()); err != nil {
			return fmt.Errorf("reset attempt: %w", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.emit(ctx, model.AttemptEventReset, attempt)
	}
	return attempt, nil
}

// Submit grades the answers and stores them together with the final score.
func (s *AttemptService) Submit(ctx context.Context, attemptID, userID int64, answers []model.AnswerInput) (*model.AttemptResult, error) {
	var (
		attempt *model.Attempt
		quiz    *model.Quiz
	)
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		current, err := q.LockAttempt(ctx, attemptID)
		if err != nil {
			return mapNotFound(err, ErrAttemptNotFound)
		}
		if current.UserID != userID {
			return ErrNotAttemptOwner
		}
		if current.Status == model.AttemptStatusSubmitted {
			return ErrAttemptSubmitted
		}

		if quiz, err = q.GetQuiz(ctx, current.QuizID); err != nil {
			return mapNotFound(err, ErrQuizNotFound)
		}
		questions, err := q.ListQuestions(ctx, current.QuizID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}

		grade, err := GradeSubmission(questions, answers)
		if err != nil {
			return err
		}
		attempt, err = persistGrade(ctx, q, attemptID, grade, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, model.AttemptEventSubmitted, attempt)
	s.log.Info().
		Int64("attempt_id", attempt.ID).
		Int("score", attempt.Score).
		Int("max_score", attempt.MaxScore).
		Msg("Attempt submitted")

	result := &model.AttemptResult{
		AttemptID:   attempt.ID,
		Status:      attempt.Status,
		Score:       attempt.Score,
		MaxScore:    attempt.MaxScore,
		SubmittedAt: attempt.SubmittedAt,
	}
	if quiz.PassingScore != nil {
		passed := attempt.Score >= *quiz.PassingScore
		result.Passed = &passed
	}
	return result, nil
}

// BestScore returns the highest submitted score of a user on a published quiz, 0 if none.
func (s *AttemptService) BestScore(ctx context.Context, quizID, userID int64) (int, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, mapNotFound(err, ErrQuizNotFound)
	}
	if !quiz.IsPublished {
		return 0, ErrQuizNotFound
	}

	best, err := s.store.MaxSubmittedScore(ctx, quizID, userID)
	if err != nil {
		return 0, fmt.Errorf("best score: %w", err)
	}
	return best, nil
}

// ListAttempts returns a page of a quiz's attempts for staff review.
func (s *AttemptService) ListAttempts(ctx context.Context, quizID int64, page, perPage int) ([]model.Attempt, int, error) {
	if _, err := s.store.GetQuiz(ctx, quizID); err != nil {
		return nil, 0, mapNotFound(err, ErrQuizNotFound)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	attempts, total, err := s.store.ListAttempts(ctx, quizID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list attempts: %w", err)
	}
	return attempts, total, nil
}

// ListAnswers returns the stored answers of an attempt. Learners may only
// read their own attempts.
func (s *AttemptService) ListAnswers(ctx context.Context, attemptID, userID int64, role model.Role) ([]model.AnswerRecord, error) {
	attempt, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, mapNotFound(err, ErrAttemptNotFound)
	}
	if attempt.UserID != userID && !role.IsStaff() {
		return nil, ErrNotAttemptOwner
	}
	return s.store.ListAnswers(ctx, attemptID)
}

func (s *AttemptService) emit(ctx context.Context, typ model.AttemptEventType, a *model.Attempt) {
	ev := model.AttemptEvent{
		Type:      typ,
		QuizID:    a.QuizID,
		AttemptID: a.ID,
		UserID:    a.UserID,
		Status:    a.Status,
		Score:     a.Score,
		MaxScore:  a.MaxScore,
		At:        s.now(),
	}
	if err := s.events.PublishAttemptEvent(ctx, ev); err != nil {
		s.log.Warn().Err(err).Int64("attempt_id", a.ID).Str("event", string(typ)).Msg("Failed to publish attempt event")
	}
}
