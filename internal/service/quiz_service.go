package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/repository"
)

// QuizService handles quiz authoring, publication and quiz views.
type QuizService struct {
	store    repository.Store
	ordering *OrderingService
	cache    QuizViewCache
	log      zerolog.Logger
}

// NewQuizService creates a new QuizService. cache may be nil.
func NewQuizService(store repository.Store, ordering *OrderingService, cache QuizViewCache, log zerolog.Logger) *QuizService {
	if cache == nil {
		cache = nopViewCache{}
	}
	return &QuizService{
		store:    store,
		ordering: ordering,
		cache:    cache,
		log:      log.With().Str("component", "quiz_service").Logger(),
	}
}

// NewQuestion describes a question to append to a quiz.
type NewQuestion struct {
	Type   model.QuestionType
	Text   string
	Points *int
}

// NewOption describes an option to append to a question.
type NewOption struct {
	Text      string
	IsCorrect *bool
}

// EnsureQuiz returns the module's quiz, creating it on first use.
func (s *QuizService) EnsureQuiz(ctx context.Context, moduleID int64) (*model.Quiz, error) {
	exists, err := s.store.ModuleExists(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("check module: %w", err)
	}
	if !exists {
		return nil, ErrModuleNotFound
	}

	quiz, err := s.store.InsertQuizOrFetch(ctx, moduleID, model.DefaultQuizTitle)
	if err != nil {
		return nil, fmt.Errorf("ensure quiz: %w", err)
	}
	return quiz, nil
}

// UpdateQuiz changes quiz settings.
func (s *QuizService) UpdateQuiz(ctx context.Context, quizID int64, patch model.QuizPatch) (*model.Quiz, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}

	quiz, err := s.store.UpdateQuiz(ctx, quizID, patch)
	if err != nil {
		return nil, mapNotFound(err, ErrQuizNotFound)
	}

	s.invalidate(ctx, quizID)
	return quiz, nil
}

// AddQuestion appends a question to a quiz. Points default to 1.
func (s *QuizService) AddQuestion(ctx context.Context, quizID int64, in NewQuestion) (*model.Question, error) {
	if !in.Type.Valid() {
		return nil, ErrInvalidQuestionType
	}
	points := 1
	if in.Points != nil {
		points = *in.Points
	}
	if points < 1 {
		return nil, fmt.Errorf("%w: points must be at least 1", ErrValidation)
	}

	question := &model.Question{QuizID: quizID, Type: in.Type, Text: in.Text, Points: points}
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		quiz, err := q.LockQuiz(ctx, quizID)
		if err != nil {
			return mapNotFound(err, ErrQuizNotFound)
		}
		if err := q.InsertQuestion(ctx, question); err != nil {
			return err
		}
		return guardPublished(ctx, q, quiz)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, quizID)
	return question, nil
}

// UpdateQuestion applies a partial update to a question.
func (s *QuizService) UpdateQuestion(ctx context.Context, questionID int64, patch model.QuestionPatch) (*model.Question, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, ErrInvalidQuestionType
	}
	if patch.Points != nil && *patch.Points < 1 {
		return nil, fmt.Errorf("%w: points must be at least 1", ErrValidation)
	}

	var updated *model.Question
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		quiz, _, err := lockQuestionScope(ctx, q, questionID)
		if err != nil {
			return err
		}
		if updated, err = q.UpdateQuestion(ctx, questionID, patch); err != nil {
			return mapNotFound(err, ErrQuestionNotFound)
		}
		return guardPublished(ctx, q, quiz)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, updated.QuizID)
	return updated, nil
}

// DeleteQuestion removes a question and renumbers the remaining ones.
func (s *QuizService) DeleteQuestion(ctx context.Context, questionID int64) error {
	var quizID int64
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		quiz, _, err := lockQuestionScope(ctx, q, questionID)
		if err != nil {
			return err
		}
		quizID = quiz.ID

		if err := q.DeleteQuestion(ctx, questionID); err != nil {
			return mapNotFound(err, ErrQuestionNotFound)
		}
		if err := s.ordering.closeQuestionGap(ctx, q, quiz.ID); err != nil {
			return err
		}
		return guardPublished(ctx, q, quiz)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, quizID)
	return nil
}

// AddOption appends an option to a question. IsCorrect defaults to false.
func (s *QuizService) AddOption(ctx context.Context, questionID int64, in NewOption) (*model.Option, error) {
	option := &model.Option{QuestionID: questionID, Text: in.Text}
	if in.IsCorrect != nil {
		option.IsCorrect = *in.IsCorrect
	}

	var quizID int64
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		quiz, _, err := lockQuestionScope(ctx, q, questionID)
		if err != nil {
			return err
		}
		quizID = quiz.ID

		if err := q.InsertOption(ctx, option); err != nil {
			return err
		}
		return guardPublished(ctx, q, quiz)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, quizID)
	return option, nil
}

// UpdateOption applies a partial update to an option.
func (s *QuizService) UpdateOption(ctx context.Context, optionID int64, patch model.OptionPatch) (*model.Option, error) {
	if patch.IsEmpty() {
		return nil, ErrNoFieldsToUpdate
	}

	var (
		updated *model.Option
		quizID  int64
	)
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		quiz, err := lockOptionScope(ctx, q, optionID)
		if err != nil {
			return err
		}
		quizID = quiz.ID

		if updated, err = q.UpdateOption(ctx, optionID, patch); err != nil {
			return mapNotFound(err, ErrOptionNotFound)
		}
		return guardPublished(ctx, q, quiz)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, quizID)
	return updated, nil
}

// DeleteOption removes an option and renumbers its siblings.
func (s *QuizService) DeleteOption(ctx context.Context, optionID int64) error {
	var quizID int64
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		option, err := q.GetOption(ctx, optionID)
		if err != nil {
			return mapNotFound(err, ErrOptionNotFound)
		}
		quiz, _, err := lockQuestionScope(ctx, q, option.QuestionID)
		if err != nil {
			return err
		}
		quizID = quiz.ID

		if err := q.DeleteOption(ctx, optionID); err != nil {
			return mapNotFound(err, ErrOptionNotFound)
		}
		if err := s.ordering.closeOptionGap(ctx, q, option.QuestionID); err != nil {
			return err
		}
		return guardPublished(ctx, q, quiz)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, quizID)
	return nil
}

// GetLearnerView returns the published quiz of a module without correctness
// flags. Draft quizzes are reported as not found.
func (s *QuizService) GetLearnerView(ctx context.Context, moduleID int64) (*model.QuizView, error) {
	quiz, err := s.PublishedQuizForModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	cached, err := s.cache.GetLearnerView(ctx, quiz.ID)
	if err != nil {
		s.log.Warn().Err(err).Int64("quiz_id", quiz.ID).Msg("Learner view cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	gen, genErr := s.cache.Generation(ctx, quiz.ID)
	if genErr != nil {
		s.log.Warn().Err(genErr).Int64("quiz_id", quiz.ID).Msg("Learner view generation read failed")
	}

	questions, err := s.store.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	view := model.NewQuizView(quiz, questions, false)

	if genErr == nil {
		s.fill(ctx, view, gen)
	}
	return view, nil
}

// GetStaffView returns the module's quiz with correctness flags, published or not.
func (s *QuizService) GetStaffView(ctx context.Context, moduleID int64) (*model.QuizView, error) {
	quiz, err := s.store.GetQuizByModule(ctx, moduleID)
	if err != nil {
		return nil, mapNotFound(err, ErrQuizNotFound)
	}

	questions, err := s.store.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return model.NewQuizView(quiz, questions, true), nil
}

// PublishedQuizForModule resolves a module to its quiz, hiding drafts.
func (s *QuizService) PublishedQuizForModule(ctx context.Context, moduleID int64) (*model.Quiz, error) {
	quiz, err := s.store.GetQuizByModule(ctx, moduleID)
	if err != nil {
		return nil, mapNotFound(err, ErrQuizNotFound)
	}
	if !quiz.IsPublished {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

// lockQuestionScope loads a question and locks its quiz, then the question,
// always in that order.
func lockQuestionScope(ctx context.Context, q repository.Queries, questionID int64) (*model.Quiz, *model.Question, error) {
	question, err := q.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, nil, mapNotFound(err, ErrQuestionNotFound)
	}
	quiz, err := q.LockQuiz(ctx, question.QuizID)
	if err != nil {
		return nil, nil, mapNotFound(err, ErrQuizNotFound)
	}
	if question, err = q.LockQuestion(ctx, questionID); err != nil {
		return nil, nil, mapNotFound(err, ErrQuestionNotFound)
	}
	return quiz, question, nil
}

func lockOptionScope(ctx context.Context, q repository.Queries, optionID int64) (*model.Quiz, error) {
	option, err := q.GetOption(ctx, optionID)
	if err != nil {
		return nil, mapNotFound(err, ErrOptionNotFound)
	}
	quiz, _, err := lockQuestionScope(ctx, q, option.QuestionID)
	return quiz, err
}

func (s *QuizService) fill(ctx context.Context, view *model.QuizView, gen int64) {
	if err := s.cache.SetLearnerView(ctx, view, gen); err != nil {
		s.log.Warn().Err(err).Int64("quiz_id", view.ID).Msg("Failed to cache learner view")
	}
}

func (s *QuizService) invalidate(ctx context.Context, quizID int64) {
	if err := s.cache.InvalidateLearnerView(ctx, quizID); err != nil {
		s.log.Warn().Err(err).Int64("quiz_id", quizID).Msg("Failed to invalidate learner view")
	}
}
