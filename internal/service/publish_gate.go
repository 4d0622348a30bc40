package service

import (
	"context"
	"fmt"

	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/repository"
)

// CheckPublishable returns a *PublishError for the first question, in rank
// order, that violates the publishing rules, or nil when the quiz can go live.
func CheckPublishable(questions []model.Question) error {
	if len(questions) == 0 {
		return &PublishError{Reason: "quiz has no questions"}
	}

	for _, qu := range questions {
		correct := 0
		for _, o := range qu.Options {
			if o.IsCorrect {
				correct++
			}
		}

		switch {
		case len(qu.Options) < 2:
			return &PublishError{Rank: qu.Rank, Reason: "must have at least 2 options"}
		case qu.Type == model.QuestionTypeSingle && correct != 1:
			return &PublishError{Rank: qu.Rank, Reason: "SINGLE must have exactly 1 correct option"}
		case qu.Type == model.QuestionTypeMulti && correct < 1:
			return &PublishError{Rank: qu.Rank, Reason: "MULTI must have at least 1 correct option"}
		}
	}
	return nil
}

const publishedEditHint = "quiz must be unpublished to make this edit"

// SetPublished publishes or unpublishes a quiz. Unpublishing always succeeds;
// publishing runs CheckPublishable against the current questions first.
func (s *QuizService) SetPublished(ctx context.Context, quizID int64, publish bool) (*model.Quiz, error) {
	var (
		quiz *model.Quiz
		view *model.QuizView
	)
	gen, genErr := s.cache.Generation(ctx, quizID)
	if genErr != nil {
		s.log.Warn().Err(genErr).Int64("quiz_id", quizID).Msg("Learner view generation read failed")
	}

	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		if _, err := q.LockQuiz(ctx, quizID); err != nil {
			return mapNotFound(err, ErrQuizNotFound)
		}

		var questions []model.Question
		if publish {
			var err error
			questions, err = q.ListQuestions(ctx, quizID)
			if err != nil {
				return fmt.Errorf("list questions: %w", err)
			}
			if err := CheckPublishable(questions); err != nil {
				return err
			}
		}

		updated, err := q.SetQuizPublished(ctx, quizID, publish)
		if err != nil {
			return fmt.Errorf("set published: %w", err)
		}
		quiz = updated
		if publish {
			view = model.NewQuizView(updated, questions, false)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if publish {
		if genErr == nil {
			s.fill(ctx, view, gen)
		}
	} else {
		s.invalidate(ctx, quizID)
	}

	s.log.Info().Int64("quiz_id", quizID).Bool("published", publish).Msg("Quiz publication changed")
	return quiz, nil
}

// guardPublished re-runs the publishing rules after an authoring change to a
// published quiz, so a live quiz never holds an unanswerable question. Edits
// that need an intermediate invalid state, such as adding a question or
// moving a SINGLE question's correct flag, require unpublishing first.
func guardPublished(ctx context.Context, q repository.Queries, quiz *model.Quiz) error {
	if !quiz.IsPublished {
		return nil
	}
	questions, err := q.ListQuestions(ctx, quiz.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if err := CheckPublishable(questions); err != nil {
		return fmt.Errorf("%s: %w", publishedEditHint, err)
	}
	return nil
}
