package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/repository"
)

// ValidateRanks checks that items map exactly the sibling id set onto the
// ranks 1..N, N being the number of siblings.
func ValidateRanks(siblingIDs []int64, items []model.RankItem) error {
	n := len(siblingIDs)
	if len(items) != n {
		return fmt.Errorf("%w: expected %d items, got %d", ErrInvalidReorder, n, len(items))
	}

	siblings := make(map[int64]struct{}, n)
	for _, id := range siblingIDs {
		siblings[id] = struct{}{}
	}

	seenIDs := make(map[int64]struct{}, n)
	seenRanks := make(map[int]struct{}, n)
	for _, it := range items {
		if _, ok := siblings[it.ID]; !ok {
			return fmt.Errorf("%w: id %d does not belong to this set", ErrInvalidReorder, it.ID)
		}
		if _, dup := seenIDs[it.ID]; dup {
			return fmt.Errorf("%w: id %d appears more than once", ErrInvalidReorder, it.ID)
		}
		if it.Rank < 1 || it.Rank > n {
			return fmt.Errorf("%w: rank %d is outside 1..%d", ErrInvalidReorder, it.Rank, n)
		}
		if _, dup := seenRanks[it.Rank]; dup {
			return fmt.Errorf("%w: rank %d appears more than once", ErrInvalidReorder, it.Rank)
		}
		seenIDs[it.ID] = struct{}{}
		seenRanks[it.Rank] = struct{}{}
	}
	return nil
}

// SortByRank returns a copy of items ordered by rank.
func SortByRank(items []model.RankItem) []model.RankItem {
	out := make([]model.RankItem, len(items))
	copy(out, items)
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// OrderingService keeps question and option ranks dense.
type OrderingService struct {
	store repository.Store
	cache QuizViewCache
	log   zerolog.Logger
}

// NewOrderingService creates a new OrderingService. cache may be nil.
func NewOrderingService(store repository.Store, cache QuizViewCache, log zerolog.Logger) *OrderingService {
	if cache == nil {
		cache = nopViewCache{}
	}
	return &OrderingService{
		store: store,
		cache: cache,
		log:   log.With().Str("component", "ordering_service").Logger(),
	}
}

// ReorderQuestions assigns new ranks to every question of a quiz at once.
func (s *OrderingService) ReorderQuestions(ctx context.Context, quizID int64, items []model.RankItem) error {
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		if _, err := q.LockQuiz(ctx, quizID); err != nil {
			return mapNotFound(err, ErrQuizNotFound)
		}
		ids, err := q.ListQuestionIDs(ctx, quizID)
		if err != nil {
			return fmt.Errorf("list question ids: %w", err)
		}
		if err := ValidateRanks(ids, items); err != nil {
			return err
		}
		return q.SetQuestionRanks(ctx, quizID, items)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, quizID)
	return nil
}

// ReorderOptions assigns new ranks to every option of a question at once.
func (s *OrderingService) ReorderOptions(ctx context.Context, questionID int64, items []model.RankItem) error {
	var quizID int64
	err := s.store.Transaction(ctx, func(q repository.Queries) error {
		question, err := q.LockQuestion(ctx, questionID)
		if err != nil {
			return mapNotFound(err, ErrQuestionNotFound)
		}
		quizID = question.QuizID

		ids, err := q.ListOptionIDs(ctx, questionID)
		if err != nil {
			return fmt.Errorf("list option ids: %w", err)
		}
		if err := ValidateRanks(ids, items); err != nil {
			return err
		}
		return q.SetOptionRanks(ctx, questionID, items)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, quizID)
	return nil
}

// closeQuestionGap renumbers a quiz's questions after a delete, inside the caller's transaction.
func (s *OrderingService) closeQuestionGap(ctx context.Context, q repository.Queries, quizID int64) error {
	if err := q.RenumberQuestions(ctx, quizID); err != nil {
		return fmt.Errorf("close question rank gap: %w", err)
	}
	return nil
}

// closeOptionGap renumbers a question's options after a delete.
func (s *OrderingService) closeOptionGap(ctx context.Context, q repository.Queries, questionID int64) error {
	if err := q.RenumberOptions(ctx, questionID); err != nil {
		return fmt.Errorf("close option rank gap: %w", err)
	}
	return nil
}

func (s *OrderingService) invalidate(ctx context.Context, quizID int64) {
	if err := s.cache.InvalidateLearnerView(ctx, quizID); err != nil {
		s.log.Warn().Err(err).Int64("quiz_id", quizID).Msg("Failed to invalidate learner view")
	}
}
