package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zhakasov-bm/lms-backend/internal/config"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

var errStaleView = errors.New("learner view generation changed")

// QuizViewCache keeps the learner view of published quizzes in Redis.
type QuizViewCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuizViewCache creates a new QuizViewCache.
func NewQuizViewCache(rdb *redis.Client, ttl time.Duration) *QuizViewCache {
	return &QuizViewCache{rdb: rdb, ttl: ttl}
}

// GetLearnerView returns the cached view, or nil on a cache miss.
func (c *QuizViewCache) GetLearnerView(ctx context.Context, quizID int64) (*model.QuizView, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.QuizLearnerViewKey(quizID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get learner view: %w", err)
	}

	var view model.QuizView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("decode learner view: %w", err)
	}
	return &view, nil
}

// Generation returns the invalidation counter of a quiz's view. Read it
// before loading the view from the database and hand it to SetLearnerView.
func (c *QuizViewCache) Generation(ctx context.Context, quizID int64) (int64, error) {
	gen, err := c.rdb.Get(ctx, config.CacheKey.QuizLearnerViewGenKey(quizID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get view generation: %w", err)
	}
	return gen, nil
}

// SetLearnerView stores a view until the TTL expires or it is invalidated.
// The write is dropped when the quiz was invalidated after gen was read, so a
// view loaded before a concurrent edit never outlives that edit.
func (c *QuizViewCache) SetLearnerView(ctx context.Context, view *model.QuizView, gen int64) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode learner view: %w", err)
	}
	genKey := config.CacheKey.QuizLearnerViewGenKey(view.ID)

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleView
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, config.CacheKey.QuizLearnerViewKey(view.ID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil, errors.Is(err, errStaleView), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("set learner view: %w", err)
	}
}

// InvalidateLearnerView drops the cached view of a quiz and bumps its
// generation so in-flight fills are discarded.
func (c *QuizViewCache) InvalidateLearnerView(ctx context.Context, quizID int64) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, config.CacheKey.QuizLearnerViewGenKey(quizID))
		pipe.Del(ctx, config.CacheKey.QuizLearnerViewKey(quizID))
		return nil
	})
	return err
}
