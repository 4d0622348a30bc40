package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/zhakasov-bm/lms-backend/internal/config"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

// AttemptFeed fans attempt lifecycle events out over Redis pub/sub, one
// channel per quiz, so every server instance can serve monitors.
type AttemptFeed struct {
	rdb *redis.Client
}

// NewAttemptFeed creates a new AttemptFeed.
func NewAttemptFeed(rdb *redis.Client) *AttemptFeed {
	return &AttemptFeed{rdb: rdb}
}

// PublishAttemptEvent sends ev to the quiz's monitor channel.
func (f *AttemptFeed) PublishAttemptEvent(ctx context.Context, ev model.AttemptEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode attempt event: %w", err)
	}
	return f.rdb.Publish(ctx, config.CacheKey.QuizMonitorChannel(ev.QuizID), data).Err()
}

// Subscribe opens a subscription to a quiz's monitor channel. The caller closes it.
func (f *AttemptFeed) Subscribe(ctx context.Context, quizID int64) *redis.PubSub {
	return f.rdb.Subscribe(ctx, config.CacheKey.QuizMonitorChannel(quizID))
}

// SubscribeConfirmed subscribes and waits for Redis to acknowledge the
// subscription, so every event published after it returns is delivered.
func (f *AttemptFeed) SubscribeConfirmed(ctx context.Context, quizID int64) (*redis.PubSub, error) {
	pubsub := f.Subscribe(ctx, quizID)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe attempt feed: %w", err)
	}
	return pubsub, nil
}
