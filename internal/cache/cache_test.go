package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhakasov-bm/lms-backend/internal/model"
)

// testRedis connects to TEST_REDIS_URL and skips the test when it is unset.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return rdb
}

func TestQuizViewCache(t *testing.T) {
	ctx := context.Background()
	c := NewQuizViewCache(testRedis(t), time.Minute)
	const quizID = 987654

	require.NoError(t, c.InvalidateLearnerView(ctx, quizID))
	miss, err := c.GetLearnerView(ctx, quizID)
	require.NoError(t, err)
	assert.Nil(t, miss)

	view := &model.QuizView{ID: quizID, ModuleID: 1, Title: "Quiz", IsPublished: true, Questions: []model.QuestionView{}}
	gen, err := c.Generation(ctx, quizID)
	require.NoError(t, err)
	require.NoError(t, c.SetLearnerView(ctx, view, gen))

	hit, err := c.GetLearnerView(ctx, quizID)
	require.NoError(t, err)
	assert.Equal(t, view, hit)

	require.NoError(t, c.InvalidateLearnerView(ctx, quizID))
	miss, err = c.GetLearnerView(ctx, quizID)
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestQuizViewCache_StaleFillDropped(t *testing.T) {
	ctx := context.Background()
	c := NewQuizViewCache(testRedis(t), time.Minute)
	const quizID = 987656

	gen, err := c.Generation(ctx, quizID)
	require.NoError(t, err)
	require.NoError(t, c.InvalidateLearnerView(ctx, quizID))

	view := &model.QuizView{ID: quizID, ModuleID: 1, Title: "Quiz", IsPublished: true, Questions: []model.QuestionView{}}
	require.NoError(t, c.SetLearnerView(ctx, view, gen))

	miss, err := c.GetLearnerView(ctx, quizID)
	require.NoError(t, err)
	assert.Nil(t, miss, "fill taken before the invalidation is discarded")

	gen, err = c.Generation(ctx, quizID)
	require.NoError(t, err)
	require.NoError(t, c.SetLearnerView(ctx, view, gen))
	hit, err := c.GetLearnerView(ctx, quizID)
	require.NoError(t, err)
	assert.NotNil(t, hit)
}

func TestAttemptFeed(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	feed := NewAttemptFeed(testRedis(t))
	const quizID = 987655

	sub, err := feed.SubscribeConfirmed(ctx, quizID)
	require.NoError(t, err)
	defer sub.Close()

	ev := model.AttemptEvent{Type: model.AttemptEventSubmitted, QuizID: quizID, AttemptID: 1, UserID: 2, Score: 3, MaxScore: 3}
	require.NoError(t, feed.PublishAttemptEvent(ctx, ev))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	var got model.AttemptEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, ev.Type, got.Type)
	assert.Equal(t, ev.AttemptID, got.AttemptID)
	assert.Equal(t, 3, got.Score)
}
