package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/repository"
)

const testModuleID int64 = 1

type testEnv struct {
	store    *repository.MemoryStore
	cache    *recordingCache
	events   *recordingPublisher
	ordering *OrderingService
	quizzes  *QuizService
	attempts *AttemptService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore(testModuleID)
	return newTestEnvWithStore(t, store, store)
}

// newTestEnvWithStore lets attempt tests swap the store the AttemptService sees.
func newTestEnvWithStore(t *testing.T, mem *repository.MemoryStore, attemptStore repository.Store) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	env := &testEnv{
		store:  mem,
		cache:  newRecordingCache(),
		events: &recordingPublisher{},
	}
	env.ordering = NewOrderingService(mem, env.cache, log)
	env.quizzes = NewQuizService(mem, env.ordering, env.cache, log)
	env.attempts = NewAttemptService(attemptStore, env.events, log)
	return env
}

// seededQuiz holds the ids created by seedQuiz in creation order.
type seededQuiz struct {
	quiz      *model.Quiz
	questions []int64
	// correct[i] is the correct option of questions[i]; wrong[i] the other one.
	correct []int64
	wrong   []int64
}

// seedQuiz creates a quiz with n SINGLE questions of one point each, every
// question carrying one correct and one wrong option.
func (env *testEnv) seedQuiz(t *testing.T, n int) *seededQuiz {
	t.Helper()
	ctx := context.Background()

	quiz, err := env.quizzes.EnsureQuiz(ctx, testModuleID)
	require.NoError(t, err)

	sq := &seededQuiz{quiz: quiz}
	for i := 0; i < n; i++ {
		q, err := env.quizzes.AddQuestion(ctx, quiz.ID, NewQuestion{Type: model.QuestionTypeSingle, Text: "question"})
		require.NoError(t, err)
		right, err := env.quizzes.AddOption(ctx, q.ID, NewOption{Text: "right", IsCorrect: boolPtr(true)})
		require.NoError(t, err)
		wrong, err := env.quizzes.AddOption(ctx, q.ID, NewOption{Text: "wrong"})
		require.NoError(t, err)

		sq.questions = append(sq.questions, q.ID)
		sq.correct = append(sq.correct, right.ID)
		sq.wrong = append(sq.wrong, wrong.ID)
	}
	return sq
}

func (env *testEnv) publish(t *testing.T, quizID int64) {
	t.Helper()
	_, err := env.quizzes.SetPublished(context.Background(), quizID, true)
	require.NoError(t, err)
}

func (sq *seededQuiz) allCorrect() []model.AnswerInput {
	answers := make([]model.AnswerInput, 0, len(sq.questions))
	for i, id := range sq.questions {
		answers = append(answers, model.AnswerInput{QuestionID: id, SelectedOptionIDs: []int64{sq.correct[i]}})
	}
	return answers
}

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

// recordingCache is an in-memory QuizViewCache.
type recordingCache struct {
	mu          sync.Mutex
	views       map[int64]*model.QuizView
	gens        map[int64]int64
	invalidated []int64
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		views: make(map[int64]*model.QuizView),
		gens:  make(map[int64]int64),
	}
}

func (c *recordingCache) GetLearnerView(_ context.Context, quizID int64) (*model.QuizView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.views[quizID], nil
}

func (c *recordingCache) Generation(_ context.Context, quizID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[quizID], nil
}

func (c *recordingCache) SetLearnerView(_ context.Context, view *model.QuizView, gen int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[view.ID] != gen {
		return nil
	}
	c.views[view.ID] = view
	return nil
}

func (c *recordingCache) InvalidateLearnerView(_ context.Context, quizID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.views, quizID)
	c.gens[quizID]++
	c.invalidated = append(c.invalidated, quizID)
	return nil
}

func (c *recordingCache) cached(quizID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.views[quizID]
	return ok
}

// recordingPublisher collects attempt events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AttemptEvent
}

func (p *recordingPublisher) PublishAttemptEvent(_ context.Context, ev model.AttemptEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []model.AttemptEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.AttemptEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}
