package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/repository"
)

func TestEnsureQuiz(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.quizzes.EnsureQuiz(ctx, 404)
	assert.ErrorIs(t, err, ErrModuleNotFound)

	first, err := env.quizzes.EnsureQuiz(ctx, testModuleID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultQuizTitle, first.Title)
	assert.False(t, first.IsPublished)

	second, err := env.quizzes.EnsureQuiz(ctx, testModuleID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpdateQuiz(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quiz, err := env.quizzes.EnsureQuiz(ctx, testModuleID)
	require.NoError(t, err)

	_, err = env.quizzes.UpdateQuiz(ctx, quiz.ID, model.QuizPatch{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	updated, err := env.quizzes.UpdateQuiz(ctx, quiz.ID, model.QuizPatch{Title: strPtr("Week 1"), PassingScore: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, "Week 1", updated.Title)
	require.NotNil(t, updated.PassingScore)
	assert.Equal(t, 2, *updated.PassingScore)
	assert.Nil(t, updated.TimeLimitSec)

	_, err = env.quizzes.UpdateQuiz(ctx, 404, model.QuizPatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestAddQuestion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	quiz, err := env.quizzes.EnsureQuiz(ctx, testModuleID)
	require.NoError(t, err)

	first, err := env.quizzes.AddQuestion(ctx, quiz.ID, NewQuestion{Type: model.QuestionTypeSingle, Text: "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 1, first.Points, "points default to 1")

	second, err := env.quizzes.AddQuestion(ctx, quiz.ID, NewQuestion{Type: model.QuestionTypeMulti, Text: "b", Points: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, 5, second.Points)

	_, err = env.quizzes.AddQuestion(ctx, quiz.ID, NewQuestion{Type: "ESSAY", Text: "c"})
	assert.ErrorIs(t, err, ErrInvalidQuestionType)

	_, err = env.quizzes.AddQuestion(ctx, quiz.ID, NewQuestion{Type: model.QuestionTypeSingle, Text: "c", Points: intPtr(0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.quizzes.AddQuestion(ctx, 404, NewQuestion{Type: model.QuestionTypeSingle, Text: "c"})
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestUpdateQuestion(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 1)

	_, err := env.quizzes.UpdateQuestion(ctx, sq.questions[0], model.QuestionPatch{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	multi := model.QuestionTypeMulti
	updated, err := env.quizzes.UpdateQuestion(ctx, sq.questions[0], model.QuestionPatch{Type: &multi, Points: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, model.QuestionTypeMulti, updated.Type)
	assert.Equal(t, 3, updated.Points)
	assert.Equal(t, "question", updated.Text)

	_, err = env.quizzes.UpdateQuestion(ctx, 404, model.QuestionPatch{Text: strPtr("x")})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestDeleteQuestion_RenumbersSiblings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 3)

	require.NoError(t, env.quizzes.DeleteQuestion(ctx, sq.questions[0]))

	questions, err := env.store.ListQuestions(ctx, sq.quiz.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, sq.questions[1], questions[0].ID)
	assert.Equal(t, 1, questions[0].Rank)
	assert.Equal(t, 2, questions[1].Rank)

	_, err = env.store.GetOption(ctx, sq.correct[0])
	assert.Error(t, err, "options go with their question")

	assert.ErrorIs(t, env.quizzes.DeleteQuestion(ctx, sq.questions[0]), ErrQuestionNotFound)
}

func TestOptions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 1)

	third, err := env.quizzes.AddOption(ctx, sq.questions[0], NewOption{Text: "third"})
	require.NoError(t, err)
	assert.Equal(t, 3, third.Rank)
	assert.False(t, third.IsCorrect, "isCorrect defaults to false")

	_, err = env.quizzes.UpdateOption(ctx, third.ID, model.OptionPatch{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	updated, err := env.quizzes.UpdateOption(ctx, third.ID, model.OptionPatch{Text: strPtr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Text)

	require.NoError(t, env.quizzes.DeleteOption(ctx, sq.correct[0]))
	ids, err := env.store.ListOptionIDs(ctx, sq.questions[0])
	require.NoError(t, err)
	assert.Equal(t, []int64{sq.wrong[0], third.ID}, ids)

	view, err := env.quizzes.GetStaffView(ctx, testModuleID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Questions[0].Options[0].Rank)
	assert.Equal(t, 2, view.Questions[0].Options[1].Rank)

	_, err = env.quizzes.AddOption(ctx, 404, NewOption{Text: "x"})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	assert.ErrorIs(t, env.quizzes.DeleteOption(ctx, 404), ErrOptionNotFound)
}

func TestViews(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 2)

	_, err := env.quizzes.GetLearnerView(ctx, testModuleID)
	assert.ErrorIs(t, err, ErrQuizNotFound, "drafts are hidden from learners")

	staff, err := env.quizzes.GetStaffView(ctx, testModuleID)
	require.NoError(t, err)
	require.NotNil(t, staff.Questions[0].Options[0].IsCorrect)
	assert.True(t, *staff.Questions[0].Options[0].IsCorrect)

	env.publish(t, sq.quiz.ID)

	learner, err := env.quizzes.GetLearnerView(ctx, testModuleID)
	require.NoError(t, err)
	require.Len(t, learner.Questions, 2)
	for _, q := range learner.Questions {
		for _, o := range q.Options {
			assert.Nil(t, o.IsCorrect)
		}
	}

	_, err = env.quizzes.GetStaffView(ctx, 404)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestLearnerView_CacheRefreshedAfterEdit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 1)
	env.publish(t, sq.quiz.ID)
	require.True(t, env.cache.cached(sq.quiz.ID))

	_, err := env.quizzes.UpdateQuestion(ctx, sq.questions[0], model.QuestionPatch{Text: strPtr("edited")})
	require.NoError(t, err)
	assert.False(t, env.cache.cached(sq.quiz.ID))

	view, err := env.quizzes.GetLearnerView(ctx, testModuleID)
	require.NoError(t, err)
	assert.Equal(t, "edited", view.Questions[0].Text)
	assert.True(t, env.cache.cached(sq.quiz.ID), "read fills the cache")
}

// editingStore runs edit once, right after the first ListQuestions has read
// its rows, to land an authoring change between the read and the cache fill.
type editingStore struct {
	repository.Store
	edit func()
	done bool
}

func (s *editingStore) ListQuestions(ctx context.Context, quizID int64) ([]model.Question, error) {
	questions, err := s.Store.ListQuestions(ctx, quizID)
	if err == nil && !s.done {
		s.done = true
		s.edit()
	}
	return questions, err
}

func TestLearnerView_StaleFillDiscarded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sq := env.seedQuiz(t, 1)
	env.publish(t, sq.quiz.ID)
	require.NoError(t, env.cache.InvalidateLearnerView(ctx, sq.quiz.ID))

	store := &editingStore{Store: env.store, edit: func() {
		_, err := env.quizzes.UpdateQuestion(ctx, sq.questions[0], model.QuestionPatch{Text: strPtr("edited")})
		require.NoError(t, err)
	}}
	reader := NewQuizService(store, env.ordering, env.cache, zerolog.Nop())

	stale, err := reader.GetLearnerView(ctx, testModuleID)
	require.NoError(t, err)
	assert.NotEqual(t, "edited", stale.Questions[0].Text)
	assert.False(t, env.cache.cached(sq.quiz.ID), "view read before the edit is not cached")

	fresh, err := reader.GetLearnerView(ctx, testModuleID)
	require.NoError(t, err)
	assert.Equal(t, "edited", fresh.Questions[0].Text)
	assert.True(t, env.cache.cached(sq.quiz.ID))
}
