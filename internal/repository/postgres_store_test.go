package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zhakasov-bm/lms-backend/internal/database"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/migrations"
)

// newTestPostgresStore migrates TEST_DATABASE_URL and returns a store with a
// fresh course module. The test is skipped when the variable is unset.
func newTestPostgresStore(t *testing.T) (*PostgresStore, int64) {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	require.NoError(t, database.MigrateUp(migrations.FS, url, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	var moduleID int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO course_modules (title) VALUES ($1) RETURNING id`, t.Name(),
	).Scan(&moduleID))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM course_modules WHERE id = $1`, moduleID)
	})

	return NewPostgresStore(pool), moduleID
}

func TestPostgresStore_QuizAndRanks(t *testing.T) {
	ctx := context.Background()
	s, moduleID := newTestPostgresStore(t)

	ok, err := s.ModuleExists(ctx, moduleID)
	require.NoError(t, err)
	assert.True(t, ok)

	quiz, err := s.InsertQuizOrFetch(ctx, moduleID, model.DefaultQuizTitle)
	require.NoError(t, err)
	again, err := s.InsertQuizOrFetch(ctx, moduleID, "other")
	require.NoError(t, err)
	assert.Equal(t, quiz.ID, again.ID)

	var ids []int64
	for i := 0; i < 3; i++ {
		q := &model.Question{QuizID: quiz.ID, Type: model.QuestionTypeSingle, Text: "q", Points: 1}
		require.NoError(t, s.InsertQuestion(ctx, q))
		assert.Equal(t, i+1, q.Rank)
		ids = append(ids, q.ID)
	}

	// Swapping ranks relies on the deferred unique constraint.
	err = s.Transaction(ctx, func(q Queries) error {
		return q.SetQuestionRanks(ctx, quiz.ID, []model.RankItem{
			{ID: ids[0], Rank: 3}, {ID: ids[1], Rank: 2}, {ID: ids[2], Rank: 1},
		})
	})
	require.NoError(t, err)

	got, err := s.ListQuestionIDs(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, got)

	require.NoError(t, s.Transaction(ctx, func(q Queries) error {
		if err := q.DeleteQuestion(ctx, ids[1]); err != nil {
			return err
		}
		return q.RenumberQuestions(ctx, quiz.ID)
	}))

	questions, err := s.ListQuestions(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, 1, questions[0].Rank)
	assert.Equal(t, 2, questions[1].Rank)

	_, err = s.GetQuestion(ctx, ids[1])
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_Attempts(t *testing.T) {
	ctx := context.Background()
	s, moduleID := newTestPostgresStore(t)

	quiz, err := s.InsertQuizOrFetch(ctx, moduleID, model.DefaultQuizTitle)
	require.NoError(t, err)
	q := &model.Question{QuizID: quiz.ID, Type: model.QuestionTypeMulti, Text: "q", Points: 2}
	require.NoError(t, s.InsertQuestion(ctx, q))
	a := &model.Option{QuestionID: q.ID, Text: "a", IsCorrect: true}
	b := &model.Option{QuestionID: q.ID, Text: "b", IsCorrect: true}
	require.NoError(t, s.InsertOption(ctx, a))
	require.NoError(t, s.InsertOption(ctx, b))

	now := time.Now().UTC()
	attempt, err := s.InsertAttempt(ctx, quiz.ID, 42, now)
	require.NoError(t, err)
	_, err = s.InsertAttempt(ctx, quiz.ID, 42, now)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, s.Transaction(ctx, func(tx Queries) error {
		locked, err := tx.LockAttempt(ctx, attempt.ID)
		if err != nil {
			return err
		}
		if _, err := tx.InsertAnswer(ctx, locked.ID, q.ID, []int64{b.ID, a.ID}); err != nil {
			return err
		}
		_, err = tx.CompleteAttempt(ctx, locked.ID, 2, 2, now)
		return err
	}))

	answers, err := s.ListAnswers(ctx, attempt.ID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, answers[0].OptionIDs)

	best, err := s.MaxSubmittedScore(ctx, quiz.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, best)

	list, total, err := s.ListAttempts(ctx, quiz.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, model.AttemptStatusSubmitted, list[0].Status)
}
